package ast

import "sync"

// Node pools for the expression kinds the parser allocates most often,
// following the same per-type sync.Pool layout the tokenizer this module
// grew out of uses for its own hot nodes (ColName, BinaryExpr, ...).

var (
	binaryExprPool = sync.Pool{New: func() any { return &BinaryExpr{} }}
	referencePool  = sync.Pool{New: func() any { return &Reference{} }}
	exprSlicePool  = sync.Pool{New: func() any { s := make([]Expr, 0, 4); return &s }}
)

// GetBinaryExpr returns a zeroed BinaryExpr from the pool.
func GetBinaryExpr() *BinaryExpr { return binaryExprPool.Get().(*BinaryExpr) }

// ReleaseBinaryExpr resets e and returns it to the pool. Callers must not
// retain e, or anything that embeds it, after calling this.
func ReleaseBinaryExpr(e *BinaryExpr) {
	*e = BinaryExpr{}
	binaryExprPool.Put(e)
}

// GetReference returns a zeroed Reference from the pool.
func GetReference() *Reference { return referencePool.Get().(*Reference) }

// ReleaseReference resets r and returns it to the pool.
func ReleaseReference(r *Reference) {
	*r = Reference{}
	referencePool.Put(r)
}

// GetExprSlice returns an []Expr from the pool, truncated to length 0.
func GetExprSlice() *[]Expr { return exprSlicePool.Get().(*[]Expr) }

// ReleaseExprSlice truncates s to length 0 and returns it to the pool.
func ReleaseExprSlice(s *[]Expr) {
	*s = (*s)[:0]
	exprSlicePool.Put(s)
}
