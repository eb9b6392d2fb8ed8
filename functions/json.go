package functions

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/flowquery/flowquery/value"
)

// decodeJSON parses s as a single JSON document into a value.Value, used by
// tojson() and by Load's JSON response handling.
func decodeJSON(s string) (value.Value, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return value.Null(), errors.Wrap(err, "tojson() could not parse input")
	}
	return value.FromJSON(out), nil
}
