package runner

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/google/shlex"
	"github.com/pkg/errors"
)

// httpFetcher is the production pipeline.Fetcher: a plain net/http client
// bounded by a per-request timeout and a maximum response size, so a LOAD
// against a slow or oversized endpoint fails the statement instead of
// hanging the Runner or exhausting memory.
type httpFetcher struct {
	client           *http.Client
	maxResponseBytes int64
}

func newHTTPFetcher(maxResponseBytes int64) *httpFetcher {
	return &httpFetcher{client: &http.Client{}, maxResponseBytes: maxResponseBytes}
}

func (f *httpFetcher) Fetch(ctx context.Context, url string, post bool, body string, headers map[string]string) (int, string, []byte, error) {
	method := http.MethodGet
	var reqBody io.Reader
	if post {
		method = http.MethodPost
		reqBody = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return 0, "", nil, errors.Wrapf(err, "building request for %s %s", method, summarizeBody(body))
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return 0, "", nil, errors.Wrapf(err, "fetching %s", url)
	}
	defer resp.Body.Close()

	limited := io.LimitReader(resp.Body, f.maxResponseBytes+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return 0, "", nil, errors.Wrapf(err, "reading response from %s", url)
	}
	if int64(len(data)) > f.maxResponseBytes {
		return 0, "", nil, errors.Errorf("response from %s exceeds max_response_bytes (%d)", url, f.maxResponseBytes)
	}
	return resp.StatusCode, resp.Header.Get("Content-Type"), data, nil
}

// summarizeBody renders a short, shell-token-aware preview of a POST body
// or HEADERS literal for diagnostics: shlex.Split tokenizes the raw source
// text the way a shell would, so quoted values collapse to single tokens
// instead of fragmenting the preview at every embedded space.
func summarizeBody(raw string) string {
	tokens, err := shlex.Split(raw)
	if err != nil || len(tokens) == 0 {
		return truncate(raw, 80)
	}
	preview := strings.Join(tokens, " ")
	return truncate(preview, 80)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
