package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"
)

// Result is the uniform outcome of one upstream call. A network failure
// or timeout yields OK=false, Status=0 and the error message in Text.
// The body is always read fully as text; JSON is nil when the body does
// not parse, but Text is still preserved.
type Result struct {
	OK     bool
	Status int
	JSON   map[string]any
	Text   string
}

// Client wraps http.Client with a hard per-call timeout and the
// read-text-then-parse behavior every adapter relies on.
type Client struct {
	hc *http.Client
}

// New returns a client whose calls are bounded by timeout. A zero
// timeout falls back to 10 seconds.
func New(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{hc: &http.Client{Timeout: timeout}}
}

// Underlying exposes the wrapped http.Client for libraries that need
// one directly, such as the oauth2 token source.
func (c *Client) Underlying() *http.Client {
	return c.hc
}

// Call performs one HTTP request and never returns an error: failures
// are folded into the Result. No retries happen at this layer.
func (c *Client) Call(ctx context.Context, method, url string, headers map[string]string, body []byte) Result {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return Result{Text: err.Error()}
	}
	req.Header.Set("Accept", "application/json")
	for name, value := range headers {
		req.Header.Set(name, value)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return Result{Text: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{Status: resp.StatusCode, Text: err.Error()}
	}

	res := Result{
		OK:     resp.StatusCode >= 200 && resp.StatusCode < 300,
		Status: resp.StatusCode,
		Text:   string(raw),
	}
	var parsed map[string]any
	if json.Unmarshal(raw, &parsed) == nil {
		res.JSON = parsed
	}
	return res
}
