package runner

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/studiowebux/loadgrid/internal/config"
)

// drainLimit caps how much of a response body is read before the
// connection is released. Bodies past this size cost more to drain
// than a fresh connection does.
const drainLimit = 1 << 20

// newRequest builds one HTTP request from the run configuration
func newRequest(ctx context.Context, cfg *config.Config) (*http.Request, error) {
	var body io.Reader
	if cfg.Body != "" {
		body = strings.NewReader(cfg.Body)
	}

	req, err := http.NewRequestWithContext(ctx, cfg.Method, cfg.Target, body)
	if err != nil {
		return nil, err
	}

	for key, value := range cfg.Headers {
		req.Header.Set(key, value)
	}

	return req, nil
}

// drain discards the response body up to drainLimit
func drain(resp *http.Response) {
	io.Copy(io.Discard, io.LimitReader(resp.Body, drainLimit))
}
