package api

import (
	"log/slog"
	"net/http"
	"time"
)

// transport attaches the bearer token to every outgoing request and
// logs request timing. The token is read per request so a login during
// the process lifetime takes effect immediately.
type transport struct {
	tokens TokenSource
	next   http.RoundTripper
}

func newTransport(tokens TokenSource) http.RoundTripper {
	return &transport{tokens: tokens, next: http.DefaultTransport}
}

func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if tok := t.tokens.Token(); tok != "" {
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	start := time.Now()
	resp, err := t.next.RoundTrip(req)
	if err != nil {
		slog.Debug("api request failed",
			"method", req.Method,
			"path", req.URL.Path,
			"duration", time.Since(start),
			"error", err,
		)
		return nil, err
	}

	slog.Debug("api request",
		"method", req.Method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)
	return resp, nil
}
