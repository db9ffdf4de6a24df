package whttp

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// Query parameters providers use for credentials. They never reach the logs.
var secretParams = []string{"key", "api_key", "apikey", "access_key", "token"}

type LoggingRoundTripper struct {
	Proxied http.RoundTripper
	MaxBody int
}

func (lrt LoggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	t0 := time.Now()

	res, err := lrt.Proxied.RoundTrip(req)
	if err != nil {
		slog.ErrorContext(ctx, "outbound request failed",
			"method", req.Method,
			"url", RedactURL(req.URL),
			"duration_ms", time.Since(t0).Milliseconds(),
			"error", err.Error())
		return res, err
	}

	b := bytes.NewBuffer(make([]byte, 0))
	reader := io.TeeReader(res.Body, b)

	body, _ := io.ReadAll(reader)
	defer res.Body.Close()

	res.Body = io.NopCloser(b)

	if lrt.MaxBody > 0 && len(body) > lrt.MaxBody {
		body = body[:lrt.MaxBody]
	}

	slog.InfoContext(ctx, "outbound request",
		"method", req.Method,
		"url", RedactURL(req.URL),
		"status", res.StatusCode,
		"duration_ms", time.Since(t0).Milliseconds(),
		"body", string(body))

	return res, nil
}

// NewLoggingClient logs every request and at most the first 2KiB of each
// response body.
func NewLoggingClient() *http.Client {
	return &http.Client{
		Transport: LoggingRoundTripper{Proxied: http.DefaultTransport, MaxBody: 2048},
		Timeout:   10 * time.Second,
	}
}

func RedactURL(u *url.URL) string {
	if u == nil {
		return ""
	}

	redacted := *u
	q := redacted.Query()
	for _, k := range secretParams {
		if q.Has(k) {
			q.Set(k, "*****")
		}
	}

	redacted.RawQuery = q.Encode()
	return redacted.String()
}
