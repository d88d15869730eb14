// Package httpprobe checks a service's health endpoint over HTTP.
package httpprobe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// maxDrain bounds how much of a response body is read before closing, so the
// connection can be reused without trusting the server's body size.
const maxDrain = 4 << 10

// ErrUnhealthy is returned when the endpoint answered with a non-2xx status.
var ErrUnhealthy = errors.New("httpprobe: unhealthy")

// Client issues health checks with a fixed per-request timeout.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a probe client. Pass a non-nil transport to apply a custom
// round-tripper; nil uses Go's default transport.
//
//	c := httpprobe.NewClient(time.Second, nil, slog.Default())
//	err := c.Check(ctx, "http://svc:8080/healthz")
func NewClient(timeout time.Duration, transport http.RoundTripper, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		logger: logger,
	}
}

// Check performs one GET against url. It returns nil for any 2xx status,
// an error wrapping ErrUnhealthy for other statuses, and the transport error
// when the request could not complete.
func (c *Client) Check(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("httpprobe: build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("httpprobe: GET %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrain))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Debug("probe returned non-2xx", "url", url, "status", resp.StatusCode)
		return fmt.Errorf("%w: %s returned %d", ErrUnhealthy, url, resp.StatusCode)
	}
	return nil
}
