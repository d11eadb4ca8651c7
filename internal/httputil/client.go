// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared by the search backends.
package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pdiddy/survey-engine/pkg/types"
)

// maxErrorBody bounds how much of a failed response body is kept in a StatusError.
const maxErrorBody = 512

// StatusError reports an upstream response with a non-2xx status. The
// response is never retried; callers see the status as the upstream sent it.
type StatusError struct {
	Service    string
	StatusCode int
	RetryAfter string
	Body       string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s returned HTTP %d", e.Service, e.StatusCode)
	if e.RetryAfter != "" {
		msg += " (retry after " + e.RetryAfter + ")"
	}
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// RateLimited reports whether the upstream rejected the request with HTTP 429.
func (e *StatusError) RateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// NewClient returns an *http.Client honoring cfg.Timeout.
func NewClient(cfg types.HTTPConfig) *http.Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = types.DefaultHTTPTimeout
	}
	return &http.Client{Timeout: timeout}
}

// Do sends req once with the User-Agent from cfg. A non-2xx response is
// drained, closed and returned as a *StatusError naming service.
func Do(ctx context.Context, client *http.Client, req *http.Request, service string, cfg types.HTTPConfig) (*http.Response, error) {
	if client == nil {
		client = http.DefaultClient
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = types.DefaultUserAgent
	}
	req = req.Clone(ctx)
	req.Header.Set("User-Agent", ua)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", service, err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	io.Copy(io.Discard, resp.Body)
	return nil, &StatusError{
		Service:    service,
		StatusCode: resp.StatusCode,
		RetryAfter: resp.Header.Get("Retry-After"),
		Body:       strings.TrimSpace(string(body)),
	}
}
