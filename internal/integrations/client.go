// Package integrations holds thin clients for the hosted services the site
// talks to: billing, email, AI chat, uptime monitoring and session tokens.
// Callers are expected to consult the gate package before using them.
package integrations

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout bounds a buffered call end to end. A streamed call has no
	// overall bound; it fails only when no chunk arrives within the timeout.
	DefaultTimeout = 15 * time.Second

	// maxErrorBody caps how much of a failed response is kept in APIError
	maxErrorBody = 4 << 10
)

// APIError is a non-2xx answer from a hosted service
type APIError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s API error: %d", e.Service, e.StatusCode)
	}
	return fmt.Sprintf("%s API error: %d: %s", e.Service, e.StatusCode, e.Body)
}

// CallObserver receives one observation per outbound call
type CallObserver interface {
	RecordIntegrationCall(service, outcome string, duration time.Duration)
}

// Option configures a client
type Option func(*client)

// WithBaseURL overrides the service endpoint, mostly for tests
func WithBaseURL(u string) Option {
	return func(c *client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(h *http.Client) Option {
	return func(c *client) { c.http = h }
}

// WithTimeout replaces DefaultTimeout
func WithTimeout(d time.Duration) Option {
	return func(c *client) { c.timeout = d }
}

// WithRateLimit caps outbound requests per second
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(c *client) { c.limiter = rate.NewLimiter(limit, burst) }
}

// WithLogger sets the client logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *client) { c.logger = logger }
}

// WithObserver reports call outcomes, e.g. to metrics
func WithObserver(o CallObserver) Option {
	return func(c *client) { c.observer = o }
}

type client struct {
	service  string
	baseURL  string
	http     *http.Client
	timeout  time.Duration
	limiter  *rate.Limiter
	logger   *zap.Logger
	observer CallObserver
	auth     func(*http.Request)
}

func newClient(service, baseURL string, auth func(*http.Request), opts []Option) *client {
	c := &client{
		service: service,
		baseURL: baseURL,
		http:    &http.Client{},
		timeout: DefaultTimeout,
		logger:  zap.NewNop(),
		auth:    auth,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// newRequest builds an authorized request. body is JSON-encoded when non-nil.
func (c *client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s request: %w", c.service, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", c.service, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.auth != nil {
		c.auth(req)
	}
	return req, nil
}

// send waits for the rate limiter, performs the request and converts non-2xx
// answers into *APIError. The caller owns the returned body.
func (c *client) send(req *http.Request) (*http.Response, error) {
	start := time.Now()
	outcome := "error"
	defer func() {
		if c.observer != nil {
			c.observer.RecordIntegrationCall(c.service, outcome, time.Since(start))
		}
	}()

	if c.limiter != nil {
		if err := c.limiter.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("%s rate limit: %w", c.service, err)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("Integration request failed",
			zap.String("service", c.service),
			zap.String("path", req.URL.Path),
			zap.Error(err))
		return nil, fmt.Errorf("%s request failed: %w", c.service, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Debug("Integration returned non-2xx status",
			zap.String("service", c.service),
			zap.String("path", req.URL.Path),
			zap.Int("status_code", resp.StatusCode))
		return nil, &APIError{Service: c.service, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	outcome = "ok"
	return resp, nil
}

// do is send plus JSON decoding into out (skipped when out is nil), bounded
// by the client timeout
func (c *client) do(ctx context.Context, method, path string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	resp, err := c.send(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", c.service, err)
	}
	return nil
}

func bearer(token string) func(*http.Request) {
	return func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}
