package restclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"newsforge/internal/services"
)

const (
	defaultTimeout     = 30 * time.Second
	defaultMaxAttempts = 3
	defaultBackoff     = 500 * time.Millisecond
	maxErrorBodyBytes  = 4096
)

// HTTPDoer abstracts http.Client.Do for testing.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Recorder receives a usage sample per completed call. Implementations must
// not block; the client invokes them inline.
type Recorder interface {
	RecordCall(service, operation string, status int, elapsed time.Duration)
}

// Client is a JSON HTTP client shared by all external collaborator gateways.
// GET requests are retried with bounded exponential backoff on transient
// failures; mutating requests are attempted exactly once.
type Client struct {
	service     string
	baseURL     string
	secret      string
	authHeader  string
	doer        HTTPDoer
	maxAttempts int
	backoff     time.Duration
	sleep       func(context.Context, time.Duration) error
	recorder    Recorder
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPDoer overrides the HTTP backend.
func WithHTTPDoer(doer HTTPDoer) Option {
	return func(c *Client) {
		if doer != nil {
			c.doer = doer
		}
	}
}

// WithTimeout sets the per-request timeout on the default backend. Ignored
// when WithHTTPDoer is also supplied.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout <= 0 {
			return
		}
		if httpClient, ok := c.doer.(*http.Client); ok {
			httpClient.Timeout = timeout
		}
	}
}

// WithAuthHeader changes the credential header from the default
// "Authorization: Bearer" scheme to a named header carrying the bare secret.
func WithAuthHeader(name string) Option {
	return func(c *Client) {
		if name = strings.TrimSpace(name); name != "" {
			c.authHeader = name
		}
	}
}

// WithMaxAttempts bounds retries for idempotent requests.
func WithMaxAttempts(attempts int) Option {
	return func(c *Client) {
		if attempts > 0 {
			c.maxAttempts = attempts
		}
	}
}

// WithBackoff sets the initial retry delay.
func WithBackoff(backoff time.Duration) Option {
	return func(c *Client) {
		if backoff > 0 {
			c.backoff = backoff
		}
	}
}

// WithRecorder attaches a usage recorder.
func WithRecorder(recorder Recorder) Option {
	return func(c *Client) {
		c.recorder = recorder
	}
}

// New constructs a client for one collaborator service. The service name is
// used in error messages and usage records.
func New(service, baseURL, secret string, opts ...Option) *Client {
	client := &Client{
		service:     service,
		baseURL:     strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		secret:      strings.TrimSpace(secret),
		doer:        &http.Client{Timeout: defaultTimeout},
		maxAttempts: defaultMaxAttempts,
		backoff:     defaultBackoff,
		sleep:       sleepContext,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Get performs a GET with query parameters, decoding the JSON response into
// out. Transient failures are retried up to the attempt budget.
func (c *Client) Get(ctx context.Context, operation, path string, query url.Values, out any) error {
	var lastErr error
	delay := c.backoff
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		lastErr = c.do(ctx, operation, http.MethodGet, path, query, nil, out)
		if lastErr == nil || !services.Retryable(lastErr) {
			return lastErr
		}
		if attempt == c.maxAttempts {
			break
		}
		wait := delay
		if hint, ok := services.RetryAfter(lastErr); ok && hint > wait {
			wait = hint
		}
		if err := c.sleep(ctx, wait); err != nil {
			return lastErr
		}
		delay *= 2
	}
	return lastErr
}

// Post performs a single POST with a JSON body. Mutations are never retried;
// the caller decides whether the operation is safe to repeat.
func (c *Client) Post(ctx context.Context, operation, path string, body, out any) error {
	return c.do(ctx, operation, http.MethodPost, path, nil, body, out)
}

func (c *Client) do(ctx context.Context, operation, method, path string, query url.Values, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return services.Wrap(services.ErrValidation, c.service, operation, "encode request", err)
		}
		reader = bytes.NewReader(encoded)
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return services.Wrap(services.ErrValidation, c.service, operation, "build request", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.secret != "" {
		if c.authHeader != "" {
			req.Header.Set(c.authHeader, c.secret)
		} else {
			req.Header.Set("Authorization", "Bearer "+c.secret)
		}
	}
	if requestID, ok := services.RequestIDFromContext(ctx); ok {
		req.Header.Set("X-Request-ID", requestID)
	}

	start := time.Now()
	resp, err := c.doer.Do(req)
	if err != nil {
		c.record(operation, 0, time.Since(start))
		return services.Wrap(services.ErrUnavailable, c.service, operation, "request failed", err)
	}
	defer resp.Body.Close()
	c.record(operation, resp.StatusCode, time.Since(start))

	if resp.StatusCode >= 400 {
		return c.classifyStatus(operation, resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return services.Wrap(services.ErrBadResponse, c.service, operation, "decode response", err)
	}
	return nil
}

func (c *Client) classifyStatus(operation string, resp *http.Response) error {
	bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	detail := strings.TrimSpace(string(bodyBytes))
	message := fmt.Sprintf("http %d", resp.StatusCode)
	if detail != "" {
		message = fmt.Sprintf("http %d: %s", resp.StatusCode, detail)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return services.Wrap(services.ErrUnauthenticated, c.service, operation, message, nil)
	case resp.StatusCode == http.StatusTooManyRequests:
		err := services.Wrap(services.ErrRateLimited, c.service, operation, message, nil)
		if hint := parseRetryAfter(resp.Header.Get("Retry-After")); hint > 0 {
			err = services.WithRetryAfter(err, hint)
		}
		return err
	case resp.StatusCode >= 500:
		return services.Wrap(services.ErrUnavailable, c.service, operation, message, nil)
	default:
		return services.Wrap(services.ErrRemoteRejected, c.service, operation, message, nil)
	}
}

func (c *Client) record(operation string, status int, elapsed time.Duration) {
	if c.recorder != nil {
		c.recorder.RecordCall(c.service, operation, status, elapsed)
	}
}

// parseRetryAfter handles the delta-seconds form of the header. The HTTP-date
// form is rare among the collaborators and falls back to zero.
func parseRetryAfter(value string) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if wait := time.Until(at); wait > 0 {
			return wait
		}
	}
	return 0
}

func sleepContext(ctx context.Context, wait time.Duration) error {
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
