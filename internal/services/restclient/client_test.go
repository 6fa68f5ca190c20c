package restclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"newsforge/internal/services"
)

func noSleep(c *Client) {
	c.sleep = func(context.Context, time.Duration) error { return nil }
}

func TestGetDecodesJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/things" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("q"); got != "news" {
			t.Errorf("unexpected query %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sekrit" {
			t.Errorf("unexpected auth header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"ok"}`))
	}))
	defer server.Close()

	client := New("testsvc", server.URL, "sekrit")
	var out struct {
		Name string `json:"name"`
	}
	query := url.Values{"q": []string{"news"}}
	if err := client.Get(context.Background(), "list", "/v1/things", query, &out); err != nil {
		t.Fatalf("get: %v", err)
	}
	if out.Name != "ok" {
		t.Fatalf("unexpected payload: %+v", out)
	}
}

func TestCustomAuthHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Api-Key"); got != "key-123" {
			t.Errorf("unexpected api key header %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "" {
			t.Errorf("unexpected Authorization header %q", got)
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := New("testsvc", server.URL, "key-123", WithAuthHeader("X-Api-Key"))
	if err := client.Get(context.Background(), "list", "/", nil, nil); err != nil {
		t.Fatalf("get: %v", err)
	}
}

func TestStatusClassification(t *testing.T) {
	cases := []struct {
		name   string
		status int
		marker error
	}{
		{"unauthorized", http.StatusUnauthorized, services.ErrUnauthenticated},
		{"forbidden", http.StatusForbidden, services.ErrUnauthenticated},
		{"rate limited", http.StatusTooManyRequests, services.ErrRateLimited},
		{"server error", http.StatusInternalServerError, services.ErrUnavailable},
		{"unprocessable", http.StatusUnprocessableEntity, services.ErrRemoteRejected},
		{"bad request", http.StatusBadRequest, services.ErrRemoteRejected},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			}))
			defer server.Close()

			client := New("testsvc", server.URL, "", WithMaxAttempts(1))
			err := client.Get(context.Background(), "op", "/", nil, nil)
			if !errors.Is(err, tc.marker) {
				t.Fatalf("status %d: expected %v, got %v", tc.status, tc.marker, err)
			}
		})
	}
}

func TestRetryAfterHint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "42")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := New("testsvc", server.URL, "", WithMaxAttempts(1))
	err := client.Get(context.Background(), "op", "/", nil, nil)
	if !errors.Is(err, services.ErrRateLimited) {
		t.Fatalf("expected rate limit error, got %v", err)
	}
	hint, ok := services.RetryAfter(err)
	if !ok || hint != 42*time.Second {
		t.Fatalf("expected 42s hint, got %v %v", hint, ok)
	}
}

func TestGetRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"value":7}`))
	}))
	defer server.Close()

	client := New("testsvc", server.URL, "")
	noSleep(client)
	var out struct {
		Value int `json:"value"`
	}
	if err := client.Get(context.Background(), "op", "/", nil, &out); err != nil {
		t.Fatalf("get: %v", err)
	}
	if out.Value != 7 {
		t.Fatalf("unexpected payload: %+v", out)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestGetGivesUpAfterBudget(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := New("testsvc", server.URL, "")
	noSleep(client)
	err := client.Get(context.Background(), "op", "/", nil, nil)
	if !errors.Is(err, services.ErrUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestGetDoesNotRetryRejections(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	client := New("testsvc", server.URL, "")
	noSleep(client)
	err := client.Get(context.Background(), "op", "/", nil, nil)
	if !errors.Is(err, services.ErrRemoteRejected) {
		t.Fatalf("expected rejection, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("rejections must not be retried, got %d attempts", calls.Load())
	}
}

func TestPostNeverRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := New("testsvc", server.URL, "")
	noSleep(client)
	err := client.Post(context.Background(), "create", "/", map[string]string{"a": "b"}, nil)
	if !errors.Is(err, services.ErrUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("mutations must be attempted once, got %d", calls.Load())
	}
}

func TestDecodeFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := New("testsvc", server.URL, "")
	var out map[string]any
	err := client.Get(context.Background(), "op", "/", nil, &out)
	if !errors.Is(err, services.ErrBadResponse) {
		t.Fatalf("expected bad response, got %v", err)
	}
}

func TestRequestIDPropagation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Request-ID"); got != "req-9" {
			t.Errorf("unexpected request id %q", got)
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	ctx := services.WithRequestID(context.Background(), "req-9")
	client := New("testsvc", server.URL, "")
	if err := client.Get(ctx, "op", "/", nil, nil); err != nil {
		t.Fatalf("get: %v", err)
	}
}

type captureRecorder struct {
	service   string
	operation string
	status    int
	calls     int
}

func (r *captureRecorder) RecordCall(service, operation string, status int, elapsed time.Duration) {
	r.service = service
	r.operation = operation
	r.status = status
	r.calls++
}

func TestRecorderReceivesSamples(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	recorder := &captureRecorder{}
	client := New("testsvc", server.URL, "", WithRecorder(recorder))
	if err := client.Get(context.Background(), "fetch", "/", nil, nil); err != nil {
		t.Fatalf("get: %v", err)
	}
	if recorder.calls != 1 || recorder.service != "testsvc" || recorder.operation != "fetch" || recorder.status != http.StatusOK {
		t.Fatalf("unexpected record: %+v", recorder)
	}
}
