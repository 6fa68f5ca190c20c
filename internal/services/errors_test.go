package services

import (
	"errors"
	"testing"
	"time"
)

func TestWrapPreservesMarker(t *testing.T) {
	base := errors.New("connection refused")
	err := Wrap(ErrUnavailable, "fetch_news", "top headlines", "request failed", base)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatal("expected ErrUnavailable marker")
	}
	if !errors.Is(err, base) {
		t.Fatal("expected wrapped cause to survive")
	}
	want := "service unavailable: fetch_news: top headlines: request failed: connection refused"
	if err.Error() != want {
		t.Fatalf("error = %q, want %q", err.Error(), want)
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := Wrap(nil, "", "", "", nil)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("nil marker should default to ErrUnavailable, got %v", err)
	}
}

func TestRetryable(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{Wrap(ErrUnavailable, "s", "o", "m", nil), true},
		{Wrap(ErrRateLimited, "s", "o", "m", nil), true},
		{Wrap(ErrRemoteRejected, "s", "o", "m", nil), false},
		{Wrap(ErrUnauthenticated, "s", "o", "m", nil), false},
		{Wrap(ErrBadResponse, "s", "o", "m", nil), false},
	}
	for _, tc := range cases {
		if got := Retryable(tc.err); got != tc.want {
			t.Errorf("Retryable(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestRetryAfterHint(t *testing.T) {
	base := Wrap(ErrRateLimited, "fetch_news", "search", "429", nil)
	hinted := WithRetryAfter(base, 3*time.Second)
	if !errors.Is(hinted, ErrRateLimited) {
		t.Fatal("hint wrapping dropped the marker")
	}
	after, ok := RetryAfter(hinted)
	if !ok || after != 3*time.Second {
		t.Fatalf("RetryAfter = %v, %v", after, ok)
	}
	if _, ok := RetryAfter(base); ok {
		t.Fatal("unhinted error should not report a retry-after")
	}
}
