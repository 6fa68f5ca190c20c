package summarizer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"newsforge/internal/config"
	"newsforge/internal/services"
)

func TestSummarize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/summarize" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Style != "news" {
			t.Errorf("expected default style, got %q", req.Style)
		}
		if req.LengthHint != 120 {
			t.Errorf("unexpected length hint %d", req.LengthHint)
		}
		_, _ = w.Write([]byte(`{
            "summary": "Short version.",
            "length": 14,
            "quality_score": 0.91,
            "model_used": "bart-large-cnn",
            "key_points": ["one"]
        }`))
	}))
	defer server.Close()

	client := New(config.Service{BaseURL: server.URL, Secret: "s"})
	result, err := client.Summarize(context.Background(), Request{
		Title:      "Chips",
		Content:    "Long article body with enough words to summarize properly.",
		LengthHint: 120,
		Language:   "en",
	})
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if result.Summary != "Short version." || result.ModelUsed != "bart-large-cnn" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestSummarizeRequiresContent(t *testing.T) {
	client := New(config.Service{BaseURL: "http://unused.example"})
	_, err := client.Summarize(context.Background(), Request{Title: "x"})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSummarizeEmptySummary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"summary": "  "}`))
	}))
	defer server.Close()

	client := New(config.Service{BaseURL: server.URL})
	_, err := client.Summarize(context.Background(), Request{Content: "some content"})
	if !errors.Is(err, services.ErrBadResponse) {
		t.Fatalf("expected bad response, got %v", err)
	}
}

func TestHealth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"status": "healthy"}`))
	}))
	defer server.Close()

	client := New(config.Service{BaseURL: server.URL})
	if err := client.Health(context.Background()); err != nil {
		t.Fatalf("health: %v", err)
	}
}
