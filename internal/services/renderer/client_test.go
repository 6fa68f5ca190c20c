package renderer

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

func TestRender(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/render" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Theme != "modern" {
			t.Errorf("expected default theme, got %q", req.Theme)
		}
		_, _ = w.Write([]byte(`{
            "video_url": "/video/abc.mp4",
            "thumbnail_url": "/video/abc_thumb.jpg",
            "duration": 118.0,
            "resolution": "1920x1080",
            "file_size": 1048576
        }`))
	}))
	defer server.Close()

	client := New(config.Service{BaseURL: server.URL, Secret: "s"})
	result, err := client.Render(context.Background(), Request{
		SummaryText: "Narration text for the video.",
		AudioRef:    "/audio/abc.wav",
		Title:       "Chips get faster",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if result.VideoRef != "/video/abc.mp4" || result.ThumbnailRef != "/video/abc_thumb.jpg" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestRenderValidation(t *testing.T) {
	client := New(config.Service{BaseURL: "http://unused.example"})
	if _, err := client.Render(context.Background(), Request{AudioRef: "/a.wav"}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for missing summary, got %v", err)
	}
	if _, err := client.Render(context.Background(), Request{SummaryText: "text"}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for missing audio, got %v", err)
	}
}

func TestRenderMissingVideoRef(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"thumbnail_url": "/t.jpg"}`))
	}))
	defer server.Close()

	client := New(config.Service{BaseURL: server.URL})
	_, err := client.Render(context.Background(), Request{SummaryText: "text", AudioRef: "/a.wav", Title: "t"})
	if !errors.Is(err, services.ErrBadResponse) {
		t.Fatalf("expected bad response, got %v", err)
	}
}
