package tts

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

func TestSynthesize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tts" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.VoiceID != "default" {
			t.Errorf("expected default voice, got %q", req.VoiceID)
		}
		_, _ = w.Write([]byte(`{
            "audio_url": "/audio/abc.wav",
            "duration": 42.5,
            "sample_rate": 22050,
            "format": "wav",
            "voice_used": "default"
        }`))
	}))
	defer server.Close()

	client := New(config.Service{BaseURL: server.URL, Secret: "s"})
	result, err := client.Synthesize(context.Background(), Request{Text: "Hello world"})
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if result.AudioRef != "/audio/abc.wav" || result.DurationSeconds != 42.5 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestSynthesizeRequiresText(t *testing.T) {
	client := New(config.Service{BaseURL: "http://unused.example"})
	_, err := client.Synthesize(context.Background(), Request{Text: "   "})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSynthesizeMissingAudioRef(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"duration": 5}`))
	}))
	defer server.Close()

	client := New(config.Service{BaseURL: server.URL})
	_, err := client.Synthesize(context.Background(), Request{Text: "hi"})
	if !errors.Is(err, services.ErrBadResponse) {
		t.Fatalf("expected bad response, got %v", err)
	}
}
