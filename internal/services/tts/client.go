package tts

import (
	"context"
	"strings"
	"time"

	"newsforge/internal/config"
	"newsforge/internal/services"
	"newsforge/internal/services/restclient"
)

const serviceName = "tts"

// Request carries the narration text for speech synthesis.
type Request struct {
	Text     string  `json:"text"`
	VoiceID  string  `json:"voice_id,omitempty"`
	Speed    float64 `json:"speed,omitempty"`
	Language string  `json:"language,omitempty"`
}

// Result references the synthesized audio.
type Result struct {
	AudioRef        string  `json:"audio_url"`
	DurationSeconds float64 `json:"duration"`
	SampleRate      int     `json:"sample_rate"`
	Format          string  `json:"format"`
	VoiceUsed       string  `json:"voice_used"`
}

// Service defines the speech synthesis operation used by the pipeline.
type Service interface {
	Synthesize(ctx context.Context, req Request) (Result, error)
	Health(ctx context.Context) error
}

// Client talks to the text-to-speech service.
type Client struct {
	rest *restclient.Client
}

// New constructs a TTS client from config.
func New(cfg config.Service, opts ...restclient.Option) *Client {
	options := make([]restclient.Option, 0, len(opts)+1)
	if cfg.TimeoutSeconds > 0 {
		options = append(options, restclient.WithTimeout(time.Duration(cfg.TimeoutSeconds)*time.Second))
	}
	options = append(options, opts...)
	return &Client{
		rest: restclient.New(serviceName, cfg.BaseURL, cfg.Secret, options...),
	}
}

// Synthesize converts narration text into an audio artifact.
func (c *Client) Synthesize(ctx context.Context, req Request) (Result, error) {
	var empty Result
	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		return empty, services.Wrap(services.ErrValidation, serviceName, "synthesize", "text required", nil)
	}
	if req.VoiceID == "" {
		req.VoiceID = "default"
	}

	var result Result
	if err := c.rest.Post(ctx, "synthesize", "/tts", req, &result); err != nil {
		return empty, err
	}
	if strings.TrimSpace(result.AudioRef) == "" {
		return empty, services.Wrap(services.ErrBadResponse, serviceName, "synthesize", "missing audio reference", nil)
	}
	return result, nil
}

// Health probes the service health endpoint.
func (c *Client) Health(ctx context.Context) error {
	return c.rest.Get(ctx, "health", "/health", nil, nil)
}
