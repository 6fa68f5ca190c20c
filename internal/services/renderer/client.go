package renderer

import (
	"context"
	"strings"
	"time"

	"newsforge/internal/config"
	"newsforge/internal/services"
	"newsforge/internal/services/restclient"
)

const serviceName = "renderer"

// Rendering a video takes minutes; the default REST timeout would cut the
// call short.
const defaultRenderTimeout = 5 * time.Minute

// Request carries the render inputs assembled by the pipeline.
type Request struct {
	SummaryText     string  `json:"summary_text"`
	AudioRef        string  `json:"audio_url"`
	Title           string  `json:"title"`
	Theme           string  `json:"theme,omitempty"`
	DurationSeconds float64 `json:"duration,omitempty"`
}

// Result references the rendered video and its thumbnail.
type Result struct {
	VideoRef        string  `json:"video_url"`
	ThumbnailRef    string  `json:"thumbnail_url"`
	DurationSeconds float64 `json:"duration"`
	Resolution      string  `json:"resolution"`
	FileSize        int64   `json:"file_size"`
}

// Service defines the video rendering operation used by the pipeline.
type Service interface {
	Render(ctx context.Context, req Request) (Result, error)
	Health(ctx context.Context) error
}

// Client talks to the video rendering service.
type Client struct {
	rest *restclient.Client
}

// New constructs a renderer client from config.
func New(cfg config.Service, opts ...restclient.Option) *Client {
	timeout := defaultRenderTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	options := append([]restclient.Option{restclient.WithTimeout(timeout)}, opts...)
	return &Client{
		rest: restclient.New(serviceName, cfg.BaseURL, cfg.Secret, options...),
	}
}

// Render produces a video and thumbnail from the summary and audio.
func (c *Client) Render(ctx context.Context, req Request) (Result, error) {
	var empty Result
	req.SummaryText = strings.TrimSpace(req.SummaryText)
	req.AudioRef = strings.TrimSpace(req.AudioRef)
	if req.SummaryText == "" {
		return empty, services.Wrap(services.ErrValidation, serviceName, "render", "summary text required", nil)
	}
	if req.AudioRef == "" {
		return empty, services.Wrap(services.ErrValidation, serviceName, "render", "audio reference required", nil)
	}
	if req.Theme == "" {
		req.Theme = "modern"
	}

	var result Result
	if err := c.rest.Post(ctx, "render", "/render", req, &result); err != nil {
		return empty, err
	}
	if strings.TrimSpace(result.VideoRef) == "" {
		return empty, services.Wrap(services.ErrBadResponse, serviceName, "render", "missing video reference", nil)
	}
	return result, nil
}

// Health probes the service health endpoint.
func (c *Client) Health(ctx context.Context) error {
	return c.rest.Get(ctx, "health", "/health", nil, nil)
}
