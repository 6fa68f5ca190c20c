package summarizer

import (
	"context"
	"strings"
	"time"

	"newsforge/internal/config"
	"newsforge/internal/services"
	"newsforge/internal/services/restclient"
)

const serviceName = "summarizer"

// Request carries the article material to condense.
type Request struct {
	Title      string `json:"title"`
	Content    string `json:"content"`
	LengthHint int    `json:"length_hint,omitempty"`
	Language   string `json:"language,omitempty"`
	Style      string `json:"style,omitempty"`
}

// Result is the condensed text plus model-side metadata.
type Result struct {
	Summary      string         `json:"summary"`
	Length       int            `json:"length"`
	QualityScore float64        `json:"quality_score"`
	ModelUsed    string         `json:"model_used"`
	KeyPoints    []string       `json:"key_points"`
	Metadata     map[string]any `json:"metadata"`
}

// Service defines the summarization operation used by the pipeline.
type Service interface {
	Summarize(ctx context.Context, req Request) (Result, error)
	Health(ctx context.Context) error
}

// Client talks to the summarization service.
type Client struct {
	rest *restclient.Client
}

// New constructs a summarizer client from config.
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

// Summarize condenses article material into a narration script.
func (c *Client) Summarize(ctx context.Context, req Request) (Result, error) {
	var empty Result
	req.Title = strings.TrimSpace(req.Title)
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		return empty, services.Wrap(services.ErrValidation, serviceName, "summarize", "content required", nil)
	}
	if req.Style == "" {
		req.Style = "news"
	}

	var result Result
	if err := c.rest.Post(ctx, "summarize", "/summarize", req, &result); err != nil {
		return empty, err
	}
	result.Summary = strings.TrimSpace(result.Summary)
	if result.Summary == "" {
		return empty, services.Wrap(services.ErrBadResponse, serviceName, "summarize", "empty summary", nil)
	}
	return result, nil
}

// Health probes the service health endpoint.
func (c *Client) Health(ctx context.Context) error {
	return c.rest.Get(ctx, "health", "/health", nil, nil)
}
