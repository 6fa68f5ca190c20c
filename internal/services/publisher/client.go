package publisher

import (
	"context"
	"strings"
	"time"

	"newsforge/internal/config"
	"newsforge/internal/services"
	"newsforge/internal/services/restclient"
)

const serviceName = "publisher"

// Request carries the finished video and its listing metadata.
type Request struct {
	VideoRef     string   `json:"video_url"`
	ThumbnailRef string   `json:"thumbnail_url,omitempty"`
	Title        string   `json:"title"`
	Description  string   `json:"description,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	Visibility   string   `json:"visibility,omitempty"`
}

// Result identifies the published video on the external platform.
type Result struct {
	ExternalURL string `json:"external_url"`
	ExternalID  string `json:"external_id"`
	Status      string `json:"status"`
}

// Service defines the publish operation used by the pipeline and the manual
// publish endpoint.
type Service interface {
	Publish(ctx context.Context, req Request) (Result, error)
	Health(ctx context.Context) error
}

// Client talks to the publishing service.
type Client struct {
	rest *restclient.Client
}

// New constructs a publisher client from config.
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

// Publish uploads the rendered video to the external platform. Publishing is
// not idempotent upstream, so the call is made exactly once; a failure leaves
// re-publishing to the manual endpoint.
func (c *Client) Publish(ctx context.Context, req Request) (Result, error) {
	var empty Result
	req.VideoRef = strings.TrimSpace(req.VideoRef)
	req.Title = strings.TrimSpace(req.Title)
	if req.VideoRef == "" {
		return empty, services.Wrap(services.ErrValidation, serviceName, "publish", "video reference required", nil)
	}
	if req.Title == "" {
		return empty, services.Wrap(services.ErrValidation, serviceName, "publish", "title required", nil)
	}
	if req.Visibility == "" {
		req.Visibility = "public"
	}

	var result Result
	if err := c.rest.Post(ctx, "publish", "/publish", req, &result); err != nil {
		return empty, err
	}
	if strings.TrimSpace(result.ExternalURL) == "" && strings.TrimSpace(result.ExternalID) == "" {
		return empty, services.Wrap(services.ErrBadResponse, serviceName, "publish", "missing external reference", nil)
	}
	return result, nil
}

// Health probes the service health endpoint.
func (c *Client) Health(ctx context.Context) error {
	return c.rest.Get(ctx, "health", "/health", nil, nil)
}
