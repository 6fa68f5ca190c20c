package testsupport

import (
	"context"

	"newsforge/internal/gateway"
	"newsforge/internal/services/newsapi"
	"newsforge/internal/services/publisher"
	"newsforge/internal/services/renderer"
	"newsforge/internal/services/summarizer"
	"newsforge/internal/services/tts"
)

// StubNews implements newsapi.Service with overridable funcs. Unset funcs
// return canned happy-path values.
type StubNews struct {
	TopHeadlinesFunc func(ctx context.Context, category, country string, max int) ([]newsapi.Article, error)
	SearchFunc       func(ctx context.Context, query string, max int) ([]newsapi.Article, error)
	HealthFunc       func(ctx context.Context) error
}

func (s *StubNews) TopHeadlines(ctx context.Context, category, country string, max int) ([]newsapi.Article, error) {
	if s.TopHeadlinesFunc != nil {
		return s.TopHeadlinesFunc(ctx, category, country, max)
	}
	return defaultArticles(), nil
}

func (s *StubNews) Search(ctx context.Context, query string, max int) ([]newsapi.Article, error) {
	if s.SearchFunc != nil {
		return s.SearchFunc(ctx, query, max)
	}
	return defaultArticles(), nil
}

func (s *StubNews) Health(ctx context.Context) error {
	if s.HealthFunc != nil {
		return s.HealthFunc(ctx)
	}
	return nil
}

func defaultArticles() []newsapi.Article {
	return []newsapi.Article{
		{
			Title:      "Stub headline",
			Content:    "Stub article body with enough material to summarize.",
			URL:        "https://news.example/stub",
			SourceName: "Stub Wire",
		},
	}
}

// StubSummarizer implements summarizer.Service.
type StubSummarizer struct {
	SummarizeFunc func(ctx context.Context, req summarizer.Request) (summarizer.Result, error)
	HealthFunc    func(ctx context.Context) error
}

func (s *StubSummarizer) Summarize(ctx context.Context, req summarizer.Request) (summarizer.Result, error) {
	if s.SummarizeFunc != nil {
		return s.SummarizeFunc(ctx, req)
	}
	return summarizer.Result{Summary: "Stub summary.", Length: 2}, nil
}

func (s *StubSummarizer) Health(ctx context.Context) error {
	if s.HealthFunc != nil {
		return s.HealthFunc(ctx)
	}
	return nil
}

// StubTTS implements tts.Service.
type StubTTS struct {
	SynthesizeFunc func(ctx context.Context, req tts.Request) (tts.Result, error)
	HealthFunc     func(ctx context.Context) error
}

func (s *StubTTS) Synthesize(ctx context.Context, req tts.Request) (tts.Result, error) {
	if s.SynthesizeFunc != nil {
		return s.SynthesizeFunc(ctx, req)
	}
	return tts.Result{AudioRef: "/audio/stub.wav", DurationSeconds: 30}, nil
}

func (s *StubTTS) Health(ctx context.Context) error {
	if s.HealthFunc != nil {
		return s.HealthFunc(ctx)
	}
	return nil
}

// StubRenderer implements renderer.Service.
type StubRenderer struct {
	RenderFunc func(ctx context.Context, req renderer.Request) (renderer.Result, error)
	HealthFunc func(ctx context.Context) error
}

func (s *StubRenderer) Render(ctx context.Context, req renderer.Request) (renderer.Result, error) {
	if s.RenderFunc != nil {
		return s.RenderFunc(ctx, req)
	}
	return renderer.Result{VideoRef: "/video/stub.mp4", ThumbnailRef: "/video/stub_thumb.jpg"}, nil
}

func (s *StubRenderer) Health(ctx context.Context) error {
	if s.HealthFunc != nil {
		return s.HealthFunc(ctx)
	}
	return nil
}

// StubPublisher implements publisher.Service.
type StubPublisher struct {
	PublishFunc func(ctx context.Context, req publisher.Request) (publisher.Result, error)
	HealthFunc  func(ctx context.Context) error
}

func (s *StubPublisher) Publish(ctx context.Context, req publisher.Request) (publisher.Result, error) {
	if s.PublishFunc != nil {
		return s.PublishFunc(ctx, req)
	}
	return publisher.Result{ExternalURL: "https://videos.example/v/stub", ExternalID: "stub"}, nil
}

func (s *StubPublisher) Health(ctx context.Context) error {
	if s.HealthFunc != nil {
		return s.HealthFunc(ctx)
	}
	return nil
}

// NewStubGateway bundles happy-path stubs for all five collaborators.
// Individual services can be replaced on the returned gateway.
func NewStubGateway() *gateway.Gateway {
	return &gateway.Gateway{
		News:       &StubNews{},
		Summarizer: &StubSummarizer{},
		TTS:        &StubTTS{},
		Renderer:   &StubRenderer{},
		Publisher:  &StubPublisher{},
	}
}
