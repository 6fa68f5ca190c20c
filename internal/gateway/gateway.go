package gateway

import (
	"context"
	"sync"
	"time"

	"newsforge/internal/config"
	"newsforge/internal/services/newsapi"
	"newsforge/internal/services/publisher"
	"newsforge/internal/services/renderer"
	"newsforge/internal/services/restclient"
	"newsforge/internal/services/summarizer"
	"newsforge/internal/services/tts"
)

// Gateway bundles the five external collaborator clients behind their
// interfaces so the pipeline and scheduler never construct clients directly.
type Gateway struct {
	News       newsapi.Service
	Summarizer summarizer.Service
	TTS        tts.Service
	Renderer   renderer.Service
	Publisher  publisher.Service
}

// New wires all collaborator clients from config. The recorder, when
// non-nil, observes every outbound call.
func New(cfg *config.Config, recorder restclient.Recorder) *Gateway {
	var opts []restclient.Option
	if recorder != nil {
		opts = append(opts, restclient.WithRecorder(recorder))
	}
	return &Gateway{
		News:       newsapi.New(cfg.News, opts...),
		Summarizer: summarizer.New(cfg.Summarizer, opts...),
		TTS:        tts.New(cfg.TTS, opts...),
		Renderer:   renderer.New(cfg.Renderer, opts...),
		Publisher:  publisher.New(cfg.Publisher, opts...),
	}
}

// DependencyStatus reports one collaborator's reachability.
type DependencyStatus struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Detail  string `json:"detail,omitempty"`
}

const healthProbeTimeout = 5 * time.Second

// Health probes all five collaborators concurrently and returns one status
// per dependency in a fixed order.
func (g *Gateway) Health(ctx context.Context) []DependencyStatus {
	probes := []struct {
		name  string
		check func(context.Context) error
	}{
		{"news", g.News.Health},
		{"summarizer", g.Summarizer.Health},
		{"tts", g.TTS.Health},
		{"renderer", g.Renderer.Health},
		{"publisher", g.Publisher.Health},
	}

	statuses := make([]DependencyStatus, len(probes))
	var wg sync.WaitGroup
	for i, probe := range probes {
		wg.Add(1)
		go func(i int, name string, check func(context.Context) error) {
			defer wg.Done()
			probeCtx, cancel := context.WithTimeout(ctx, healthProbeTimeout)
			defer cancel()
			status := DependencyStatus{Name: name, Healthy: true}
			if err := check(probeCtx); err != nil {
				status.Healthy = false
				status.Detail = err.Error()
			}
			statuses[i] = status
		}(i, probe.name, probe.check)
	}
	wg.Wait()
	return statuses
}

// Healthy reports whether every dependency probe passed.
func Healthy(statuses []DependencyStatus) bool {
	for _, status := range statuses {
		if !status.Healthy {
			return false
		}
	}
	return true
}
