package api

import (
	"net/http"

	"newsforge/internal/gateway"
	"newsforge/internal/logging"
	"newsforge/internal/metrics"
)

// HealthResponse is the GET /health payload.
type HealthResponse struct {
	Status       string                     `json:"status"`
	Jobs         JobCounts                  `json:"jobs"`
	Dependencies []gateway.DependencyStatus `json:"dependencies"`
}

// JobCounts summarizes jobs per lifecycle state.
type JobCounts struct {
	Total     int `json:"total"`
	Queued    int `json:"queued"`
	Running   int `json:"running"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	deps := s.gw.Health(ctx)
	storeStatus := gateway.DependencyStatus{Name: "store", Healthy: true}
	if err := s.store.Ping(ctx); err != nil {
		storeStatus.Healthy = false
		storeStatus.Detail = err.Error()
	}
	deps = append([]gateway.DependencyStatus{storeStatus}, deps...)

	summary, err := s.store.Health(ctx)
	if err != nil {
		s.logger.Error("job health summary", logging.Error(err))
	}

	payload := HealthResponse{
		Status: "ok",
		Jobs: JobCounts{
			Total:     summary.Total,
			Queued:    summary.Queued,
			Running:   summary.Running,
			Completed: summary.Completed,
			Failed:    summary.Failed,
		},
		Dependencies: deps,
	}
	status := http.StatusOK
	if !gateway.Healthy(deps) {
		payload.Status = "degraded"
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, payload)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if s.registry == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	// Job gauges are sampled on scrape rather than maintained on every write.
	if stats, err := s.store.Stats(r.Context()); err == nil {
		for status, count := range stats {
			s.registry.Set("newsforge_jobs", metrics.Labels{"status": string(status)}, float64(count))
		}
	}

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	if err := s.registry.WriteText(w); err != nil {
		s.logger.Error("render metrics", logging.Error(err))
	}
}
