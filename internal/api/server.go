package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"newsforge/internal/config"
	"newsforge/internal/gateway"
	"newsforge/internal/jobs"
	"newsforge/internal/logging"
	"newsforge/internal/metrics"
	"newsforge/internal/pipeline"
	"newsforge/internal/services"
)

// Server exposes the job API over HTTP.
type Server struct {
	store    *jobs.Store
	gw       *gateway.Gateway
	executor *pipeline.Executor
	cfg      *config.Config
	logger   *slog.Logger
	registry *metrics.Registry
	auth     *authenticator
	router   *mux.Router

	listener net.Listener
	server   *http.Server
}

// New constructs the API server and registers all routes.
func New(store *jobs.Store, gw *gateway.Gateway, executor *pipeline.Executor, cfg *config.Config, logger *slog.Logger, registry *metrics.Registry) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		store:    store,
		gw:       gw,
		executor: executor,
		cfg:      cfg,
		logger:   logger.With(logging.String(logging.FieldComponent, "api")),
		registry: registry,
		auth:     newAuthenticator(cfg.Auth),
		router:   mux.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.metricsMiddleware)

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/metrics", s.handleMetrics).Methods(http.MethodGet)
	s.router.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)

	protected := s.router.PathPrefix("/jobs").Subrouter()
	protected.Use(s.authMiddleware)
	protected.HandleFunc("", s.handleCreateJob).Methods(http.MethodPost)
	protected.HandleFunc("", s.handleListJobs).Methods(http.MethodGet)
	protected.HandleFunc("/{id}", s.handleGetJob).Methods(http.MethodGet)
	protected.HandleFunc("/{id}", s.handleDeleteJob).Methods(http.MethodDelete)
	protected.HandleFunc("/{id}/publish", s.handlePublishJob).Methods(http.MethodPost)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins serving on the configured bind address. The server shuts down
// when the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	bind := strings.TrimSpace(s.cfg.Paths.APIBind)
	if bind == "" {
		return errors.New("api bind address not configured")
	}
	listener, err := net.Listen("tcp", bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener
	s.server = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Addr returns the bound listener address, empty before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop gracefully shuts the server down.
func (s *Server) Stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)
		ctx := services.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		if s.registry != nil {
			s.registry.Inc("newsforge_http_requests_total", metrics.Labels{
				"method": r.Method,
				"code":   fmt.Sprintf("%d", recorder.status),
			})
			if recorder.status >= 500 {
				s.registry.Inc("newsforge_http_errors_total", nil)
			}
		}
	})
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject, err := s.auth.verifyRequest(r)
		if err != nil {
			s.writeError(w, r, http.StatusUnauthorized, "invalid or missing bearer token")
			return
		}
		next.ServeHTTP(w, r.WithContext(withSubject(r.Context(), subject)))
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			s.logger.Error("encode response", logging.Error(err))
		}
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	requestID, _ := services.RequestIDFromContext(r.Context())
	s.writeJSON(w, status, ErrorBody{Error: ErrorDetail{
		Message:   message,
		Status:    status,
		RequestID: requestID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}})
}
