// Package server exposes the prometheus metrics and health endpoints that
// run alongside a long-lived agent session.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/efebarandurmaz/multillm/internal/config"
	"github.com/efebarandurmaz/multillm/internal/llm"
)

// HealthStatus represents the health state of a component.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
	HealthStatusDegraded  HealthStatus = "degraded"
)

// HealthCheck represents a single health check.
type HealthCheck struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// HealthResponse is the response from /healthz.
type HealthResponse struct {
	Status    HealthStatus  `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
	Checks    []HealthCheck `json:"checks,omitempty"`
}

// HealthChecker performs one health check.
type HealthChecker func(ctx context.Context) HealthCheck

// Server serves /metrics, /healthz and /livez.
type Server struct {
	mu      sync.RWMutex
	names   []string
	checks  map[string]HealthChecker
	metrics http.Handler
	logger  *slog.Logger
}

// New creates a server publishing metrics from the given handler.
func New(metrics http.Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		checks:  make(map[string]HealthChecker),
		metrics: metrics,
		logger:  logger,
	}
}

// RegisterCheck adds a health check. Checks run in registration order.
func (s *Server) RegisterCheck(name string, checker HealthChecker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.checks[name]; !ok {
		s.names = append(s.names, name)
	}
	s.checks[name] = checker
}

// Handler returns the HTTP handler for all endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics)
	}
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/livez", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, HealthResponse{Status: HealthStatusHealthy, Timestamp: time.Now().UTC()})
	})
	return mux
}

// Serve listens on addr until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.logger.Info("serving metrics", "addr", addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("metrics server shutdown: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	s.mu.RLock()
	names := append([]string(nil), s.names...)
	checks := make(map[string]HealthChecker, len(s.checks))
	for k, v := range s.checks {
		checks[k] = v
	}
	s.mu.RUnlock()

	response := HealthResponse{
		Status:    HealthStatusHealthy,
		Timestamp: time.Now().UTC(),
		Checks:    make([]HealthCheck, 0, len(names)),
	}
	for _, name := range names {
		check := checks[name](ctx)
		check.Name = name
		response.Checks = append(response.Checks, check)

		if check.Status == HealthStatusUnhealthy {
			response.Status = HealthStatusUnhealthy
		} else if check.Status == HealthStatusDegraded && response.Status == HealthStatusHealthy {
			response.Status = HealthStatusDegraded
		}
	}

	status := http.StatusOK
	if response.Status == HealthStatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, response)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// BackendChecker reports whether the active backend can be called: it must
// be a known backend, compiled in, and have an API key.
func BackendChecker(activeModel, apiKey string, factory *llm.ProviderFactory) HealthChecker {
	return func(ctx context.Context) HealthCheck {
		b := llm.Backend(activeModel)
		switch {
		case !b.Valid():
			return HealthCheck{Status: HealthStatusUnhealthy, Message: (&llm.Error{Backend: b, Kind: llm.KindUnsupported}).Error()}
		case !factory.Registered(b):
			return HealthCheck{Status: HealthStatusUnhealthy, Message: (&llm.Error{Backend: b, Kind: llm.KindNotInstalled, Library: llm.OptionalLibraries[b]}).Error()}
		case !config.KeyConfigured(apiKey):
			return HealthCheck{Status: HealthStatusUnhealthy, Message: llm.NotConfiguredMessage}
		}
		return HealthCheck{Status: HealthStatusHealthy, Message: b.DisplayName() + " ready"}
	}
}
