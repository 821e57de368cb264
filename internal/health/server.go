package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/arti-chat/core/internal/logger"
)

// Server is the health-check HTTP endpoint, grounded on the teacher's
// pkg/health.Server (same three-endpoint shape: /health, /health/live,
// /health/ready).
type Server struct {
	checker *Checker
	log     logger.Logger
	port    int
	path    string
	server  *http.Server
}

// NewServer builds a health Server. path is the base path for the
// combined check (e.g. "/healthz"); the live/ready endpoints are
// derived from it with "/live" and "/ready" suffixes.
func NewServer(checker *Checker, log logger.Logger, port int, path string) *Server {
	if log == nil {
		log = logger.GetDefaultLogger()
	}
	if path == "" {
		path = "/healthz"
	}
	return &Server{checker: checker, log: log, port: port, path: path}
}

// Start begins serving in the background. It does not block; callers
// use Stop for graceful shutdown.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc(s.path, s.handleHealth)
	mux.HandleFunc(s.path+"/live", s.handleLiveness)
	mux.HandleFunc(s.path+"/ready", s.handleReadiness)

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error("health server stopped", logger.Error(err))
		}
	}()
	return nil
}

// Stop gracefully shuts the health server down.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.checker.CheckAll(r.Context())
	writeStatus(w, status, statusCode(status.Status))
}

// handleLiveness answers only "is the process up", never touching the
// store or overlay client, so an overloaded dependency can't turn a
// liveness probe into a restart loop.
func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":    "alive",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	status := s.checker.CheckAll(r.Context())
	ready := status.Status != StatusUnhealthy
	code := http.StatusOK
	if !ready {
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"ready":     ready,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    status.Checks,
	})
}

func writeStatus(w http.ResponseWriter, status *HealthStatus, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(status)
}

func statusCode(s Status) int {
	if s == StatusUnhealthy {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}
