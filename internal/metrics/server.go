package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arti-chat/core/internal/logger"
)

// Handler returns the HTTP handler exposing Registry in OpenMetrics
// format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Server is the standalone Prometheus scrape endpoint, shaped the same
// way as internal/health.Server: a background HTTP listener with a
// graceful Stop, rather than a bare http.ListenAndServe call with no
// way to drain it on shutdown.
type Server struct {
	log    logger.Logger
	port   int
	path   string
	server *http.Server
}

// NewServer builds a metrics Server. path is the scrape path (e.g.
// "/metrics").
func NewServer(log logger.Logger, port int, path string) *Server {
	if log == nil {
		log = logger.GetDefaultLogger()
	}
	if path == "" {
		path = "/metrics"
	}
	return &Server{log: log, port: port, path: path}
}

// Start begins serving in the background. It does not block.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.Handle(s.path, Handler())

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
			s.log.Error("metrics server stopped", logger.Error(err))
		}
	}()
	return nil
}

// Stop gracefully shuts the metrics server down.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
