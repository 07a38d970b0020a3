package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/denuncia-map-service/internal/session"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SessionManager is the session registry used by the API handlers.
type SessionManager interface {
	Create(ctx context.Context) (*session.Session, error)
	Get(id string) (*session.Session, bool)
	End(id string) bool
}

// Server exposes the session API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	sessions   SessionManager
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and the
// /api/sessions routes. writeTimeout must leave room for a full source fetch.
func NewServer(addr string, writeTimeout time.Duration, ready sharedobs.ReadinessChecker, sessions SessionManager, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: writeTimeout,
			IdleTimeout:  60 * time.Second,
		},
		sessions: sessions,
		logger:   logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /api/sessions", s.handleCreate)
	mux.HandleFunc("GET /api/sessions/{id}", s.withSession(s.handleView))
	mux.HandleFunc("PUT /api/sessions/{id}/filters", s.withSession(s.handleFilters))
	mux.HandleFunc("POST /api/sessions/{id}/reload", s.withSession(s.handleReload))
	mux.HandleFunc("POST /api/sessions/{id}/select", s.withSession(s.handleSelect))
	mux.HandleFunc("DELETE /api/sessions/{id}/selection", s.withSession(s.handleClearSelection))
	mux.HandleFunc("DELETE /api/sessions/{id}", s.handleEnd)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}
