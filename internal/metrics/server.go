package metrics

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// ModeFunc reports the sequencer's current mode for the health endpoint.
type ModeFunc func() string

// Server exposes /metrics and /healthz.
type Server struct {
	addr       string
	router     chi.Router
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer wires the routes; call Start to listen on addr.
func NewServer(addr string, recorder *Recorder, mode ModeFunc, logger *slog.Logger) *Server {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	r.Method(http.MethodGet, "/metrics", recorder.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status": "ok",
			"mode":   mode(),
		})
	})

	return &Server{
		addr:   addr,
		router: r,
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start blocks serving HTTP. It returns http.ErrServerClosed after Stop.
func (s *Server) Start() error {
	s.logger.Info("Starting metrics server", "addr", s.addr)
	return s.httpServer.ListenAndServe()
}

// Stop shuts the server down, waiting for in-flight scrapes until ctx ends.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping metrics server")
	return s.httpServer.Shutdown(ctx)
}
