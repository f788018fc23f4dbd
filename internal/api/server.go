package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"libretto/internal/edition"
	"libretto/internal/lifecycle"
	"libretto/internal/logging"
)

// Deps carries everything the handlers need. The store serves reads; all
// writes go through the controller.
type Deps struct {
	Store      *edition.Store
	Controller *lifecycle.Controller
	Languages  []string
	Version    string
	StartTime  time.Time
	Logger     *slog.Logger
}

// Server wraps the HTTP listener for the daemon API.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer builds the server bound to addr.
func NewServer(addr string, deps Deps) *Server {
	deps.Logger = logging.NewComponentLogger(deps.Logger, "api")
	if deps.StartTime.IsZero() {
		deps.StartTime = time.Now()
	}

	return &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      NewRouter(deps),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: deps.Logger,
	}
}

// Start blocks serving requests until Shutdown.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// Addr returns the configured bind address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}
