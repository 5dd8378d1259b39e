package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Server owns the listener for the storefront API.
type Server struct {
	httpServer *http.Server
	logger     zerolog.Logger
}

// New builds a Server with every route registered. db backs the readiness
// probe and may be nil in tests.
func New(addr string, logger zerolog.Logger, db pinger, deps Deps) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           buildRouter(logger, db, deps),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       2 * time.Minute,
		},
		logger: logger.With().Str("component", "http_server").Logger(),
	}
}

func (s *Server) ListenAndServe() error {
	s.logger.Info().Str("addr", s.httpServer.Addr).Msg("starting http server")
	return s.httpServer.ListenAndServe()
}

// Shutdown stops accepting connections and waits for in-flight requests,
// including checkout notifications, until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
