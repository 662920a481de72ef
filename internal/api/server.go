package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/wonny/dietdash/pkg/config"
	"github.com/wonny/dietdash/pkg/logger"
)

// shutdownTimeout bounds how long open requests may finish after Run's
// context is done. WebSocket connections are hijacked and not waited on.
const shutdownTimeout = 30 * time.Second

// Server serves the dashboard page, its API and the update socket
// ⭐ SSOT: HTTP server settings live in this file only
type Server struct {
	http   *http.Server
	logger *logger.Logger
}

// New creates a server for cfg.Port. Port "0" picks a free port.
func New(cfg *config.Config, log *logger.Logger, router http.Handler) *Server {
	return &Server{
		http: &http.Server{
			Addr:              net.JoinHostPort("", cfg.Port),
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			// PNG rendering of the full map is the slowest response
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: log.Component("http"),
	}
}

// Run binds the port, calls ready with the bound address and serves until
// ctx is done, then shuts down gracefully. A port that cannot be bound is
// returned before ready is called.
func (s *Server) Run(ctx context.Context, ready func(addr string)) error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.http.Addr, err)
	}

	addr := ln.Addr().String()
	s.logger.WithField("addr", addr).Info("Dashboard server listening")
	if ready != nil {
		ready(addr)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- s.http.Serve(ln) }()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down dashboard server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info("Dashboard server stopped")
	return nil
}
