// Package mockapi serves an in-memory stand-in for the SICC API, for local
// runs of the probe and as its test fixture.
package mockapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/jmylchreest/siccprobe/internal/config"
	apihttp "github.com/jmylchreest/siccprobe/internal/http"
	"github.com/jmylchreest/siccprobe/internal/version"
)

// Server is the mock API server.
type Server struct {
	http  *apihttp.Server
	store *Store
}

// NewServer wires a fresh store and the mock operations onto an HTTP server.
func NewServer(cfg config.MockConfig, logger *slog.Logger) *Server {
	serverCfg := apihttp.DefaultServerConfig()
	serverCfg.Host = cfg.Host
	serverCfg.Port = cfg.Port
	if cfg.ShutdownTimeout > 0 {
		serverCfg.ShutdownTimeout = cfg.ShutdownTimeout
	}

	srv := apihttp.NewServer(serverCfg, logger, "SICC API (mock)", version.Version)
	store := NewStore(cfg.SeedItems)
	NewHandler(store, cfg.CookieOnly).Register(srv.API())

	return &Server{http: srv, store: store}
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.http.Handler()
}

// Store exposes the backing store.
func (s *Server) Store() *Store {
	return s.store
}

// ListenAndServe serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	return s.http.ListenAndServe(ctx)
}
