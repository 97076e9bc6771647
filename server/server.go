package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

const (
	defaultMaxBuilders  = 256
	defaultMaxBodyBytes = 32 << 20
	shutdownTimeout     = 5 * time.Second
)

type Config struct {
	// MaxBuilders bounds the number of live builders. The least recently used builder is
	// dropped when a new one would exceed it.
	MaxBuilders int
	// LiteralKeys is used for builders created without their own list.
	LiteralKeys []string
	// MaxBodyBytes bounds a single request body.
	MaxBodyBytes int64
}

type Server struct {
	cfg      Config
	router   *mux.Router
	builders *registry
	metrics  *metrics
}

func New(cfg Config) (*Server, error) {
	if cfg.MaxBuilders <= 0 {
		cfg.MaxBuilders = defaultMaxBuilders
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}

	r, err := newRegistry(cfg.MaxBuilders)
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:      cfg,
		router:   mux.NewRouter(),
		builders: r,
		metrics:  newMetrics(),
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
