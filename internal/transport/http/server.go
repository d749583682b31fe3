package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/reshetovitsme/channel-relay/internal/shared/config"
	sloghttp "github.com/samber/slog-http"
	"github.com/samber/oops"
)

const shutdownTimeout = 10 * time.Second

// Server answers liveness probes for the hosting platform
type Server struct {
	cfg    *config.Config
	logger *slog.Logger
}

// New creates a new HTTP server
func New(cfg *config.Config) *Server {
	return &Server{
		cfg:    cfg,
		logger: slog.Default(),
	}
}

// SetLogger sets the logger
func (s *Server) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

// Handler returns the router wrapped with request logging and panic recovery.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(sloghttp.New(s.logger), sloghttp.Recovery)

	r.Get("/", s.handleHealth)
	r.Get("/health", s.handleHealth)

	return r
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%s", s.cfg.HTTPPort)
	server := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Liveness server starting", "addr", addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return oops.In("http").With("addr", addr).Wrap(err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return oops.In("http").With("addr", addr).Wrap(err)
	}
	s.logger.Info("Liveness server stopped")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
