package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.corsMiddleware(s.healthHandler))
	mux.HandleFunc("/align", s.corsMiddleware(s.alignHandler))
	mux.HandleFunc("/ws/progress", s.progressHandler)
	mux.Handle("/metrics", promhttp.Handler())
}

// Start runs the HTTP server until the context is canceled, then shuts down
// gracefully within the configured shutdown timeout.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	s.SetupRoutes(mux)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.host, s.port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       time.Duration(s.timeoutSec) * time.Second,
		WriteTimeout:      time.Duration(s.timeoutSec) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down server", "timeout_sec", s.shutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(s.shutdownTimeout)*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
