// Package httpapi serves the read-only status endpoints of a running batch.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/boat2moon/infinitetalk-comfyui-workflow/internal/httpapi/handlers"
	"github.com/boat2moon/infinitetalk-comfyui-workflow/internal/pkg/logger"
	"github.com/boat2moon/infinitetalk-comfyui-workflow/internal/pkg/middleware"
)

func NewRouter(d handlers.Deps) http.Handler {
	log := d.Log
	if log == nil {
		log = logger.NewDefault()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(log))
	r.Use(middleware.Logging(log))
	r.Use(chimw.Timeout(30 * time.Second))

	h := handlers.New(d)

	r.Get("/health", h.Health)
	r.Get("/progress", middleware.WrapHandler(log, h.GetProgress))
	r.Get("/items/{index}", middleware.WrapHandler(log, h.GetItem))
	r.Get("/items/{index}/workflow", middleware.WrapHandler(log, h.GetItemWorkflow))

	return r
}

// NewServer returns the HTTP server for the status endpoints.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// Serve runs srv until ctx is canceled or the listener fails.
func Serve(ctx context.Context, srv *http.Server, log *logger.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info("status server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
