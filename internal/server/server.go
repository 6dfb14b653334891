package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/nholik/progress-sentinel/internal/healthcheck"
	"github.com/nholik/progress-sentinel/internal/metrics"
	"github.com/rs/zerolog"
)

const shutdownTimeout = 5 * time.Second

// Routes are the HTTP surfaces a process may expose.
type Routes struct {
	// Events is mounted under /v1 when set.
	Events  http.Handler
	Tracker *healthcheck.Tracker
	// Metrics is served at /metrics when set.
	Metrics *metrics.Metrics
}

// NewRouter builds the chi router for the given routes.
func NewRouter(routes Routes) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.Get("/healthz", healthcheck.HealthHandler(routes.Tracker))
	r.Get("/readyz", healthcheck.ReadyHandler(routes.Tracker))
	if routes.Metrics != nil {
		r.Handle("/metrics", routes.Metrics.Handler())
	}
	if routes.Events != nil {
		r.Mount("/v1", routes.Events)
	}
	return r
}

// NewMetricsRouter serves only /metrics, for a dedicated metrics port.
func NewMetricsRouter(m *metrics.Metrics) http.Handler {
	r := chi.NewRouter()
	r.Handle("/metrics", m.Handler())
	return r
}

// Start serves handler on port until ctx is canceled. The returned channel is
// closed once the server has shut down.
func Start(ctx context.Context, logger zerolog.Logger, handler http.Handler, port int, label string) <-chan struct{} {
	done := make(chan struct{})
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("server", label).Int("port", port).Msg("http server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Str("server", label).Int("port", port).Msg("http server failed")
		}
	}()

	go func() {
		defer close(done)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Str("server", label).Int("port", port).Msg("http server shutdown failed")
		}
	}()

	return done
}
