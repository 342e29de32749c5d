package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/ccmeter/ccmeter/internal/metrics"
)

// MetricsSource is the read contract the API serves. The daemon implements
// it; tests substitute a fake.
type MetricsSource interface {
	Snapshot() *metrics.Snapshot
	Health() metrics.Health
	Rescan(ctx context.Context) error
}

// Config holds the HTTP server settings.
type Config struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// WebAPI exposes the published snapshot over HTTP. Every read handler works
// on an immutable snapshot, so no handler ever takes a lock.
type WebAPI struct {
	router *chi.Mux
	logger *zerolog.Logger
	server *http.Server
	source MetricsSource

	shutdownTimeout time.Duration
}

// NewWebAPI builds the router and handlers.
func NewWebAPI(logger zerolog.Logger, cfg Config, source MetricsSource) *WebAPI {
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	api := &WebAPI{
		logger:          &logger,
		source:          source,
		shutdownTimeout: cfg.ShutdownTimeout,
	}

	router := chi.NewRouter()
	router.Use(requestLogger(&logger))
	router.Use(middleware.Recoverer)

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/metrics", api.getMetrics)
		r.Get("/health", api.getHealth)
		r.Post("/rescan", api.postRescan)
	})

	api.router = router
	api.server = &http.Server{Addr: cfg.Addr, Handler: router}
	return api
}

// Handler exposes the router for httptest-based tests.
func (a *WebAPI) Handler() http.Handler {
	return a.router
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (a *WebAPI) Start(ctx context.Context) error {
	serverErrors := make(chan error, 1)

	go func() {
		a.logger.Info().Str("addr", a.server.Addr).Msg("starting server")
		serverErrors <- a.server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		a.logger.Info().Msg("shutdown initiated")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.logger.Error().Err(err).Msg("graceful shutdown failed")
			return a.server.Close()
		}
	}

	return nil
}

func (a *WebAPI) getMetrics(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, http.StatusOK, a.source.Snapshot())
}

func (a *WebAPI) getHealth(w http.ResponseWriter, r *http.Request) {
	health := a.source.Health()
	status := http.StatusOK
	if !health.Healthy && health.LastError != "" {
		status = http.StatusServiceUnavailable
	}
	a.writeJSON(w, status, health)
}

func (a *WebAPI) postRescan(w http.ResponseWriter, r *http.Request) {
	if err := a.source.Rescan(r.Context()); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("rescan failed")
		a.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	a.writeJSON(w, http.StatusOK, a.source.Snapshot())
}

func (a *WebAPI) writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := sonic.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}
