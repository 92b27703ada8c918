// cmd/server/server.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/biolink/internal/api"
	themeapi "github.com/codr1/biolink/internal/api/themes"
	"github.com/codr1/biolink/internal/config"
	"github.com/codr1/biolink/internal/db"
	"github.com/codr1/biolink/internal/metrics"
	"github.com/codr1/biolink/internal/ratelimit"
	"github.com/codr1/biolink/internal/templates/components/blocks"
	"github.com/codr1/biolink/internal/themes"
)

const healthCheckTimeout = 2 * time.Second

func newServer(cfg *config.Config, database *db.DB, m *metrics.Metrics) *http.Server {
	limiter := newWriteLimiter(cfg.Themes.RateLimit)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      newHandler(cfg, database, m, limiter),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	if limiter != nil {
		srv.RegisterOnShutdown(limiter.Close)
	}
	return srv
}

func newWriteLimiter(cfg config.RateLimitConfig) *ratelimit.Limiter {
	if !cfg.Enabled() {
		return nil
	}
	return ratelimit.New(&ratelimit.Config{
		Window:     cfg.Window,
		MaxPerUser: cfg.MaxPerUser,
		MaxPerIP:   cfg.MaxPerIP,
		TrustProxy: cfg.TrustProxy,
	})
}

// newHandler wires the store, routes and middleware. m and limiter may be
// nil when their features are disabled.
func newHandler(cfg *config.Config, database *db.DB, m *metrics.Metrics, limiter *ratelimit.Limiter) http.Handler {
	router := http.NewServeMux()

	var storeOpts []themes.Option
	if m != nil {
		storeOpts = append(storeOpts, themes.WithMetrics(m))
	}
	store := themes.NewStore(database.Queries, storeOpts...)

	registry := blocks.NewRegistry()
	log.Debug().Int("block_types", registry.Len()).Msg("Registered page blocks")

	// Register routes
	handlerOpts := []themeapi.HandlerOption{
		themeapi.WithQueryTimeout(cfg.Themes.QueryTimeout),
		themeapi.WithBlocks(registry),
	}
	if limiter != nil {
		handlerOpts = append(handlerOpts, themeapi.WithWriteLimiter(limiter))
	}
	registerRoutes(router, database, themeapi.NewHandler(store, handlerOpts...), m)

	// Setup middleware chain
	middleware := []api.Middleware{
		api.WithLogging,
		api.WithRecovery,
		api.WithUser(cfg.Auth.UserHeader),
		api.WithRequestID,
		api.WithContentType,
	}
	if m != nil {
		// Innermost, so the mux has set r.Pattern by the time it records.
		middleware = append([]api.Middleware{api.WithMetrics(m)}, middleware...)
	}
	return api.ChainMiddleware(router, middleware...)
}

func registerRoutes(mux *http.ServeMux, database *db.DB, themeHandler *themeapi.Handler, m *metrics.Metrics) {
	// Main page handler
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/themes", http.StatusSeeOther)
	})

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		if err := database.PingContext(ctx); err != nil {
			log.Ctx(r.Context()).Error().Err(err).Msg("Health check failed")
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	if m != nil {
		mux.Handle("GET /metrics", m.Handler())
	}

	// Theme routes
	themeHandler.RegisterRoutes(mux)
}
