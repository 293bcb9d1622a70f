package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/wellness-companion/internal/api/router"
	"github.com/wolfman30/wellness-companion/internal/app/bootstrap"
	"github.com/wolfman30/wellness-companion/internal/companion"
	appconfig "github.com/wolfman30/wellness-companion/internal/config"
	"github.com/wolfman30/wellness-companion/internal/contacts"
	httpmiddleware "github.com/wolfman30/wellness-companion/internal/http/middleware"
	"github.com/wolfman30/wellness-companion/internal/observability/metrics"
	"github.com/wolfman30/wellness-companion/pkg/logging"
)

const limiterIdleTTL = 10 * time.Minute

func main() {
	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting wellness-companion API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"provider_configured", cfg.ProviderConfigured(),
	)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	rt := bootstrap.BuildRuntime(ctx, cfg, logger)
	defer rt.Close()
	if rt.Pool == nil {
		logger.Warn("postgres unavailable, catalog context and the admin API are disabled")
	}

	metricsHandler, chatMetrics := setupMetrics(cfg)
	stack := bootstrap.BuildChatStack(ctx, cfg, rt, logger, chatMetrics)
	r := router.New(buildRouterConfig(cfg, rt, stack, metricsHandler, logger))

	if stack.RateLimiter != nil {
		go evictIdleLimiters(ctx, stack.RateLimiter, limiterIdleTTL)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	stop()

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// setupMetrics returns the /metrics handler and chat metrics on a private
// registry, or nils when metrics are disabled.
func setupMetrics(cfg *appconfig.Config) (http.Handler, *metrics.ChatMetrics) {
	if cfg == nil || !cfg.MetricsEnabled {
		return nil, nil
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	chatMetrics := metrics.NewChatMetrics(reg)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), chatMetrics
}

func buildRouterConfig(cfg *appconfig.Config, rt *bootstrap.Runtime, stack *bootstrap.ChatStack, metricsHandler http.Handler, logger *logging.Logger) *router.Config {
	routerCfg := &router.Config{
		Logger:             logger,
		ChatHandler:        companion.NewHandler(stack.Service, logger),
		ChatRateLimiter:    stack.RateLimiter,
		MetricsHandler:     metricsHandler,
		HealthChecks:       rt.HealthChecks(),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		AuthJWTSecret:      cfg.AuthJWTSecret,
		AdminAuthSecret:    cfg.AdminJWTSecret,
	}
	if stack.Contacts != nil {
		routerCfg.ContactsHandler = contacts.NewHandler(stack.Contacts, logger)
	}
	return routerCfg
}

func evictIdleLimiters(ctx context.Context, limiter *httpmiddleware.RateLimiter, ttl time.Duration) {
	ticker := time.NewTicker(ttl)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			limiter.Evict(now.Add(-ttl))
		}
	}
}
