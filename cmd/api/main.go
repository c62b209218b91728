package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/insightdesk/internal/api/router"
	"github.com/wolfman30/insightdesk/internal/app/bootstrap"
	appconfig "github.com/wolfman30/insightdesk/internal/config"
	"github.com/wolfman30/insightdesk/internal/http/handlers"
	"github.com/wolfman30/insightdesk/internal/observability/metrics"
	"github.com/wolfman30/insightdesk/internal/realtime"
	"github.com/wolfman30/insightdesk/pkg/logging"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting insightdesk API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"data_source", cfg.DataSource,
	)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	rt, err := bootstrap.BuildSource(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build data source", "error", err)
		os.Exit(1)
	}
	defer rt.Close()

	metricsHandler, dashboardMetrics := setupMetrics()
	hub := realtime.NewHub(cfg.LiveEventBuffer, dashboardMetrics, logger.Component("realtime"))
	startListener(ctx, cfg, rt, hub, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      newRouter(cfg, rt, hub, dashboardMetrics, metricsHandler, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // live sessions stream indefinitely
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// setupMetrics registers the dashboard collectors on a dedicated registry
// alongside the Go runtime collectors.
func setupMetrics() (http.Handler, *metrics.DashboardMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), metrics.NewDashboardMetrics(reg)
}

// startListener forwards PostgreSQL change notifications to the hub when a
// database is configured. Failures leave the API serving without live events.
func startListener(ctx context.Context, cfg *appconfig.Config, rt *bootstrap.Runtime, hub *realtime.Hub, logger *logging.Logger) *realtime.Listener {
	if cfg.DatabaseURL == "" || cfg.NotifyChannel == "" {
		logger.Info("change notifications disabled")
		return nil
	}
	var inv realtime.Invalidator
	if rt != nil && rt.Cache != nil {
		inv = rt.Cache
	}
	listener, err := realtime.NewListener(cfg.DatabaseURL, cfg.NotifyChannel, hub, inv, logger.Component("listener"))
	if err != nil {
		logger.Warn("change notifications unavailable", "channel", cfg.NotifyChannel, "error", err)
		return nil
	}
	go func() {
		if err := listener.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("change listener stopped", "error", err)
		}
	}()
	logger.Info("listening for change notifications", "channel", cfg.NotifyChannel)
	return listener
}

func newRouter(cfg *appconfig.Config, rt *bootstrap.Runtime, hub *realtime.Hub, m *metrics.DashboardMetrics, metricsHandler http.Handler, logger *logging.Logger) http.Handler {
	return router.New(&router.Config{
		Logger:     logger,
		Tables:     handlers.NewTablesHandler(rt.Source, m, cfg.DefaultScope, logger.Component("tables")),
		Vocabulary: handlers.NewVocabularyHandler(rt.Source, logger),
		Dashboard:  handlers.NewDashboardHandler(rt.Source, logger),
		Live: handlers.NewLiveHandler(rt.Source, hub, m, handlers.LiveConfig{
			DefaultScope:   cfg.DefaultScope,
			AllowedOrigins: cfg.CORSAllowedOrigins,
			PingInterval:   cfg.LivePingInterval,
		}, logger.Component("live")),
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RequestTimeout:     30 * time.Second,
	})
}
