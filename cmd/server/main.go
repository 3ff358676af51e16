package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "time/tzdata"

	"github.com/paaavkata/stock-dashboard/internal/app"
	"github.com/paaavkata/stock-dashboard/internal/config"
	"github.com/paaavkata/stock-dashboard/internal/health"
	"github.com/paaavkata/stock-dashboard/internal/scheduler"
	"github.com/paaavkata/stock-dashboard/internal/server"
	"github.com/paaavkata/stock-dashboard/pkg/utils"

	"github.com/sirupsen/logrus"
)

func main() {
	// Initialize logger
	logger := utils.NewLogger("stock-dashboard")

	// Load configuration
	cfg := config.Load()
	logger.WithFields(logrus.Fields{
		"port":              cfg.Port,
		"market_timezone":   cfg.MarketTimezone,
		"quote_credentials": cfg.HasQuoteCredentials(),
		"scheduler_enabled": cfg.SchedulerEnabled,
	}).Info("Configuration loaded")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database, clients and services
	deps, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize services")
	}
	defer deps.Close()

	if err := deps.SeedCatalog(ctx); err != nil {
		logger.WithError(err).Warn("Continuing without seeded ticker catalog")
	}

	if !cfg.HasQuoteCredentials() {
		logger.Warn("KIS_APP_KEY or KIS_APP_SECRET is not set; stock endpoints serve placeholder data")
	}

	// Start the scheduler
	var sched *scheduler.Scheduler
	if cfg.SchedulerEnabled && cfg.HasQuoteCredentials() {
		sched = scheduler.NewScheduler(scheduler.Config{
			RefreshCron:             cfg.RefreshCron,
			CleanupCron:             cfg.CleanupCron,
			TokenWarmCron:           cfg.TokenWarmCron,
			MarketDataRetentionDays: cfg.MarketDataRetentionDays,
			NewsRetentionDays:       cfg.NewsRetentionDays,
			WarmTokens:              true,
			WarmOnStart:             true,
		}, deps.Catalog.Tickers, deps.MarketData, deps.News, deps.Tokens, cfg.Location(), logger)

		if err := sched.Start(ctx); err != nil {
			logger.WithError(err).Fatal("Failed to start scheduler")
		}
	}

	healthChecker := health.NewHealthChecker(deps.DB, deps.Tokens, logger)

	srv := server.New(server.Config{
		Port:           cfg.Port,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Location:       cfg.Location(),
		DummyQuotes:    !cfg.HasQuoteCredentials(),
		Catalog:        deps.Catalog,
		Quotes:         deps.Quotes,
		History:        deps.MarketData,
		News:           deps.News,
		Tokens:         deps.Tokens,
		Health:         healthChecker.Handler(),
	}, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("HTTP server failed")
		}
	}()

	logger.Info("Stock dashboard service started successfully")

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down stock dashboard service...")

	// Cancel running jobs before waiting on them
	cancel()
	if sched != nil {
		sched.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Failed to shutdown HTTP server gracefully")
	}

	logger.Info("Stock dashboard service stopped")
}
