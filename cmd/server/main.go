package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/brickshop/internal/config"
	"github.com/JonMunkholm/brickshop/internal/core"
	_ "github.com/JonMunkholm/brickshop/internal/core/sheets" // Register CSV and XLSX decoders
	"github.com/JonMunkholm/brickshop/internal/logging"
	"github.com/JonMunkholm/brickshop/internal/metrics"
	"github.com/JonMunkholm/brickshop/internal/source"
	"github.com/JonMunkholm/brickshop/internal/store"
	"github.com/JonMunkholm/brickshop/internal/web"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(os.Stdout, cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	ctx := context.Background()

	// Cart persistence
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		slog.Error("failed to open cart store", "backend", cfg.Store.Backend, "error", err)
		os.Exit(1)
	}
	defer st.Close()
	slog.Info("cart store ready", "backend", st.Name())

	var m *metrics.Metrics
	var observer core.Observer
	if cfg.Metrics.Enabled {
		m = metrics.New()
		observer = m
	}

	service, err := core.NewService(st, core.Options{
		CartKey:            cfg.Store.CartKey,
		Locale:             cfg.Catalog.Locale,
		MaxConcurrentLoads: cfg.Upload.MaxConcurrent,
		MaxLoadWait:        cfg.Upload.MaxWaitTime,
		LoadTimeout:        cfg.Upload.Timeout,
		Observer:           observer,
	})
	if err != nil {
		slog.Error("failed to create service", "error", err)
		os.Exit(1)
	}

	if m != nil {
		m.RegisterGauge("cart_units", "Units currently in the cart", func() float64 {
			return float64(service.CartSummary())
		})
		m.RegisterGauge("catalog_loads_active", "Catalog loads in progress", func() float64 {
			return float64(service.LimiterStatus().Active)
		})
	}

	service.RestoreCart(ctx)
	slog.Info("decoders registered", "extensions", core.AcceptedExtensions())

	// Create cancellable context for background jobs
	jobCtx, cancelJobs := context.WithCancel(context.Background())

	// Bootstrap catalog and enrichment cache. Either may be missing.
	go source.Bootstrap(jobCtx, service, source.Options{
		CatalogLocation:    cfg.Catalog.BootstrapSource,
		EnrichmentLocation: cfg.Catalog.EnrichmentSource,
		Timeout:            cfg.Catalog.FetchTimeout,
	})

	server := web.NewServer(service, m, cfg)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Wait for active loads to complete (with timeout)
		if status := service.LimiterStatus(); status.Active > 0 {
			slog.Info("waiting for catalog loads to complete", "active", status.Active)
			if err := service.WaitForLoads(shutdownCtx); err != nil {
				slog.Warn("catalog loads did not complete in time", "error", err)
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil {
		slog.Error("server stopped", "error", err)
		st.Close()
		os.Exit(1)
	}
	slog.Info("server stopped")
}
