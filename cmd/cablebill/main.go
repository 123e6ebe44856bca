package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync"
	"time"

	"cablebill/internal/cli"
	apphttp "cablebill/internal/http"
	"cablebill/internal/log"
	"cablebill/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	app, err := cli.Bootstrap(context.Background(), logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize ledger", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Options{
		Ledger:             app.Ledger,
		Notifier:           app.Notifier,
		BusinessName:       cfg.BusinessName,
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	var workers sync.WaitGroup
	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		workers.Wait()
		if err := app.Close(shutdownCtx); err != nil {
			logger.Error("Ledger close error", log.FieldError, err)
		}
	})

	autosaver := worker.NewAutosaver(app.Ledger, cfg.AutosaveInterval, logger)
	workers.Add(1)
	go func() {
		defer workers.Done()
		autosaver.Run(ctx)
	}()

	if app.Syncer != nil && cfg.SyncEnabled {
		probe := worker.NewSyncProbe(app.Syncer, worker.DefaultProbeInterval, logger)
		workers.Add(1)
		go func() {
			defer workers.Done()
			probe.Run(ctx)
		}()
	}

	if cfg.BillingEnabled() {
		scheduler := worker.NewBillingScheduler(app.Ledger, cfg.BillingDay, cfg.BillingCheckInterval, logger)
		workers.Add(1)
		go func() {
			defer workers.Done()
			scheduler.Run(ctx)
		}()
	}

	logger.Info("Starting cablebill server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"sync_enabled", cfg.SyncEnabled,
		"amqp_enabled", app.Events != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		_ = app.Close(context.Background())
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
