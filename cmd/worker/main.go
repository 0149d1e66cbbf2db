package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/checkfox/lead_engage/internal/client"
	"github.com/checkfox/lead_engage/internal/config"
	"github.com/checkfox/lead_engage/internal/database"
	"github.com/checkfox/lead_engage/internal/logger"
	"github.com/checkfox/lead_engage/internal/queue"
	"github.com/checkfox/lead_engage/internal/repository"
	"github.com/checkfox/lead_engage/internal/worker"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.ValidateWorker(); err != nil {
		log.Fatalf("Invalid worker configuration: %v", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info(ctx, "Worker starting",
		"poll_interval", cfg.Worker.PollInterval.String(),
		"concurrency", cfg.Worker.Concurrency,
		"max_retry_attempts", cfg.Retry.MaxAttempts,
		"backoff_base", cfg.Retry.BackoffBase.String())

	dbWrapper, err := database.InitFromConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer dbWrapper.Close()

	logger.Info(ctx, "Database connection established")

	if err := database.RunMigrations(ctx, dbWrapper); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	jobQueue, err := queue.NewDBQueue(dbWrapper.DB)
	if err != nil {
		log.Fatalf("Failed to initialize queue: %v", err)
	}
	defer jobQueue.Close()

	logger.Info(ctx, "Queue initialized")

	processor := worker.NewProcessor(worker.ProcessorConfig{
		Queue:        jobQueue,
		DispatchRepo: repository.NewDispatchAttemptRepository(dbWrapper.DB),
		Dispatcher:   client.NewDeliveryClient(cfg.Delivery.URL, cfg.Delivery.Token, cfg.Delivery.Timeout),
		PollInterval: cfg.Worker.PollInterval,
		Concurrency:  cfg.Worker.Concurrency,
		MaxAttempts:  cfg.Retry.MaxAttempts,
		BackoffBase:  cfg.Retry.BackoffBase,
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	workerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	workerErrors := make(chan error, 1)
	go func() {
		workerErrors <- processor.Start(workerCtx)
	}()

	logger.Info(ctx, "Worker started successfully")

	select {
	case err := <-workerErrors:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error(ctx, "Worker error", "error", err.Error())
		}

	case sig := <-sigChan:
		logger.Info(ctx, "Received shutdown signal", "signal", sig.String())

		cancel()

		shutdownTimeout := time.NewTimer(30 * time.Second)
		defer shutdownTimeout.Stop()

		select {
		case <-workerErrors:
			logger.Info(ctx, "Worker stopped gracefully")
		case <-shutdownTimeout.C:
			logger.Warn(ctx, "Worker shutdown timeout exceeded, forcing exit")
		}
	}

	logger.Info(ctx, "Worker shutdown complete")
}
