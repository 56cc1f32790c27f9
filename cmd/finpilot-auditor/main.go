package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/Shadow-Howl-Sec/FinPilot/internal/amqp"
	"github.com/Shadow-Howl-Sec/FinPilot/internal/config"
	"github.com/Shadow-Howl-Sec/FinPilot/internal/log"
	"github.com/Shadow-Howl-Sec/FinPilot/internal/storage"
	"github.com/Shadow-Howl-Sec/FinPilot/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()

	logger := log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Component: "finpilot-auditor",
	})
	log.SetDefault(logger)

	logger.Info("Starting finpilot-auditor")

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// Broker is optional: without it findings are logged but not published.
	var alertPublisher worker.AlertPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		alertPublisher = amqpClient
		logger.Info("Initialized AMQP client",
			"exchange", cfg.AMQPExchange,
			"queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - tamper alerts will only be logged")
	}

	sweeper := worker.NewSweepWorker(repo, alertPublisher, cfg.SweepConcurrency)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()
	}()

	logger.Info("Integrity sweep loop starting",
		"interval", cfg.SweepInterval,
		"concurrency", cfg.SweepConcurrency)

	if err := sweeper.Run(ctx, cfg.SweepInterval); err != nil && err != context.Canceled {
		logger.Error("Sweep loop terminated", "error", err)
		os.Exit(1)
	}

	logger.Info("finpilot-auditor stopped")
}
