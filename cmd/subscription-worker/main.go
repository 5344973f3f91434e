package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"budgetbot/internal/amqp"
	"budgetbot/internal/backend"
	"budgetbot/internal/config"
	applog "budgetbot/internal/log"
	"budgetbot/internal/services"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.Config{
		Component: applog.ComponentScheduler,
	})
	applog.SetDefault(logger)

	logger.Info("Starting subscription-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}

	store, err := backend.Open(cfg)
	if err != nil {
		logger.Error("Failed to initialize data backend", applog.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer store.Close()

	var events services.EventPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without events", applog.FieldError, err)
		} else {
			defer amqpClient.Close()
			events = amqpClient
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange)
		}
	}

	processor := services.NewSubscriptionProcessor(store, events)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Subscription processor configured",
		"interval", cfg.SubscriptionInterval,
		"backend", cfg.DataBackend)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// Run once at startup so a daily charge is not missed just because
		// the worker started after the last tick.
		if count, err := processor.ProcessDue(ctx, time.Now()); err != nil {
			logger.Error("Initial processing failed", applog.FieldError, err)
		} else {
			logger.Info("Initial processing complete", "expenses_created", count)
		}

		ticker := time.NewTicker(cfg.SubscriptionInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case now := <-ticker.C:
				count, err := processor.ProcessDue(ctx, now)
				if err != nil {
					logger.Error("Periodic processing failed", applog.FieldError, err)
					continue
				}
				logger.Info("Periodic processing complete",
					"expenses_created", count,
					"next_check", now.Add(cfg.SubscriptionInterval).Format("15:04:05"))
			}
		}
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Error("Worker stopped with error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Subscription-worker stopped gracefully")
}
