package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"budgetbot/internal/amqp"
	"budgetbot/internal/backend"
	"budgetbot/internal/config"
	applog "budgetbot/internal/log"
	"budgetbot/internal/sheets"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.Config{
		Component: applog.ComponentSheets,
	})
	applog.SetDefault(logger)

	logger.Info("Starting export-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the export worker")
		os.Exit(1)
	}

	store, err := backend.Open(cfg)
	if err != nil {
		logger.Error("Failed to initialize data backend", applog.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	writer, err := sheets.NewClient(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	logger.Info("Consuming expense events", "queue", cfg.AMQPQueue)

	err = amqpClient.ConsumeExpenseCreated(ctx, func(msg *amqp.ExpenseCreatedMessage) error {
		ds, err := store.Load(ctx)
		if err != nil {
			return err
		}

		var exported bool
		for _, e := range ds.Expenses {
			if e.ID != msg.ExpenseID {
				continue
			}
			userName := ""
			if u, ok := ds.UserByID(e.UserID); ok {
				userName = u.Name
			}
			ref, err := writer.Append(ctx, e, userName)
			if err != nil {
				return err
			}
			logger.Info("Expense exported",
				applog.FieldExpenseID, e.ID,
				applog.FieldSource, msg.Source,
				applog.FieldSheetsRef, ref)
			exported = true
			break
		}
		if !exported {
			// Deleted before the event was consumed; nothing to export.
			logger.Warn("Expense not found, skipping", applog.FieldExpenseID, msg.ExpenseID)
		}
		return nil
	})
	if err != nil && ctx.Err() == nil {
		logger.Error("Consumer stopped with error", applog.FieldError, err)
		os.Exit(1)
	}

	logger.Info("Export-worker stopped gracefully")
}
