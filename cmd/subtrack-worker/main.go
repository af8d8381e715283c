package main

import (
	"context"
	"errors"
	"os"

	"subtrack/internal/amqp"
	"subtrack/internal/backend"
	"subtrack/internal/cli"
	"subtrack/internal/config"
	"subtrack/internal/log"
	gsheet "subtrack/internal/sheets/google"
	"subtrack/internal/worker"
)

func main() {
	cfg, logger := cli.MustLoadConfig()
	logger = logger.WithComponent(log.ComponentWorker)
	logger.Info("Starting subtrack-worker")

	if err := run(cfg, logger); err != nil {
		logger.Error("Worker exited with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}

func run(cfg *config.Config, logger *log.Logger) error {
	if cfg.AMQPURL == "" {
		return errors.New("AMQP_URL is required for the worker")
	}
	if !cfg.SheetsConfigured() {
		return errors.New("GOOGLE_SPREADSHEET_ID and service account credentials are required for the worker")
	}
	if cfg.DataBackend == string(backend.MemoryBackend) {
		logger.Warn("Memory backend is not shared with the server; mirrored snapshots will be empty")
	}

	ctx, cancel := cli.SignalContext(context.Background(), logger)
	defer cancel()

	store, err := cli.InitStore(ctx, logger, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if store.Cleanup != nil {
			_ = store.Cleanup()
		}
	}()

	sheetsClient, err := gsheet.New(ctx, gsheet.Credentials{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		return err
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return err
	}
	defer amqpClient.Close()

	syncWorker := worker.NewSyncWorker(store.Store, sheetsClient)

	// Catch up on changes published while the worker was down.
	logger.Info("Performing startup sync check...")
	if err := syncWorker.StartupSyncCheck(ctx); err != nil {
		logger.Error("Failed startup sync check", log.FieldError, err)
	}

	err = amqpClient.ConsumeSubscriptionsChanged(ctx, syncWorker.HandleSubscriptionsChanged)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
