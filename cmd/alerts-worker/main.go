package main

import (
	"context"
	"os"
	"time"

	"subtrack/internal/backend"
	"subtrack/internal/cache"
	"subtrack/internal/cli"
	"subtrack/internal/config"
	"subtrack/internal/core"
	"subtrack/internal/log"
	"subtrack/internal/notify"
	"subtrack/internal/scheduler"
	"subtrack/internal/services"
)

func main() {
	cfg, logger := cli.MustLoadConfig()
	logger = logger.WithComponent(log.ComponentAlerts)

	if err := run(cfg, logger); err != nil {
		logger.Error("Alerts worker exited with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Alerts worker stopped")
}

func run(cfg *config.Config, logger *log.Logger) error {
	if cfg.DataBackend == string(backend.MemoryBackend) {
		logger.Warn("Memory backend is not shared with the server; no subscriptions will be scanned")
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

	loc := core.Locale(cfg.DefaultLocale)
	var notifier services.AlertNotifier = notify.NewLogNotifier(logger, loc)
	if cfg.TelegramBotToken != "" {
		tg, err := notify.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID, loc)
		if err != nil {
			return err
		}
		notifier = tg
		logger.Info("Sending alerts to Telegram", "chat_id", cfg.TelegramChatID)
	}

	processor := services.NewAlertProcessor(store.Store, notifier)
	caches := cache.NewManager(logger.WithComponent(log.ComponentCache).Slog())
	caches.Register(processor.Cache())
	caches.StartCleanup(time.Hour)
	defer caches.Stop()

	sched := scheduler.NewAlertScheduler(processor, cfg.AlertCronSpec, cfg.Location(), logger)

	if next, err := sched.Next(time.Now().In(cfg.Location())); err == nil {
		logger.Info("Alerts worker started", "cron", cfg.AlertCronSpec, "next_run", next.Format("2006-01-02 15:04 MST"))
	}

	// Payments that came due while the worker was down are reported now.
	if _, err := sched.RunOnce(ctx); err != nil {
		logger.Warn("Startup alert scan failed", log.FieldError, err)
	}

	return sched.Run(ctx)
}
