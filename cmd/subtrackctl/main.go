package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"

	"subtrack/internal/amqp"
	"subtrack/internal/cli"
	"subtrack/internal/config"
	"subtrack/internal/core"
	"subtrack/internal/ctl"
	"subtrack/internal/log"
	"subtrack/internal/notify"
	"subtrack/internal/realtime"
	"subtrack/internal/services"
)

func main() {
	if err := ctl.Execute(context.Background(), open); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// open builds the app from the environment. Logs go to stderr so command
// output stays clean.
func open(ctx context.Context) (*ctl.App, func(), error) {
	cli.LoadEnvFile()
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = slog.LevelWarn
	}
	logger := log.NewText(os.Stderr, max(level, slog.LevelWarn), "subtrackctl")

	res, err := cli.InitStore(ctx, logger, cfg)
	if err != nil {
		return nil, nil, err
	}

	closers := []func() error{res.Cleanup}
	release := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if closers[i] == nil {
				continue
			}
			if err := closers[i](); err != nil {
				logger.Warn("Cleanup failed", log.FieldError, err)
			}
		}
	}

	// Writes made here reach open dashboards and the sheets mirror only
	// through the shared feed and broker.
	var (
		notifier services.ChangeNotifier
		mirror   services.MirrorPublisher
	)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			release()
			return nil, nil, fmt.Errorf("redis: %w", err)
		}
		rdb := redis.NewClient(opts)
		closers = append(closers, rdb.Close)
		notifier = realtime.NewRedisFeed(rdb, cfg.RedisChannel, logger.WithComponent(log.ComponentRealtime).Slog())
	}
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, sheets will not see this change", log.FieldError, err)
		} else {
			closers = append(closers, client.Close)
			mirror = client
		}
	}

	loc := core.Locale(cfg.DefaultLocale)
	clock := cli.Clock(cfg)
	app := &ctl.App{
		Store:   res.Store,
		Service: services.NewSubscriptionService(res.Store, notifier, mirror, services.WithClock(clock)),
		Locale:  loc,
		Now:     clock,
	}
	if cfg.TelegramBotToken != "" {
		tg, err := notify.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID, loc)
		if err != nil {
			release()
			return nil, nil, fmt.Errorf("telegram: %w", err)
		}
		app.Notifier = tg
	} else {
		app.Notifier = notify.NewLogNotifier(logger, loc)
	}

	return app, release, nil
}
