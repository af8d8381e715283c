package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"subtrack/internal/amqp"
	"subtrack/internal/auth"
	"subtrack/internal/cache"
	"subtrack/internal/cli"
	"subtrack/internal/config"
	"subtrack/internal/core"
	apphttp "subtrack/internal/http"
	"subtrack/internal/log"
	"subtrack/internal/notify"
	"subtrack/internal/realtime"
	"subtrack/internal/scheduler"
	"subtrack/internal/services"
)

func main() {
	cfg, logger := cli.MustLoadConfig()
	if err := run(cfg, logger); err != nil {
		logger.Error("Server exited with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(cfg *config.Config, logger *log.Logger) error {
	ctx, cancel := cli.SignalContext(context.Background(), logger)
	defer cancel()

	store, err := cli.InitStore(ctx, logger, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if store.Cleanup != nil {
			if err := store.Cleanup(); err != nil {
				logger.Error("Failed to close store", log.FieldError, err)
			}
		}
	}()

	caches := cache.NewManager(logger.WithComponent(log.ComponentCache).Slog())
	defer caches.Stop()

	var (
		feed    realtime.Feed = realtime.NewLocalFeed()
		revoker auth.Revoker
	)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return err
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		feed = realtime.NewRedisFeed(rdb, cfg.RedisChannel, logger.WithComponent(log.ComponentRealtime).Slog())
		revoker = auth.NewRedisRevoker(rdb)
		logger.Info("Using Redis for change feed and session revocation", "channel", cfg.RedisChannel)
	} else {
		mem := auth.NewMemoryRevoker(10000)
		caches.Register(mem.Cache())
		revoker = mem
	}

	hub := realtime.NewHub(store.Store, logger.WithComponent(log.ComponentRealtime).Slog())
	defer hub.Close()

	// A typed nil *amqp.Client must not reach the service interface.
	var mirror services.MirrorPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, sheets mirroring disabled", log.FieldError, err)
		} else {
			defer client.Close()
			mirror = client
		}
	}

	svc := services.NewSubscriptionService(store.Store, feed, mirror, services.WithClock(cli.Clock(cfg)))

	provider := auth.NewProvider(auth.ProviderConfig{
		ClientID:       cfg.GoogleOAuthClientID,
		ClientSecret:   cfg.GoogleOAuthClientSecret,
		RedirectURL:    cfg.GoogleOAuthRedirectURL,
		AllowedOrigins: cfg.AllowedOrigins,
	})
	caches.Register(provider.States())
	if !provider.Configured() {
		logger.Warn("Google sign-in is not configured; API calls will be rejected")
	}
	sessions := auth.NewSessionManager(cfg.SessionSecret, cfg.SessionTTL, cfg.SecureCookies, revoker)

	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Subscriptions:  svc,
		Snapshots:      hub,
		Users:          store.Store,
		Store:          store.Store,
		Provider:       provider,
		Sessions:       sessions,
		Logger:         logger,
		DefaultLocale:  core.Locale(cfg.DefaultLocale),
		Location:       cfg.Location(),
		AllowedOrigins: cfg.AllowedOrigins,
		TrustedProxies: cfg.TrustedProxies,
		RateLimit:      cfg.RateLimit,
	})
	if err != nil {
		return err
	}

	caches.StartCleanup(5 * time.Minute)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting subtrack server", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
		defer cancel()
		hub.Close()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return feed.Listen(gctx, realtime.HubHandler(hub, logger.WithComponent(log.ComponentRealtime).Slog()))
	})

	if cfg.AlertsInServer {
		processor := services.NewAlertProcessor(store.Store, notifierFor(cfg, logger))
		caches.Register(processor.Cache())
		sched := scheduler.NewAlertScheduler(processor, cfg.AlertCronSpec, cfg.Location(), logger)
		g.Go(func() error {
			return sched.Run(gctx)
		})
	}

	return g.Wait()
}

func notifierFor(cfg *config.Config, logger *log.Logger) services.AlertNotifier {
	loc := core.Locale(cfg.DefaultLocale)
	if cfg.TelegramBotToken != "" {
		tg, err := notify.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID, loc)
		if err == nil {
			return tg
		}
		logger.Warn("Telegram unavailable, alerts go to the log", log.FieldError, err)
	}
	return notify.NewLogNotifier(logger, loc)
}
