package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/servico/notifier/internal/housekeeping"
	"github.com/servico/notifier/internal/store"
	"github.com/servico/notifier/pkg/config"
	"github.com/servico/notifier/pkg/db"
	"github.com/servico/notifier/pkg/logger"
	"github.com/servico/notifier/pkg/metrics"
	"github.com/servico/notifier/pkg/migrate"
	"github.com/servico/notifier/pkg/outbox"
	"github.com/servico/notifier/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "housekeeper"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "housekeeper"

	logg = logger.New(logger.Options{
		ServiceName: "housekeeper",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	var lock housekeeping.Lock = housekeeping.LocalLock{}
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		lock, err = housekeeping.NewRedisLock(redisClient, redisClient.LockKey("housekeeper", cfg.App.Env), 0)
		if err != nil {
			logg.Error(context.Background(), "failed to create housekeeping lock", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "redis not configured; run a single housekeeper replica")
	}

	outboxRepo := outbox.NewRepository(dbClient.DB())
	notificationRepo := store.NewNotificationRepository(dbClient, outbox.NewService(outboxRepo, logg))

	notificationJob, err := housekeeping.NewNotificationRetentionJob(housekeeping.NotificationRetentionParams{
		DB:            dbClient,
		Notifications: notificationRepo,
		RetentionDays: cfg.Housekeeping.NotificationRetentionDays,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create notification retention job", err)
		os.Exit(1)
	}
	outboxJob, err := housekeeping.NewOutboxRetentionJob(housekeeping.OutboxRetentionParams{
		DB:               dbClient,
		Outbox:           outboxRepo,
		RetentionDays:    cfg.Housekeeping.OutboxRetentionDays,
		TerminalAttempts: cfg.Outbox.MaxAttempts,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create outbox retention job", err)
		os.Exit(1)
	}

	service, err := housekeeping.NewService(housekeeping.ServiceParams{
		Logger:   logg,
		Registry: housekeeping.NewRegistry(notificationJob, outboxJob),
		Lock:     lock,
		Metrics:  metrics.NewHousekeepingMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Housekeeping.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create housekeeping service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting housekeeper")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "housekeeper stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "housekeeper shutting down gracefully")
}
