package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/servico/notifier/api/handlers"
	"github.com/servico/notifier/api/routes"
	"github.com/servico/notifier/internal/notifications"
	"github.com/servico/notifier/internal/store"
	"github.com/servico/notifier/internal/triggers"
	"github.com/servico/notifier/pkg/config"
	"github.com/servico/notifier/pkg/db"
	"github.com/servico/notifier/pkg/logger"
	"github.com/servico/notifier/pkg/metrics"
	"github.com/servico/notifier/pkg/migrate"
	"github.com/servico/notifier/pkg/outbox"
	"github.com/servico/notifier/pkg/pubsub"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "notifier"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	cfg.Service.Kind = "notifier"

	logg = logger.New(logger.Options{
		ServiceName: "notifier",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	err = migrate.MaybeRunDev(ctx, cfg, logg, dbClient)
	requireResource(ctx, logg, "dev migrations", err)

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	requireResource(ctx, logg, "pubsub", err)
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(ctx, "failed to close pubsub client", err)
		}
	}()

	gateway, err := newGateway(ctx, cfg)
	requireResource(ctx, logg, "push gateway", err)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	notificationMetrics := metrics.NewNotificationMetrics(registry)

	checks := map[string]handlers.Check{
		"database": dbClient.Ping,
		"pubsub":   pubsubClient.Ping,
	}

	directory := store.NewRecipientRepository(dbClient)

	events := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)
	sink := store.NewNotificationRepository(dbClient, events)

	dispatcher, err := notifications.NewDispatcher(notifications.DispatcherParams{
		Directory: directory,
		Gateway:   gateway,
		Sink:      sink,
		Logger:    logg,
		Metrics:   notificationMetrics,
	})
	requireResource(ctx, logg, "dispatcher", err)

	executor, err := notifications.NewExecutor(notifications.ExecutorParams{
		Sink:    sink,
		Logger:  logg,
		Metrics: notificationMetrics,
	})
	requireResource(ctx, logg, "executor", err)

	trig, err := notifications.NewTriggers(notifications.TriggersParams{
		Dispatcher: dispatcher,
		Executor:   executor,
		Logger:     logg,
	})
	requireResource(ctx, logg, "triggers", err)

	subscription := pubsubClient.StoreEventsSubscription()
	if subscription == nil {
		requireResource(ctx, logg, "store events subscription", errors.New("subscription not configured"))
	}

	consumer, err := triggers.NewService(triggers.ServiceParams{
		Subscription: subscription,
		Handler:      trig,
		Logger:       logg,
	})
	requireResource(ctx, logg, "trigger consumer", err)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.HTTP.Port),
		Handler:           routes.NewRouter(cfg, logg, registry, checks),
		ReadHeaderTimeout: 5 * time.Second,
	}

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"provider":    cfg.Push.NormalizedProvider(),
	})
	logg.Info(runCtx, "notifier ready")

	group, groupCtx := errgroup.WithContext(runCtx)
	group.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	group.Go(func() error {
		if err := consumer.Run(groupCtx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("trigger consumer: %w", err)
		}
		return nil
	})

	if err := group.Wait(); err != nil {
		logg.Error(runCtx, "notifier stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(runCtx, "notifier shutting down gracefully")
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
