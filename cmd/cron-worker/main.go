package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/harborbox/dispatch-backend/internal/cron"
	"github.com/harborbox/dispatch-backend/internal/drivers"
	"github.com/harborbox/dispatch-backend/internal/notifications"
	"github.com/harborbox/dispatch-backend/internal/packingsupply"
	"github.com/harborbox/dispatch-backend/pkg/config"
	"github.com/harborbox/dispatch-backend/pkg/db"
	"github.com/harborbox/dispatch-backend/pkg/logger"
	"github.com/harborbox/dispatch-backend/pkg/messaging"
	"github.com/harborbox/dispatch-backend/pkg/metrics"
	"github.com/harborbox/dispatch-backend/pkg/migrate"
	"github.com/harborbox/dispatch-backend/pkg/redis"
	pkgstripe "github.com/harborbox/dispatch-backend/pkg/stripe"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
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

	messagingClient, err := messaging.NewClient(cfg.Messaging)
	if err != nil {
		logg.Error(context.Background(), "failed to create messaging client", err)
		os.Exit(1)
	}

	stripeClient, err := pkgstripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create stripe client", err)
		os.Exit(1)
	}

	gormDB := dbClient.DB()

	notifier, err := notifications.NewService(notifications.ServiceParams{
		Dispatcher: messagingClient,
		Repo:       notifications.NewRepository(gormDB),
		Log:        logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	packingSupply, err := packingsupply.NewService(packingsupply.ServiceParams{
		Repo:      packingsupply.NewRepository(gormDB),
		Notifier:  notifier,
		Transfers: packingsupply.NewTransferClient(stripeClient),
		Log:       logg,
		Messaging: cfg.Messaging,
		Batch:     cfg.Batch,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create packing supply service", err)
		os.Exit(1)
	}

	routeJob, err := cron.NewRouteAssignmentJob(cron.RouteAssignmentJobParams{
		Logger:   logg,
		Assigner: packingSupply,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create route assignment job", err)
		os.Exit(1)
	}

	offerJob, err := cron.NewDriverOfferJob(cron.DriverOfferJobParams{
		Logger:      logg,
		Offerer:     packingSupply,
		Drivers:     drivers.NewRepository(gormDB),
		FleetTeamID: cfg.Dispatch.FleetTeamID,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create driver offer job", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, cfg.Cron.LockKey, cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:        logg,
		Registry:      cron.NewRegistry(routeJob, offerJob),
		Lock:          lock,
		Metrics:       metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval:      cfg.Cron.Interval,
		Alerter:       notifier,
		OperatorPhone: cfg.Messaging.OperatorPhone,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}
