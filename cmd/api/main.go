package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/harborbox/dispatch-backend/api/routes"
	"github.com/harborbox/dispatch-backend/internal/appointments"
	"github.com/harborbox/dispatch-backend/internal/availability"
	"github.com/harborbox/dispatch-backend/internal/drivers"
	"github.com/harborbox/dispatch-backend/internal/notifications"
	"github.com/harborbox/dispatch-backend/internal/packingsupply"
	"github.com/harborbox/dispatch-backend/internal/reassignment"
	"github.com/harborbox/dispatch-backend/internal/tracking"
	courierwebhook "github.com/harborbox/dispatch-backend/internal/webhooks/courier"
	"github.com/harborbox/dispatch-backend/pkg/config"
	"github.com/harborbox/dispatch-backend/pkg/courier"
	"github.com/harborbox/dispatch-backend/pkg/db"
	"github.com/harborbox/dispatch-backend/pkg/logger"
	"github.com/harborbox/dispatch-backend/pkg/messaging"
	"github.com/harborbox/dispatch-backend/pkg/metrics"
	"github.com/harborbox/dispatch-backend/pkg/migrate"
	"github.com/harborbox/dispatch-backend/pkg/redis"
	pkgstripe "github.com/harborbox/dispatch-backend/pkg/stripe"
)

const webhookDedupTTL = 24 * time.Hour

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	courierClient, err := courier.NewClient(cfg.Courier)
	if err != nil {
		logg.Error(context.Background(), "failed to create courier client", err)
		os.Exit(1)
	}

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
	driverRepo := drivers.NewRepository(gormDB)

	resolver, err := drivers.NewResolver(drivers.ResolverParams{
		Repo:        driverRepo,
		Log:         logg,
		FleetTeamID: cfg.Dispatch.FleetTeamID,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create driver resolver", err)
		os.Exit(1)
	}

	checker, err := availability.NewChecker(availability.CheckerParams{
		Commitments: availability.NewCommitmentRepository(gormDB),
		Roster:      driverRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create availability checker", err)
		os.Exit(1)
	}

	reconciler, err := reassignment.NewService(reassignment.ServiceParams{
		Tasks:      reassignment.NewTaskRepository(gormDB),
		Classifier: resolver,
		Courier:    courierClient,
		Locks:      redisClient,
		Log:        logg,
		Dispatch:   cfg.Dispatch,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create reassignment service", err)
		os.Exit(1)
	}

	appointmentService, err := appointments.NewService(appointments.ServiceParams{
		Repo:       appointments.NewRepository(gormDB),
		Reconciler: reconciler,
		Tracking:   cfg.Tracking,
		Log:        logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create appointments service", err)
		os.Exit(1)
	}

	trackingService, err := tracking.NewService(tracking.ServiceParams{
		Repo: tracking.NewRepository(gormDB),
		Cfg:  cfg.Tracking,
		Log:  logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create tracking service", err)
		os.Exit(1)
	}

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

	guard, err := courierwebhook.NewIdempotencyGuard(redisClient, webhookDedupTTL, "courier")
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook idempotency guard", err)
		os.Exit(1)
	}

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(collectors.NewGoCollector())
	promRegistry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	webhookService, err := courierwebhook.NewService(courierwebhook.ServiceParams{
		Repo:          courierwebhook.NewRepository(gormDB),
		PackingSupply: packingSupply,
		Guard:         guard,
		Locks:         redisClient,
		Metrics:       metrics.NewWebhookMetrics(promRegistry),
		Log:           logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:       cfg,
			Logger:       logg,
			DB:           dbClient,
			Redis:        redisClient,
			Appointments: appointmentService,
			Tracking:     trackingService,
			Availability: checker,
			Webhooks:     webhookService,
			Courier:      courierClient,
			Batch:        packingSupply,
			Offers:       packingSupply,
			FleetDrivers: driverRepo,
			PromRegistry: promRegistry,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
