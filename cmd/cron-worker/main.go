package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/grupo95/mecanica-backend/internal/cron"
	"github.com/grupo95/mecanica-backend/internal/stock"
	"github.com/grupo95/mecanica-backend/internal/workflow"
	"github.com/grupo95/mecanica-backend/pkg/config"
	"github.com/grupo95/mecanica-backend/pkg/db"
	"github.com/grupo95/mecanica-backend/pkg/logger"
	"github.com/grupo95/mecanica-backend/pkg/metrics"
	"github.com/grupo95/mecanica-backend/pkg/migrate"
	"github.com/grupo95/mecanica-backend/pkg/outbox"
	"github.com/grupo95/mecanica-backend/pkg/redis"
)

const lockKeyFormat = "mecanica:cron-worker:lock:%s"

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

	cfg.Service.Kind = "cron-worker"

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

	gormDB := dbClient.DB()
	events := outbox.NewService(outbox.NewRepository(gormDB), logg)
	stockRepo := stock.NewRepository(gormDB)

	alerts, err := stock.NewAlertTrigger(logg, dbClient, stockRepo, events)
	if err != nil {
		logg.Error(context.Background(), "failed to create stock alert trigger", err)
		os.Exit(1)
	}

	workflowService, err := workflow.NewService(workflow.Options{
		Logger:         logg,
		DB:             dbClient,
		Repository:     workflow.NewRepository(gormDB),
		Customers:      workflow.NewCustomerGateway(gormDB),
		Catalog:        workflow.NewCatalogGateway(gormDB),
		Events:         events,
		Alerts:         alerts,
		BudgetValidity: cfg.Workflow.BudgetValidity(),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create workflow service", err)
		os.Exit(1)
	}

	budgetJob, err := cron.NewBudgetExpirationJob(cron.BudgetExpirationJobParams{
		Logger:  logg,
		Sweeper: workflowService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create budget expiration job", err)
		os.Exit(1)
	}
	stockJob, err := cron.NewCriticalStockJob(cron.CriticalStockJobParams{
		Logger:  logg,
		Sweeper: alerts,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create critical stock job", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(budgetJob, stockJob),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
