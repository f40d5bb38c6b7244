package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/grupo95/mecanica-backend/api/controllers"
	"github.com/grupo95/mecanica-backend/api/routes"
	"github.com/grupo95/mecanica-backend/internal/catalog"
	"github.com/grupo95/mecanica-backend/internal/customers"
	"github.com/grupo95/mecanica-backend/internal/stock"
	"github.com/grupo95/mecanica-backend/internal/users"
	"github.com/grupo95/mecanica-backend/internal/workflow"
	"github.com/grupo95/mecanica-backend/pkg/config"
	"github.com/grupo95/mecanica-backend/pkg/db"
	"github.com/grupo95/mecanica-backend/pkg/logger"
	"github.com/grupo95/mecanica-backend/pkg/migrate"
	"github.com/grupo95/mecanica-backend/pkg/outbox"
)

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

	services := routes.Services{
		Workflow:  workflowService,
		Stock:     stock.NewService(stockRepo, logg),
		Customers: customers.NewService(customers.NewRepository(gormDB), logg),
		Catalog:   catalog.NewService(gormDB, logg),
		Users:     users.NewService(gormDB, logg),
	}

	deps := map[string]controllers.Pinger{
		"database": dbClient,
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
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, deps, services),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
