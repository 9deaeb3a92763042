package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/meridian/supplyhub/internal/api"
	"github.com/meridian/supplyhub/internal/audit"
	"github.com/meridian/supplyhub/internal/auth"
	"github.com/meridian/supplyhub/internal/company"
	"github.com/meridian/supplyhub/internal/config"
	"github.com/meridian/supplyhub/internal/database"
	"github.com/meridian/supplyhub/internal/events"
	"github.com/meridian/supplyhub/internal/inventory"
	"github.com/meridian/supplyhub/internal/notify"
	"github.com/meridian/supplyhub/internal/rbac"
	"github.com/meridian/supplyhub/internal/reports"
	"github.com/meridian/supplyhub/internal/sales"
	"github.com/meridian/supplyhub/internal/seed"
	"go.uber.org/zap"
)

func main() {
	logger := initLogger()
	defer func(logger *zap.Logger) {
		_ = logger.Sync()
	}(logger)

	cfg := config.Load()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal("failed to migrate database", zap.Error(err))
	}
	if err := rbac.SeedCatalog(db); err != nil {
		logger.Fatal("failed to seed permission catalog", zap.Error(err))
	}
	if os.Getenv("SEED_DEMO_DATA") == "true" {
		if _, err := seed.New(db, logger).Run(); err != nil {
			logger.Fatal("failed to seed demo data", zap.Error(err))
		}
	}

	var producer events.Producer
	kafkaProducer, err := events.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
	if err != nil {
		logger.Warn("kafka unavailable, notifications disabled", zap.Error(err))
		producer = events.NopProducer{}
	} else {
		producer = kafkaProducer
		defer kafkaProducer.Close()
	}

	jwtService := auth.NewJWTService(cfg.JWTSecret)
	hub := notify.NewHub(logger)
	auditSvc := audit.NewService(db, logger)
	notifySvc := notify.NewService(db, hub, logger)
	rbacSvc := rbac.NewService(db, auditSvc, producer, logger)
	companySvc := company.NewService(db, logger)
	inventorySvc := inventory.NewService(db, logger)
	salesSvc := sales.NewService(db, logger)
	reportsSvc := reports.NewService(db, producer, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if kafkaProducer != nil {
		worker := notify.NewWorker(db, notifySvc, logger)
		consumer := events.NewKafkaConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, "supplyhub-notify", logger)
		consumer.RegisterHandler(worker.Handle)
		consumer.Start(ctx)
		defer consumer.Close()
	}

	router := api.SetupRouter(cfg, db, jwtService, rbacSvc, api.Handlers{
		Auth:         api.NewAuthHandler(db, jwtService, rbacSvc, auditSvc),
		Company:      api.NewCompanyHandler(companySvc, auditSvc),
		Inventory:    api.NewInventoryHandler(inventorySvc, auditSvc),
		Sales:        api.NewSalesHandler(salesSvc),
		RBAC:         api.NewRBACHandler(db, rbacSvc, auditSvc),
		Notification: api.NewNotificationHandler(notifySvc, hub),
		Report:       api.NewReportHandler(reportsSvc, auditSvc),
	})

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}
	go func() {
		logger.Info("server listening", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	waitForShutdown(server, logger)
}

// initLogger initializes a Zap production logger.
func initLogger() *zap.Logger {
	logger, _ := zap.NewProduction()
	return logger
}

// waitForShutdown blocks until SIGINT/SIGTERM, then drains the server.
func waitForShutdown(server *http.Server, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
}
