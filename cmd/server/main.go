package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johngachihi/parkgate/internal/config"
	"github.com/johngachihi/parkgate/internal/database"
	"github.com/johngachihi/parkgate/internal/handler"
	"github.com/johngachihi/parkgate/internal/modbus"
	"github.com/johngachihi/parkgate/internal/queue"
	"github.com/johngachihi/parkgate/internal/repository"
	"github.com/johngachihi/parkgate/internal/router"
	"github.com/johngachihi/parkgate/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	logger := initLogger(cfg.Env)
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logger.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		logger.Fatal("failed to migrate database", zap.Error(err))
	}

	redisClient := config.NewRedisClient()
	if redisClient == nil {
		logger.Warn("redis unavailable, tariff cache disabled")
	}

	// Stores. The payment store is consumed by the payment kiosk
	// façade, which is deployed separately; this binary does not
	// construct it.
	visitRepo := repository.NewVisitRepo(db)
	settingsRepo := repository.NewSettingsRepo(db)
	tariffRepo := repository.NewTariffRepo(db, redisClient)

	// Services
	events := queue.NewPublisher(logger)
	feeService := service.NewFeeService(tariffRepo, settingsRepo)
	entryService := service.NewEntryService(visitRepo, events)
	exitService := service.NewExitService(visitRepo, feeService, events)
	tariffSettings := service.NewTariffSettingsService(tariffRepo)

	// Gate event log consumer
	go queue.StartGateEventConsumer(logger.Named("gate-consumer"))

	// Modbus gate endpoint
	dispatcher := modbus.NewDispatcher(entryService, exitService, logger.Named("gate"))
	gateServer := modbus.NewServer(cfg.GateAddr, dispatcher, logger.Named("gate"))
	go func() {
		if err := gateServer.ListenAndServe(ctx); err != nil {
			logger.Fatal("gate endpoint failed", zap.Error(err))
		}
	}()

	// Admin HTTP API
	e := echo.New()
	e.HideBanner = true
	authHandler := handler.NewAuthHandler(cfg.JWTSecret, cfg.OperatorKeyHash, cfg.AccessTTLMin)
	tariffHandler := handler.NewTariffHandler(tariffSettings)
	router.RegisterRoutes(e, authHandler)
	router.RegisterTariffs(e, tariffHandler, cfg.JWTSecret)

	go func() {
		addr := ":" + cfg.HTTPPort
		logger.Info("admin api listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("admin api failed", zap.Error(err))
		}
	}()

	// Block until a shutdown signal arrives.
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down")

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Warn("admin api shutdown", zap.Error(err))
	}
}

func initLogger(env string) *zap.Logger {
	var logger *zap.Logger
	var err error
	if env == "dev" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	return logger
}
