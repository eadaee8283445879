// Command estimator serves delivery time estimates to the configurator.
// Callers authenticate with short-lived estimation tokens signed with the
// shared estimation secret.
package main

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	estimationapp "github.com/carconfig/backend/internal/application/estimation"
	"github.com/carconfig/backend/internal/infrastructure/auth"
	"github.com/carconfig/backend/internal/infrastructure/config"
	"github.com/carconfig/backend/internal/infrastructure/logger"
	"github.com/carconfig/backend/internal/infrastructure/telemetry"
	"github.com/carconfig/backend/internal/interfaces/http/handler"
	"github.com/carconfig/backend/internal/interfaces/http/middleware"
	"github.com/carconfig/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()
	log = log.With(zap.String("service", "estimator"))

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	telemetryCfg := telemetry.FromConfig(cfg.Telemetry, version)
	telemetryCfg.ServiceName += "-estimator"
	otel, err := telemetry.Setup(context.Background(), telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}

	jwtService := auth.NewJWTService(cfg.JWT)
	estimator := estimationapp.NewEstimator(rand.NewPCG(uint64(time.Now().UnixNano()), uint64(os.Getpid())))

	engine, err := router.NewEngine(router.EngineConfig{
		Logger: log,
		Tracing: middleware.TracingConfig{
			ServiceName: telemetryCfg.ServiceName,
			Enabled:     telemetryCfg.Enabled,
		},
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		TrustedProxies: cfg.HTTP.TrustedProxies,
	})
	if err != nil {
		log.Fatal("Failed to create HTTP engine", zap.Error(err))
	}
	router.NewRouter(engine, router.WithAuth(middleware.EstimationAuth(jwtService, log))).
		Register(
			handler.NewHealthHandler(version, nil, log),
			handler.NewEstimatorHandler(estimator, log),
		).
		Setup()

	srv := &http.Server{
		Addr:              ":" + cfg.Estimator.Port,
		Handler:           engine,
		ReadHeaderTimeout: cfg.HTTP.ReadTimeout,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Info("Estimator starting", zap.String("addr", srv.Addr), zap.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start estimator", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down estimator...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Estimator forced to shutdown", zap.Error(err))
	}
	if err := otel.Shutdown(ctx); err != nil {
		log.Error("Telemetry shutdown failed", zap.Error(err))
	}
	log.Info("Estimator exited")
}
