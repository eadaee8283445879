package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	catalogapp "github.com/carconfig/backend/internal/application/catalog"
	configapp "github.com/carconfig/backend/internal/application/configuration"
	identityapp "github.com/carconfig/backend/internal/application/identity"
	"github.com/carconfig/backend/internal/infrastructure/auth"
	"github.com/carconfig/backend/internal/infrastructure/cache"
	"github.com/carconfig/backend/internal/infrastructure/config"
	"github.com/carconfig/backend/internal/infrastructure/estimation"
	"github.com/carconfig/backend/internal/infrastructure/event"
	"github.com/carconfig/backend/internal/infrastructure/logger"
	"github.com/carconfig/backend/internal/infrastructure/seed"
	"github.com/carconfig/backend/internal/infrastructure/telemetry"
	"github.com/carconfig/backend/internal/interfaces/http/handler"
	"github.com/carconfig/backend/internal/interfaces/http/middleware"
	"github.com/carconfig/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	_ "github.com/carconfig/backend/docs"
)

//go:generate swag init -g cmd/server/main.go -d ../../ -o ../../docs

//	@title			Car Configurator API
//	@version		1.0
//	@description	Car configurator backend: catalog, per-user configurations with accessory reservations, and delivery estimates

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

// version is set at build time with -ldflags "-X main.version=..."
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

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	telemetryCfg := telemetry.FromConfig(cfg.Telemetry, version)
	otel, err := telemetry.Setup(ctx, telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	log = otel.BridgeLogger(log, zapcore.InfoLevel)

	log.Info("Starting car configurator",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
		zap.String("storage", cfg.Database.Driver),
	)

	store, err := openBackend(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to open storage", zap.Error(err))
	}
	defer func() {
		if err := store.close(); err != nil {
			log.Error("Error closing storage", zap.Error(err))
		}
	}()

	if cfg.Database.Seed {
		if err := seed.Run(ctx, store.seed, seed.Default(), log); err != nil {
			log.Fatal("Failed to seed storage", zap.Error(err))
		}
	}

	// Redis backs idempotency keys and token revocation when enabled
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer func() {
			_ = redisClient.Close()
		}()
		store.checks["redis"] = redisPinger{redisClient}
		log.Info("Redis connected", zap.String("addr", cfg.Redis.RedisAddr()))
	}

	jwtService := auth.NewJWTService(cfg.JWT)
	var revocations auth.RevocationList = auth.NewInMemoryRevocationList()
	if redisClient != nil {
		revocations = auth.NewRedisRevocationList(redisClient)
	}

	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(configapp.NewAuditHandler(log))
	if telemetryCfg.MetricsEnabled {
		metrics, err := telemetry.NewConfigurationMetrics(otel.Meter("carconfig"), store.catalog, log,
			telemetry.WithHolders(store.holders))
		if err != nil {
			log.Fatal("Failed to register configuration metrics", zap.Error(err))
		}
		defer func() {
			_ = metrics.Stop()
		}()
		eventBus.Subscribe(metrics)
	}
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	configService := configapp.NewService(store.uow, log)
	configService.SetEventPublisher(eventBus)
	if cfg.Idempotency.Enabled {
		var client redis.UniversalClient
		if redisClient != nil {
			client = redisClient
		}
		idempotency := cache.NewIdempotencyStore(client, log)
		if closer, ok := idempotency.(interface{ Close() error }); ok {
			defer func() {
				_ = closer.Close()
			}()
		}
		configService.SetIdempotencyStore(idempotency, cfg.Idempotency.TTL)
	}
	if cfg.Estimator.Enabled {
		configService.SetDeliveryEstimator(
			estimation.NewClient(cfg.Estimator.BaseURL, cfg.Estimator.Timeout, jwtService, log))
		log.Info("Delivery estimation enabled", zap.String("estimator", cfg.Estimator.BaseURL))
	}

	catalogService := catalogapp.NewCatalogService(store.catalog, log)
	authService := identityapp.NewAuthService(store.users, jwtService, revocations, log)

	middleware.SetupValidator()

	var limiter *middleware.RateLimiter
	if cfg.HTTP.RateLimitEnabled {
		limiter = middleware.NewRateLimiter(middleware.RateLimitConfig{
			Requests: cfg.HTTP.RateLimitRequests,
			Window:   cfg.HTTP.RateLimitWindow,
		})
		defer limiter.Stop()
	}
	var loginRate gin.HandlerFunc
	if cfg.HTTP.AuthRateLimitEnabled {
		authLimiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
			Requests: cfg.HTTP.AuthRateLimitRequests,
			Window:   cfg.HTTP.AuthRateLimitWindow,
		})
		defer authLimiter.Stop()
		loginRate = authLimiter.Middleware()
	}

	engine, err := router.NewEngine(router.EngineConfig{
		Logger: log,
		Tracing: middleware.TracingConfig{
			ServiceName: telemetryCfg.ServiceName,
			Enabled:     telemetryCfg.Enabled,
		},
		CORS:           corsConfig(cfg.HTTP),
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		RateLimiter:    limiter,
		TrustedProxies: cfg.HTTP.TrustedProxies,
	})
	if err != nil {
		log.Fatal("Failed to create HTTP engine", zap.Error(err))
	}

	router.NewRouter(engine, router.WithAuth(middleware.JWTAuth(jwtService, revocations, log))).
		Register(
			handler.NewHealthHandler(version, store.checks, log),
			handler.NewCatalogHandler(catalogService, log),
			handler.NewConfigurationHandler(configService, log),
			handler.NewSessionHandler(authService, loginRate, log),
		).
		Setup()
	router.MountSwagger(engine)

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Error("Event bus did not drain", zap.Error(err))
	}
	if err := otel.Shutdown(shutdownCtx); err != nil {
		log.Error("Telemetry shutdown failed", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

func corsConfig(cfg config.HTTPConfig) *middleware.CORSConfig {
	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.CORSAllowOrigins
	if len(cfg.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.CORSAllowMethods
	}
	if len(cfg.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.CORSAllowHeaders
	}
	return &cors
}

type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}
