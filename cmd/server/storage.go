package main

import (
	"context"
	"fmt"

	configapp "github.com/carconfig/backend/internal/application/configuration"
	"github.com/carconfig/backend/internal/domain/catalog"
	"github.com/carconfig/backend/internal/domain/identity"
	"github.com/carconfig/backend/internal/infrastructure/config"
	"github.com/carconfig/backend/internal/infrastructure/logger"
	"github.com/carconfig/backend/internal/infrastructure/persistence"
	"github.com/carconfig/backend/internal/infrastructure/persistence/memory"
	"github.com/carconfig/backend/internal/infrastructure/seed"
	"github.com/carconfig/backend/internal/infrastructure/telemetry"
	"github.com/carconfig/backend/internal/interfaces/http/handler"
	"go.uber.org/zap"
)

// backend bundles the repositories of one storage driver
type backend struct {
	uow     configapp.UnitOfWork
	catalog catalog.Repository
	users   identity.UserRepository
	holders telemetry.HolderSource
	seed    seed.Target
	checks  map[string]handler.Pinger
	close   func() error
}

func openBackend(ctx context.Context, cfg *config.Config, log *zap.Logger) (*backend, error) {
	if cfg.Database.Driver == config.DriverMemory {
		store := memory.NewStore()
		log.Warn("Using in-memory storage, data is lost on restart")
		return &backend{
			uow:     store,
			catalog: store.Catalog(),
			users:   store.Users(),
			holders: store.Configurations(),
			seed:    store,
			checks:  map[string]handler.Pinger{},
			close:   func() error { return nil },
		}, nil
	}

	gormOpts := []logger.GormLoggerOption{logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh)}
	if cfg.App.Env == "production" && !cfg.Telemetry.DBLogFullSQL {
		gormOpts = append(gormOpts, logger.WithoutSQL())
	}
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), gormOpts...)
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	log.Info("Database connected", zap.String("driver", db.Driver))

	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:        db.Driver,
	}, log); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("register database tracing: %w", err)
	}

	if cfg.Database.AutoMigrate {
		if err := db.AutoMigrate(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate schema: %w", err)
		}
		log.Info("Schema migrated")
	}

	return &backend{
		uow:     persistence.NewGormUnitOfWork(db.DB),
		catalog: persistence.NewGormCatalogRepository(db.DB),
		users:   persistence.NewGormUserRepository(db.DB),
		holders: persistence.NewGormConfigurationRepository(db.DB),
		seed:    persistence.NewGormSeedTarget(db.DB),
		checks:  map[string]handler.Pinger{"database": db},
		close:   db.Close,
	}, nil
}
