package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/carconfig/backend/internal/infrastructure/config"
	"github.com/carconfig/backend/internal/infrastructure/persistence/models"
	_ "github.com/lib/pq" // registers the "postgres" database/sql driver
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Database is an open relational store: GORM for queries plus the pooled
// *sql.DB beneath it for health and pool statistics.
type Database struct {
	DB     *gorm.DB
	Driver string
	pool   *sql.DB
}

// NewDatabase opens the relational backend selected by cfg.Driver, tunes its
// connection pool and verifies it answers a ping.
func NewDatabase(cfg *config.DatabaseConfig, gormLogger logger.Interface) (*Database, error) {
	if gormLogger == nil {
		gormLogger = logger.Default.LogMode(logger.Silent)
	}

	dialector, err := openDialector(cfg)
	if err != nil {
		return nil, err
	}
	gormDB, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
		PrepareStmt:            cfg.Driver == config.DriverPostgres,
		TranslateError:         true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Driver, err)
	}

	db, err := wrap(gormDB, cfg.Driver)
	if err != nil {
		return nil, err
	}
	db.tunePool(cfg)
	if err := db.pool.Ping(); err != nil {
		_ = db.pool.Close()
		return nil, fmt.Errorf("ping %s database: %w", cfg.Driver, err)
	}
	return db, nil
}

func wrap(gormDB *gorm.DB, driver string) (*Database, error) {
	pool, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("connection pool: %w", err)
	}
	return &Database{DB: gormDB, Driver: driver, pool: pool}, nil
}

func (d *Database) tunePool(cfg *config.DatabaseConfig) {
	if d.Driver == config.DriverSQLite {
		// One writer; the long-lived connection also keeps ":memory:" alive.
		d.pool.SetMaxOpenConns(1)
		d.pool.SetMaxIdleConns(1)
		d.pool.SetConnMaxLifetime(0)
		return
	}
	d.pool.SetMaxOpenConns(cfg.MaxOpenConns)
	d.pool.SetMaxIdleConns(cfg.MaxIdleConns)
	d.pool.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	d.pool.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)
}

func openDialector(cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		conn, err := sql.Open("postgres", cfg.DSN())
		if err != nil {
			return nil, fmt.Errorf("open postgres connection: %w", err)
		}
		return postgres.New(postgres.Config{Conn: conn}), nil
	case config.DriverSQLite:
		return sqlite.Open(cfg.SQLitePath), nil
	default:
		return nil, fmt.Errorf("unsupported relational driver %q", cfg.Driver)
	}
}

// AutoMigrate brings the schema of every persistence model up to date.
func (d *Database) AutoMigrate(ctx context.Context) error {
	if err := d.DB.WithContext(ctx).AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (d *Database) Close() error { return d.pool.Close() }

// Ping satisfies the health handler's Pinger.
func (d *Database) Ping(ctx context.Context) error { return d.pool.PingContext(ctx) }

// Stats exposes the pool counters.
func (d *Database) Stats() sql.DBStats { return d.pool.Stats() }

// forUpdate adds a row lock to query. SQLite has no row locks; its single
// writer connection already serializes transactions.
func forUpdate(query *gorm.DB) *gorm.DB {
	if query.Dialector.Name() == "sqlite" {
		return query
	}
	return query.Clauses(clause.Locking{Strength: "UPDATE"})
}
