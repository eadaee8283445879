package persistence

import (
	"context"

	configapp "github.com/carconfig/backend/internal/application/configuration"
	"github.com/carconfig/backend/internal/domain/catalog"
	"github.com/carconfig/backend/internal/domain/configuration"
	"github.com/carconfig/backend/internal/domain/identity"
	"github.com/carconfig/backend/internal/domain/inventory"
	"gorm.io/gorm"
)

// GormUnitOfWork implements UnitOfWork using GORM transactions.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
type GormUnitOfWork struct {
	db *gorm.DB
}

// NewGormUnitOfWork creates a new GormUnitOfWork
func NewGormUnitOfWork(db *gorm.DB) *GormUnitOfWork {
	return &GormUnitOfWork{db: db}
}

// Execute runs fn within a database transaction
func (u *GormUnitOfWork) Execute(ctx context.Context, fn func(repos configapp.TransactionalRepositories) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// gormTransactionalRepositories provides access to all repositories within a transaction
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

func (r *gormTransactionalRepositories) Configurations() configuration.Repository {
	return NewGormConfigurationRepository(r.tx)
}

func (r *gormTransactionalRepositories) Ledger() inventory.Ledger {
	return newTxLedger(r.tx)
}

func (r *gormTransactionalRepositories) Users() identity.UserRepository {
	return NewGormUserRepository(r.tx)
}

func (r *gormTransactionalRepositories) Catalog() catalog.Repository {
	return NewGormCatalogRepository(r.tx)
}

var (
	_ configapp.UnitOfWork                = (*GormUnitOfWork)(nil)
	_ configapp.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
)
