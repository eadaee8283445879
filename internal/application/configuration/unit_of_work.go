package configuration

import (
	"context"

	"github.com/carconfig/backend/internal/domain/catalog"
	"github.com/carconfig/backend/internal/domain/configuration"
	"github.com/carconfig/backend/internal/domain/identity"
	"github.com/carconfig/backend/internal/domain/inventory"
)

// UnitOfWork runs a configuration mutation atomically.
// If fn returns an error every effect of fn is rolled back, ledger
// adjustments included. If fn succeeds all effects become visible together.
type UnitOfWork interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides the repositories a configuration
// mutation touches. All of them share the enclosing unit of work.
type TransactionalRepositories interface {
	// Configurations returns the configuration repository
	Configurations() configuration.Repository
	// Ledger returns the inventory ledger
	Ledger() inventory.Ledger
	// Users returns the user repository, used for the per-user row lock and
	// the has_car_configuration flag
	Users() identity.UserRepository
	// Catalog returns the read-only catalog
	Catalog() catalog.Repository
}
