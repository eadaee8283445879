package catalog

import "context"

// Repository is the read side of the catalog
type Repository interface {
	// ListModels returns every car model ordered by ID
	ListModels(ctx context.Context) ([]CarModel, error)

	// FindModel finds a car model by its ID, returning shared.ErrNotFound when absent
	FindModel(ctx context.Context, id int64) (*CarModel, error)

	// ListAccessories returns every accessory ordered by ID with its
	// constraint fields resolved
	ListAccessories(ctx context.Context) ([]Accessory, error)

	// FindAccessories returns the accessories with the given IDs; unknown IDs
	// are silently skipped
	FindAccessories(ctx context.Context, ids []int64) ([]Accessory, error)

	// ListConstraints returns the whole constraint table
	ListConstraints(ctx context.Context) (ConstraintTable, error)
}
