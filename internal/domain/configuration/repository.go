package configuration

import "context"

// Repository persists configurations. Implementations reconstruct the
// accessory set losslessly from their child rows.
type Repository interface {
	// FindByUser returns the configuration owned by userID, or shared.ErrNotFound
	FindByUser(ctx context.Context, userID int64) (*Configuration, error)

	// Create inserts c and assigns its ID
	Create(ctx context.Context, c *Configuration) error

	// Replace overwrites the stored model and accessory set of c
	Replace(ctx context.Context, c *Configuration) error

	// DeleteByUser removes the configuration of userID and returns the number
	// of removed configurations
	DeleteByUser(ctx context.Context, userID int64) (int64, error)

	// CountHolders returns, per accessory, how many configurations hold it
	CountHolders(ctx context.Context) (map[int64]int, error)
}
