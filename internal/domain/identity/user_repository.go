package identity

import "context"

// UserRepository defines the interface for user persistence
type UserRepository interface {
	// Create creates a new user and assigns its ID
	Create(ctx context.Context, user *User) error

	// FindByID finds a user by ID, returning shared.ErrNotFound when absent
	FindByID(ctx context.Context, id int64) (*User, error)

	// FindByEmail finds a user by email
	FindByEmail(ctx context.Context, email string) (*User, error)

	// LockForUpdate loads the user and holds a row lock until the enclosing
	// transaction ends. Backends without row locks behave like FindByID.
	LockForUpdate(ctx context.Context, id int64) (*User, error)

	// SetHasConfiguration persists the configuration flag
	SetHasConfiguration(ctx context.Context, id int64, has bool) error

	// Count returns the number of users
	Count(ctx context.Context) (int64, error)
}
