// Package seed holds the demo catalog and users loaded into an empty database
package seed

import (
	"context"

	"github.com/carconfig/backend/internal/domain/catalog"
	"github.com/carconfig/backend/internal/domain/identity"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// UserSeed is a demo account with a plain text password
type UserSeed struct {
	Email      string
	Name       string
	Password   string
	GoodClient bool
}

// Dataset is the reference data and accounts of a fresh installation
type Dataset struct {
	Models      []catalog.CarModel
	Accessories []catalog.Accessory
	Constraints []catalog.AccessoryConstraint
	Users       []UserSeed
}

// Target is a storage backend able to receive a dataset
type Target interface {
	// IsEmpty reports whether the backend holds no catalog yet
	IsEmpty(ctx context.Context) (bool, error)
	// Load writes the dataset; users arrive with hashed passwords
	Load(ctx context.Context, ds Dataset, users []*identity.User) error
}

// Run loads ds into target unless target already holds data
func Run(ctx context.Context, target Target, ds Dataset, logger *zap.Logger) error {
	empty, err := target.IsEmpty(ctx)
	if err != nil {
		return err
	}
	if !empty {
		logger.Info("Seed skipped, catalog already present")
		return nil
	}

	users := make([]*identity.User, 0, len(ds.Users))
	for _, u := range ds.Users {
		user, err := identity.NewUser(u.Email, u.Name, u.Password, u.GoodClient)
		if err != nil {
			return err
		}
		users = append(users, user)
	}

	if err := target.Load(ctx, ds, users); err != nil {
		return err
	}
	logger.Info("Seed data loaded",
		zap.Int("car_models", len(ds.Models)),
		zap.Int("accessories", len(ds.Accessories)),
		zap.Int("constraints", len(ds.Constraints)),
		zap.Int("users", len(users)),
	)
	return nil
}

func ref(id int64) *int64 { return &id }

// Default returns the demo dataset
func Default() Dataset {
	return Dataset{
		Models: []catalog.CarModel{
			{ID: 1, Name: "Pioneer City", Cost: decimal.NewFromInt(10000), MaxAccessories: 4},
			{ID: 2, Name: "Pioneer Touring", Cost: decimal.NewFromInt(12000), MaxAccessories: 5},
			{ID: 3, Name: "Pioneer Sport", Cost: decimal.NewFromInt(14000), MaxAccessories: 7},
		},
		Accessories: []catalog.Accessory{
			{ID: 1, Name: "radio", Price: decimal.NewFromInt(300), Availability: 5},
			{ID: 2, Name: "satellite navigator", Price: decimal.NewFromInt(600), Availability: 3},
			{ID: 3, Name: "bluetooth", Price: decimal.NewFromInt(200), Availability: 4},
			{ID: 4, Name: "rear parking sensors", Price: decimal.NewFromInt(250), Availability: 4},
			{ID: 5, Name: "front parking sensors", Price: decimal.NewFromInt(250), Availability: 2},
			{ID: 6, Name: "power windows", Price: decimal.NewFromInt(400), Availability: 6},
			{ID: 7, Name: "air conditioning", Price: decimal.NewFromInt(800), Availability: 3},
			{ID: 8, Name: "spare tire", Price: decimal.NewFromInt(100), Availability: 8},
			{ID: 9, Name: "assisted driving", Price: decimal.NewFromInt(1200), Availability: 2},
			{ID: 10, Name: "automatic transmission", Price: decimal.NewFromInt(1500), Availability: 1},
		},
		Constraints: []catalog.AccessoryConstraint{
			{AccessoryID: 2, RequiredAccessoryID: ref(1)},
			{AccessoryID: 3, RequiredAccessoryID: ref(1)},
			{AccessoryID: 5, RequiredAccessoryID: ref(4)},
			{AccessoryID: 7, RequiredAccessoryID: ref(6), IncompatibleAccessoryID: ref(8)},
			{AccessoryID: 9, RequiredAccessoryID: ref(10)},
		},
		Users: []UserSeed{
			{Email: "alice@example.com", Name: "Alice", Password: "password", GoodClient: true},
			{Email: "bob@example.com", Name: "Bob", Password: "password", GoodClient: false},
			{Email: "carol@example.com", Name: "Carol", Password: "password", GoodClient: true},
			{Email: "dave@example.com", Name: "Dave", Password: "password", GoodClient: false},
		},
	}
}
