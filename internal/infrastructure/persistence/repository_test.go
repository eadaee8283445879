package persistence

import (
	"context"
	"testing"

	configapp "github.com/carconfig/backend/internal/application/configuration"
	"github.com/carconfig/backend/internal/domain/configuration"
	"github.com/carconfig/backend/internal/domain/identity"
	"github.com/carconfig/backend/internal/domain/inventory"
	"github.com/carconfig/backend/internal/domain/shared"
	"github.com/carconfig/backend/internal/infrastructure/config"
	"github.com/carconfig/backend/internal/infrastructure/seed"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Seed ids from seed.Default
const (
	radio        int64 = 1
	navigator    int64 = 2
	airCondition int64 = 7
	spareTire    int64 = 8
	automatic    int64 = 10
)

// newSeededDatabase opens a private in-memory SQLite database holding the demo dataset
func newSeededDatabase(t *testing.T) *Database {
	t.Helper()
	ctx := context.Background()

	db, err := NewDatabase(&config.DatabaseConfig{Driver: config.DriverSQLite, SQLitePath: ":memory:"}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.AutoMigrate(ctx))
	require.NoError(t, seed.Run(ctx, NewGormSeedTarget(db.DB), seed.Default(), zap.NewNop()))
	return db
}

func userID(t *testing.T, db *Database, email string) int64 {
	t.Helper()
	u, err := NewGormUserRepository(db.DB).FindByEmail(context.Background(), email)
	require.NoError(t, err)
	return u.ID
}

func TestGormSeedTarget_RunIsSkippedWhenPopulated(t *testing.T) {
	db := newSeededDatabase(t)
	ctx := context.Background()

	empty, err := NewGormSeedTarget(db.DB).IsEmpty(ctx)
	require.NoError(t, err)
	assert.False(t, empty)

	require.NoError(t, seed.Run(ctx, NewGormSeedTarget(db.DB), seed.Default(), zap.NewNop()))
	count, err := NewGormUserRepository(db.DB).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(len(seed.Default().Users)), count)
}

func TestGormCatalogRepository(t *testing.T) {
	db := newSeededDatabase(t)
	repo := NewGormCatalogRepository(db.DB)
	ctx := context.Background()

	t.Run("list models ordered by id", func(t *testing.T) {
		models, err := repo.ListModels(ctx)
		require.NoError(t, err)
		require.Len(t, models, 3)
		assert.Equal(t, "Pioneer City", models[0].Name)
		assert.True(t, models[0].Cost.Equal(decimal.NewFromInt(10000)))
	})

	t.Run("find model", func(t *testing.T) {
		m, err := repo.FindModel(ctx, 3)
		require.NoError(t, err)
		assert.Equal(t, 7, m.MaxAccessories)

		_, err = repo.FindModel(ctx, 42)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("accessories carry their constraints", func(t *testing.T) {
		accessories, err := repo.FindAccessories(ctx, []int64{airCondition, radio, 404})
		require.NoError(t, err)
		require.Len(t, accessories, 2)
		assert.Equal(t, radio, accessories[0].ID)
		assert.Nil(t, accessories[0].RequiredAccessoryID)

		ac := accessories[1]
		require.NotNil(t, ac.RequiredAccessoryID)
		require.NotNil(t, ac.IncompatibleAccessoryID)
		assert.Equal(t, int64(6), *ac.RequiredAccessoryID)
		assert.Equal(t, spareTire, *ac.IncompatibleAccessoryID)
	})

	t.Run("constraint table", func(t *testing.T) {
		table, err := repo.ListConstraints(ctx)
		require.NoError(t, err)
		c, ok := table.Lookup(navigator)
		require.True(t, ok)
		assert.Equal(t, radio, *c.RequiredAccessoryID)
		_, ok = table.Lookup(radio)
		assert.False(t, ok)
	})
}

func TestGormUserRepository(t *testing.T) {
	db := newSeededDatabase(t)
	repo := NewGormUserRepository(db.DB)
	ctx := context.Background()

	t.Run("find by email ignores case", func(t *testing.T) {
		u, err := repo.FindByEmail(ctx, "  Alice@Example.com ")
		require.NoError(t, err)
		assert.True(t, u.IsGoodClient)
		assert.True(t, u.VerifyPassword("password"))
	})

	t.Run("duplicate email", func(t *testing.T) {
		u, err := identity.NewUser("bob@example.com", "Bob Again", "password", false)
		require.NoError(t, err)
		err = repo.Create(ctx, u)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "EMAIL_TAKEN", domainErr.Code)
	})

	t.Run("configuration flag", func(t *testing.T) {
		id := userID(t, db, "carol@example.com")
		require.NoError(t, repo.SetHasConfiguration(ctx, id, true))
		u, err := repo.LockForUpdate(ctx, id)
		require.NoError(t, err)
		assert.True(t, u.HasCarConfiguration)

		assert.ErrorIs(t, repo.SetHasConfiguration(ctx, 999, true), shared.ErrNotFound)
	})
}

func TestGormConfigurationRepository(t *testing.T) {
	db := newSeededDatabase(t)
	repo := NewGormConfigurationRepository(db.DB)
	ctx := context.Background()
	alice := userID(t, db, "alice@example.com")

	_, err := repo.FindByUser(ctx, alice)
	require.ErrorIs(t, err, shared.ErrNotFound)

	cfg := configuration.NewConfiguration(alice, 1, []int64{navigator, radio})
	require.NoError(t, repo.Create(ctx, cfg))
	assert.NotZero(t, cfg.ID)

	err = repo.Create(ctx, configuration.NewConfiguration(alice, 2, nil))
	assert.ErrorIs(t, err, configuration.ErrAlreadyExists)

	cfg.Replace(2, []int64{radio, automatic})
	require.NoError(t, repo.Replace(ctx, cfg))

	found, err := repo.FindByUser(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, int64(2), found.CarModelID)
	assert.Equal(t, []int64{radio, automatic}, found.AccessoryIDs)

	holders, err := repo.CountHolders(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[int64]int{radio: 1, automatic: 1}, holders)

	n, err := repo.DeleteByUser(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = repo.DeleteByUser(ctx, alice)
	require.NoError(t, err)
	assert.Zero(t, n)

	holders, err = repo.CountHolders(ctx)
	require.NoError(t, err)
	assert.Empty(t, holders)
}

func TestGormLedger_SQLite(t *testing.T) {
	db := newSeededDatabase(t)
	ledger := NewGormLedger(db.DB)
	ctx := context.Background()

	require.NoError(t, ledger.Adjust(ctx, automatic, -1))
	avail, err := ledger.Availability(ctx, automatic)
	require.NoError(t, err)
	assert.Zero(t, avail)

	err = ledger.AdjustMany(ctx, []inventory.Adjustment{inventory.Reserve(radio), inventory.Reserve(automatic)})
	assert.ErrorIs(t, err, inventory.ErrInsufficientAvailability)

	avail, err = ledger.Availability(ctx, radio)
	require.NoError(t, err)
	assert.Equal(t, 5, avail, "a rejected batch leaves every counter untouched")

	_, err = ledger.Availability(ctx, 404)
	assert.ErrorIs(t, err, inventory.ErrUnknownAccessory)
}

func TestGormUnitOfWork_ServiceRoundTrip(t *testing.T) {
	db := newSeededDatabase(t)
	ctx := context.Background()
	service := configapp.NewService(NewGormUnitOfWork(db.DB), zap.NewNop())
	ledger := NewGormLedger(db.DB)
	bob := userID(t, db, "bob@example.com")

	_, err := service.Create(ctx, bob, configapp.ConfigurationInput{CarModelID: 1, AccessoryIDs: []int64{radio, automatic}})
	require.NoError(t, err)

	// automatic is now exhausted, so the whole update must roll back
	dave := userID(t, db, "dave@example.com")
	_, err = service.Create(ctx, dave, configapp.ConfigurationInput{CarModelID: 1, AccessoryIDs: []int64{radio, automatic}})
	require.ErrorIs(t, err, inventory.ErrInsufficientAvailability)

	avail, err := ledger.Availability(ctx, radio)
	require.NoError(t, err)
	assert.Equal(t, 4, avail)

	daveUser, err := NewGormUserRepository(db.DB).FindByID(ctx, dave)
	require.NoError(t, err)
	assert.False(t, daveUser.HasCarConfiguration)

	resp, err := service.Update(ctx, bob, configapp.ConfigurationInput{CarModelID: 2, AccessoryIDs: []int64{radio}})
	require.NoError(t, err)
	assert.Equal(t, []int64{radio}, resp.Accessories)

	avail, err = ledger.Availability(ctx, automatic)
	require.NoError(t, err)
	assert.Equal(t, 1, avail)

	del, err := service.Delete(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, int64(1), del.Changes)

	avail, err = ledger.Availability(ctx, radio)
	require.NoError(t, err)
	assert.Equal(t, 5, avail)
}

func TestGormUnitOfWork_ConcurrentCreatesRespectFloor(t *testing.T) {
	db := newSeededDatabase(t)
	ctx := context.Background()
	service := configapp.NewService(NewGormUnitOfWork(db.DB), zap.NewNop())

	emails := []string{"alice@example.com", "bob@example.com", "carol@example.com", "dave@example.com"}
	results := make([]error, len(emails))
	var g errgroup.Group
	for i, email := range emails {
		id := userID(t, db, email)
		g.Go(func() error {
			_, results[i] = service.Create(ctx, id, configapp.ConfigurationInput{CarModelID: 1, AccessoryIDs: []int64{automatic}})
			return nil
		})
	}
	require.NoError(t, g.Wait())

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, inventory.ErrInsufficientAvailability)
	}
	assert.Equal(t, 1, succeeded)

	avail, err := NewGormLedger(db.DB).Availability(ctx, automatic)
	require.NoError(t, err)
	assert.Zero(t, avail)
}
