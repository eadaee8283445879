// Package memory is the in-process storage backend. Reference data, users
// and configurations live in maps guarded by one mutex; availability lives in
// an inventory.MemoryLedger with per-accessory locks.
package memory

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/carconfig/backend/internal/domain/catalog"
	"github.com/carconfig/backend/internal/domain/configuration"
	"github.com/carconfig/backend/internal/domain/identity"
	"github.com/carconfig/backend/internal/domain/inventory"
	"github.com/carconfig/backend/internal/domain/shared"
)

// Store holds the whole dataset of the in-memory backend
type Store struct {
	mu          sync.RWMutex
	models      map[int64]catalog.CarModel
	accessories map[int64]catalog.Accessory
	constraints catalog.ConstraintTable
	configs     map[int64]configuration.Configuration // userID -> configuration
	users       map[int64]identity.User
	emails      map[string]int64
	nextUserID  int64
	nextConfID  int64

	ledger *inventory.MemoryLedger
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		models:      make(map[int64]catalog.CarModel),
		accessories: make(map[int64]catalog.Accessory),
		constraints: make(catalog.ConstraintTable),
		configs:     make(map[int64]configuration.Configuration),
		users:       make(map[int64]identity.User),
		emails:      make(map[string]int64),
		ledger:      inventory.NewMemoryLedger(nil),
	}
}

// AddCarModel inserts or replaces a car model
func (s *Store) AddCarModel(m catalog.CarModel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.models[m.ID] = m
}

// AddAccessory inserts or replaces an accessory and starts tracking its
// availability in the ledger
func (s *Store) AddAccessory(a catalog.Accessory) {
	s.mu.Lock()
	a.RequiredAccessoryID, a.IncompatibleAccessoryID = nil, nil
	s.accessories[a.ID] = a
	s.mu.Unlock()
	s.ledger.Track(a.ID, a.Availability)
}

// AddConstraint inserts or replaces the constraint row of an accessory
func (s *Store) AddConstraint(c catalog.AccessoryConstraint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.constraints[c.AccessoryID] = c
}

// Ledger returns the availability ledger of the store
func (s *Store) Ledger() *inventory.MemoryLedger {
	return s.ledger
}

// Catalog returns the catalog repository of the store
func (s *Store) Catalog() catalog.Repository {
	return &catalogRepository{store: s}
}

// Users returns a user repository writing straight to the store
func (s *Store) Users() identity.UserRepository {
	return &userRepository{store: s}
}

// Configurations returns a read-only view used outside units of work
func (s *Store) Configurations() configuration.Repository {
	return &configurationRepository{tx: s.begin()}
}

type catalogRepository struct {
	store *Store
}

func (r *catalogRepository) ListModels(_ context.Context) ([]catalog.CarModel, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	models := slices.Collect(maps.Values(r.store.models))
	slices.SortFunc(models, func(a, b catalog.CarModel) int { return cmp.Compare(a.ID, b.ID) })
	return models, nil
}

func (r *catalogRepository) FindModel(_ context.Context, id int64) (*catalog.CarModel, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	m, ok := r.store.models[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &m, nil
}

func (r *catalogRepository) ListAccessories(ctx context.Context) ([]catalog.Accessory, error) {
	r.store.mu.RLock()
	ids := slices.Sorted(maps.Keys(r.store.accessories))
	r.store.mu.RUnlock()
	return r.FindAccessories(ctx, ids)
}

func (r *catalogRepository) FindAccessories(ctx context.Context, ids []int64) ([]catalog.Accessory, error) {
	r.store.mu.RLock()
	found := make([]catalog.Accessory, 0, len(ids))
	for _, id := range ids {
		a, ok := r.store.accessories[id]
		if !ok {
			continue
		}
		if c, ok := r.store.constraints.Lookup(id); ok {
			a.ApplyConstraint(c)
		}
		found = append(found, a)
	}
	r.store.mu.RUnlock()

	for i := range found {
		avail, err := r.store.ledger.Availability(ctx, found[i].ID)
		if err != nil {
			return nil, err
		}
		found[i].Availability = avail
	}
	return found, nil
}

func (r *catalogRepository) ListConstraints(_ context.Context) (catalog.ConstraintTable, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return maps.Clone(r.store.constraints), nil
}

type userRepository struct {
	store *Store
}

func (r *userRepository) Create(_ context.Context, user *identity.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, taken := r.store.emails[user.Email]; taken {
		return shared.NewDomainError("EMAIL_TAKEN", "Email is already registered")
	}
	r.store.nextUserID++
	user.ID = r.store.nextUserID
	r.store.users[user.ID] = *user
	r.store.emails[user.Email] = user.ID
	return nil
}

func (r *userRepository) FindByID(_ context.Context, id int64) (*identity.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	u, ok := r.store.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &u, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	r.store.mu.RLock()
	id, ok := r.store.emails[strings.ToLower(strings.TrimSpace(email))]
	r.store.mu.RUnlock()
	if !ok {
		return nil, shared.ErrNotFound
	}
	return r.FindByID(ctx, id)
}

// LockForUpdate has no row lock to take; callers serialize per user themselves
func (r *userRepository) LockForUpdate(ctx context.Context, id int64) (*identity.User, error) {
	return r.FindByID(ctx, id)
}

func (r *userRepository) SetHasConfiguration(_ context.Context, id int64, has bool) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	u, ok := r.store.users[id]
	if !ok {
		return shared.ErrNotFound
	}
	u.SetHasConfiguration(has)
	r.store.users[id] = u
	return nil
}

func (r *userRepository) Count(_ context.Context) (int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return int64(len(r.store.users)), nil
}

var (
	_ catalog.Repository      = (*catalogRepository)(nil)
	_ identity.UserRepository = (*userRepository)(nil)
)
