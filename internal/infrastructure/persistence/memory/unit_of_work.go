package memory

import (
	"context"

	configapp "github.com/carconfig/backend/internal/application/configuration"
	"github.com/carconfig/backend/internal/domain/catalog"
	"github.com/carconfig/backend/internal/domain/configuration"
	"github.com/carconfig/backend/internal/domain/identity"
	"github.com/carconfig/backend/internal/domain/inventory"
	"github.com/carconfig/backend/internal/domain/shared"
)

// Execute runs fn against staged copies of the store. Nothing fn does is
// visible until it returns nil; the staged ledger batch is then applied
// through the ledger, which re-checks every floor, and only if that succeeds
// are the staged rows written.
func (s *Store) Execute(ctx context.Context, fn func(repos configapp.TransactionalRepositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx := s.begin()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.commit(ctx)
}

// tx stages the writes of one unit of work
type tx struct {
	store *Store

	adjustments []inventory.Adjustment
	configs     map[int64]*configuration.Configuration // nil value marks a delete
	flags       map[int64]bool
}

func (s *Store) begin() *tx {
	return &tx{
		store:   s,
		configs: make(map[int64]*configuration.Configuration),
		flags:   make(map[int64]bool),
	}
}

func (t *tx) Configurations() configuration.Repository { return &configurationRepository{tx: t} }
func (t *tx) Ledger() inventory.Ledger                 { return &stagedLedger{tx: t} }
func (t *tx) Users() identity.UserRepository           { return &stagedUserRepository{tx: t, userRepository: userRepository{store: t.store}} }
func (t *tx) Catalog() catalog.Repository              { return t.store.Catalog() }

func (t *tx) commit(ctx context.Context) error {
	if len(t.adjustments) > 0 {
		if err := t.store.ledger.AdjustMany(ctx, t.adjustments); err != nil {
			return err
		}
	}

	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for userID, cfg := range t.configs {
		if cfg == nil {
			delete(s.configs, userID)
			continue
		}
		if cfg.ID == 0 {
			s.nextConfID++
			cfg.ID = s.nextConfID
		}
		s.configs[userID] = cfg.Snapshot()
	}
	for userID, has := range t.flags {
		if u, ok := s.users[userID]; ok {
			u.SetHasConfiguration(has)
			s.users[userID] = u
		}
	}
	return nil
}

type configurationRepository struct {
	tx *tx
}

func (r *configurationRepository) FindByUser(_ context.Context, userID int64) (*configuration.Configuration, error) {
	if cfg, staged := r.tx.configs[userID]; staged {
		if cfg == nil {
			return nil, shared.ErrNotFound
		}
		cp := cfg.Snapshot()
		return &cp, nil
	}

	r.tx.store.mu.RLock()
	defer r.tx.store.mu.RUnlock()
	cfg, ok := r.tx.store.configs[userID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := cfg.Snapshot()
	return &cp, nil
}

func (r *configurationRepository) Create(ctx context.Context, c *configuration.Configuration) error {
	if _, err := r.FindByUser(ctx, c.UserID); err == nil {
		return &configuration.ConflictError{Reason: configuration.ReasonAlreadyExists, UserID: c.UserID}
	}
	r.tx.configs[c.UserID] = c
	return nil
}

func (r *configurationRepository) Replace(ctx context.Context, c *configuration.Configuration) error {
	if _, err := r.FindByUser(ctx, c.UserID); err != nil {
		return err
	}
	r.tx.configs[c.UserID] = c
	return nil
}

func (r *configurationRepository) DeleteByUser(ctx context.Context, userID int64) (int64, error) {
	if _, err := r.FindByUser(ctx, userID); err != nil {
		return 0, nil
	}
	r.tx.configs[userID] = nil
	return 1, nil
}

func (r *configurationRepository) CountHolders(_ context.Context) (map[int64]int, error) {
	r.tx.store.mu.RLock()
	merged := make(map[int64][]int64, len(r.tx.store.configs))
	for userID, cfg := range r.tx.store.configs {
		merged[userID] = cfg.AccessoryIDs
	}
	r.tx.store.mu.RUnlock()

	for userID, cfg := range r.tx.configs {
		if cfg == nil {
			delete(merged, userID)
			continue
		}
		merged[userID] = cfg.AccessoryIDs
	}

	holders := make(map[int64]int)
	for _, ids := range merged {
		for _, id := range ids {
			holders[id]++
		}
	}
	return holders, nil
}

// stagedLedger checks each batch against the live counters plus what the
// unit of work already staged, and defers the write to commit
type stagedLedger struct {
	tx *tx
}

func (l *stagedLedger) Adjust(ctx context.Context, accessoryID int64, delta int) error {
	return l.AdjustMany(ctx, []inventory.Adjustment{{AccessoryID: accessoryID, Delta: delta}})
}

func (l *stagedLedger) AdjustMany(ctx context.Context, adjustments []inventory.Adjustment) error {
	batch := inventory.Normalize(adjustments)
	if len(batch) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	current := make(map[int64]int, len(batch))
	for _, adj := range batch {
		avail, err := l.Availability(ctx, adj.AccessoryID)
		if err != nil {
			continue
		}
		current[adj.AccessoryID] = avail
	}
	insufficient, unknown := inventory.CheckFloor(current, batch)
	if len(unknown) > 0 {
		return &inventory.UnknownAccessoryError{AccessoryIDs: unknown}
	}
	if len(insufficient) > 0 {
		return inventory.NewInsufficientAvailabilityError(insufficient...)
	}

	l.tx.adjustments = append(l.tx.adjustments, batch...)
	return nil
}

func (l *stagedLedger) Availability(ctx context.Context, accessoryID int64) (int, error) {
	avail, err := l.tx.store.ledger.Availability(ctx, accessoryID)
	if err != nil {
		return 0, err
	}
	for _, adj := range l.tx.adjustments {
		if adj.AccessoryID == accessoryID {
			avail += adj.Delta
		}
	}
	return avail, nil
}

// stagedUserRepository defers the configuration flag to commit
type stagedUserRepository struct {
	userRepository
	tx *tx
}

func (r *stagedUserRepository) FindByID(ctx context.Context, id int64) (*identity.User, error) {
	u, err := r.userRepository.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if has, staged := r.tx.flags[id]; staged {
		u.SetHasConfiguration(has)
	}
	return u, nil
}

func (r *stagedUserRepository) LockForUpdate(ctx context.Context, id int64) (*identity.User, error) {
	return r.FindByID(ctx, id)
}

func (r *stagedUserRepository) SetHasConfiguration(ctx context.Context, id int64, has bool) error {
	if _, err := r.userRepository.FindByID(ctx, id); err != nil {
		return err
	}
	r.tx.flags[id] = has
	return nil
}

var (
	_ configapp.UnitOfWork                = (*Store)(nil)
	_ configapp.TransactionalRepositories = (*tx)(nil)
	_ configuration.Repository            = (*configurationRepository)(nil)
	_ inventory.Ledger                    = (*stagedLedger)(nil)
	_ identity.UserRepository             = (*stagedUserRepository)(nil)
)
