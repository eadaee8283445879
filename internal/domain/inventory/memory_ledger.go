package inventory

import (
	"context"
	"sync"

	"github.com/carconfig/backend/internal/domain/shared"
)

// MemoryLedger is an in-process Ledger. Each accessory counter is guarded by
// its own lock from a KeyedMutex; batches take their locks in ascending
// accessory order.
type MemoryLedger struct {
	locks *shared.KeyedMutex[int64]

	mu       sync.RWMutex // guards the counters map itself, not the values
	counters map[int64]*int
}

// NewMemoryLedger creates a ledger seeded with the given availabilities
func NewMemoryLedger(initial map[int64]int) *MemoryLedger {
	l := &MemoryLedger{
		locks:    shared.NewKeyedMutex[int64](),
		counters: make(map[int64]*int, len(initial)),
	}
	for id, v := range initial {
		l.Track(id, v)
	}
	return l
}

// Track starts tracking accessoryID with the given availability.
// An already tracked accessory keeps its current counter.
func (l *MemoryLedger) Track(accessoryID int64, availability int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.counters[accessoryID]; ok {
		return
	}
	v := max(availability, 0)
	l.counters[accessoryID] = &v
}

// Adjust applies a single delta
func (l *MemoryLedger) Adjust(ctx context.Context, accessoryID int64, delta int) error {
	return l.AdjustMany(ctx, []Adjustment{{AccessoryID: accessoryID, Delta: delta}})
}

// AdjustMany applies the batch atomically. Every counter of the batch is
// locked before any is checked, so the floor check and the writes see the
// same values.
func (l *MemoryLedger) AdjustMany(ctx context.Context, adjustments []Adjustment) error {
	batch := Normalize(adjustments)
	if len(batch) == 0 {
		return nil
	}

	unlock := l.locks.LockAll(AccessoryIDs(batch))
	defer unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	current := make(map[int64]int, len(batch))
	for _, adj := range batch {
		if c, ok := l.counters[adj.AccessoryID]; ok {
			current[adj.AccessoryID] = *c
		}
	}
	insufficient, unknown := CheckFloor(current, batch)
	if len(unknown) > 0 {
		return &UnknownAccessoryError{AccessoryIDs: unknown}
	}
	if len(insufficient) > 0 {
		return NewInsufficientAvailabilityError(insufficient...)
	}

	for _, adj := range batch {
		*l.counters[adj.AccessoryID] += adj.Delta
	}
	return nil
}

// Availability returns the current counter of an accessory
func (l *MemoryLedger) Availability(_ context.Context, accessoryID int64) (int, error) {
	unlock := l.locks.Lock(accessoryID)
	defer unlock()

	l.mu.RLock()
	defer l.mu.RUnlock()
	c, ok := l.counters[accessoryID]
	if !ok {
		return 0, &UnknownAccessoryError{AccessoryIDs: []int64{accessoryID}}
	}
	return *c, nil
}

// Snapshot returns a copy of every counter
func (l *MemoryLedger) Snapshot() map[int64]int {
	l.mu.RLock()
	ids := make([]int64, 0, len(l.counters))
	for id := range l.counters {
		ids = append(ids, id)
	}
	l.mu.RUnlock()

	unlock := l.locks.LockAll(ids)
	defer unlock()

	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[int64]int, len(ids))
	for _, id := range ids {
		out[id] = *l.counters[id]
	}
	return out
}

var _ Ledger = (*MemoryLedger)(nil)
