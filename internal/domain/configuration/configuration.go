package configuration

import (
	"slices"
	"time"

	"github.com/carconfig/backend/internal/domain/inventory"
	"github.com/carconfig/backend/internal/domain/shared"
)

// Configuration is a user's chosen car model plus the set of accessories
// holding one reserved unit each. There is at most one per user.
type Configuration struct {
	ID           int64
	UserID       int64
	CarModelID   int64
	AccessoryIDs []int64
	CreatedAt    time.Time
	UpdatedAt    time.Time

	events []shared.DomainEvent
}

// NewConfiguration creates a configuration for userID. The accessory set is
// expected to have passed Validate already.
func NewConfiguration(userID, carModelID int64, accessoryIDs []int64) *Configuration {
	now := time.Now()
	c := &Configuration{
		UserID:       userID,
		CarModelID:   carModelID,
		AccessoryIDs: normalizeIDs(accessoryIDs),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	c.addEvent(NewConfigurationCreatedEvent(c))
	return c
}

// Reservations returns one reserve adjustment per held accessory
func (c *Configuration) Reservations() []inventory.Adjustment {
	adjs := make([]inventory.Adjustment, 0, len(c.AccessoryIDs))
	for _, id := range c.AccessoryIDs {
		adjs = append(adjs, inventory.Reserve(id))
	}
	return adjs
}

// Replace swaps the model and the accessory set in place and returns the
// single batch that reconciles inventory: reservations for added accessories
// and releases for removed ones. Accessories kept across the update are not
// touched.
func (c *Configuration) Replace(carModelID int64, accessoryIDs []int64) []inventory.Adjustment {
	next := normalizeIDs(accessoryIDs)
	added, removed := Diff(c.AccessoryIDs, next)

	adjs := make([]inventory.Adjustment, 0, len(added)+len(removed))
	for _, id := range added {
		adjs = append(adjs, inventory.Reserve(id))
	}
	for _, id := range removed {
		adjs = append(adjs, inventory.Release(id))
	}

	c.CarModelID = carModelID
	c.AccessoryIDs = next
	c.UpdatedAt = time.Now()
	c.addEvent(NewConfigurationUpdatedEvent(c, added, removed))
	return adjs
}

// ReleaseAll returns one release adjustment per held accessory and records
// the deletion
func (c *Configuration) ReleaseAll() []inventory.Adjustment {
	adjs := make([]inventory.Adjustment, 0, len(c.AccessoryIDs))
	for _, id := range c.AccessoryIDs {
		adjs = append(adjs, inventory.Release(id))
	}
	c.addEvent(NewConfigurationDeletedEvent(c))
	return adjs
}

// Holds reports whether the configuration includes accessoryID
func (c *Configuration) Holds(accessoryID int64) bool {
	_, found := slices.BinarySearch(c.AccessoryIDs, accessoryID)
	return found
}

// Snapshot returns a copy without pending events
func (c *Configuration) Snapshot() Configuration {
	cp := *c
	cp.AccessoryIDs = slices.Clone(c.AccessoryIDs)
	cp.events = nil
	return cp
}

// PullEvents returns and clears the events recorded since the last pull
func (c *Configuration) PullEvents() []shared.DomainEvent {
	events := c.events
	c.events = nil
	return events
}

func (c *Configuration) addEvent(e shared.DomainEvent) {
	c.events = append(c.events, e)
}

// Diff computes added = next - prev and removed = prev - next
func Diff(prev, next []int64) (added, removed []int64) {
	inPrev := make(map[int64]struct{}, len(prev))
	for _, id := range prev {
		inPrev[id] = struct{}{}
	}
	inNext := make(map[int64]struct{}, len(next))
	for _, id := range next {
		inNext[id] = struct{}{}
		if _, ok := inPrev[id]; !ok {
			added = append(added, id)
		}
	}
	for _, id := range prev {
		if _, ok := inNext[id]; !ok {
			removed = append(removed, id)
		}
	}
	return added, removed
}

// normalizeIDs returns a sorted copy; the set is order-irrelevant
func normalizeIDs(ids []int64) []int64 {
	out := slices.Clone(ids)
	if out == nil {
		out = []int64{}
	}
	slices.Sort(out)
	return out
}
