package inventory

import (
	"cmp"
	"context"
	"slices"
)

// Adjustment is a signed change to one accessory's availability.
// Negative deltas reserve units, positive deltas release them.
type Adjustment struct {
	AccessoryID int64
	Delta       int
}

// Reserve returns the adjustment taking one unit of accessoryID
func Reserve(accessoryID int64) Adjustment {
	return Adjustment{AccessoryID: accessoryID, Delta: -1}
}

// Release returns the adjustment giving back one unit of accessoryID
func Release(accessoryID int64) Adjustment {
	return Adjustment{AccessoryID: accessoryID, Delta: 1}
}

// Ledger owns the availability counters of accessories.
//
// Implementations must guarantee:
//   - availability never goes below zero; a rejected call mutates nothing
//   - calls touching the same accessory serialize, calls on disjoint
//     accessories may run concurrently
//   - AdjustMany is all-or-nothing and reports every accessory that failed
type Ledger interface {
	// Adjust applies a single delta
	Adjust(ctx context.Context, accessoryID int64, delta int) error

	// AdjustMany applies a batch of deltas as one unit
	AdjustMany(ctx context.Context, adjustments []Adjustment) error

	// Availability returns the current counter of an accessory
	Availability(ctx context.Context, accessoryID int64) (int, error)
}

// Normalize sums the deltas per accessory, drops accessories whose net
// change is zero and sorts the result by accessory ID. The sort order is the
// lock acquisition order used by every ledger implementation.
func Normalize(adjustments []Adjustment) []Adjustment {
	sums := make(map[int64]int, len(adjustments))
	for _, adj := range adjustments {
		sums[adj.AccessoryID] += adj.Delta
	}
	out := make([]Adjustment, 0, len(sums))
	for id, delta := range sums {
		if delta == 0 {
			continue
		}
		out = append(out, Adjustment{AccessoryID: id, Delta: delta})
	}
	slices.SortFunc(out, func(a, b Adjustment) int {
		return cmp.Compare(a.AccessoryID, b.AccessoryID)
	})
	return out
}

// AccessoryIDs returns the accessory IDs of a normalized batch
func AccessoryIDs(adjustments []Adjustment) []int64 {
	ids := make([]int64, len(adjustments))
	for i, adj := range adjustments {
		ids[i] = adj.AccessoryID
	}
	return ids
}

// CheckFloor returns the accessories whose availability would drop below
// zero after applying adjustments to current. Accessories missing from
// current are reported through the second return value.
func CheckFloor(current map[int64]int, adjustments []Adjustment) (insufficient, unknown []int64) {
	for _, adj := range adjustments {
		have, ok := current[adj.AccessoryID]
		if !ok {
			unknown = append(unknown, adj.AccessoryID)
			continue
		}
		if have+adj.Delta < 0 {
			insufficient = append(insufficient, adj.AccessoryID)
		}
	}
	return insufficient, unknown
}
