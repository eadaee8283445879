package inventory

import (
	"context"
	"errors"
	"testing"

	"github.com/carconfig/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/sync/errgroup"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestNormalize(t *testing.T) {
	got := Normalize([]Adjustment{
		Reserve(3), Release(1), Reserve(1), Reserve(3), Release(2),
	})
	assert.Equal(t, []Adjustment{
		{AccessoryID: 2, Delta: 1},
		{AccessoryID: 3, Delta: -2},
	}, got)
	assert.Empty(t, Normalize(nil))
}

func TestCheckFloor(t *testing.T) {
	insufficient, unknown := CheckFloor(
		map[int64]int{1: 0, 2: 1, 3: 5},
		[]Adjustment{{1, -1}, {2, -1}, {3, -6}, {4, -1}},
	)
	assert.Equal(t, []int64{1, 3}, insufficient)
	assert.Equal(t, []int64{4}, unknown)
}

func TestMemoryLedger_Adjust(t *testing.T) {
	ctx := context.Background()

	t.Run("reserve and release", func(t *testing.T) {
		l := NewMemoryLedger(map[int64]int{1: 2})
		require.NoError(t, l.Adjust(ctx, 1, -1))
		require.NoError(t, l.Adjust(ctx, 1, -1))
		v, err := l.Availability(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 0, v)

		require.NoError(t, l.Adjust(ctx, 1, 1))
		v, _ = l.Availability(ctx, 1)
		assert.Equal(t, 1, v)
	})

	t.Run("rejects crossing the floor without mutation", func(t *testing.T) {
		l := NewMemoryLedger(map[int64]int{4: 0})
		err := l.Adjust(ctx, 4, -1)

		var insufficient *InsufficientAvailabilityError
		require.ErrorAs(t, err, &insufficient)
		assert.Equal(t, []int64{4}, insufficient.AccessoryIDs)
		assert.ErrorIs(t, err, ErrInsufficientAvailability)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INSUFFICIENT_AVAILABILITY", domainErr.Code)

		v, _ := l.Availability(ctx, 4)
		assert.Equal(t, 0, v)
	})

	t.Run("unknown accessory", func(t *testing.T) {
		l := NewMemoryLedger(nil)
		err := l.Adjust(ctx, 9, 1)
		assert.ErrorIs(t, err, ErrUnknownAccessory)
		_, err = l.Availability(ctx, 9)
		assert.ErrorIs(t, err, ErrUnknownAccessory)
	})

	t.Run("cancelled context mutates nothing", func(t *testing.T) {
		l := NewMemoryLedger(map[int64]int{1: 1})
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		err := l.Adjust(cctx, 1, -1)
		assert.True(t, errors.Is(err, context.Canceled))
		v, _ := l.Availability(ctx, 1)
		assert.Equal(t, 1, v)
	})
}

func TestMemoryLedger_AdjustManyIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger(map[int64]int{1: 1, 2: 0, 3: 0, 4: 5})

	err := l.AdjustMany(ctx, []Adjustment{Reserve(1), Reserve(2), Reserve(3), Release(4)})

	var insufficient *InsufficientAvailabilityError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, []int64{2, 3}, insufficient.AccessoryIDs)
	assert.Equal(t, map[int64]int{1: 1, 2: 0, 3: 0, 4: 5}, l.Snapshot())
}

func TestMemoryLedger_SumsDeltasBeforeFloorCheck(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger(map[int64]int{1: 0})

	// release then reserve of the same accessory nets to zero
	require.NoError(t, l.AdjustMany(ctx, []Adjustment{Release(1), Reserve(1)}))
	v, _ := l.Availability(ctx, 1)
	assert.Equal(t, 0, v)
}

func TestMemoryLedger_ConcurrentReservationsNeverCrossFloor(t *testing.T) {
	const (
		stock   = 25
		workers = 100
	)
	ctx := context.Background()
	l := NewMemoryLedger(map[int64]int{1: stock, 2: stock})

	var g errgroup.Group
	results := make([]error, workers)
	for i := range workers {
		g.Go(func() error {
			results[i] = l.AdjustMany(ctx, []Adjustment{Reserve(2), Reserve(1)})
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
		assert.ErrorIs(t, err, ErrInsufficientAvailability)
	}
	assert.Equal(t, stock, succeeded)
	assert.Equal(t, map[int64]int{1: 0, 2: 0}, l.Snapshot())
}

func TestMemoryLedger_ConcurrentReserveReleaseConserves(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger(map[int64]int{1: 3})

	var g errgroup.Group
	for range 50 {
		g.Go(func() error {
			if err := l.Adjust(ctx, 1, -1); err != nil {
				return nil
			}
			return l.Adjust(ctx, 1, 1)
		})
	}
	require.NoError(t, g.Wait())

	v, _ := l.Availability(ctx, 1)
	assert.Equal(t, 3, v)
}
