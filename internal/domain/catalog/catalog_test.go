package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v int64) *int64 { return &v }

func TestNewCarModel(t *testing.T) {
	t.Run("creates model with valid inputs", func(t *testing.T) {
		m, err := NewCarModel(1, "Fiat Panda", decimal.NewFromInt(10000), 4)
		require.NoError(t, err)
		assert.Equal(t, int64(1), m.ID)
		assert.Equal(t, "Fiat Panda", m.Name)
		assert.True(t, m.Cost.Equal(decimal.NewFromInt(10000)))
		assert.Equal(t, 4, m.MaxAccessories)
	})

	t.Run("allows zero accessories cap", func(t *testing.T) {
		m, err := NewCarModel(2, "Base", decimal.Zero, 0)
		require.NoError(t, err)
		assert.Equal(t, 0, m.MaxAccessories)
	})

	t.Run("rejects bad reference data", func(t *testing.T) {
		_, err := NewCarModel(0, "X", decimal.Zero, 1)
		assert.Error(t, err)
		_, err = NewCarModel(1, "  ", decimal.Zero, 1)
		assert.Error(t, err)
		_, err = NewCarModel(1, "X", decimal.NewFromInt(-1), 1)
		assert.Error(t, err)
		_, err = NewCarModel(1, "X", decimal.Zero, -1)
		assert.Error(t, err)
	})
}

func TestNewAccessory(t *testing.T) {
	a, err := NewAccessory(3, "Radio", decimal.NewFromInt(300), 5)
	require.NoError(t, err)
	assert.True(t, a.IsAvailable())
	assert.Nil(t, a.RequiredAccessoryID)

	a.ApplyConstraint(AccessoryConstraint{AccessoryID: 3, RequiredAccessoryID: ptr(1)})
	require.NotNil(t, a.RequiredAccessoryID)
	assert.Equal(t, int64(1), *a.RequiredAccessoryID)
	assert.Nil(t, a.IncompatibleAccessoryID)

	empty, err := NewAccessory(4, "Roof rack", decimal.Zero, 0)
	require.NoError(t, err)
	assert.False(t, empty.IsAvailable())

	_, err = NewAccessory(5, "Bad", decimal.Zero, -1)
	assert.Error(t, err)
}

func TestNewAccessoryConstraint(t *testing.T) {
	t.Run("zero ids mean absent edges", func(t *testing.T) {
		c, err := NewAccessoryConstraint(2, ptr(0), nil)
		require.NoError(t, err)
		assert.True(t, c.IsEmpty())
	})

	t.Run("copies edge ids", func(t *testing.T) {
		req := int64(1)
		c, err := NewAccessoryConstraint(2, &req, ptr(3))
		require.NoError(t, err)
		req = 9
		assert.Equal(t, int64(1), *c.RequiredAccessoryID)
		assert.Equal(t, int64(3), *c.IncompatibleAccessoryID)
	})

	t.Run("rejects self references", func(t *testing.T) {
		_, err := NewAccessoryConstraint(2, ptr(2), nil)
		assert.Error(t, err)
		_, err = NewAccessoryConstraint(2, nil, ptr(2))
		assert.Error(t, err)
	})
}

func TestConstraintTable(t *testing.T) {
	table := NewConstraintTable([]AccessoryConstraint{
		{AccessoryID: 2, RequiredAccessoryID: ptr(1)},
		{AccessoryID: 3, IncompatibleAccessoryID: ptr(2)},
	})

	c, ok := table.Lookup(2)
	require.True(t, ok)
	assert.Equal(t, int64(1), *c.RequiredAccessoryID)

	_, ok = table.Lookup(1)
	assert.False(t, ok)
}
