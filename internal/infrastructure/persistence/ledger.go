package persistence

import (
	"context"
	"errors"

	"github.com/carconfig/backend/internal/domain/inventory"
	"github.com/carconfig/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormLedger implements inventory.Ledger on the accessories table.
//
// A batch locks its rows with SELECT ... FOR UPDATE in ascending id order,
// checks every floor, then applies each delta with a guarded UPDATE that
// refuses to cross zero. The guard keeps the floor even on backends without
// row locks.
type GormLedger struct {
	db   *gorm.DB
	inTx bool
}

// NewGormLedger creates a ledger that opens its own transaction per batch
func NewGormLedger(db *gorm.DB) *GormLedger {
	return &GormLedger{db: db}
}

// newTxLedger creates a ledger bound to an already open transaction
func newTxLedger(tx *gorm.DB) *GormLedger {
	return &GormLedger{db: tx, inTx: true}
}

// Adjust applies a single delta
func (l *GormLedger) Adjust(ctx context.Context, accessoryID int64, delta int) error {
	return l.AdjustMany(ctx, []inventory.Adjustment{{AccessoryID: accessoryID, Delta: delta}})
}

// AdjustMany applies a batch of deltas atomically
func (l *GormLedger) AdjustMany(ctx context.Context, adjustments []inventory.Adjustment) error {
	batch := inventory.Normalize(adjustments)
	if len(batch) == 0 {
		return nil
	}
	if l.inTx {
		return applyBatch(ctx, l.db, batch)
	}
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return applyBatch(ctx, tx, batch)
	})
}

// Availability returns the current counter of an accessory
func (l *GormLedger) Availability(ctx context.Context, accessoryID int64) (int, error) {
	var row models.AccessoryModel
	err := l.db.WithContext(ctx).Select("id", "availability").First(&row, "id = ?", accessoryID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, &inventory.UnknownAccessoryError{AccessoryIDs: []int64{accessoryID}}
	}
	if err != nil {
		return 0, err
	}
	return row.Availability, nil
}

func applyBatch(ctx context.Context, tx *gorm.DB, batch []inventory.Adjustment) error {
	ids := inventory.AccessoryIDs(batch)

	var rows []models.AccessoryModel
	if err := forUpdate(tx.WithContext(ctx)).
		Select("id", "availability").
		Where("id IN ?", ids).
		Order("id").
		Find(&rows).Error; err != nil {
		return err
	}

	current := make(map[int64]int, len(rows))
	for _, row := range rows {
		current[row.ID] = row.Availability
	}
	insufficient, unknown := inventory.CheckFloor(current, batch)
	if len(unknown) > 0 {
		return &inventory.UnknownAccessoryError{AccessoryIDs: unknown}
	}
	if len(insufficient) > 0 {
		return inventory.NewInsufficientAvailabilityError(insufficient...)
	}

	for _, adj := range batch {
		result := tx.WithContext(ctx).
			Model(&models.AccessoryModel{}).
			Where("id = ? AND availability + ? >= 0", adj.AccessoryID, adj.Delta).
			UpdateColumn("availability", gorm.Expr("availability + ?", adj.Delta))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return inventory.NewInsufficientAvailabilityError(adj.AccessoryID)
		}
	}
	return nil
}

var _ inventory.Ledger = (*GormLedger)(nil)
