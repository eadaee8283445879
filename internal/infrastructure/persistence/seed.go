package persistence

import (
	"context"

	"github.com/carconfig/backend/internal/domain/identity"
	"github.com/carconfig/backend/internal/infrastructure/persistence/models"
	"github.com/carconfig/backend/internal/infrastructure/seed"
	"gorm.io/gorm"
)

// GormSeedTarget loads seed datasets into the relational backend
type GormSeedTarget struct {
	db *gorm.DB
}

// NewGormSeedTarget creates a new GormSeedTarget
func NewGormSeedTarget(db *gorm.DB) *GormSeedTarget {
	return &GormSeedTarget{db: db}
}

// IsEmpty reports whether no car model has been loaded
func (t *GormSeedTarget) IsEmpty(ctx context.Context) (bool, error) {
	var count int64
	if err := t.db.WithContext(ctx).Model(&models.CarModelModel{}).Count(&count).Error; err != nil {
		return false, err
	}
	return count == 0, nil
}

// Load writes the dataset in one transaction
func (t *GormSeedTarget) Load(ctx context.Context, ds seed.Dataset, users []*identity.User) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, m := range ds.Models {
			if err := tx.Create(models.CarModelModelFromDomain(m)).Error; err != nil {
				return err
			}
		}
		for _, a := range ds.Accessories {
			if err := tx.Create(models.AccessoryModelFromDomain(a)).Error; err != nil {
				return err
			}
		}
		for _, c := range ds.Constraints {
			if err := tx.Create(models.AccessoryConstraintModelFromDomain(c)).Error; err != nil {
				return err
			}
		}
		userRepo := NewGormUserRepository(tx)
		for _, u := range users {
			if err := userRepo.Create(ctx, u); err != nil {
				return err
			}
		}
		return nil
	})
}

var _ seed.Target = (*GormSeedTarget)(nil)
