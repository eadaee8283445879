package persistence

import (
	"context"
	"errors"

	"github.com/carconfig/backend/internal/domain/configuration"
	"github.com/carconfig/backend/internal/domain/shared"
	"github.com/carconfig/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormConfigurationRepository implements configuration.Repository using GORM.
// Accessories of a configuration live in configuration_accessories.
type GormConfigurationRepository struct {
	db *gorm.DB
}

// NewGormConfigurationRepository creates a new GormConfigurationRepository
func NewGormConfigurationRepository(db *gorm.DB) *GormConfigurationRepository {
	return &GormConfigurationRepository{db: db}
}

// FindByUser returns the configuration of a user
func (r *GormConfigurationRepository) FindByUser(ctx context.Context, userID int64) (*configuration.Configuration, error) {
	var model models.ConfigurationModel
	if err := r.db.WithContext(ctx).First(&model, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	ids, err := r.accessoryIDs(ctx, model.ID)
	if err != nil {
		return nil, err
	}
	return model.ToDomain(ids), nil
}

// Create inserts a configuration and its accessory rows
func (r *GormConfigurationRepository) Create(ctx context.Context, c *configuration.Configuration) error {
	model := models.ConfigurationModelFromDomain(c)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return &configuration.ConflictError{Reason: configuration.ReasonAlreadyExists, UserID: c.UserID}
		}
		return err
	}
	c.ID = model.ID
	return r.insertAccessories(ctx, c.ID, c.AccessoryIDs)
}

// Replace updates the car model and rewrites only the accessory rows that changed
func (r *GormConfigurationRepository) Replace(ctx context.Context, c *configuration.Configuration) error {
	var model models.ConfigurationModel
	if err := r.db.WithContext(ctx).Select("id").First(&model, "user_id = ?", c.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return shared.ErrNotFound
		}
		return err
	}
	c.ID = model.ID

	if err := r.db.WithContext(ctx).
		Model(&models.ConfigurationModel{}).
		Where("id = ?", model.ID).
		UpdateColumns(map[string]any{
			"car_model_id": c.CarModelID,
			"updated_at":   c.UpdatedAt,
		}).Error; err != nil {
		return err
	}

	current, err := r.accessoryIDs(ctx, model.ID)
	if err != nil {
		return err
	}
	added, removed := configuration.Diff(current, c.AccessoryIDs)
	if len(removed) > 0 {
		if err := r.db.WithContext(ctx).
			Where("configuration_id = ? AND accessory_id IN ?", model.ID, removed).
			Delete(&models.ConfigurationAccessoryModel{}).Error; err != nil {
			return err
		}
	}
	return r.insertAccessories(ctx, model.ID, added)
}

// DeleteByUser removes the configuration of a user and reports how many
// configurations were removed
func (r *GormConfigurationRepository) DeleteByUser(ctx context.Context, userID int64) (int64, error) {
	var model models.ConfigurationModel
	if err := r.db.WithContext(ctx).Select("id").First(&model, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}

	if err := r.db.WithContext(ctx).
		Where("configuration_id = ?", model.ID).
		Delete(&models.ConfigurationAccessoryModel{}).Error; err != nil {
		return 0, err
	}
	result := r.db.WithContext(ctx).Delete(&models.ConfigurationModel{}, "id = ?", model.ID)
	return result.RowsAffected, result.Error
}

// CountHolders returns, per accessory, how many configurations hold it
func (r *GormConfigurationRepository) CountHolders(ctx context.Context) (map[int64]int, error) {
	var rows []struct {
		AccessoryID int64
		Holders     int
	}
	if err := r.db.WithContext(ctx).
		Model(&models.ConfigurationAccessoryModel{}).
		Select("accessory_id, COUNT(*) AS holders").
		Group("accessory_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[int64]int, len(rows))
	for _, row := range rows {
		out[row.AccessoryID] = row.Holders
	}
	return out, nil
}

func (r *GormConfigurationRepository) accessoryIDs(ctx context.Context, configurationID int64) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Model(&models.ConfigurationAccessoryModel{}).
		Where("configuration_id = ?", configurationID).
		Order("accessory_id").
		Pluck("accessory_id", &ids).Error
	return ids, err
}

func (r *GormConfigurationRepository) insertAccessories(ctx context.Context, configurationID int64, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	rows := make([]models.ConfigurationAccessoryModel, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, models.ConfigurationAccessoryModel{ConfigurationID: configurationID, AccessoryID: id})
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

var _ configuration.Repository = (*GormConfigurationRepository)(nil)
