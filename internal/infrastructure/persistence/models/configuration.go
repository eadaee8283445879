package models

import (
	"time"

	"github.com/carconfig/backend/internal/domain/configuration"
)

// ConfigurationModel is the persistence model for configuration.Configuration.
// The unique index on user_id enforces one configuration per user.
type ConfigurationModel struct {
	ID         int64     `gorm:"primaryKey"`
	UserID     int64     `gorm:"not null;uniqueIndex"`
	CarModelID int64     `gorm:"not null;index"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ConfigurationModel) TableName() string {
	return "configurations"
}

// ToDomain converts the persistence model to a domain Configuration.
// Accessory IDs are loaded separately by the repository.
func (m *ConfigurationModel) ToDomain(accessoryIDs []int64) *configuration.Configuration {
	if accessoryIDs == nil {
		accessoryIDs = []int64{}
	}
	return &configuration.Configuration{
		ID:           m.ID,
		UserID:       m.UserID,
		CarModelID:   m.CarModelID,
		AccessoryIDs: accessoryIDs,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// ConfigurationModelFromDomain creates a persistence model from a domain Configuration
func ConfigurationModelFromDomain(c *configuration.Configuration) *ConfigurationModel {
	return &ConfigurationModel{
		ID:         c.ID,
		UserID:     c.UserID,
		CarModelID: c.CarModelID,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

// ConfigurationAccessoryModel links a configuration to one accessory it holds.
// The composite primary key rejects duplicate accessories.
type ConfigurationAccessoryModel struct {
	ConfigurationID int64 `gorm:"primaryKey;autoIncrement:false"`
	AccessoryID     int64 `gorm:"primaryKey;autoIncrement:false;index"`
}

// TableName returns the table name for GORM
func (ConfigurationAccessoryModel) TableName() string {
	return "configuration_accessories"
}
