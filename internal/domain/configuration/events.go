package configuration

import (
	"slices"

	"github.com/carconfig/backend/internal/domain/shared"
)

// AggregateTypeConfiguration is the aggregate type of configuration events.
// Events carry the owning user ID as aggregate ID.
const AggregateTypeConfiguration = "Configuration"

// Event type constants
const (
	EventTypeConfigurationCreated = "ConfigurationCreated"
	EventTypeConfigurationUpdated = "ConfigurationUpdated"
	EventTypeConfigurationDeleted = "ConfigurationDeleted"
)

// ConfigurationCreatedEvent is published after a configuration is committed
type ConfigurationCreatedEvent struct {
	shared.BaseDomainEvent
	UserID       int64   `json:"user_id"`
	CarModelID   int64   `json:"car_model_id"`
	AccessoryIDs []int64 `json:"accessory_ids"`
}

// NewConfigurationCreatedEvent creates a new ConfigurationCreatedEvent
func NewConfigurationCreatedEvent(c *Configuration) *ConfigurationCreatedEvent {
	return &ConfigurationCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeConfigurationCreated, AggregateTypeConfiguration, c.UserID),
		UserID:          c.UserID,
		CarModelID:      c.CarModelID,
		AccessoryIDs:    slices.Clone(c.AccessoryIDs),
	}
}

// ConfigurationUpdatedEvent is published after a configuration is replaced
type ConfigurationUpdatedEvent struct {
	shared.BaseDomainEvent
	UserID       int64   `json:"user_id"`
	CarModelID   int64   `json:"car_model_id"`
	AccessoryIDs []int64 `json:"accessory_ids"`
	Added        []int64 `json:"added"`
	Removed      []int64 `json:"removed"`
}

// NewConfigurationUpdatedEvent creates a new ConfigurationUpdatedEvent
func NewConfigurationUpdatedEvent(c *Configuration, added, removed []int64) *ConfigurationUpdatedEvent {
	return &ConfigurationUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeConfigurationUpdated, AggregateTypeConfiguration, c.UserID),
		UserID:          c.UserID,
		CarModelID:      c.CarModelID,
		AccessoryIDs:    slices.Clone(c.AccessoryIDs),
		Added:           added,
		Removed:         removed,
	}
}

// ConfigurationDeletedEvent is published after a configuration is removed
type ConfigurationDeletedEvent struct {
	shared.BaseDomainEvent
	UserID   int64   `json:"user_id"`
	Released []int64 `json:"released"`
}

// NewConfigurationDeletedEvent creates a new ConfigurationDeletedEvent
func NewConfigurationDeletedEvent(c *Configuration) *ConfigurationDeletedEvent {
	return &ConfigurationDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeConfigurationDeleted, AggregateTypeConfiguration, c.UserID),
		UserID:          c.UserID,
		Released:        slices.Clone(c.AccessoryIDs),
	}
}
