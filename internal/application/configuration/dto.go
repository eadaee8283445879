package configuration

import (
	"slices"
	"time"

	"github.com/carconfig/backend/internal/domain/configuration"
)

// ConfigurationInput is a proposed configuration
type ConfigurationInput struct {
	CarModelID   int64
	AccessoryIDs []int64
}

// ConfigurationResponse represents a user's configuration in API responses
type ConfigurationResponse struct {
	UserID      int64     `json:"user_id"`
	CarModelID  int64     `json:"car_model_id"`
	Accessories []int64   `json:"accessories"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// EstimateResponse is a configuration enriched with a delivery estimate.
// EstimatedDeliveryDays is nil when the estimator was unavailable.
type EstimateResponse struct {
	ConfigurationResponse
	EstimatedDeliveryDays *int `json:"estimated_delivery_days,omitempty"`
}

// DeleteResponse reports how many configurations a delete removed (0 or 1)
type DeleteResponse struct {
	Changes int64 `json:"changes"`
}

// ToConfigurationResponse converts a domain configuration
func ToConfigurationResponse(c *configuration.Configuration) *ConfigurationResponse {
	return &ConfigurationResponse{
		UserID:      c.UserID,
		CarModelID:  c.CarModelID,
		Accessories: slices.Clone(c.AccessoryIDs),
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}
