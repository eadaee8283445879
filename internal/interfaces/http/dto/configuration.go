package dto

import configapp "github.com/carconfig/backend/internal/application/configuration"

// ConfigurationRequest is the body of a configuration create or update
type ConfigurationRequest struct {
	CarModelID  int64   `json:"car_model_id" binding:"required,min=1"`
	Accessories []int64 `json:"accessories" binding:"required,max=64,dive,min=1"`
}

// ToInput converts the request to the application input
func (r ConfigurationRequest) ToInput() configapp.ConfigurationInput {
	return configapp.ConfigurationInput{
		CarModelID:   r.CarModelID,
		AccessoryIDs: r.Accessories,
	}
}
