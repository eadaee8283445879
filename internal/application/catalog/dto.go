package catalog

import (
	"github.com/carconfig/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// CarModelResponse represents a car model in API responses
type CarModelResponse struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	Cost           decimal.Decimal `json:"cost"`
	MaxAccessories int             `json:"max_accessories"`
}

// AccessoryResponse represents an accessory with its resolved constraints
type AccessoryResponse struct {
	ID                      int64           `json:"id"`
	Name                    string          `json:"name"`
	Price                   decimal.Decimal `json:"price"`
	Availability            int             `json:"availability"`
	RequiredAccessoryID     *int64          `json:"required_accessory_id"`
	IncompatibleAccessoryID *int64          `json:"incompatible_accessory_id"`
}

// ToCarModelResponse converts a domain car model
func ToCarModelResponse(m catalog.CarModel) CarModelResponse {
	return CarModelResponse{
		ID:             m.ID,
		Name:           m.Name,
		Cost:           m.Cost,
		MaxAccessories: m.MaxAccessories,
	}
}

// ToAccessoryResponse converts a domain accessory
func ToAccessoryResponse(a catalog.Accessory) AccessoryResponse {
	return AccessoryResponse{
		ID:                      a.ID,
		Name:                    a.Name,
		Price:                   a.Price,
		Availability:            a.Availability,
		RequiredAccessoryID:     a.RequiredAccessoryID,
		IncompatibleAccessoryID: a.IncompatibleAccessoryID,
	}
}
