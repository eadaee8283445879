package catalog

import (
	"strings"

	"github.com/carconfig/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// CarModel is immutable reference data describing a model a configuration
// can be built on
type CarModel struct {
	ID             int64
	Name           string
	Cost           decimal.Decimal
	MaxAccessories int
}

// NewCarModel creates a car model after checking its reference data
func NewCarModel(id int64, name string, cost decimal.Decimal, maxAccessories int) (*CarModel, error) {
	if id <= 0 {
		return nil, shared.NewDomainError("INVALID_CAR_MODEL", "Car model ID must be positive")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_CAR_MODEL", "Car model name cannot be empty")
	}
	if cost.IsNegative() {
		return nil, shared.NewDomainError("INVALID_CAR_MODEL", "Car model cost cannot be negative")
	}
	if maxAccessories < 0 {
		return nil, shared.NewDomainError("INVALID_CAR_MODEL", "Max accessories cannot be negative")
	}
	return &CarModel{
		ID:             id,
		Name:           name,
		Cost:           cost,
		MaxAccessories: maxAccessories,
	}, nil
}
