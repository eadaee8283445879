package catalog

import (
	"strings"

	"github.com/carconfig/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Accessory is an optional add-on for a car model.
// Availability is the only mutable field and is owned by the inventory ledger;
// the catalog only ever reports a snapshot of it.
type Accessory struct {
	ID           int64
	Name         string
	Price        decimal.Decimal
	Availability int

	// Resolved constraint fields, nil when the accessory has no such edge
	RequiredAccessoryID     *int64
	IncompatibleAccessoryID *int64
}

// NewAccessory creates an accessory after checking its reference data
func NewAccessory(id int64, name string, price decimal.Decimal, availability int) (*Accessory, error) {
	if id <= 0 {
		return nil, shared.NewDomainError("INVALID_ACCESSORY", "Accessory ID must be positive")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_ACCESSORY", "Accessory name cannot be empty")
	}
	if price.IsNegative() {
		return nil, shared.NewDomainError("INVALID_ACCESSORY", "Accessory price cannot be negative")
	}
	if availability < 0 {
		return nil, shared.NewDomainError("INVALID_ACCESSORY", "Accessory availability cannot be negative")
	}
	return &Accessory{
		ID:           id,
		Name:         name,
		Price:        price,
		Availability: availability,
	}, nil
}

// ApplyConstraint copies the constraint edges of c onto the accessory
func (a *Accessory) ApplyConstraint(c AccessoryConstraint) {
	a.RequiredAccessoryID = c.RequiredAccessoryID
	a.IncompatibleAccessoryID = c.IncompatibleAccessoryID
}

// IsAvailable reports whether at least one unit is in stock
func (a *Accessory) IsAvailable() bool {
	return a.Availability > 0
}
