package models

import (
	"github.com/carconfig/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// CarModelModel is the persistence model for catalog.CarModel
type CarModelModel struct {
	ID             int64           `gorm:"primaryKey;autoIncrement:false"`
	Name           string          `gorm:"type:varchar(200);not null"`
	Cost           decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	MaxAccessories int             `gorm:"not null;check:chk_car_models_max_accessories,max_accessories >= 0"`
}

// TableName returns the table name for GORM
func (CarModelModel) TableName() string {
	return "car_models"
}

// ToDomain converts the persistence model to a domain CarModel
func (m *CarModelModel) ToDomain() catalog.CarModel {
	return catalog.CarModel{
		ID:             m.ID,
		Name:           m.Name,
		Cost:           m.Cost,
		MaxAccessories: m.MaxAccessories,
	}
}

// CarModelModelFromDomain creates a persistence model from a domain CarModel
func CarModelModelFromDomain(m catalog.CarModel) *CarModelModel {
	return &CarModelModel{
		ID:             m.ID,
		Name:           m.Name,
		Cost:           m.Cost,
		MaxAccessories: m.MaxAccessories,
	}
}

// AccessoryModel is the persistence model for catalog.Accessory.
// Availability is written only by the ledger.
type AccessoryModel struct {
	ID           int64           `gorm:"primaryKey;autoIncrement:false"`
	Name         string          `gorm:"type:varchar(200);not null"`
	Price        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Availability int             `gorm:"not null;check:chk_accessories_availability,availability >= 0"`
}

// TableName returns the table name for GORM
func (AccessoryModel) TableName() string {
	return "accessories"
}

// ToDomain converts the persistence model to a domain Accessory
func (m *AccessoryModel) ToDomain() catalog.Accessory {
	return catalog.Accessory{
		ID:           m.ID,
		Name:         m.Name,
		Price:        m.Price,
		Availability: m.Availability,
	}
}

// AccessoryModelFromDomain creates a persistence model from a domain Accessory
func AccessoryModelFromDomain(a catalog.Accessory) *AccessoryModel {
	return &AccessoryModel{
		ID:           a.ID,
		Name:         a.Name,
		Price:        a.Price,
		Availability: a.Availability,
	}
}

// AccessoryConstraintModel is the persistence model for catalog.AccessoryConstraint.
// The primary key on accessory_id keeps at most one row per accessory.
type AccessoryConstraintModel struct {
	AccessoryID             int64  `gorm:"primaryKey;autoIncrement:false"`
	RequiredAccessoryID     *int64 `gorm:"index"`
	IncompatibleAccessoryID *int64 `gorm:"index"`
}

// TableName returns the table name for GORM
func (AccessoryConstraintModel) TableName() string {
	return "accessory_constraints"
}

// ToDomain converts the persistence model to a domain AccessoryConstraint
func (m *AccessoryConstraintModel) ToDomain() catalog.AccessoryConstraint {
	return catalog.AccessoryConstraint{
		AccessoryID:             m.AccessoryID,
		RequiredAccessoryID:     m.RequiredAccessoryID,
		IncompatibleAccessoryID: m.IncompatibleAccessoryID,
	}
}

// AccessoryConstraintModelFromDomain creates a persistence model from a domain AccessoryConstraint
func AccessoryConstraintModelFromDomain(c catalog.AccessoryConstraint) *AccessoryConstraintModel {
	return &AccessoryConstraintModel{
		AccessoryID:             c.AccessoryID,
		RequiredAccessoryID:     c.RequiredAccessoryID,
		IncompatibleAccessoryID: c.IncompatibleAccessoryID,
	}
}
