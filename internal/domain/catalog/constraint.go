package catalog

import "github.com/carconfig/backend/internal/domain/shared"

// AccessoryConstraint holds at most one "requires" edge and at most one
// "incompatible with" edge for an accessory
type AccessoryConstraint struct {
	AccessoryID             int64
	RequiredAccessoryID     *int64
	IncompatibleAccessoryID *int64
}

// NewAccessoryConstraint builds a constraint row. A nil or zero id means the
// edge is absent.
func NewAccessoryConstraint(accessoryID int64, requiredID, incompatibleID *int64) (AccessoryConstraint, error) {
	if accessoryID <= 0 {
		return AccessoryConstraint{}, shared.NewDomainError("INVALID_CONSTRAINT", "Accessory ID must be positive")
	}
	c := AccessoryConstraint{AccessoryID: accessoryID}
	if requiredID != nil && *requiredID > 0 {
		if *requiredID == accessoryID {
			return AccessoryConstraint{}, shared.NewDomainError("INVALID_CONSTRAINT", "Accessory cannot require itself")
		}
		id := *requiredID
		c.RequiredAccessoryID = &id
	}
	if incompatibleID != nil && *incompatibleID > 0 {
		if *incompatibleID == accessoryID {
			return AccessoryConstraint{}, shared.NewDomainError("INVALID_CONSTRAINT", "Accessory cannot be incompatible with itself")
		}
		id := *incompatibleID
		c.IncompatibleAccessoryID = &id
	}
	return c, nil
}

// IsEmpty reports whether the row carries no edge at all
func (c AccessoryConstraint) IsEmpty() bool {
	return c.RequiredAccessoryID == nil && c.IncompatibleAccessoryID == nil
}

// ConstraintTable indexes constraint rows by accessory id.
// A missing entry means the accessory is unconstrained.
type ConstraintTable map[int64]AccessoryConstraint

// NewConstraintTable indexes rows; a later row for the same accessory
// replaces an earlier one
func NewConstraintTable(rows []AccessoryConstraint) ConstraintTable {
	table := make(ConstraintTable, len(rows))
	for _, r := range rows {
		table[r.AccessoryID] = r
	}
	return table
}

// Lookup returns the constraint of accessoryID and whether one exists
func (t ConstraintTable) Lookup(accessoryID int64) (AccessoryConstraint, bool) {
	c, ok := t[accessoryID]
	return c, ok
}
