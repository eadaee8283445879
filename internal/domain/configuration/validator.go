package configuration

import "github.com/carconfig/backend/internal/domain/catalog"

// Validate decides whether accessoryIDs may be attached to carModelID.
// Checks run in a fixed order and the first failure is returned:
//  1. no accessory appears twice
//  2. the set does not exceed maxAccessories
//  3. for each accessory in input order, its required accessory is present
//     and its incompatible accessory is absent
//
// Validate performs no I/O. Accessories without a constraint row always pass
// the third check.
func Validate(carModelID int64, accessoryIDs []int64, maxAccessories int, constraints catalog.ConstraintTable) error {
	present := make(map[int64]struct{}, len(accessoryIDs))
	for _, id := range accessoryIDs {
		if _, dup := present[id]; dup {
			return &ValidationError{Reason: ReasonDuplicateAccessory, CarModelID: carModelID, AccessoryID: id}
		}
		present[id] = struct{}{}
	}

	if len(accessoryIDs) > maxAccessories {
		return &ValidationError{
			Reason:     ReasonTooManyAccessories,
			CarModelID: carModelID,
			Count:      len(accessoryIDs),
			Max:        maxAccessories,
		}
	}

	for _, id := range accessoryIDs {
		c, ok := constraints.Lookup(id)
		if !ok {
			continue
		}
		if c.RequiredAccessoryID != nil {
			if _, has := present[*c.RequiredAccessoryID]; !has {
				return &ValidationError{
					Reason:      ReasonMissingRequired,
					CarModelID:  carModelID,
					AccessoryID: id,
					RelatedID:   *c.RequiredAccessoryID,
				}
			}
		}
		if c.IncompatibleAccessoryID != nil {
			if _, has := present[*c.IncompatibleAccessoryID]; has {
				return &ValidationError{
					Reason:      ReasonIncompatiblePair,
					CarModelID:  carModelID,
					AccessoryID: id,
					RelatedID:   *c.IncompatibleAccessoryID,
				}
			}
		}
	}
	return nil
}
