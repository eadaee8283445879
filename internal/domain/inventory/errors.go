package inventory

import (
	"fmt"

	"github.com/carconfig/backend/internal/domain/shared"
)

// Ledger error codes
var (
	ErrInsufficientAvailability = shared.NewDomainError("INSUFFICIENT_AVAILABILITY", "Accessory is out of stock")
	ErrUnknownAccessory         = shared.NewDomainError("UNKNOWN_ACCESSORY", "Accessory does not exist")
)

// InsufficientAvailabilityError is returned when a reservation would drive an
// accessory's availability below zero. It lists every accessory of the batch
// that failed the check.
type InsufficientAvailabilityError struct {
	AccessoryIDs []int64
}

// NewInsufficientAvailabilityError creates the error for the given accessories
func NewInsufficientAvailabilityError(ids ...int64) *InsufficientAvailabilityError {
	return &InsufficientAvailabilityError{AccessoryIDs: ids}
}

func (e *InsufficientAvailabilityError) Error() string {
	return fmt.Sprintf("insufficient availability for accessories %v", e.AccessoryIDs)
}

// Unwrap exposes the wire-level error with the failing ids as details
func (e *InsufficientAvailabilityError) Unwrap() error {
	return shared.NewDomainErrorWithDetails(
		ErrInsufficientAvailability.Code,
		ErrInsufficientAvailability.Message,
		map[string]any{"accessory_ids": e.AccessoryIDs},
	)
}

// UnknownAccessoryError is returned when a batch references an accessory the
// ledger does not track
type UnknownAccessoryError struct {
	AccessoryIDs []int64
}

func (e *UnknownAccessoryError) Error() string {
	return fmt.Sprintf("unknown accessories %v", e.AccessoryIDs)
}

// Unwrap exposes the wire-level error with the unknown ids as details
func (e *UnknownAccessoryError) Unwrap() error {
	return shared.NewDomainErrorWithDetails(
		ErrUnknownAccessory.Code,
		ErrUnknownAccessory.Message,
		map[string]any{"accessory_ids": e.AccessoryIDs},
	)
}
