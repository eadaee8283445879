package configuration

import (
	"fmt"

	"github.com/carconfig/backend/internal/domain/shared"
)

// ValidationReason names the rule a rejected configuration broke
type ValidationReason string

const (
	ReasonDuplicateAccessory ValidationReason = "DUPLICATE_ACCESSORY"
	ReasonTooManyAccessories ValidationReason = "TOO_MANY_ACCESSORIES"
	ReasonMissingRequired    ValidationReason = "MISSING_REQUIRED_ACCESSORY"
	ReasonIncompatiblePair   ValidationReason = "INCOMPATIBLE_ACCESSORIES"
	ReasonUnknownCarModel    ValidationReason = "UNKNOWN_CAR_MODEL"
	ReasonUnknownAccessory   ValidationReason = "UNKNOWN_ACCESSORY"
)

// ValidationError is a terminal rejection of a proposed configuration.
// Only the fields relevant to Reason are set.
type ValidationError struct {
	Reason      ValidationReason
	CarModelID  int64
	AccessoryID int64
	RelatedID   int64
	Count       int
	Max         int
}

func (e *ValidationError) Error() string {
	switch e.Reason {
	case ReasonDuplicateAccessory:
		return fmt.Sprintf("accessory %d is listed more than once", e.AccessoryID)
	case ReasonTooManyAccessories:
		return fmt.Sprintf("car model %d allows at most %d accessories, got %d", e.CarModelID, e.Max, e.Count)
	case ReasonMissingRequired:
		return fmt.Sprintf("accessory %d requires accessory %d", e.AccessoryID, e.RelatedID)
	case ReasonIncompatiblePair:
		return fmt.Sprintf("accessory %d is incompatible with accessory %d", e.AccessoryID, e.RelatedID)
	case ReasonUnknownCarModel:
		return fmt.Sprintf("car model %d does not exist", e.CarModelID)
	case ReasonUnknownAccessory:
		return fmt.Sprintf("accessory %d does not exist", e.AccessoryID)
	}
	return string(e.Reason)
}

// Details returns the offending ids keyed for clients
func (e *ValidationError) Details() map[string]any {
	d := map[string]any{"reason": string(e.Reason)}
	if e.CarModelID != 0 {
		d["car_model_id"] = e.CarModelID
	}
	if e.AccessoryID != 0 {
		d["accessory_id"] = e.AccessoryID
	}
	if e.RelatedID != 0 {
		d["related_accessory_id"] = e.RelatedID
	}
	if e.Reason == ReasonTooManyAccessories {
		d["count"] = e.Count
		d["max"] = e.Max
	}
	return d
}

// Unwrap exposes the wire-level error
func (e *ValidationError) Unwrap() error {
	return shared.NewDomainErrorWithDetails(string(e.Reason), e.Error(), e.Details())
}

// ConflictReason describes a state machine precondition failure
type ConflictReason string

const (
	ReasonAlreadyExists ConflictReason = "ALREADY_EXISTS"
	ReasonNotFound      ConflictReason = "NOT_FOUND"
)

// ConflictError means the user's configuration state does not allow the
// requested transition
type ConflictError struct {
	Reason ConflictReason
	UserID int64
}

func (e *ConflictError) Error() string {
	if e.Reason == ReasonAlreadyExists {
		return "Car configuration already exists"
	}
	return "Car configuration not found"
}

// Unwrap exposes the wire-level error
func (e *ConflictError) Unwrap() error {
	return shared.NewDomainErrorWithDetails(string(e.Reason), e.Error(), map[string]any{"user_id": e.UserID})
}

// Sentinels for errors.Is checks against any ValidationError or ConflictError
var (
	ErrAlreadyExists = shared.NewDomainError(string(ReasonAlreadyExists), "Car configuration already exists")
	ErrNotFound      = shared.NewDomainError(string(ReasonNotFound), "Car configuration not found")
)
