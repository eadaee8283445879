package dto

import "net/http"

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
	// ErrCodeStorage is used when the storage backend failed transiently
	ErrCodeStorage = "ERR_STORAGE"
	// ErrCodeTimeout is used when the request deadline passed
	ErrCodeTimeout = "ERR_TIMEOUT"
	// ErrCodeCanceled is used when the client went away
	ErrCodeCanceled = "ERR_CANCELED"
)

// Validation error codes
const (
	// ErrCodeValidation is used when request binding fails
	ErrCodeValidation = "ERR_VALIDATION"
)

// Authentication error codes
const (
	// ErrCodeUnauthorized is used when authentication is required but missing/invalid
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	// ErrCodeInvalidCredentials is used for a failed login
	ErrCodeInvalidCredentials = "ERR_INVALID_CREDENTIALS"
	// ErrCodeTokenExpired is used when the auth token has expired
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	// ErrCodeTokenInvalid is used when the auth token is invalid
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
	// ErrCodeTokenRevoked is used when the auth token was logged out
	ErrCodeTokenRevoked = "ERR_TOKEN_REVOKED"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeAlreadyExists is used when trying to create a duplicate resource
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	// ErrCodeConflict is used for general resource conflicts
	ErrCodeConflict = "ERR_CONFLICT"
	// ErrCodeIdempotencyKeyReused is used when a spent idempotency key is retried
	ErrCodeIdempotencyKeyReused = "ERR_IDEMPOTENCY_KEY_REUSED"
)

// Configuration rule error codes. These keep the domain reason as-is so a
// client can branch on them.
const (
	ErrCodeDuplicateAccessory       = "DUPLICATE_ACCESSORY"
	ErrCodeTooManyAccessories       = "TOO_MANY_ACCESSORIES"
	ErrCodeMissingRequiredAccessory = "MISSING_REQUIRED_ACCESSORY"
	ErrCodeIncompatibleAccessories  = "INCOMPATIBLE_ACCESSORIES"
	ErrCodeUnknownCarModel          = "UNKNOWN_CAR_MODEL"
	ErrCodeUnknownAccessory         = "UNKNOWN_ACCESSORY"
	ErrCodeInsufficientAvailability = "INSUFFICIENT_AVAILABILITY"
)

// Input error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
	// ErrCodeRequestTooLarge is used when the body exceeds the limit
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
)

// ErrCodeRateLimited is used when rate limit is exceeded
const ErrCodeRateLimited = "ERR_RATE_LIMITED"

// StatusClientClosedRequest is reported when the caller canceled the request
const StatusClientClosedRequest = 499

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// General errors
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,
	ErrCodeStorage:  http.StatusServiceUnavailable,
	ErrCodeTimeout:  http.StatusGatewayTimeout,
	ErrCodeCanceled: StatusClientClosedRequest,

	ErrCodeValidation: http.StatusBadRequest,

	// Auth errors
	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeInvalidCredentials: http.StatusUnauthorized,
	ErrCodeTokenExpired:       http.StatusUnauthorized,
	ErrCodeTokenInvalid:       http.StatusUnauthorized,
	ErrCodeTokenRevoked:       http.StatusUnauthorized,

	// Resource errors
	ErrCodeNotFound:      http.StatusNotFound,
	ErrCodeAlreadyExists: http.StatusConflict,
	ErrCodeConflict:      http.StatusConflict,

	ErrCodeIdempotencyKeyReused: http.StatusConflict,

	// Configuration rules -> 422 Unprocessable Entity
	ErrCodeDuplicateAccessory:       http.StatusUnprocessableEntity,
	ErrCodeTooManyAccessories:       http.StatusUnprocessableEntity,
	ErrCodeMissingRequiredAccessory: http.StatusUnprocessableEntity,
	ErrCodeIncompatibleAccessories:  http.StatusUnprocessableEntity,
	ErrCodeUnknownCarModel:          http.StatusUnprocessableEntity,
	ErrCodeUnknownAccessory:         http.StatusUnprocessableEntity,
	ErrCodeInsufficientAvailability: http.StatusUnprocessableEntity,

	// Input errors -> 400 Bad Request
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidInput:    http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	ErrCodeRateLimited: http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes map to 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to wire codes. Codes not
// listed here are sent unchanged.
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":              ErrCodeNotFound,
	"ALREADY_EXISTS":         ErrCodeAlreadyExists,
	"INVALID_INPUT":          ErrCodeInvalidInput,
	"UNAUTHORIZED":           ErrCodeUnauthorized,
	"INVALID_CREDENTIALS":    ErrCodeInvalidCredentials,
	"STORAGE_UNAVAILABLE":    ErrCodeStorage,
	"INTERNAL_ERROR":         ErrCodeInternal,
	"EMAIL_TAKEN":            ErrCodeConflict,
	"IDEMPOTENCY_KEY_REUSED": ErrCodeIdempotencyKeyReused,
	"INVALID_EMAIL":          ErrCodeInvalidInput,
	"INVALID_PASSWORD":       ErrCodeInvalidInput,
	"INVALID_NAME":           ErrCodeInvalidInput,
}

// NormalizeErrorCode converts a domain error code to its wire code
func NormalizeErrorCode(code string) string {
	if mapped, ok := DomainErrorCodeMapping[code]; ok {
		return mapped
	}
	return code
}
