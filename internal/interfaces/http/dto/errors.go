package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
	// ErrCodeStoreUnavailable is used when the backing store cannot be reached
	ErrCodeStoreUnavailable = "ERR_STORE_UNAVAILABLE"
	// ErrCodeTimeout is used when a request exceeds its deadline
	ErrCodeTimeout = "ERR_TIMEOUT"
)

// Validation error codes
const (
	// ErrCodeValidation is the base code for validation errors
	ErrCodeValidation = "ERR_VALIDATION"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeConflict is used for general resource conflicts
	ErrCodeConflict = "ERR_CONFLICT"
	// ErrCodeConcurrencyConflict is used when optimistic locking fails
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
)

// Business rule error codes
const (
	// ErrCodeBusinessRule is used for generic business rule violations
	ErrCodeBusinessRule = "ERR_BUSINESS_RULE"
	// ErrCodeExceedsOutstanding is used when a settlement is larger than what is owed
	ErrCodeExceedsOutstanding = "ERR_EXCEEDS_OUTSTANDING"
	// ErrCodeNonPositiveAmount is used when a settlement amount is zero or negative
	ErrCodeNonPositiveAmount = "ERR_NON_POSITIVE_AMOUNT"
	// ErrCodeCurrencyMismatch is used when amounts of different currencies are combined
	ErrCodeCurrencyMismatch = "ERR_CURRENCY_MISMATCH"
	// ErrCodeInvariantViolation is used when an entry would break one of its invariants
	ErrCodeInvariantViolation = "ERR_INVARIANT_VIOLATION"
)

// Input error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
	// ErrCodeInvalidAmount is used for malformed or negative amounts
	ErrCodeInvalidAmount = "ERR_INVALID_AMOUNT"
	// ErrCodeInvalidSchedule is used for installment plans that cannot be built
	ErrCodeInvalidSchedule = "ERR_INVALID_SCHEDULE"
	// ErrCodeRequestTooLarge is used when the body exceeds the configured limit
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
)

// Rate limiting error codes
const (
	// ErrCodeRateLimited is used when rate limit is exceeded
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// General errors
	ErrCodeUnknown:          http.StatusInternalServerError,
	ErrCodeInternal:         http.StatusInternalServerError,
	ErrCodeStoreUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:          http.StatusGatewayTimeout,

	// Validation errors -> 400 Bad Request
	ErrCodeValidation: http.StatusBadRequest,

	// Resource errors
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity
	ErrCodeBusinessRule:       http.StatusUnprocessableEntity,
	ErrCodeExceedsOutstanding: http.StatusUnprocessableEntity,
	ErrCodeNonPositiveAmount:  http.StatusUnprocessableEntity,
	ErrCodeCurrencyMismatch:   http.StatusUnprocessableEntity,
	ErrCodeInvariantViolation: http.StatusUnprocessableEntity,

	// Input errors -> 400 Bad Request
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidInput:    http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodeInvalidAmount:   http.StatusBadRequest,
	ErrCodeInvalidSchedule: http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	// Rate limiting -> 429 Too Many Requests
	ErrCodeRateLimited: http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// LegacyErrorCodeMapping maps domain error codes to the API codes
var LegacyErrorCodeMapping = map[string]string{
	"NOT_FOUND":                  ErrCodeNotFound,
	"INVALID_INPUT":              ErrCodeInvalidInput,
	"CONCURRENCY_CONFLICT":       ErrCodeConcurrencyConflict,
	"STORE_UNAVAILABLE":          ErrCodeStoreUnavailable,
	"INTERNAL":                   ErrCodeInternal,
	"VALIDATION_FAILED":          ErrCodeValidation,
	"EMPTY_VALUE":                ErrCodeValidation,
	"INVALID_AMOUNT":             ErrCodeInvalidAmount,
	"NEGATIVE_RESULT":            ErrCodeInvalidAmount,
	"CURRENCY_MISMATCH":          ErrCodeCurrencyMismatch,
	"NON_POSITIVE_AMOUNT":        ErrCodeNonPositiveAmount,
	"EXCEEDS_OUTSTANDING":        ErrCodeExceedsOutstanding,
	"DOMAIN_INVARIANT_VIOLATION": ErrCodeInvariantViolation,
	"INVALID_SCHEDULE_INPUT":     ErrCodeInvalidSchedule,
	"INVALID_PAYMENT_METHOD":     ErrCodeValidation,
	"INVALID_STATUS":             ErrCodeValidation,
	"INVALID_QUICK_FILTER":       ErrCodeValidation,
	"INVALID_MONTH_REF":          ErrCodeValidation,
}

// NormalizeErrorCode converts a domain error code to the API format
// If the code is already in the API format or unknown, returns it as-is
func NormalizeErrorCode(code string) string {
	if newCode, ok := LegacyErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
