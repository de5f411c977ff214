package finance

import (
	"fmt"
	"strings"

	"github.com/joaodebarro/backend/internal/domain/shared"
)

// Error codes raised by the finance context
const (
	CodeEmptyValue               = "EMPTY_VALUE"
	CodeNonPositiveAmount        = "NON_POSITIVE_AMOUNT"
	CodeExceedsOutstanding       = "EXCEEDS_OUTSTANDING"
	CodeDomainInvariantViolation = "DOMAIN_INVARIANT_VIOLATION"
	CodeInvalidScheduleInput     = "INVALID_SCHEDULE_INPUT"
	CodeInvalidPaymentMethod     = "INVALID_PAYMENT_METHOD"
	CodeInvalidStatus            = "INVALID_STATUS"
	CodeInvalidQuickFilter       = "INVALID_QUICK_FILTER"
	CodeInvalidMonthRef          = "INVALID_MONTH_REF"
	CodeValidationFailed         = "VALIDATION_FAILED"
)

func invariantViolation(msg string) error {
	return shared.NewDomainError(CodeDomainInvariantViolation, msg)
}

func invalidSchedule(format string, args ...any) error {
	return shared.NewDomainError(CodeInvalidScheduleInput, fmt.Sprintf(format, args...))
}

// FieldError is one field-level validation failure. Key is a stable identifier the
// presentation layer can localize; Message is the English rendering.
type FieldError struct {
	Field   string `json:"field"`
	Key     string `json:"key"`
	Message string `json:"message"`
}

// ValidationErrors collects every field failure found in one input.
type ValidationErrors []FieldError

// Error implements the error interface
func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, fe := range v {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Is lets errors.Is match validation failures against a VALIDATION_FAILED domain error.
func (v ValidationErrors) Is(target error) bool {
	return shared.CodeOf(target) == CodeValidationFailed
}

// ErrValidationFailed is the sentinel matched by every ValidationErrors value.
var ErrValidationFailed = shared.NewDomainError(CodeValidationFailed, "validation failed")

func (v *ValidationErrors) add(field, key, message string) {
	*v = append(*v, FieldError{Field: field, Key: key, Message: message})
}

// OrNil returns nil when nothing was collected.
func (v ValidationErrors) OrNil() error {
	if len(v) == 0 {
		return nil
	}
	return v
}
