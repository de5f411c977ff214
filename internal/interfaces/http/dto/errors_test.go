package dto

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeUnknown, http.StatusInternalServerError},
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrCodeStoreUnavailable, http.StatusServiceUnavailable},
		{ErrCodeTimeout, http.StatusGatewayTimeout},
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeConflict, http.StatusConflict},
		{ErrCodeConcurrencyConflict, http.StatusConflict},
		{ErrCodeBusinessRule, http.StatusUnprocessableEntity},
		{ErrCodeExceedsOutstanding, http.StatusUnprocessableEntity},
		{ErrCodeNonPositiveAmount, http.StatusUnprocessableEntity},
		{ErrCodeCurrencyMismatch, http.StatusUnprocessableEntity},
		{ErrCodeInvariantViolation, http.StatusUnprocessableEntity},
		{ErrCodeBadRequest, http.StatusBadRequest},
		{ErrCodeInvalidInput, http.StatusBadRequest},
		{ErrCodeInvalidJSON, http.StatusBadRequest},
		{ErrCodeInvalidAmount, http.StatusBadRequest},
		{ErrCodeInvalidSchedule, http.StatusBadRequest},
		{ErrCodeRequestTooLarge, http.StatusRequestEntityTooLarge},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		// Unknown code should return 500
		{"UNKNOWN_CODE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestNormalizeErrorCode(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"NOT_FOUND", ErrCodeNotFound},
		{"INVALID_INPUT", ErrCodeInvalidInput},
		{"CONCURRENCY_CONFLICT", ErrCodeConcurrencyConflict},
		{"STORE_UNAVAILABLE", ErrCodeStoreUnavailable},
		{"INTERNAL", ErrCodeInternal},
		{"VALIDATION_FAILED", ErrCodeValidation},
		{"NON_POSITIVE_AMOUNT", ErrCodeNonPositiveAmount},
		{"EXCEEDS_OUTSTANDING", ErrCodeExceedsOutstanding},
		{"DOMAIN_INVARIANT_VIOLATION", ErrCodeInvariantViolation},
		{"INVALID_SCHEDULE_INPUT", ErrCodeInvalidSchedule},
		{"INVALID_MONTH_REF", ErrCodeValidation},
		{"CURRENCY_MISMATCH", ErrCodeCurrencyMismatch},
		// Already normalized or unknown codes pass through
		{ErrCodeNotFound, ErrCodeNotFound},
		{"SOMETHING_ELSE", "SOMETHING_ELSE"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeErrorCode(tt.input))
		})
	}
}

func TestEveryMappedCodeHasStatus(t *testing.T) {
	for legacy, code := range LegacyErrorCodeMapping {
		_, ok := ErrorCodeHTTPStatus[code]
		assert.True(t, ok, "%s maps to %s which has no HTTP status", legacy, code)
	}
}

func TestErrorResponseJSON(t *testing.T) {
	t.Run("plain error omits details and request id", func(t *testing.T) {
		data, err := json.Marshal(NewErrorResponse(ErrCodeNotFound, "receivable not found"))
		require.NoError(t, err)
		assert.JSONEq(t, `{"success":false,"error":{"code":"ERR_NOT_FOUND","message":"receivable not found"}}`, string(data))
	})

	t.Run("validation error carries field details", func(t *testing.T) {
		resp := NewValidationErrorResponse("Request validation failed", "req-9", []ValidationDetail{
			{Field: "dueDate", Key: "required", Message: "This field is required"},
		})
		data, err := json.Marshal(resp)
		require.NoError(t, err)
		assert.JSONEq(t, `{
			"success": false,
			"error": {
				"code": "ERR_VALIDATION",
				"message": "Request validation failed",
				"request_id": "req-9",
				"details": [{"field": "dueDate", "key": "required", "message": "This field is required"}]
			}
		}`, string(data))
	})

	t.Run("success response has no error", func(t *testing.T) {
		data, err := json.Marshal(NewSuccessResponse(map[string]string{"status": "ok"}))
		require.NoError(t, err)
		assert.JSONEq(t, `{"success":true,"data":{"status":"ok"}}`, string(data))
	})
}
