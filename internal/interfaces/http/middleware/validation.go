package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/joaodebarro/backend/internal/domain/finance"
	"github.com/joaodebarro/backend/internal/domain/shared"
	"github.com/joaodebarro/backend/internal/domain/shared/valueobject"
	"github.com/joaodebarro/backend/internal/interfaces/http/dto"
)

// SetupValidator configures gin's validator: JSON/form names in errors plus the
// bookkeeping tags date_only, currency, quick_filter, iss_mode and schedule_rule.
func SetupValidator() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin validator engine is not go-playground/validator")
	}
	return RegisterValidations(v)
}

// RegisterValidations installs the custom tags on v
func RegisterValidations(v *validator.Validate) error {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		return name
	})

	validations := map[string]validator.Func{
		"date_only": func(fl validator.FieldLevel) bool {
			_, err := shared.ParseDate(strings.TrimSpace(fl.Field().String()))
			return err == nil
		},
		"currency": func(fl validator.FieldLevel) bool {
			return len(valueobject.NormalizeCurrency(fl.Field().String())) == 3
		},
		"quick_filter": func(fl validator.FieldLevel) bool {
			_, err := finance.ParseQuickFilter(fl.Field().String())
			return err == nil
		},
		"iss_mode": func(fl validator.FieldLevel) bool {
			_, err := finance.ParseIssMode(fl.Field().String())
			return err == nil
		},
		"schedule_rule": func(fl validator.FieldLevel) bool {
			return finance.ScheduleRule(fl.Field().String()).IsValid()
		},
	}
	for tag, fn := range validations {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	return nil
}

// FormatValidationErrors formats validation errors into a standard response
func FormatValidationErrors(err error, requestID string) dto.Response {
	var details []dto.ValidationDetail

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, e := range validationErrors {
			details = append(details, dto.ValidationDetail{
				Field:   e.Field(),
				Key:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return dto.NewValidationErrorResponse(
		"Request validation failed",
		requestID,
		details,
	)
}

// HandleValidationError returns a validation error response
func HandleValidationError(c *gin.Context, err error) {
	SetErrorCode(c, dto.ErrCodeValidation)
	c.JSON(http.StatusBadRequest, FormatValidationErrors(err, getRequestID(c)))
}

// getValidationMessage returns a human-readable validation message
func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "min":
		if e.Kind() == reflect.String {
			return "Must be at least " + e.Param() + " characters"
		}
		return "Must be at least " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return "Must be at most " + e.Param() + " characters"
		}
		return "Must be at most " + e.Param()
	case "uuid":
		return "Invalid UUID format"
	case "oneof":
		return "Must be one of: " + e.Param()
	case "gte":
		return "Must be greater than or equal to " + e.Param()
	case "lte":
		return "Must be less than or equal to " + e.Param()
	case "date_only":
		return "Must be a YYYY-MM-DD date"
	case "currency":
		return "Must be a 3-letter currency code"
	case "quick_filter":
		return "Must be one of: all overdue dueToday open next7 settled"
	case "iss_mode":
		return "Must be auto or manual"
	case "schedule_rule":
		return "Must be FixedInterval or MonthlyFixedDay"
	default:
		return "Invalid value"
	}
}
