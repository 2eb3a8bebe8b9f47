package validator

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Validator wraps go-playground/validator with the school domain's custom
// rules and exposes the business validator used by the services.
type Validator struct {
	validate *validator.Validate
	business *BusinessValidator
}

// New creates a validator with all custom rules registered.
func New() *Validator {
	business := NewBusinessValidator()
	return &Validator{
		validate: business.validate,
		business: business,
	}
}

// Validate validates struct tags and converts failures to ValidationErrors.
func (v *Validator) Validate(s interface{}) ValidationErrors {
	if err := v.validate.Struct(s); err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// GetBusinessValidator returns the business rule validator.
func (v *Validator) GetBusinessValidator() *BusinessValidator {
	return v.business
}

// ValidationError represents a single field validation failure.
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule,omitempty"`
}

type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	if len(ve) == 1 {
		return fmt.Sprintf("validation failed: %s %s", ve[0].Field, ve[0].Message)
	}
	return fmt.Sprintf("validation failed: %d field errors", len(ve))
}

// ToValidationErrors converts validator.ValidationErrors into our error type.
func ToValidationErrors(err error) ValidationErrors {
	var errors ValidationErrors
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, ferr := range verrs {
			errors = append(errors, ValidationError{
				Field:   ferr.Field(),
				Message: errorMessage(ferr),
				Value:   ferr.Value(),
				Rule:    ferr.Tag(),
			})
		}
		return errors
	}
	return ValidationErrors{{Field: "", Message: err.Error()}}
}

func errorMessage(ferr validator.FieldError) string {
	switch ferr.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", ferr.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", ferr.Param())
	case "email":
		return "must be a valid email address"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", ferr.Param())
	case "time_hhmm":
		return "must be a zero-padded HH:MM time"
	case "school_day":
		return "must be a teaching day (Monday through Friday)"
	case "date_ymd":
		return "must be a YYYY-MM-DD date"
	case "month_ym":
		return "must be a YYYY-MM month"
	case "leave_type":
		return "must be one of: sick, personal, family, other"
	case "username":
		return "may only contain letters, numbers, and underscores"
	default:
		return fmt.Sprintf("failed %s validation", ferr.Tag())
	}
}
