package validation

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError maps JSON field names to a human-readable problem.
type ValidationError struct {
	Errors map[string]string `json:"errors"`
}

// Error lists the field errors sorted by field name.
func (v *ValidationError) Error() string {
	fields := make([]string, 0, len(v.Errors))
	for field := range v.Errors {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+v.Errors[field])
	}
	return strings.Join(parts, "; ")
}

// NewValidationError keys each failure by its field path, e.g. "image_paths[0]".
func NewValidationError(errs validator.ValidationErrors) *ValidationError {
	v := &ValidationError{Errors: make(map[string]string, len(errs))}
	for _, err := range errs {
		v.Errors[err.Field()] = describe(err)
	}
	return v
}

func describe(err validator.FieldError) string {
	field, param := err.Field(), err.Param()

	switch err.Tag() {
	case "required":
		return field + " is required"
	case "notblank":
		return field + " must not be blank"
	case "min":
		return fmt.Sprintf("%s must be at least %s%s", field, param, unit(err))
	case "max":
		return fmt.Sprintf("%s must be at most %s%s", field, param, unit(err))
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, param)
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, param)
	case "lt":
		return fmt.Sprintf("%s must be less than %s", field, param)
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, param)
	case "latitude":
		return field + " must be a valid latitude (-90 to 90)"
	case "longitude":
		return field + " must be a valid longitude (-180 to 180)"
	case "uuid":
		return field + " must be a valid UUID"
	case "image_ref":
		return field + " must be a local path, file:// or s3:// reference to a jpg, jpeg, png or webp image"
	default:
		return field + " is invalid"
	}
}

func unit(err validator.FieldError) string {
	switch err.Kind() {
	case reflect.String:
		return " characters long"
	case reflect.Slice, reflect.Array, reflect.Map:
		return " items"
	default:
		return ""
	}
}

// AddError records message for field
func (v *ValidationError) AddError(field, message string) {
	if v.Errors == nil {
		v.Errors = make(map[string]string)
	}
	v.Errors[field] = message
}

// HasErrors reports whether any field failed
func (v *ValidationError) HasErrors() bool {
	return len(v.Errors) > 0
}

// GetFieldError returns the message recorded for field
func (v *ValidationError) GetFieldError(field string) (string, bool) {
	msg, ok := v.Errors[field]
	return msg, ok
}
