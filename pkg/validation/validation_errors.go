package validation

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// FieldLabels maps form field names to the label used in error messages
var FieldLabels = map[string]string{
	"name":    "Name",
	"email":   "Email",
	"message": "Message",
}

// FormatFieldError converts the first failing rule for a field into a user-facing message.
// Length rules are reported as a single "between" message using the field's bounds.
func FormatFieldError(field string, err error, minLen, maxLen int) string {
	label := getFieldLabel(field)

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok || len(validationErrors) == 0 {
		return fmt.Sprintf("%s is invalid", label)
	}

	switch validationErrors[0].Tag() {
	case "required":
		return fmt.Sprintf("%s is required", label)

	case "min", "max":
		return fmt.Sprintf("%s must be between %d and %d characters", label, minLen, maxLen)

	case "contact_email", "email":
		return "Invalid email format"

	default:
		return fmt.Sprintf("%s is invalid", label)
	}
}

func getFieldLabel(field string) string {
	if label, ok := FieldLabels[field]; ok {
		return label
	}
	return field
}
