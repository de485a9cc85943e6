package validation

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Regex patterns
var (
	// local@domain.tld, domain must carry at least one dot
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9-]+(\.[a-zA-Z0-9-]+)*\.[a-zA-Z]{2,}$`)
)

const maxEmailLength = 254

// RegisterValidators registers custom validators to the validator instance
func RegisterValidators(v *validator.Validate) {
	_ = v.RegisterValidation("contact_email", ContactEmail)
}

// ContactEmail validates the shape of a reply-to address.
// Rejects leading, trailing and doubled dots in the local part.
func ContactEmail(fl validator.FieldLevel) bool {
	return IsEmail(fl.Field().String())
}

// IsEmail reports whether s is a well formed local@domain.tld address.
func IsEmail(s string) bool {
	if s == "" || len(s) > maxEmailLength {
		return false
	}
	if !emailRegex.MatchString(s) {
		return false
	}
	local := s[:strings.LastIndex(s, "@")]
	if strings.HasPrefix(local, ".") || strings.HasSuffix(local, ".") || strings.Contains(local, "..") {
		return false
	}
	return true
}
