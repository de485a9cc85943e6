package validation

import (
	"fmt"

	"portfolio-backend/internal/domain"

	"github.com/go-playground/validator/v10"
)

// Field bounds shared with error messages
const (
	NameMinLength    = 2
	NameMaxLength    = 50
	MessageMinLength = 10

	DefaultMaxMessageLength = 1000
)

// ValidatedSubmission holds trimmed, sanitized and length-checked contact fields.
// Only ContactValidator.Validate can produce one.
type ValidatedSubmission struct {
	name    string
	email   string
	message string
}

func (s *ValidatedSubmission) Name() string    { return s.name }
func (s *ValidatedSubmission) Email() string   { return s.email }
func (s *ValidatedSubmission) Message() string { return s.message }

// ContactValidator checks contact form submissions.
type ContactValidator struct {
	validate         *validator.Validate
	maxMessageLength int
}

// NewContactValidator returns a validator enforcing maxMessageLength on the
// message field. Values below the minimum message length use the default.
func NewContactValidator(maxMessageLength int) *ContactValidator {
	if maxMessageLength < MessageMinLength {
		maxMessageLength = DefaultMaxMessageLength
	}
	v := validator.New()
	RegisterValidators(v)
	return &ContactValidator{
		validate:         v,
		maxMessageLength: maxMessageLength,
	}
}

// MaxMessageLength returns the upper bound applied to the message field.
func (cv *ContactValidator) MaxMessageLength() int {
	return cv.maxMessageLength
}

// Validate checks every field independently and collects all violations.
// On success the sanitized submission is returned and the error map is nil.
func (cv *ContactValidator) Validate(raw domain.SubmissionRequest) (*ValidatedSubmission, domain.ValidationErrors) {
	// Name and email end up in mail headers and the one-line audit record
	name := stripMarkup(SingleLine(raw.Name))
	email := stripMarkup(SingleLine(raw.Email))
	message := stripMarkup(raw.Message)

	errs := domain.ValidationErrors{}

	nameRule := fmt.Sprintf("required,min=%d,max=%d", NameMinLength, NameMaxLength)
	if err := cv.validate.Var(name, nameRule); err != nil {
		errs["name"] = FormatFieldError("name", err, NameMinLength, NameMaxLength)
	}

	if err := cv.validate.Var(email, "required,contact_email"); err != nil {
		errs["email"] = FormatFieldError("email", err, 0, maxEmailLength)
	}

	messageRule := fmt.Sprintf("required,min=%d,max=%d", MessageMinLength, cv.maxMessageLength)
	if err := cv.validate.Var(message, messageRule); err != nil {
		errs["message"] = FormatFieldError("message", err, MessageMinLength, cv.maxMessageLength)
	}

	sanitized := &ValidatedSubmission{
		name:    Sanitize(name),
		email:   Sanitize(email),
		message: Sanitize(message),
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return sanitized, nil
}
