package validation_test

import (
	"strings"
	"testing"

	"portfolio-backend/internal/domain"
	"portfolio-backend/pkg/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRequest() domain.SubmissionRequest {
	return domain.SubmissionRequest{
		Name:    "Jane Doe",
		Email:   "jane@example.com",
		Message: "Hello, this is a test message.",
	}
}

func TestValidateAcceptsValidSubmission(t *testing.T) {
	v := validation.NewContactValidator(1000)

	sub, errs := v.Validate(validRequest())
	require.Nil(t, errs)
	require.NotNil(t, sub)
	assert.Equal(t, "Jane Doe", sub.Name())
	assert.Equal(t, "jane@example.com", sub.Email())
	assert.Equal(t, "Hello, this is a test message.", sub.Message())
}

func TestValidateMissingFields(t *testing.T) {
	v := validation.NewContactValidator(1000)

	t.Run("Should flag exactly the missing fields", func(t *testing.T) {
		cases := []struct {
			req     domain.SubmissionRequest
			missing []string
		}{
			{domain.SubmissionRequest{}, []string{"name", "email", "message"}},
			{domain.SubmissionRequest{Email: "jane@example.com", Message: "A long enough message"}, []string{"name"}},
			{domain.SubmissionRequest{Name: "Jane", Message: "A long enough message"}, []string{"email"}},
			{domain.SubmissionRequest{Name: "Jane", Email: "jane@example.com", Message: "   \t\n "}, []string{"message"}},
		}
		for _, c := range cases {
			sub, errs := v.Validate(c.req)
			assert.Nil(t, sub)
			require.Len(t, errs, len(c.missing))
			for _, field := range c.missing {
				assert.Contains(t, errs[field], "is required")
			}
		}
	})
}

func TestValidateNameLength(t *testing.T) {
	v := validation.NewContactValidator(1000)

	for _, n := range []int{2, 50} {
		req := validRequest()
		req.Name = strings.Repeat("a", n)
		_, errs := v.Validate(req)
		assert.Nil(t, errs, "length %d should pass", n)
	}

	for _, n := range []int{1, 51} {
		req := validRequest()
		req.Name = strings.Repeat("a", n)
		_, errs := v.Validate(req)
		require.Contains(t, errs, "name", "length %d should fail", n)
		assert.Equal(t, "Name must be between 2 and 50 characters", errs["name"])
	}

	t.Run("Should count code points, not bytes", func(t *testing.T) {
		req := validRequest()
		req.Name = strings.Repeat("é", 50)
		_, errs := v.Validate(req)
		assert.Nil(t, errs)
	})

	t.Run("Should trim before measuring", func(t *testing.T) {
		req := validRequest()
		req.Name = "   a   "
		_, errs := v.Validate(req)
		assert.Contains(t, errs, "name")
	})
}

func TestValidateEmail(t *testing.T) {
	v := validation.NewContactValidator(1000)

	for _, email := range []string{"a@b.co", "jane.doe+tag@mail.example.org", " jane@example.com "} {
		req := validRequest()
		req.Email = email
		_, errs := v.Validate(req)
		assert.Nil(t, errs, "%q should pass", email)
	}

	for _, email := range []string{"not-an-email", "jane@localhost", "@example.com", "jane@", ".jane@example.com", "ja..ne@example.com", "jane@example.c"} {
		req := validRequest()
		req.Email = email
		_, errs := v.Validate(req)
		require.Contains(t, errs, "email", "%q should fail", email)
		assert.Equal(t, "Invalid email format", errs["email"])
	}
}

func TestValidateMessageLength(t *testing.T) {
	const max = 40
	v := validation.NewContactValidator(max)
	assert.Equal(t, max, v.MaxMessageLength())

	for _, n := range []int{10, max} {
		req := validRequest()
		req.Message = strings.Repeat("m", n)
		_, errs := v.Validate(req)
		assert.Nil(t, errs, "length %d should pass", n)
	}

	for _, n := range []int{9, max + 1} {
		req := validRequest()
		req.Message = strings.Repeat("m", n)
		_, errs := v.Validate(req)
		require.Contains(t, errs, "message", "length %d should fail", n)
		assert.Equal(t, "Message must be between 10 and 40 characters", errs["message"])
	}
}

func TestValidateCollectsAllViolations(t *testing.T) {
	v := validation.NewContactValidator(1000)

	_, errs := v.Validate(domain.SubmissionRequest{Name: "J", Email: "nope", Message: "short"})
	assert.Len(t, errs, 3)
}

func TestValidateSanitizesOutput(t *testing.T) {
	v := validation.NewContactValidator(1000)

	req := domain.SubmissionRequest{
		Name:    "  <b>Jane</b> O'Neil ",
		Email:   "jane@example.com",
		Message: "Hi <script>alert(1)</script>there & \"friends\"\x00!",
	}
	sub, errs := v.Validate(req)
	require.Nil(t, errs)
	assert.Equal(t, "Jane O&#039;Neil", sub.Name())
	assert.Equal(t, "Hi alert(1)there &amp; &quot;friends&quot;!", sub.Message())
}

func TestValidateRejectsMarkupOnlyName(t *testing.T) {
	v := validation.NewContactValidator(1000)

	req := validRequest()
	req.Name = "<img src=x>"
	_, errs := v.Validate(req)
	assert.Equal(t, "Name is required", errs["name"])
}

func TestValidateKeepsLiteralLessThan(t *testing.T) {
	v := validation.NewContactValidator(1000)

	req := validRequest()
	req.Message = "Quote: budget < 5k, timeline 3 months, please call me back tomorrow."
	sub, errs := v.Validate(req)
	require.Nil(t, errs)
	assert.Equal(t, "Quote: budget &lt; 5k, timeline 3 months, please call me back tomorrow.", sub.Message())
}

func TestValidateMeasuresStrippedText(t *testing.T) {
	v := validation.NewContactValidator(40)

	t.Run("Should reject a message that markup padded past the minimum", func(t *testing.T) {
		req := validRequest()
		req.Message = "<span class='x'>Hi</span>"
		_, errs := v.Validate(req)
		assert.Equal(t, "Message must be between 10 and 40 characters", errs["message"])
	})

	t.Run("Should not count entity expansion against the maximum", func(t *testing.T) {
		req := validRequest()
		req.Message = strings.Repeat("<", 40)
		sub, errs := v.Validate(req)
		require.Nil(t, errs)
		assert.Equal(t, strings.Repeat("&lt;", 40), sub.Message())
	})
}

func TestValidateFlattensSingleLineFields(t *testing.T) {
	v := validation.NewContactValidator(1000)

	req := validRequest()
	req.Name = "Jane\n[2024-03-09] Mallory <m@evil.com> - x"
	sub, errs := v.Validate(req)
	require.Nil(t, errs)
	assert.NotContains(t, sub.Name(), "\n")
	assert.Equal(t, "Jane [2024-03-09] Mallory  - x", sub.Name())

	req = validRequest()
	req.Name = "Jane\r\nDoe"
	req.Message = "Line one\nline two"
	sub, errs = v.Validate(req)
	require.Nil(t, errs)
	assert.Equal(t, "Jane Doe", sub.Name())
	assert.Equal(t, "Line one\nline two", sub.Message(), "message keeps its line breaks")

	req = validRequest()
	req.Email = "jane@example.com\nBcc: m@evil.com"
	_, errs = v.Validate(req)
	assert.Equal(t, "Invalid email format", errs["email"])
}
