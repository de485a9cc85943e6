package email

import (
	"bytes"
	"fmt"
	"time"

	"portfolio-backend/internal/domain"

	"github.com/emersion/go-message/mail"
)

const mailerName = "portfolio-backend"

// BuildMessage renders msg as a plain-text UTF-8 RFC 5322 message.
func BuildMessage(from *mail.Address, msg domain.EmailAttempt, now time.Time) ([]byte, error) {
	var h mail.Header
	h.SetDate(now)
	h.SetAddressList("From", []*mail.Address{from})
	h.SetAddressList("To", []*mail.Address{{Address: msg.Recipient}})
	if msg.ReplyTo != "" {
		h.SetAddressList("Reply-To", []*mail.Address{{Name: msg.ReplyToName, Address: msg.ReplyTo}})
	}
	h.SetSubject(msg.Subject)
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	h.Set("X-Mailer", mailerName)
	if err := h.GenerateMessageID(); err != nil {
		return nil, fmt.Errorf("failed to generate message id: %w", err)
	}

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("failed to create message writer: %w", err)
	}
	if _, err := w.Write([]byte(msg.Body)); err != nil {
		return nil, fmt.Errorf("failed to write message body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish message: %w", err)
	}
	return buf.Bytes(), nil
}
