package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"portfolio-backend/config"
	"portfolio-backend/internal/domain"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMailer struct {
	delivery domain.Delivery
	sent     []domain.EmailAttempt
}

func (m *recordingMailer) Send(_ context.Context, msg domain.EmailAttempt) domain.Delivery {
	m.sent = append(m.sent, msg)
	return m.delivery
}

func testConfig() *config.Config {
	return &config.Config{
		ContactEmailTo: "owner@example.com",
		FromEmail:      "me@gmail.com",
		SMTPHost:       "smtp.gmail.com",
		SMTPPort:       587,
		SMTPUsername:   "me@gmail.com",
		SMTPPassword:   "hunter2",
		SendTimeout:    time.Second,
		Timezone:       "UTC",
	}
}

func TestPrintConfigMasksPassword(t *testing.T) {
	color.NoColor = true
	var out bytes.Buffer
	printConfig(&out, testConfig())

	assert.NotContains(t, out.String(), "hunter2")
	assert.Contains(t, out.String(), "SMTP pass:                 ***")
	assert.Contains(t, out.String(), "SMTP configured:           YES")
	assert.Contains(t, out.String(), "FROM_EMAIL equals SMTP_USER: YES")
}

func TestSendTest(t *testing.T) {
	color.NoColor = true

	t.Run("Should cancel unless confirmed", func(t *testing.T) {
		mailer := &recordingMailer{}
		var out bytes.Buffer
		err := sendTest(context.Background(), &out, strings.NewReader("n\n"), mailer, testConfig(), false)

		require.NoError(t, err)
		assert.Empty(t, mailer.sent)
		assert.Contains(t, out.String(), "Test cancelled.")
	})

	t.Run("Should report the delivering transport", func(t *testing.T) {
		mailer := &recordingMailer{delivery: domain.Delivery{Attempts: []domain.TransportAttempt{
			{Transport: "smtp", Err: errors.New("535 bad credentials")},
			{Transport: "direct"},
		}}}
		var out bytes.Buffer
		err := sendTest(context.Background(), &out, strings.NewReader(""), mailer, testConfig(), true)

		require.NoError(t, err)
		require.Len(t, mailer.sent, 1)
		assert.Equal(t, "Portfolio Test: Email from Test User", mailer.sent[0].Subject)
		assert.Contains(t, out.String(), "535 bad credentials")
		assert.Contains(t, out.String(), "Delivered via direct")
	})

	t.Run("Should fail when nothing delivered", func(t *testing.T) {
		mailer := &recordingMailer{delivery: domain.Delivery{Attempts: []domain.TransportAttempt{
			{Transport: "direct", Err: errors.New("connection refused")},
		}}}
		err := sendTest(context.Background(), &bytes.Buffer{}, strings.NewReader("y\n"), mailer, testConfig(), false)
		assert.Error(t, err)
	})
}
