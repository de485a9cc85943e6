package email

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"portfolio-backend/config"
	"portfolio-backend/internal/domain"
	"portfolio-backend/pkg/logger"

	"github.com/emersion/go-message/mail"
	"go.uber.org/atomic"
)

// ErrNotConfigured marks the primary attempt when the relay has no usable credentials.
var ErrNotConfigured = errors.New("smtp relay not configured")

// Values shipped in .env.example. A relay configured with any of them is
// treated as unconfigured.
var placeholderValues = map[string]bool{
	"your_email@gmail.com":      true,
	"your_email@yourdomain.com": true,
	"your_app_password":         true,
	"your_password":             true,
	"smtp.example.com":          true,
	"changeme":                  true,
}

// Stats is a snapshot of the delivery counters.
type Stats struct {
	Sent     int64 `json:"sent"`
	Failed   int64 `json:"failed"`
	Fallback int64 `json:"fallback"`
}

// Service sends contact emails through the SMTP relay, falling back once to
// the local relay when the primary is unconfigured or fails.
type Service struct {
	from     *mail.Address
	primary  Transport
	fallback Transport
	log      *slog.Logger
	now      func() time.Time

	sentCount     atomic.Int64
	failedCount   atomic.Int64
	fallbackCount atomic.Int64
}

type Option func(*Service)

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.log = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New builds a Service. primary may be nil when no relay is configured.
func New(from *mail.Address, primary, fallback Transport, opts ...Option) *Service {
	s := &Service{
		from:     from,
		primary:  primary,
		fallback: fallback,
		log:      logger.Log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewEmailService wires the transports from configuration.
func NewEmailService(cfg *config.Config, opts ...Option) *Service {
	var primary Transport
	if IsConfigured(cfg) {
		primary = &SMTPTransport{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			Timeout:  cfg.SMTPTimeout,
		}
	}
	fallback := &DirectTransport{Addr: cfg.MailFallbackAddr, Timeout: cfg.SMTPTimeout}

	from := &mail.Address{Name: cfg.FromName, Address: cfg.FromEmail}
	return New(from, primary, fallback, opts...)
}

// IsConfigured reports whether the SMTP relay has real credentials.
func IsConfigured(cfg *config.Config) bool {
	for _, v := range []string{cfg.SMTPHost, cfg.SMTPUsername, cfg.SMTPPassword} {
		v = strings.TrimSpace(v)
		if v == "" || placeholderValues[strings.ToLower(v)] {
			return false
		}
	}
	return true
}

// Configured reports whether the primary transport is available.
func (s *Service) Configured() bool {
	return s.primary != nil
}

// Send never returns an error; every failure is recorded in the Delivery.
func (s *Service) Send(ctx context.Context, msg domain.EmailAttempt) (d domain.Delivery) {
	defer func() {
		if d.Delivered() {
			s.sentCount.Inc()
		} else {
			s.failedCount.Inc()
		}
	}()

	raw, err := BuildMessage(s.from, msg, s.now())
	if err != nil {
		s.log.Error("failed to build email", "error", err)
		d.Attempts = append(d.Attempts, domain.TransportAttempt{Transport: "build", Err: err})
		return d
	}
	to := []string{msg.Recipient}

	if s.primary != nil {
		attempt := s.attempt(ctx, s.primary, to, raw)
		d.Attempts = append(d.Attempts, attempt)
		if attempt.OK() {
			return d
		}
	} else {
		s.log.Warn("using fallback transport", "error", ErrNotConfigured)
		d.Attempts = append(d.Attempts, domain.TransportAttempt{Transport: "smtp", Err: ErrNotConfigured})
	}

	if s.fallback == nil {
		return d
	}
	s.fallbackCount.Inc()
	d.Attempts = append(d.Attempts, s.attempt(ctx, s.fallback, to, raw))
	return d
}

// Stats returns the counters since start.
func (s *Service) Stats() Stats {
	return Stats{
		Sent:     s.sentCount.Load(),
		Failed:   s.failedCount.Load(),
		Fallback: s.fallbackCount.Load(),
	}
}

func (s *Service) attempt(ctx context.Context, t Transport, to []string, raw []byte) (a domain.TransportAttempt) {
	start := time.Now()
	a.Transport = t.Name()

	defer func() {
		if r := recover(); r != nil {
			a.Err = fmt.Errorf("transport %s panicked: %v", t.Name(), r)
		}
		a.Duration = time.Since(start)
		if a.Err != nil {
			s.log.Error("email delivery failed",
				"transport", a.Transport,
				"duration_ms", a.Duration.Milliseconds(),
				"error", a.Err,
			)
			return
		}
		s.log.Info("email delivered",
			"transport", a.Transport,
			"duration_ms", a.Duration.Milliseconds(),
		)
	}()

	a.Err = t.Send(ctx, s.from.Address, to, raw)
	return a
}
