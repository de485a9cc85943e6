package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"portfolio-backend/internal/domain"
	"portfolio-backend/pkg/logger"
	"portfolio-backend/pkg/validation"
)

const auditPrefixLength = 50

type ContactConfig struct {
	Recipient   string
	Limit       int
	Window      time.Duration
	SendTimeout time.Duration
	Location    *time.Location
}

type contactUsecase struct {
	limiter   domain.RateLimiter
	validator *validation.ContactValidator
	mailer    domain.Mailer
	audit     domain.AuditLog
	cfg       ContactConfig
	now       func() time.Time
	log       *slog.Logger
}

type ContactOption func(*contactUsecase)

func WithContactClock(now func() time.Time) ContactOption {
	return func(uc *contactUsecase) { uc.now = now }
}

func WithContactLogger(l *slog.Logger) ContactOption {
	return func(uc *contactUsecase) { uc.log = l }
}

// NewContactUsecase creates the submission pipeline
func NewContactUsecase(
	limiter domain.RateLimiter,
	validator *validation.ContactValidator,
	mailer domain.Mailer,
	audit domain.AuditLog,
	cfg ContactConfig,
	opts ...ContactOption,
) domain.ContactUsecase {
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 30 * time.Second
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	uc := &contactUsecase{
		limiter:   limiter,
		validator: validator,
		mailer:    mailer,
		audit:     audit,
		cfg:       cfg,
		now:       time.Now,
		log:       logger.Log,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

func (uc *contactUsecase) Handle(ctx context.Context, raw domain.SubmissionRequest, clientID string) domain.Outcome {
	decision := uc.limiter.Check(ctx, clientID, uc.cfg.Limit, uc.cfg.Window)
	if !decision.Allowed {
		return domain.Outcome{Kind: domain.OutcomeRateLimited, Decision: decision}
	}

	sub, errs := uc.validator.Validate(raw)
	if errs != nil {
		return domain.Outcome{Kind: domain.OutcomeInvalidInput, Errors: errs, Decision: decision}
	}

	now := uc.now()
	msg := domain.EmailAttempt{
		Recipient:   uc.cfg.Recipient,
		Subject:     fmt.Sprintf("Portfolio Contact: Message from %s", sub.Name()),
		Body:        uc.buildBody(sub, clientID, now),
		ReplyTo:     sub.Email(),
		ReplyToName: sub.Name(),
	}

	// The client hanging up must not abort a send that is already underway
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), uc.cfg.SendTimeout)
	delivery := uc.mailer.Send(sendCtx, msg)
	cancel()
	if !delivery.Delivered() {
		return domain.Outcome{Kind: domain.OutcomeSendFailed, Decision: decision}
	}

	entry := domain.AuditLogEntry{
		Timestamp:     now,
		Name:          sub.Name(),
		Email:         sub.Email(),
		MessagePrefix: truncateRunes(sub.Message(), auditPrefixLength),
	}
	if err := uc.audit.Append(context.WithoutCancel(ctx), entry); err != nil {
		uc.log.Error("failed to write contact audit log", "error", err)
	}

	uc.log.Info("contact submission accepted", "transport", delivery.Transport())
	return domain.Outcome{Kind: domain.OutcomeAccepted, Decision: decision}
}

func (uc *contactUsecase) buildBody(sub *validation.ValidatedSubmission, clientID string, now time.Time) string {
	return fmt.Sprintf(`New Contact Form Submission

Name: %s
Email: %s

Message:
%s

---
Sent from: %s
Time: %s
`,
		sub.Name(),
		sub.Email(),
		sub.Message(),
		clientID,
		now.In(uc.cfg.Location).Format("2006-01-02 15:04:05"),
	)
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
