package domain

import (
	"context"
	"time"
)

// SubmissionRequest is a raw contact form submission. Nothing about it is trusted.
type SubmissionRequest struct {
	Name    string `json:"name" example:"Jane Doe"`
	Email   string `json:"email" example:"jane@example.com"`
	Message string `json:"message" example:"Hello, this is a test message."`
}

// ValidationErrors maps a field name to a human readable message.
type ValidationErrors map[string]string

// EmailAttempt is the message the pipeline hands to the mailer.
type EmailAttempt struct {
	Recipient   string
	Subject     string
	Body        string
	ReplyTo     string
	ReplyToName string
}

// TransportAttempt is the result of one delivery attempt on one transport.
type TransportAttempt struct {
	Transport string
	Err       error
	Duration  time.Duration
}

// OK reports whether the transport accepted the message.
func (a TransportAttempt) OK() bool {
	return a.Err == nil
}

// Delivery records every transport attempt made for a single EmailAttempt.
type Delivery struct {
	Attempts []TransportAttempt
}

// Delivered reports whether any attempt succeeded.
func (d Delivery) Delivered() bool {
	for _, a := range d.Attempts {
		if a.OK() {
			return true
		}
	}
	return false
}

// Transport returns the name of the transport that delivered the message, or "".
func (d Delivery) Transport() string {
	for _, a := range d.Attempts {
		if a.OK() {
			return a.Transport
		}
	}
	return ""
}

// AuditLogEntry is appended once per accepted submission.
type AuditLogEntry struct {
	Timestamp     time.Time
	Name          string
	Email         string
	MessagePrefix string
}

// Mailer delivers an EmailAttempt. Implementations never panic or return errors;
// every failure is reported through the Delivery.
type Mailer interface {
	Send(ctx context.Context, msg EmailAttempt) Delivery
}

// AuditLog is an append-only record of accepted submissions.
type AuditLog interface {
	Append(ctx context.Context, entry AuditLogEntry) error
}

// OutcomeKind enumerates how a submission ended.
type OutcomeKind int

const (
	OutcomeAccepted OutcomeKind = iota
	OutcomeInvalidInput
	OutcomeRateLimited
	OutcomeSendFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeAccepted:
		return "accepted"
	case OutcomeInvalidInput:
		return "invalid_input"
	case OutcomeRateLimited:
		return "rate_limited"
	case OutcomeSendFailed:
		return "send_failed"
	default:
		return "unknown"
	}
}

// Outcome is the single result of running a submission through the pipeline.
// Errors is set only for OutcomeInvalidInput.
type Outcome struct {
	Kind     OutcomeKind
	Errors   ValidationErrors
	Decision RateLimitDecision
}

// ContactUsecase runs a submission through rate limiting, validation, delivery
// and the audit log.
type ContactUsecase interface {
	Handle(ctx context.Context, raw SubmissionRequest, clientID string) Outcome
}
