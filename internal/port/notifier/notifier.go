// Package notifier defines the port for raising escalations to human operators.
package notifier

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned when a notifier is not properly configured.
var ErrNotConfigured = errors.New("notifier: not configured")

// Escalation is the payload delivered when a request is handed off to a human.
type Escalation struct {
	RequestID string `json:"request_id"`
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
	Intent    string `json:"intent"`
	Reason    string `json:"reason"`
	Urgency   string `json:"urgency"` // "normal", "high", "immediate"
	Message   string `json:"message"`
}

// Notifier is the port interface for alerting human agents about escalations.
type Notifier interface {
	// NotifyEscalation delivers an escalation to the human support queue.
	NotifyEscalation(ctx context.Context, esc Escalation) error
}
