package nats

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/supportflow/supportflow/internal/port/messagequeue"
	"github.com/supportflow/supportflow/internal/port/notifier"
)

// Notifier publishes escalations to the message queue for human agent desks.
type Notifier struct {
	queue messagequeue.Queue
}

// NewNotifier creates a queue-backed escalation notifier.
func NewNotifier(queue messagequeue.Queue) *Notifier {
	return &Notifier{queue: queue}
}

// NotifyEscalation publishes the escalation on the escalations.raised subject.
func (n *Notifier) NotifyEscalation(ctx context.Context, esc notifier.Escalation) error {
	if n.queue == nil {
		return notifier.ErrNotConfigured
	}

	payload, err := json.Marshal(messagequeue.EscalationPayload{
		RequestID: esc.RequestID,
		SessionID: esc.SessionID,
		UserID:    esc.UserID,
		Intent:    esc.Intent,
		Reason:    esc.Reason,
		Urgency:   esc.Urgency,
		Message:   esc.Message,
	})
	if err != nil {
		return fmt.Errorf("marshal escalation: %w", err)
	}

	if err := n.queue.Publish(ctx, messagequeue.SubjectEscalationRaised, payload); err != nil {
		return fmt.Errorf("publish escalation: %w", err)
	}
	return nil
}
