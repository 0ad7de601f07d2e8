package policy

import "fmt"

// EscalationPolicy decides when a conversation must be handed to a human.
// Thresholds are frozen after construction.
type EscalationPolicy struct {
	ConfidenceThreshold float64
	ErrorCountThreshold int
	MaxRetries          int
}

// NewEscalationPolicy returns the default escalation policy
// (confidence 0.5, errors 3, retries 2).
func NewEscalationPolicy() EscalationPolicy {
	return EscalationPolicy{
		ConfidenceThreshold: 0.5,
		ErrorCountThreshold: 3,
		MaxRetries:          2,
	}
}

// EscalationSignals are the situational inputs to ShouldEscalate.
// HasConfidence distinguishes "no score yet" from a genuine 0.0.
type EscalationSignals struct {
	Confidence          float64
	HasConfidence       bool
	ErrorCount          int
	RetryCount          int
	ExplicitRequest     bool
	FrustrationDetected bool
	SensitiveTopic      bool
}

// ShouldEscalate evaluates the signals in strict priority order: explicit
// request, frustration, sensitive topic, error count, retry count, low
// confidence. The first matching criterion decides; ordering is total, not
// weighted.
func (p EscalationPolicy) ShouldEscalate(s EscalationSignals) Decision {
	if s.ExplicitRequest {
		return Decision{
			Verdict:  VerdictEscalate,
			Reason:   "user explicitly requested human agent",
			Metadata: Metadata{Priority: PriorityHigh, Urgency: UrgencyHigh},
		}
	}
	if s.FrustrationDetected {
		return Decision{
			Verdict:  VerdictEscalate,
			Reason:   "customer frustration detected",
			Metadata: Metadata{Priority: PriorityHigh, Urgency: UrgencyImmediate},
		}
	}
	if s.SensitiveTopic {
		return Decision{
			Verdict:  VerdictEscalate,
			Reason:   "sensitive topic requires human judgment",
			Metadata: Metadata{Priority: PriorityMedium, Urgency: UrgencyMedium},
		}
	}
	if s.ErrorCount >= p.ErrorCountThreshold {
		return Decision{
			Verdict:  VerdictEscalate,
			Reason:   fmt.Sprintf("too many errors (%d)", s.ErrorCount),
			Metadata: Metadata{Priority: PriorityMedium, Urgency: UrgencyMedium},
		}
	}
	if s.RetryCount >= p.MaxRetries {
		return Decision{
			Verdict:  VerdictEscalate,
			Reason:   fmt.Sprintf("max retries exceeded (%d)", s.RetryCount),
			Metadata: Metadata{Priority: PriorityMedium, Urgency: UrgencyMedium},
		}
	}
	if s.HasConfidence && s.Confidence < p.ConfidenceThreshold {
		return Decision{
			Verdict:  VerdictEscalate,
			Reason:   fmt.Sprintf("low confidence (%.2f)", s.Confidence),
			Metadata: Metadata{Priority: PriorityLow, Urgency: UrgencyLow},
		}
	}
	return Proceed("no escalation criteria met")
}
