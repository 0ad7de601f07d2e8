// Package policy defines the orchestration-level decision policies:
// escalation, fallback, retry, and confidence-based routing.
package policy

import "time"

// Verdict is the outcome of a policy evaluation.
type Verdict string

const (
	VerdictProceed  Verdict = "proceed"
	VerdictEscalate Verdict = "escalate"
	VerdictFallback Verdict = "fallback"
	VerdictRetry    Verdict = "retry"
	VerdictClarify  Verdict = "clarify"
)

// Priority hints attached to escalation decisions.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Urgency describes how fast a human should pick up an escalation.
type Urgency string

const (
	UrgencyLow       Urgency = "low"
	UrgencyMedium    Urgency = "medium"
	UrgencyHigh      Urgency = "high"
	UrgencyImmediate Urgency = "immediate"
)

// Metadata carries the fixed set of decision annotations.
type Metadata struct {
	Priority        Priority      `json:"priority,omitempty"`
	Urgency         Urgency       `json:"urgency,omitempty"`
	RetryDelay      time.Duration `json:"retry_delay,omitempty"`
	ConfidenceLevel string        `json:"confidence_level,omitempty"`
	AddDisclaimer   bool          `json:"add_disclaimer,omitempty"`
}

// Decision is the result of evaluating one policy.
type Decision struct {
	Verdict  Verdict  `json:"verdict"`
	Reason   string   `json:"reason"`
	Metadata Metadata `json:"metadata,omitempty"`
}

// Proceed is the neutral decision returned when no policy criteria match.
func Proceed(reason string) Decision {
	return Decision{Verdict: VerdictProceed, Reason: reason}
}
