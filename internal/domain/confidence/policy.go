package confidence

// Action is the recommended next step for a component's confidence value.
type Action string

const (
	ActionProceed  Action = "proceed"
	ActionClarify  Action = "clarify"
	ActionRetry    Action = "retry"
	ActionEscalate Action = "escalate"
)

// Policy holds per-concern confidence thresholds. It is stateless after
// construction and safe for concurrent use.
type Policy struct {
	IntentThreshold     float64
	KnowledgeThreshold  float64
	EscalationThreshold float64
}

// NewPolicy returns a Policy with the default thresholds
// (intent 0.7, knowledge 0.6, escalation 0.5).
func NewPolicy() Policy {
	return Policy{
		IntentThreshold:     0.7,
		KnowledgeThreshold:  0.6,
		EscalationThreshold: 0.5,
	}
}

// ShouldClarifyIntent reports whether intent confidence is too low to proceed.
func (p Policy) ShouldClarifyIntent(conf float64) bool {
	return conf < p.IntentThreshold
}

// ShouldUseAnswer reports whether a knowledge answer is confident enough to use.
func (p Policy) ShouldUseAnswer(conf float64) bool {
	return conf >= p.KnowledgeThreshold
}

// ShouldEscalate reports whether confidence is low enough to hand off.
func (p Policy) ShouldEscalate(conf float64) bool {
	return conf < p.EscalationThreshold
}

// ActionFor maps a component's confidence to a recommended action.
// Intent and knowledge have dedicated bands; everything else uses the
// generic 0.7/0.5 split.
func (p Policy) ActionFor(component string, conf float64) Action {
	switch component {
	case "intent":
		switch {
		case conf >= p.IntentThreshold:
			return ActionProceed
		case conf >= p.EscalationThreshold:
			return ActionClarify
		default:
			return ActionEscalate
		}
	case "knowledge":
		switch {
		case conf >= p.KnowledgeThreshold:
			return ActionProceed
		case conf >= p.EscalationThreshold:
			return ActionRetry
		default:
			return ActionEscalate
		}
	default:
		switch {
		case conf >= 0.7:
			return ActionProceed
		case conf >= 0.5:
			return ActionRetry
		default:
			return ActionEscalate
		}
	}
}
