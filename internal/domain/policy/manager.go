package policy

// Manager bundles all orchestration policies and resolves concurrent
// decisions into one final action. Policies are immutable after
// construction, so a single Manager serves all requests.
type Manager struct {
	Escalation EscalationPolicy
	Fallback   FallbackPolicy
	Retry      RetryPolicy
	Routing    RoutingPolicy
}

// NewManager returns a Manager with every policy at its defaults.
func NewManager() *Manager {
	return &Manager{
		Escalation: NewEscalationPolicy(),
		Fallback:   NewFallbackPolicy(),
		Retry:      NewRetryPolicy(),
		Routing:    NewRoutingPolicy(),
	}
}

// RequestSignals are the situational facts policies evaluate for a request.
type RequestSignals struct {
	Confidence          float64
	HasConfidence       bool
	Component           string
	ErrorCount          int
	RetryCount          int
	ExplicitRequest     bool
	FrustrationDetected bool
	SensitiveTopic      bool
}

// EvaluateRequest runs the escalation policy and, when a confidence score is
// present, the confidence routing policy. Keys: "escalation", "confidence".
func (m *Manager) EvaluateRequest(s RequestSignals) map[string]Decision {
	decisions := map[string]Decision{
		"escalation": m.Escalation.ShouldEscalate(EscalationSignals{
			Confidence:          s.Confidence,
			HasConfidence:       s.HasConfidence,
			ErrorCount:          s.ErrorCount,
			RetryCount:          s.RetryCount,
			ExplicitRequest:     s.ExplicitRequest,
			FrustrationDetected: s.FrustrationDetected,
			SensitiveTopic:      s.SensitiveTopic,
		}),
	}
	if s.HasConfidence {
		decisions["confidence"] = m.Routing.ActionForConfidence(s.Confidence, s.Component)
	}
	return decisions
}

// verdictPriority is the fixed resolution order for concurrent decisions.
var verdictPriority = []Verdict{
	VerdictEscalate,
	VerdictFallback,
	VerdictClarify,
	VerdictRetry,
	VerdictProceed,
}

// FinalAction picks the highest-priority verdict among the decisions,
// defaulting to proceed when none match.
func (m *Manager) FinalAction(decisions map[string]Decision) Decision {
	for _, v := range verdictPriority {
		for _, d := range decisions {
			if d.Verdict == v {
				return d
			}
		}
	}
	return Proceed("no specific policy matched")
}
