package ambiguity

import "sync"

// Severity classifies how ambiguous a message is.
type Severity string

const (
	SeverityHigh   Severity = "high"   // >= 0.8
	SeverityMedium Severity = "medium" // >= 0.6
	SeverityLow    Severity = "low"
)

// Resolution is the outcome of an ambiguity analysis.
type Resolution struct {
	RequiresClarification bool     `json:"requires_clarification"`
	Score                 float64  `json:"ambiguity_score"`
	Signals               []Signal `json:"signals,omitempty"`
	MissingContext        []string `json:"missing_context,omitempty"`
	Question              string   `json:"clarification_question,omitempty"`
	Severity              Severity `json:"severity"`
}

// Resolver detects ambiguity and chooses a clarification strategy.
type Resolver struct {
	detector Detector
}

// NewResolver returns a Resolver using the given detector.
func NewResolver(detector Detector) *Resolver {
	return &Resolver{detector: detector}
}

// AnalyzeAndResolve runs ambiguity and missing-context detection and picks
// the clarification question: intent disambiguation when candidates are
// known, context questions when items are missing, a generic prompt for
// plain ambiguity.
func (r *Resolver) AnalyzeAndResolve(message string, intentConfidence float64, possibleIntents []string, ctx MessageContext) Resolution {
	ambiguous, score, signals := r.detector.Detect(message, intentConfidence, possibleIntents)
	hasMissing, missing := r.detector.DetectMissingContext(message, ctx)

	var question string
	switch {
	case ambiguous && len(possibleIntents) > 0:
		question = IntentClarification(possibleIntents)
	case hasMissing:
		question = ContextClarification(missing)
	case ambiguous:
		question = GenericClarification()
	}

	res := Resolution{
		RequiresClarification: ambiguous || hasMissing,
		Score:                 score,
		Signals:               signals,
		Question:              question,
		Severity:              severityFor(score),
	}
	if hasMissing {
		res.MissingContext = missing
	}
	return res
}

func severityFor(score float64) Severity {
	switch {
	case score >= 0.8:
		return SeverityHigh
	case score >= 0.6:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// PendingClarification is a clarification awaiting the user's answer.
type PendingClarification struct {
	Resolution Resolution
	Message    string
}

// ResolvedClarification pairs a pending clarification with the user's answer.
type ResolvedClarification struct {
	Original PendingClarification
	Response string
}

// DisambiguationStrategy tracks at most one pending clarification per
// session across turns. Unlike the request context it is shared between
// requests, so access is serialized.
type DisambiguationStrategy struct {
	mu      sync.Mutex
	pending map[string]PendingClarification
}

// NewDisambiguationStrategy creates an empty strategy.
func NewDisambiguationStrategy() *DisambiguationStrategy {
	return &DisambiguationStrategy{
		pending: make(map[string]PendingClarification),
	}
}

// Register stores the pending clarification for a session, replacing any
// prior one.
func (d *DisambiguationStrategy) Register(sessionID string, p PendingClarification) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending[sessionID] = p
}

// HasPending reports whether a session is waiting on a clarification.
func (d *DisambiguationStrategy) HasPending(sessionID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.pending[sessionID]
	return ok
}

// Pending returns the clarification awaiting the session's answer.
func (d *DisambiguationStrategy) Pending(sessionID string) (PendingClarification, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.pending[sessionID]
	return p, ok
}

// Resolve consumes the pending clarification for a session, pairing it with
// the user's answer. ok is false when nothing was pending.
func (d *DisambiguationStrategy) Resolve(sessionID, userResponse string) (ResolvedClarification, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.pending[sessionID]
	if !ok {
		return ResolvedClarification{}, false
	}
	delete(d.pending, sessionID)
	return ResolvedClarification{Original: p, Response: userResponse}, true
}

// Clear drops any pending clarification for the session.
func (d *DisambiguationStrategy) Clear(sessionID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.pending, sessionID)
}
