// Package agent defines the collaborator ports the orchestration pipeline
// consumes: intent classification, domain agents, data sources, tools, and
// escalation evaluation. Implementations live in adapters; the router only
// sees these contracts.
package agent

import (
	"context"

	"github.com/supportflow/supportflow/internal/domain/request"
)

// Result is the common outcome shape for collaborator calls.
type Result struct {
	Success    bool
	Data       map[string]any
	Confidence float64
	Error      string
	Tokens     int
	Cost       float64
}

// CallContext is the read-only slice of request state passed to
// collaborators.
type CallContext struct {
	UserID              string
	SessionID           string
	ConversationHistory []request.HistoryEntry
	UserMetadata        map[string]any
}

// Classification is the intent classifier's payload, decoded from Result.Data.
type Classification struct {
	Intent          string
	PossibleIntents []string
}

// Classifier determines the intent of a user message.
type Classifier interface {
	Classify(ctx context.Context, message string, cc CallContext) (Result, error)
}

// Agent is a domain agent invoked by agent_call actions, one instance per
// component name.
type Agent interface {
	Execute(ctx context.Context, message string, cc CallContext, params map[string]any) (Result, error)
}

// DataSource serves data_fetch actions.
type DataSource interface {
	Fetch(ctx context.Context, params map[string]any) (Result, error)
}

// Tool serves tool_call and validation actions.
type Tool interface {
	Invoke(ctx context.Context, params map[string]any) (Result, error)
}

// EscalationDecision is the escalation evaluator's payload.
type EscalationDecision struct {
	ShouldEscalate bool
	Reason         string
	Urgency        string
}

// EscalationEvaluator decides post-execution whether a request needs a human.
type EscalationEvaluator interface {
	Evaluate(ctx context.Context, message string, cc CallContext) (EscalationDecision, error)
}
