// Package request defines the per-request orchestration context: the mutable
// aggregate every pipeline stage reads and writes while one user message is
// processed. A Context belongs to exactly one in-flight request and is
// discarded after the response is synthesized, so no locking is needed.
package request

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/supportflow/supportflow/internal/domain/plan"
)

// Severity grades an error recorded on the context.
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// ContextError is one failure logged during the pipeline, tagged by the
// component that produced it.
type ContextError struct {
	Message   string    `json:"message"`
	Component string    `json:"component"`
	Severity  Severity  `json:"severity"`
	Timestamp time.Time `json:"timestamp"`
}

// HistoryEntry is one prior turn of the conversation.
type HistoryEntry struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// Execution records one collaborator call made while serving the request.
type Execution struct {
	Component string        `json:"component"`
	Latency   time.Duration `json:"latency"`
	Tokens    int           `json:"tokens,omitempty"`
	Cost      float64       `json:"cost,omitempty"`
}

// Metrics is the per-request telemetry summary returned to the caller.
type Metrics struct {
	ElapsedMS        float64            `json:"elapsed_ms"`
	AgentsExecuted   int                `json:"agents_executed"`
	AgentLatenciesMS map[string]float64 `json:"agent_latencies_ms"`
	TotalTokens      int                `json:"total_tokens"`
	TotalCostUSD     float64            `json:"total_cost_usd"`
	ErrorCount       int                `json:"error_count"`
	WarningCount     int                `json:"warning_count"`
}

// Context is the request-scoped aggregate shared by all pipeline stages.
type Context struct {
	RequestID string
	TraceID   string

	UserID    string
	SessionID string

	Message   string
	Timestamp time.Time

	ConversationHistory []HistoryEntry
	UserMetadata        map[string]any

	CurrentIntent         string
	ConfidenceScores      map[string]float64
	Executions            []Execution
	RequiresClarification bool
	ClarificationQuestion string

	Plan    *plan.ExecutionPlan
	Results map[string]map[string]any

	Errors   []ContextError
	Warnings []string

	StartTime   time.Time
	TotalTokens int
	TotalCost   float64

	EscalateToHuman  bool
	EscalationReason string
}

// NewContext builds a Context for one inbound message, minting request and
// trace ids.
func NewContext(message, userID, sessionID string, history []HistoryEntry, metadata map[string]any) *Context {
	now := time.Now()
	if metadata == nil {
		metadata = map[string]any{}
	}
	return &Context{
		RequestID:           "req_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12],
		TraceID:             "trace_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16],
		UserID:              userID,
		SessionID:           sessionID,
		Message:             message,
		Timestamp:           now,
		StartTime:           now,
		ConversationHistory: history,
		UserMetadata:        metadata,
		ConfidenceScores:    make(map[string]float64),
		Results:             make(map[string]map[string]any),
	}
}

// RecordExecution logs a collaborator call with its latency and usage.
func (c *Context) RecordExecution(component string, latency time.Duration, tokens int, cost float64) {
	c.Executions = append(c.Executions, Execution{
		Component: component,
		Latency:   latency,
		Tokens:    tokens,
		Cost:      cost,
	})
	c.TotalTokens += tokens
	c.TotalCost += cost
}

// AddError logs an error tagged by component.
func (c *Context) AddError(message, component string, severity Severity) {
	if severity == "" {
		severity = SeverityError
	}
	c.Errors = append(c.Errors, ContextError{
		Message:   message,
		Component: component,
		Severity:  severity,
		Timestamp: time.Now(),
	})
}

// AddWarning logs a non-fatal observation.
func (c *Context) AddWarning(warning string) {
	c.Warnings = append(c.Warnings, warning)
}

// SetConfidence records a component's confidence score, overwriting any
// prior value.
func (c *Context) SetConfidence(component string, confidence float64) {
	c.ConfidenceScores[component] = confidence
}

// Confidence returns the recorded score for a component.
func (c *Context) Confidence(component string) (float64, bool) {
	v, ok := c.ConfidenceScores[component]
	return v, ok
}

// ElapsedMS returns milliseconds since the request started.
func (c *Context) ElapsedMS() float64 {
	return float64(time.Since(c.StartTime)) / float64(time.Millisecond)
}

// ShouldEscalate reports whether the context itself demands escalation: the
// flag is set, more than three errors accumulated, or any error is critical.
func (c *Context) ShouldEscalate() bool {
	if c.EscalateToHuman || len(c.Errors) > 3 {
		return true
	}
	for _, e := range c.Errors {
		if e.Severity == SeverityCritical {
			return true
		}
	}
	return false
}

// GetMetrics summarizes the request's telemetry.
func (c *Context) GetMetrics() Metrics {
	latencies := make(map[string]float64, len(c.Executions))
	for _, e := range c.Executions {
		latencies[e.Component] = float64(e.Latency) / float64(time.Millisecond)
	}
	return Metrics{
		ElapsedMS:        c.ElapsedMS(),
		AgentsExecuted:   len(c.Executions),
		AgentLatenciesMS: latencies,
		TotalTokens:      c.TotalTokens,
		TotalCostUSD:     c.TotalCost,
		ErrorCount:       len(c.Errors),
		WarningCount:     len(c.Warnings),
	}
}

// OrderID pulls an order id from the request metadata, if present.
func (c *Context) OrderID() string {
	if v, ok := c.UserMetadata["order_id"]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// HasProductName reports whether the request metadata names a product.
func (c *Context) HasProductName() bool {
	_, ok := c.UserMetadata["product_name"]
	return ok
}
