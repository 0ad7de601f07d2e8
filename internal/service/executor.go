package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/supportflow/supportflow/internal/domain/plan"
	"github.com/supportflow/supportflow/internal/domain/request"
	"github.com/supportflow/supportflow/internal/port/agent"
	"github.com/supportflow/supportflow/internal/port/notifier"
)

// Outcome is the terminal state of a plan execution.
type Outcome string

const (
	// OutcomeCompleted means every action reached a terminal success state.
	OutcomeCompleted Outcome = "completed"
	// OutcomeFailed means a required action failed and the plan was aborted.
	OutcomeFailed Outcome = "failed"
	// OutcomeStalled means no action was runnable but the plan is not complete,
	// e.g. an action depends on a skipped sibling or on itself.
	OutcomeStalled Outcome = "stalled"
	// OutcomeCapExceeded means the round cap was reached before completion.
	OutcomeCapExceeded Outcome = "cap_exceeded"
)

// DefaultRoundCap bounds how many scheduling rounds a single plan may take.
const DefaultRoundCap = 10

// ExecutionReport summarizes one plan execution.
type ExecutionReport struct {
	Outcome Outcome
	Rounds  int
	Results map[string]map[string]any // action ID -> result payload
	Failed  []string                  // IDs of failed actions
	Skipped []string                  // IDs of skipped optional actions
}

// actionOutcome is the raw result of dispatching a single action,
// collected inside a round and applied after the round joins.
type actionOutcome struct {
	action     *plan.Action
	result     map[string]any
	err        error
	latency    time.Duration
	tokens     int
	cost       float64
	confidence float64
	hasConf    bool
}

// Executor drives an execution plan round by round. Each round it gathers
// the ready frontier, dispatches every ready action concurrently, waits for
// all of them, then applies status changes and context mutations serially.
type Executor struct {
	registry *agent.Registry
	notifier notifier.Notifier
	roundCap int
	logger   *slog.Logger
}

// NewExecutor creates an Executor. roundCap <= 0 selects DefaultRoundCap.
func NewExecutor(registry *agent.Registry, n notifier.Notifier, roundCap int, logger *slog.Logger) *Executor {
	if roundCap <= 0 {
		roundCap = DefaultRoundCap
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		registry: registry,
		notifier: n,
		roundCap: roundCap,
		logger:   logger,
	}
}

// Execute runs the plan to a terminal outcome. Action results and component
// telemetry are recorded on rc; the report carries per-action results keyed
// by action ID.
func (e *Executor) Execute(ctx context.Context, rc *request.Context, p *plan.ExecutionPlan) ExecutionReport {
	report := ExecutionReport{Results: make(map[string]map[string]any)}

	for round := 0; round < e.roundCap; round++ {
		if p.IsComplete() {
			break
		}

		ready := p.NextActions()
		if len(ready) == 0 {
			break
		}
		report.Rounds++

		for _, a := range ready {
			a.Status = plan.StatusInProgress
		}

		outcomes := make([]*actionOutcome, len(ready))
		// A plain errgroup keeps siblings running to completion even when
		// one of them fails; abort decisions are taken between rounds.
		var g errgroup.Group
		for i, a := range ready {
			g.Go(func() error {
				outcomes[i] = e.dispatch(ctx, rc, a)
				return nil
			})
		}
		_ = g.Wait()

		requiredFailed := false
		for _, out := range outcomes {
			e.apply(rc, out, &report)
			if out.err != nil && out.action.Required {
				requiredFailed = true
			}
		}
		if requiredFailed {
			report.Outcome = OutcomeFailed
			e.logger.Warn("plan aborted on required action failure",
				"plan_id", p.ID,
				"request_id", rc.RequestID,
				"failed", report.Failed,
			)
			return report
		}
	}

	switch {
	case p.IsComplete():
		report.Outcome = OutcomeCompleted
	case p.HasFailed():
		report.Outcome = OutcomeFailed
	case len(p.NextActions()) == 0:
		report.Outcome = OutcomeStalled
	default:
		report.Outcome = OutcomeCapExceeded
	}

	if report.Outcome != OutcomeCompleted {
		progress := p.GetProgress()
		e.logger.Warn("plan did not complete",
			"plan_id", p.ID,
			"request_id", rc.RequestID,
			"outcome", string(report.Outcome),
			"rounds", report.Rounds,
			"completed", progress.Completed,
			"total", progress.Total,
		)
	}
	return report
}

// dispatch executes one action against the bound collaborator. It only
// reads from rc; all mutation happens in apply after the round joins.
func (e *Executor) dispatch(ctx context.Context, rc *request.Context, a *plan.Action) *actionOutcome {
	out := &actionOutcome{action: a}
	start := time.Now()
	defer func() { out.latency = time.Since(start) }()

	cc := agent.CallContext{
		UserID:              rc.UserID,
		SessionID:           rc.SessionID,
		ConversationHistory: rc.ConversationHistory,
		UserMetadata:        rc.UserMetadata,
	}

	switch a.Type {
	case plan.TypeAgentCall:
		ag, ok := e.registry.Agent(a.Component)
		if !ok {
			out.err = fmt.Errorf("no agent bound for component %q", a.Component)
			return out
		}
		res, err := ag.Execute(ctx, rc.Message, cc, a.Parameters)
		if err != nil {
			out.err = fmt.Errorf("agent %s: %w", a.Component, err)
			return out
		}
		if !res.Success {
			out.err = fmt.Errorf("agent %s: %s", a.Component, res.Error)
			return out
		}
		out.result = res.Data
		out.tokens = res.Tokens
		out.cost = res.Cost
		out.confidence = res.Confidence
		out.hasConf = true

	case plan.TypeDataFetch:
		ds, ok := e.registry.DataSource(a.Component)
		if !ok {
			out.err = fmt.Errorf("no data source bound for component %q", a.Component)
			return out
		}
		res, err := ds.Fetch(ctx, a.Parameters)
		if err != nil {
			out.err = fmt.Errorf("data fetch %s: %w", a.Component, err)
			return out
		}
		if !res.Success {
			out.err = fmt.Errorf("data fetch %s: %s", a.Component, res.Error)
			return out
		}
		out.result = res.Data

	case plan.TypeToolCall, plan.TypeValidation:
		tool, ok := e.registry.Tool(a.Component)
		if !ok {
			out.err = fmt.Errorf("no tool bound for component %q", a.Component)
			return out
		}
		res, err := tool.Invoke(ctx, a.Parameters)
		if err != nil {
			out.err = fmt.Errorf("tool %s: %w", a.Component, err)
			return out
		}
		if !res.Success {
			out.err = fmt.Errorf("tool %s: %s", a.Component, res.Error)
			return out
		}
		out.result = res.Data

	case plan.TypeResponseGeneration:
		out.result = e.generateResponse(rc, a)

	case plan.TypeEscalation:
		out.result, out.err = e.raiseEscalation(ctx, rc, a)

	default:
		out.err = fmt.Errorf("unknown action type %q for action %s", a.Type, a.ID)
	}
	return out
}

// generateResponse handles response_generation actions without an external
// collaborator. Upstream action results land in the parameters under
// "results" when the builder wired them; otherwise a generic acknowledgement
// is produced and the stage-specific formatter downstream fills in the text.
func (e *Executor) generateResponse(rc *request.Context, a *plan.Action) map[string]any {
	text := "I've processed your request."
	if rc.EscalationReason != "" {
		text = "I'm connecting you with a human agent who can better assist you."
	}
	if v, ok := a.Parameters["template"].(string); ok && v != "" {
		text = v
	}
	return map[string]any{"response": text}
}

// raiseEscalation notifies the human support queue through the notifier port.
func (e *Executor) raiseEscalation(ctx context.Context, rc *request.Context, a *plan.Action) (map[string]any, error) {
	urgency, _ := a.Parameters["urgency"].(string)
	if urgency == "" {
		urgency = "normal"
	}
	reason := rc.EscalationReason
	if reason == "" {
		reason, _ = a.Parameters["reason"].(string)
	}

	if e.notifier != nil {
		esc := notifier.Escalation{
			RequestID: rc.RequestID,
			SessionID: rc.SessionID,
			UserID:    rc.UserID,
			Intent:    rc.CurrentIntent,
			Reason:    reason,
			Urgency:   urgency,
			Message:   rc.Message,
		}
		if err := e.notifier.NotifyEscalation(ctx, esc); err != nil {
			return nil, fmt.Errorf("escalation notify: %w", err)
		}
	}
	return map[string]any{
		"escalated": true,
		"reason":    reason,
		"urgency":   urgency,
	}, nil
}

// apply folds one action outcome into the plan, the request context, and the
// report. It runs serially after the round joins, so no locking is needed
// around context mutation.
func (e *Executor) apply(rc *request.Context, out *actionOutcome, report *ExecutionReport) {
	a := out.action
	rc.RecordExecution(a.Component, out.latency, out.tokens, out.cost)

	if out.err != nil {
		rc.AddError(out.err.Error(), a.Component, request.SeverityError)
		if !a.Required {
			a.MarkSkipped()
			a.Error = out.err.Error()
			report.Skipped = append(report.Skipped, a.ID)
			e.logger.Info("optional action skipped",
				"action_id", a.ID,
				"component", a.Component,
				"error", out.err.Error(),
			)
			return
		}
		a.MarkFailed(out.err.Error())
		report.Failed = append(report.Failed, a.ID)
		return
	}

	a.MarkCompleted(out.result)
	report.Results[a.ID] = out.result
	rc.Results[a.ID] = out.result
	if out.hasConf {
		rc.SetConfidence(a.Component, out.confidence)
	}
}
