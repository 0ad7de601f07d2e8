package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/supportflow/supportflow/internal/adapter/otel"
	"github.com/supportflow/supportflow/internal/domain/ambiguity"
	"github.com/supportflow/supportflow/internal/domain/plan"
	"github.com/supportflow/supportflow/internal/domain/policy"
	"github.com/supportflow/supportflow/internal/domain/request"
	"github.com/supportflow/supportflow/internal/port/agent"
	"github.com/supportflow/supportflow/internal/port/broadcast"
)

// Pipeline stage names, also used as span and event labels.
const (
	StageClassify        = "classify"
	StageAmbiguityCheck  = "ambiguity_check"
	StageClarification   = "clarification"
	StagePlan            = "plan"
	StageExecute         = "execute"
	StageEscalationCheck = "escalation_check"
	StageEscalated       = "escalated"
	StageRespond         = "respond"
	StageError           = "error"
)

// handoffMessage is the fixed text returned when a request is escalated.
const handoffMessage = "I'm connecting you with a human agent who can better assist you."

// responseFields are the well-known result keys scanned for the user-facing
// response text, in priority order per action.
var responseFields = []string{"response", "response_message", "answer", "user_response"}

// Request is one inbound support message.
type Request struct {
	Message   string                 `json:"message"`
	UserID    string                 `json:"user_id,omitempty"`
	SessionID string                 `json:"session_id,omitempty"`
	History   []request.HistoryEntry `json:"conversation_history,omitempty"`
	Metadata  map[string]any         `json:"user_metadata,omitempty"`
}

// ResponseMetadata carries request identity and telemetry.
type ResponseMetadata struct {
	RequestID string          `json:"request_id"`
	TraceID   string          `json:"trace_id"`
	Metrics   request.Metrics `json:"metrics"`
}

// Response is the terminal result of processing one request.
type Response struct {
	Success               bool             `json:"success"`
	Message               string           `json:"message"`
	Intent                string           `json:"intent,omitempty"`
	Confidence            float64          `json:"confidence,omitempty"`
	RequiresClarification bool             `json:"requires_clarification,omitempty"`
	AmbiguityScore        float64          `json:"ambiguity_score,omitempty"`
	Escalated             bool             `json:"escalated,omitempty"`
	EscalationReason      string           `json:"escalation_reason,omitempty"`
	Urgency               string           `json:"urgency,omitempty"`
	Error                 string           `json:"error,omitempty"`
	Metadata              ResponseMetadata `json:"metadata"`
}

// RouterService runs the orchestration pipeline: classify, check ambiguity,
// plan, execute, check escalation, respond. All dependencies are injected
// once at startup; the service holds no per-request state.
type RouterService struct {
	classifier agent.Classifier
	evaluator  agent.EscalationEvaluator
	executor   *Executor
	resolver   *ambiguity.Resolver
	strategy   *ambiguity.DisambiguationStrategy
	policies   *policy.Manager
	hub        broadcast.Broadcaster
	metrics    *otel.Metrics
	logger     *slog.Logger
}

// NewRouterService creates a RouterService. hub and metrics may be nil.
func NewRouterService(
	classifier agent.Classifier,
	evaluator agent.EscalationEvaluator,
	executor *Executor,
	resolver *ambiguity.Resolver,
	strategy *ambiguity.DisambiguationStrategy,
	policies *policy.Manager,
	hub broadcast.Broadcaster,
	metrics *otel.Metrics,
	logger *slog.Logger,
) *RouterService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RouterService{
		classifier: classifier,
		evaluator:  evaluator,
		executor:   executor,
		resolver:   resolver,
		strategy:   strategy,
		policies:   policies,
		hub:        hub,
		metrics:    metrics,
		logger:     logger,
	}
}

// ProcessRequest runs one message through the pipeline to a terminal
// response. It never returns an error: any uncaught failure is mapped to an
// error response with fallback text.
func (s *RouterService) ProcessRequest(ctx context.Context, req Request) (resp Response) {
	rc := request.NewContext(req.Message, req.UserID, req.SessionID, req.History, req.Metadata)

	ctx, span := otel.StartRequestSpan(ctx, rc.RequestID, rc.SessionID)
	defer span.End()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("pipeline panic",
				"request_id", rc.RequestID,
				"panic", fmt.Sprint(r),
			)
			rc.AddError(fmt.Sprintf("panic: %v", r), "router", request.SeverityCritical)
			resp = s.errorResponse(rc, fmt.Sprintf("internal error: %v", r))
		}
		s.observe(ctx, rc, resp, time.Since(start))
	}()

	// A pending clarification answer folds back into the original message
	// and skips the ambiguity check on this turn.
	resolvedClarification := false
	if s.strategy != nil && rc.SessionID != "" {
		if resolved, ok := s.strategy.Resolve(rc.SessionID, req.Message); ok {
			rc.Message = resolved.Original.Message + " " + resolved.Response
			resolvedClarification = true
		}
	}

	// CLASSIFY
	cls, confidence := s.classify(ctx, rc)

	// AMBIGUITY_CHECK
	if !resolvedClarification {
		if r, done := s.checkAmbiguity(ctx, rc, confidence, cls.PossibleIntents); done {
			return r
		}
	}

	// PLAN
	p, err := s.buildPlan(ctx, rc)
	if err != nil {
		rc.AddError(err.Error(), "planner", request.SeverityError)
		return s.errorResponse(rc, err.Error())
	}

	// EXECUTE
	report := s.executePlan(ctx, rc, p)

	// ESCALATION_CHECK
	if r, done := s.checkEscalation(ctx, rc); done {
		return r
	}

	// RESPOND
	if report.Outcome != OutcomeCompleted {
		if s.metrics != nil {
			s.metrics.PlanFailures.Add(ctx, 1)
		}
		return s.errorResponse(rc, fmt.Sprintf("execution plan %s (%d of %d actions completed)",
			report.Outcome, p.GetProgress().Completed, p.GetProgress().Total))
	}
	return s.successResponse(rc, p)
}

// classify invokes the intent classifier. Failures are logged and the
// pipeline proceeds with the unknown intent.
func (s *RouterService) classify(ctx context.Context, rc *request.Context) (agent.Classification, float64) {
	ctx, span := otel.StartStageSpan(ctx, StageClassify, rc.RequestID)
	defer span.End()
	s.broadcastStage(ctx, rc, StageClassify, "")

	start := time.Now()
	res, err := s.classifier.Classify(ctx, rc.Message, callContext(rc))
	rc.RecordExecution("intent_classifier", time.Since(start), res.Tokens, res.Cost)

	if err != nil || !res.Success {
		detail := res.Error
		if err != nil {
			detail = err.Error()
		}
		s.logger.Error("intent classification failed",
			"request_id", rc.RequestID,
			"error", detail,
		)
		rc.AddError("classification failed: "+detail, "intent_classifier", request.SeverityError)
		// No confidence score is recorded: downstream checks must not treat
		// a failed classification as a genuine 0.0.
		rc.CurrentIntent = plan.IntentUnknown
		return agent.Classification{Intent: plan.IntentUnknown}, -1
	}

	cls := decodeClassification(res.Data)
	if cls.Intent == "" {
		cls.Intent = plan.IntentUnknown
	}
	request.EnrichWithIntent(rc, cls.Intent, res.Confidence)
	s.logger.Info("intent classified",
		"request_id", rc.RequestID,
		"intent", cls.Intent,
		"confidence", res.Confidence,
	)
	return cls, res.Confidence
}

// checkAmbiguity runs the resolver; a clarification verdict is terminal.
func (s *RouterService) checkAmbiguity(ctx context.Context, rc *request.Context, confidence float64, possibleIntents []string) (Response, bool) {
	ctx, span := otel.StartStageSpan(ctx, StageAmbiguityCheck, rc.RequestID)
	defer span.End()
	s.broadcastStage(ctx, rc, StageAmbiguityCheck, "")

	mc := ambiguity.MessageContext{
		HasHistory:     len(rc.ConversationHistory) > 0,
		HasOrderID:     rc.OrderID() != "",
		HasProductName: rc.HasProductName(),
	}
	resolution := s.resolver.AnalyzeAndResolve(rc.Message, confidence, possibleIntents, mc)
	if !resolution.RequiresClarification {
		return Response{}, false
	}

	request.EnrichWithClarification(rc, true, resolution.Question)
	if s.strategy != nil && rc.SessionID != "" {
		s.strategy.Register(rc.SessionID, ambiguity.PendingClarification{
			Resolution: resolution,
			Message:    rc.Message,
		})
	}
	if s.metrics != nil {
		s.metrics.Clarifications.Add(ctx, 1)
	}
	s.broadcastStage(ctx, rc, StageClarification, resolution.Question)
	s.logger.Info("clarification required",
		"request_id", rc.RequestID,
		"ambiguity_score", resolution.Score,
		"severity", string(resolution.Severity),
	)

	conf, _ := rc.Confidence("intent")
	return Response{
		Success:               true,
		Message:               resolution.Question,
		Intent:                rc.CurrentIntent,
		Confidence:            conf,
		RequiresClarification: true,
		AmbiguityScore:        resolution.Score,
		Metadata:              s.responseMetadata(rc),
	}, true
}

// buildPlan constructs and validates the execution plan for the classified intent.
func (s *RouterService) buildPlan(ctx context.Context, rc *request.Context) (*plan.ExecutionPlan, error) {
	_, span := otel.StartStageSpan(ctx, StagePlan, rc.RequestID)
	defer span.End()
	s.broadcastStage(ctx, rc, StagePlan, rc.CurrentIntent)

	p := plan.BuildForIntent(rc.CurrentIntent, plan.BuildContext{
		Message:  rc.Message,
		OrderID:  rc.OrderID(),
		Metadata: rc.UserMetadata,
	})
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid plan for intent %q: %w", rc.CurrentIntent, err)
	}
	rc.Plan = p
	return p, nil
}

// executePlan drives the plan through the executor.
func (s *RouterService) executePlan(ctx context.Context, rc *request.Context, p *plan.ExecutionPlan) ExecutionReport {
	ctx, span := otel.StartStageSpan(ctx, StageExecute, rc.RequestID)
	defer span.End()
	s.broadcastStage(ctx, rc, StageExecute, p.ID)

	return s.executor.Execute(ctx, rc, p)
}

// checkEscalation consults the escalation evaluator and the policy family.
// An escalate verdict is terminal.
func (s *RouterService) checkEscalation(ctx context.Context, rc *request.Context) (Response, bool) {
	ctx, span := otel.StartStageSpan(ctx, StageEscalationCheck, rc.RequestID)
	defer span.End()
	s.broadcastStage(ctx, rc, StageEscalationCheck, "")

	var (
		escalate bool
		reason   string
		urgency  = string(policy.UrgencyHigh)
	)

	if s.evaluator != nil {
		start := time.Now()
		decision, err := s.evaluator.Evaluate(ctx, rc.Message, callContext(rc))
		rc.RecordExecution("escalation_evaluator", time.Since(start), 0, 0)
		if err != nil {
			s.logger.Error("escalation evaluation failed",
				"request_id", rc.RequestID,
				"error", err.Error(),
			)
			rc.AddError("escalation evaluation failed: "+err.Error(), "escalation_evaluator", request.SeverityWarning)
		} else if decision.ShouldEscalate {
			escalate = true
			reason = decision.Reason
			if decision.Urgency != "" {
				urgency = decision.Urgency
			}
		}
	}

	if !escalate && s.policies != nil {
		conf, hasConf := rc.Confidence("intent")
		signals := policy.RequestSignals{
			Confidence:    conf,
			HasConfidence: hasConf,
			Component:     "intent",
			ErrorCount:    len(rc.Errors),
		}
		decision := s.policies.FinalAction(s.policies.EvaluateRequest(signals))
		if decision.Verdict == policy.VerdictEscalate {
			escalate = true
			reason = decision.Reason
			if decision.Metadata.Urgency != "" {
				urgency = string(decision.Metadata.Urgency)
			}
		}
	}

	if !escalate && rc.ShouldEscalate() {
		escalate = true
		reason = rc.EscalationReason
		if reason == "" {
			reason = "error threshold exceeded"
		}
	}
	if !escalate {
		return Response{}, false
	}

	request.EnrichWithEscalation(rc, true, reason)
	if s.metrics != nil {
		s.metrics.Escalations.Add(ctx, 1)
	}
	s.broadcastStage(ctx, rc, StageEscalated, reason)
	s.logger.Warn("request escalated",
		"request_id", rc.RequestID,
		"reason", reason,
		"urgency", urgency,
	)

	return Response{
		Success:          true,
		Message:          handoffMessage,
		Intent:           rc.CurrentIntent,
		Escalated:        true,
		EscalationReason: reason,
		Urgency:          urgency,
		Metadata:         s.responseMetadata(rc),
	}, true
}

// successResponse extracts the user-facing text from completed action
// results, scanning actions in insertion order and responseFields in
// priority order within each action.
func (s *RouterService) successResponse(rc *request.Context, p *plan.ExecutionPlan) Response {
	message := "I've processed your request."
	for _, a := range p.Actions {
		if a.Status != plan.StatusCompleted || a.Result == nil {
			continue
		}
		found := ""
		for _, field := range responseFields {
			if v, ok := a.Result[field].(string); ok && v != "" {
				found = v
				break
			}
		}
		if found != "" {
			message = found
			break
		}
	}

	conf, _ := rc.Confidence("intent")
	return Response{
		Success:    true,
		Message:    message,
		Intent:     rc.CurrentIntent,
		Confidence: conf,
		Metadata:   s.responseMetadata(rc),
	}
}

// errorResponse is the terminal ERROR state: fallback text keyed by the
// classified intent, with the error detail attached.
func (s *RouterService) errorResponse(rc *request.Context, detail string) Response {
	fallback := "I'm having trouble processing your request right now. Please try again in a moment."
	if s.policies != nil {
		fallback = s.policies.Fallback.Response(rc.CurrentIntent)
	}
	conf, _ := rc.Confidence("intent")
	return Response{
		Success:    false,
		Message:    fallback,
		Intent:     rc.CurrentIntent,
		Confidence: conf,
		Error:      detail,
		Metadata:   s.responseMetadata(rc),
	}
}

func (s *RouterService) responseMetadata(rc *request.Context) ResponseMetadata {
	return ResponseMetadata{
		RequestID: rc.RequestID,
		TraceID:   rc.TraceID,
		Metrics:   rc.GetMetrics(),
	}
}

// observe records terminal metrics and publishes the completion event.
func (s *RouterService) observe(ctx context.Context, rc *request.Context, resp Response, elapsed time.Duration) {
	if s.metrics != nil {
		s.metrics.RequestsTotal.Add(ctx, 1)
		s.metrics.RequestDuration.Record(ctx, elapsed.Seconds())
		s.metrics.RequestCost.Record(ctx, rc.TotalCost)
		s.metrics.TokensUsed.Add(ctx, int64(rc.TotalTokens))
	}
	if s.hub != nil {
		s.hub.BroadcastEvent(ctx, broadcast.EventResponse, map[string]any{
			"request_id": rc.RequestID,
			"session_id": rc.SessionID,
			"intent":     rc.CurrentIntent,
			"success":    resp.Success,
			"escalated":  resp.Escalated,
			"elapsed_ms": rc.ElapsedMS(),
		})
	}
	s.logger.Info("request processed",
		"request_id", rc.RequestID,
		"intent", rc.CurrentIntent,
		"success", resp.Success,
		"escalated", resp.Escalated,
		"clarification", resp.RequiresClarification,
		"elapsed_ms", rc.ElapsedMS(),
		"tokens", rc.TotalTokens,
		"errors", len(rc.Errors),
	)
}

func (s *RouterService) broadcastStage(ctx context.Context, rc *request.Context, stage, detail string) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastEvent(ctx, broadcast.EventPipelineStage, map[string]any{
		"request_id": rc.RequestID,
		"session_id": rc.SessionID,
		"stage":      stage,
		"detail":     detail,
	})
}

// callContext projects the read-only request state passed to collaborators.
func callContext(rc *request.Context) agent.CallContext {
	return agent.CallContext{
		UserID:              rc.UserID,
		SessionID:           rc.SessionID,
		ConversationHistory: rc.ConversationHistory,
		UserMetadata:        rc.UserMetadata,
	}
}

// decodeClassification reads the classifier payload out of a result map.
func decodeClassification(data map[string]any) agent.Classification {
	var cls agent.Classification
	if data == nil {
		return cls
	}
	if v, ok := data["intent"].(string); ok {
		cls.Intent = v
	}
	switch v := data["possible_intents"].(type) {
	case []string:
		cls.PossibleIntents = v
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				cls.PossibleIntents = append(cls.PossibleIntents, s)
			}
		}
	}
	return cls
}
