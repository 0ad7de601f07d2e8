package llmgw

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/supportflow/supportflow/internal/port/agent"
)

// Classifier implements intent classification via the gateway.
type Classifier struct {
	client *Client
}

// NewClassifier creates a gateway-backed intent classifier.
func NewClassifier(client *Client) *Classifier {
	return &Classifier{client: client}
}

// Classify sends the message to the gateway classification endpoint.
func (c *Classifier) Classify(ctx context.Context, message string, cc agent.CallContext) (agent.Result, error) {
	body, err := json.Marshal(callRequest{
		Message:   message,
		UserID:    cc.UserID,
		SessionID: cc.SessionID,
		History:   cc.ConversationHistory,
		Metadata:  cc.UserMetadata,
	})
	if err != nil {
		return agent.Result{}, fmt.Errorf("marshal classify: %w", err)
	}

	resp, err := c.client.doRequest(ctx, http.MethodPost, "/v1/classify", body)
	if err != nil {
		return agent.Result{}, fmt.Errorf("classify: %w", err)
	}

	var out callResponse
	if err := json.Unmarshal(resp, &out); err != nil {
		return agent.Result{}, fmt.Errorf("unmarshal classify: %w", err)
	}
	return out.toResult(), nil
}

// DomainAgent implements agent.Agent for one gateway-hosted component.
type DomainAgent struct {
	client    *Client
	component string
}

// NewDomainAgent creates a gateway-backed domain agent for the named component.
func NewDomainAgent(client *Client, component string) *DomainAgent {
	return &DomainAgent{client: client, component: component}
}

// Execute invokes the named agent on the gateway.
func (a *DomainAgent) Execute(ctx context.Context, message string, cc agent.CallContext, params map[string]any) (agent.Result, error) {
	body, err := json.Marshal(callRequest{
		Message:   message,
		UserID:    cc.UserID,
		SessionID: cc.SessionID,
		History:   cc.ConversationHistory,
		Metadata:  cc.UserMetadata,
		Params:    params,
	})
	if err != nil {
		return agent.Result{}, fmt.Errorf("marshal agent call: %w", err)
	}

	resp, err := a.client.doRequest(ctx, http.MethodPost, "/v1/agents/"+a.component, body)
	if err != nil {
		return agent.Result{}, fmt.Errorf("agent %s: %w", a.component, err)
	}

	var out callResponse
	if err := json.Unmarshal(resp, &out); err != nil {
		return agent.Result{}, fmt.Errorf("unmarshal agent %s: %w", a.component, err)
	}
	return out.toResult(), nil
}

// DataSource implements agent.DataSource for one gateway-proxied source.
type DataSource struct {
	client *Client
	name   string
}

// NewDataSource creates a gateway-backed data source for the named backend.
func NewDataSource(client *Client, name string) *DataSource {
	return &DataSource{client: client, name: name}
}

// Fetch retrieves data from the named source through the gateway.
func (s *DataSource) Fetch(ctx context.Context, params map[string]any) (agent.Result, error) {
	body, err := json.Marshal(callRequest{Params: params})
	if err != nil {
		return agent.Result{}, fmt.Errorf("marshal fetch: %w", err)
	}

	resp, err := s.client.doRequest(ctx, http.MethodPost, "/v1/sources/"+s.name, body)
	if err != nil {
		return agent.Result{}, fmt.Errorf("source %s: %w", s.name, err)
	}

	var out callResponse
	if err := json.Unmarshal(resp, &out); err != nil {
		return agent.Result{}, fmt.Errorf("unmarshal source %s: %w", s.name, err)
	}
	return out.toResult(), nil
}

// Tool implements agent.Tool for one gateway-proxied tool.
type Tool struct {
	client *Client
	name   string
}

// NewTool creates a gateway-backed tool for the named integration.
func NewTool(client *Client, name string) *Tool {
	return &Tool{client: client, name: name}
}

// Invoke runs the named tool through the gateway.
func (t *Tool) Invoke(ctx context.Context, params map[string]any) (agent.Result, error) {
	body, err := json.Marshal(callRequest{Params: params})
	if err != nil {
		return agent.Result{}, fmt.Errorf("marshal invoke: %w", err)
	}

	resp, err := t.client.doRequest(ctx, http.MethodPost, "/v1/tools/"+t.name, body)
	if err != nil {
		return agent.Result{}, fmt.Errorf("tool %s: %w", t.name, err)
	}

	var out callResponse
	if err := json.Unmarshal(resp, &out); err != nil {
		return agent.Result{}, fmt.Errorf("unmarshal tool %s: %w", t.name, err)
	}
	return out.toResult(), nil
}

// Evaluator implements agent.EscalationEvaluator via the gateway.
type Evaluator struct {
	client *Client
}

// NewEvaluator creates a gateway-backed escalation evaluator.
func NewEvaluator(client *Client) *Evaluator {
	return &Evaluator{client: client}
}

// Evaluate asks the gateway whether the request should be escalated.
func (e *Evaluator) Evaluate(ctx context.Context, message string, cc agent.CallContext) (agent.EscalationDecision, error) {
	body, err := json.Marshal(callRequest{
		Message:   message,
		UserID:    cc.UserID,
		SessionID: cc.SessionID,
		History:   cc.ConversationHistory,
		Metadata:  cc.UserMetadata,
	})
	if err != nil {
		return agent.EscalationDecision{}, fmt.Errorf("marshal evaluate: %w", err)
	}

	resp, err := e.client.doRequest(ctx, http.MethodPost, "/v1/escalation/evaluate", body)
	if err != nil {
		return agent.EscalationDecision{}, fmt.Errorf("evaluate escalation: %w", err)
	}

	var out struct {
		ShouldEscalate bool   `json:"should_escalate"`
		Reason         string `json:"reason,omitempty"`
		Urgency        string `json:"urgency,omitempty"`
	}
	if err := json.Unmarshal(resp, &out); err != nil {
		return agent.EscalationDecision{}, fmt.Errorf("unmarshal evaluate: %w", err)
	}
	return agent.EscalationDecision{
		ShouldEscalate: out.ShouldEscalate,
		Reason:         out.Reason,
		Urgency:        out.Urgency,
	}, nil
}
