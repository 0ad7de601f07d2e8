// Package llmgw provides an HTTP client for the LLM gateway that backs the
// intent classifier, domain agents, and escalation evaluator.
package llmgw

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/supportflow/supportflow/internal/domain/request"
	"github.com/supportflow/supportflow/internal/port/agent"
	"github.com/supportflow/supportflow/internal/resilience"
)

// Client talks to the LLM gateway API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	breaker    *resilience.Breaker
}

// NewClient creates a new gateway client. A non-positive timeout falls back
// to 30 seconds.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SetBreaker attaches a circuit breaker to all outgoing HTTP calls.
func (c *Client) SetBreaker(b *resilience.Breaker) {
	c.breaker = b
}

// callRequest is the common request body for gateway invocations.
type callRequest struct {
	Message   string                 `json:"message,omitempty"`
	UserID    string                 `json:"user_id,omitempty"`
	SessionID string                 `json:"session_id,omitempty"`
	History   []request.HistoryEntry `json:"history,omitempty"`
	Metadata  map[string]any         `json:"metadata,omitempty"`
	Params    map[string]any         `json:"params,omitempty"`
}

// callResponse is the common response body for gateway invocations.
type callResponse struct {
	Success    bool           `json:"success"`
	Data       map[string]any `json:"data,omitempty"`
	Confidence float64        `json:"confidence,omitempty"`
	Error      string         `json:"error,omitempty"`
	Tokens     int            `json:"tokens,omitempty"`
	Cost       float64        `json:"cost,omitempty"`
}

func (r callResponse) toResult() agent.Result {
	return agent.Result{
		Success:    r.Success,
		Data:       r.Data,
		Confidence: r.Confidence,
		Error:      r.Error,
		Tokens:     r.Tokens,
		Cost:       r.Cost,
	}
}

// Health checks if the gateway is healthy.
func (c *Client) Health(ctx context.Context) (bool, error) {
	_, err := c.doRequest(ctx, http.MethodGet, "/health", nil)
	return err == nil, err
}

func (c *Client) doRequest(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var result []byte
	call := func() error {
		var bodyReader io.Reader
		if body != nil {
			bodyReader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}

		req.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("http request: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}

		if resp.StatusCode >= 400 {
			return fmt.Errorf("gateway API error %d: %s", resp.StatusCode, string(data))
		}

		result = data
		return nil
	}

	if c.breaker != nil {
		if err := c.breaker.Execute(call); err != nil {
			return nil, err
		}
		return result, nil
	}

	if err := call(); err != nil {
		return nil, err
	}
	return result, nil
}
