package llmgw_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/supportflow/supportflow/internal/adapter/llmgw"
	"github.com/supportflow/supportflow/internal/port/agent"
	"github.com/supportflow/supportflow/internal/resilience"
)

func TestClassify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/classify" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		auth := r.Header.Get("Authorization")
		if auth != "Bearer test-key" {
			t.Fatalf("unexpected auth: %q", auth)
		}

		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["message"] != "where is my order?" {
			t.Fatalf("unexpected message: %v", body["message"])
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{"intent":"order_status"},"confidence":0.92,"tokens":40,"cost":0.0004}`))
	}))
	defer srv.Close()

	client := llmgw.NewClient(srv.URL, "test-key", 5*time.Second)
	classifier := llmgw.NewClassifier(client)

	res, err := classifier.Classify(context.Background(), "where is my order?", agent.CallContext{UserID: "u1"})
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if !res.Success {
		t.Fatal("expected success")
	}
	if res.Data["intent"] != "order_status" {
		t.Fatalf("unexpected intent: %v", res.Data["intent"])
	}
	if res.Confidence != 0.92 {
		t.Fatalf("unexpected confidence: %v", res.Confidence)
	}
}

func TestDomainAgentExecute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/agents/orders_agent" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		params, _ := body["params"].(map[string]any)
		if params["order_id"] != "12345" {
			t.Fatalf("unexpected params: %v", body["params"])
		}
		_, _ = w.Write([]byte(`{"success":true,"data":{"response":"Your order shipped."},"tokens":120,"cost":0.002}`))
	}))
	defer srv.Close()

	client := llmgw.NewClient(srv.URL, "", 5*time.Second)
	ag := llmgw.NewDomainAgent(client, "orders_agent")

	res, err := ag.Execute(context.Background(), "where is my order?", agent.CallContext{}, map[string]any{"order_id": "12345"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if res.Data["response"] != "Your order shipped." {
		t.Fatalf("unexpected data: %v", res.Data)
	}
	if res.Tokens != 120 {
		t.Fatalf("unexpected tokens: %d", res.Tokens)
	}
}

func TestDataSourceFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/sources/order_store" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"success":true,"data":{"status":"shipped"}}`))
	}))
	defer srv.Close()

	client := llmgw.NewClient(srv.URL, "", 5*time.Second)
	src := llmgw.NewDataSource(client, "order_store")

	res, err := src.Fetch(context.Background(), map[string]any{"order_id": "12345"})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if res.Data["status"] != "shipped" {
		t.Fatalf("unexpected data: %v", res.Data)
	}
}

func TestToolInvokeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":"helpdesk unavailable"}`))
	}))
	defer srv.Close()

	client := llmgw.NewClient(srv.URL, "", 5*time.Second)
	tool := llmgw.NewTool(client, "helpdesk")

	if _, err := tool.Invoke(context.Background(), nil); err == nil {
		t.Fatal("expected error on 502")
	}
}

func TestEvaluate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/escalation/evaluate" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"should_escalate":true,"reason":"customer frustration detected","urgency":"high"}`))
	}))
	defer srv.Close()

	client := llmgw.NewClient(srv.URL, "", 5*time.Second)
	eval := llmgw.NewEvaluator(client)

	dec, err := eval.Evaluate(context.Background(), "this is useless!!", agent.CallContext{})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if !dec.ShouldEscalate {
		t.Fatal("expected escalation")
	}
	if dec.Urgency != "high" {
		t.Fatalf("unexpected urgency: %q", dec.Urgency)
	}
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	}))
	defer srv.Close()

	client := llmgw.NewClient(srv.URL, "", 5*time.Second)
	healthy, err := client.Health(context.Background())
	if err != nil {
		t.Fatalf("Health failed: %v", err)
	}
	if !healthy {
		t.Fatal("expected healthy")
	}
}

func TestBreakerOpensAfterFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := llmgw.NewClient(srv.URL, "", 5*time.Second)
	client.SetBreaker(resilience.NewBreaker(2, time.Minute))

	for range 2 {
		if _, err := client.Health(context.Background()); err == nil {
			t.Fatal("expected error")
		}
	}

	_, err := client.Health(context.Background())
	if !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Fatalf("expected circuit open, got %v", err)
	}
}
