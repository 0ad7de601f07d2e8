package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	httpadapter "github.com/supportflow/supportflow/internal/adapter/http"
	"github.com/supportflow/supportflow/internal/domain"
	"github.com/supportflow/supportflow/internal/domain/ambiguity"
	"github.com/supportflow/supportflow/internal/domain/plan"
	"github.com/supportflow/supportflow/internal/domain/policy"
	"github.com/supportflow/supportflow/internal/domain/session"
	"github.com/supportflow/supportflow/internal/port/agent"
	"github.com/supportflow/supportflow/internal/port/notifier"
	"github.com/supportflow/supportflow/internal/service"
)

// --- collaborator fakes ---

type stubClassifier struct {
	intent     string
	confidence float64
}

func (s *stubClassifier) Classify(context.Context, string, agent.CallContext) (agent.Result, error) {
	return agent.Result{
		Success:    true,
		Data:       map[string]any{"intent": s.intent},
		Confidence: s.confidence,
		Tokens:     50,
	}, nil
}

type stubAgent struct {
	data map[string]any
}

func (s *stubAgent) Execute(context.Context, string, agent.CallContext, map[string]any) (agent.Result, error) {
	return agent.Result{Success: true, Data: s.data, Confidence: 0.9}, nil
}

type stubSource struct {
	data map[string]any
}

func (s *stubSource) Fetch(context.Context, map[string]any) (agent.Result, error) {
	return agent.Result{Success: true, Data: s.data}, nil
}

type stubTool struct{}

func (stubTool) Invoke(context.Context, map[string]any) (agent.Result, error) {
	return agent.Result{Success: true, Data: map[string]any{"ticket_id": "T-1"}}, nil
}

type stubNotifier struct{}

func (stubNotifier) NotifyEscalation(context.Context, notifier.Escalation) error { return nil }

type stubEvaluator struct{}

func (stubEvaluator) Evaluate(context.Context, string, agent.CallContext) (agent.EscalationDecision, error) {
	return agent.EscalationDecision{}, nil
}

// --- store fake ---

type memStore struct {
	mu       sync.Mutex
	sessions map[string]*session.Session
	messages map[string][]session.Message
	nextID   int
}

func newMemStore() *memStore {
	return &memStore{
		sessions: make(map[string]*session.Session),
		messages: make(map[string][]session.Message),
	}
}

func (m *memStore) CreateSession(_ context.Context, req session.CreateRequest) (*session.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	sess := &session.Session{
		ID:        fmt.Sprintf("sess-%d", m.nextID),
		UserID:    req.UserID,
		Status:    session.StatusActive,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	m.sessions[sess.ID] = sess
	return sess, nil
}

func (m *memStore) GetSession(_ context.Context, id string) (*session.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return sess, nil
}

func (m *memStore) ListSessions(_ context.Context, userID string, _ int) ([]session.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []session.Session
	for _, sess := range m.sessions {
		if sess.UserID == userID {
			out = append(out, *sess)
		}
	}
	return out, nil
}

func (m *memStore) UpdateSessionStatus(_ context.Context, id string, status session.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok {
		return domain.ErrNotFound
	}
	sess.Status = status
	return nil
}

func (m *memStore) AppendMessage(_ context.Context, req session.AppendRequest) (*session.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg := session.Message{
		ID:        fmt.Sprintf("msg-%d", len(m.messages[req.SessionID])+1),
		SessionID: req.SessionID,
		Role:      req.Role,
		Content:   req.Content,
		Intent:    req.Intent,
		CreatedAt: time.Now(),
	}
	m.messages[req.SessionID] = append(m.messages[req.SessionID], msg)
	return &msg, nil
}

func (m *memStore) ListMessages(_ context.Context, sessionID string, _ int) ([]session.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]session.Message(nil), m.messages[sessionID]...), nil
}

// --- fixture ---

func newTestServer(t *testing.T) (*chi.Mux, *memStore) {
	t.Helper()

	reg := agent.NewRegistry()
	reg.RegisterDataSource(plan.ComponentOrderStore, &stubSource{data: map[string]any{"order": map[string]any{"status": "shipped"}}})
	reg.RegisterDataSource(plan.ComponentKnowledgeBase, &stubSource{data: map[string]any{"documents": []any{}}})
	reg.RegisterAgent(plan.ComponentOrdersAgent, &stubAgent{data: map[string]any{"response": "Your order has shipped."}})
	reg.RegisterAgent(plan.ComponentKnowledgeAgent, &stubAgent{data: map[string]any{"answer": "Here is what I found."}})
	reg.RegisterAgent(plan.ComponentTicketsAgent, &stubAgent{data: map[string]any{"ticket": "T-1"}})
	reg.RegisterTool(plan.ComponentHelpdesk, stubTool{})

	exec := service.NewExecutor(reg, stubNotifier{}, 0, nil)
	router := service.NewRouterService(
		&stubClassifier{intent: plan.IntentOrderStatus, confidence: 0.95},
		stubEvaluator{},
		exec,
		ambiguity.NewResolver(ambiguity.NewDetector(0)),
		ambiguity.NewDisambiguationStrategy(),
		policy.NewManager(),
		nil,
		nil,
		nil,
	)

	store := newMemStore()
	sessions := service.NewSessionService(store, nil, nil, time.Minute, 20, nil)
	h := httpadapter.NewHandlers(router, sessions, nil, nil, "test")

	mux := chi.NewRouter()
	httpadapter.MountRoutes(mux, h)
	return mux, store
}

func doJSON(t *testing.T, mux http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

// --- tests ---

func TestHandleChatCreatesSession(t *testing.T) {
	mux, store := newTestServer(t)

	rec := doJSON(t, mux, http.MethodPost, "/api/v1/chat",
		`{"message":"Where is my order #12345?","user_id":"u1","metadata":{"order_id":"12345"}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		SessionID string `json:"session_id"`
		Success   bool   `json:"success"`
		Message   string `json:"message"`
		Intent    string `json:"intent"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if !resp.Success {
		t.Fatal("expected success")
	}
	if resp.SessionID == "" {
		t.Fatal("expected a session ID")
	}
	if resp.Intent != plan.IntentOrderStatus {
		t.Errorf("intent = %q, want order_status", resp.Intent)
	}
	if !strings.Contains(resp.Message, "shipped") {
		t.Errorf("unexpected message: %q", resp.Message)
	}

	// Both the user turn and the assistant turn are persisted.
	msgs, _ := store.ListMessages(context.Background(), resp.SessionID, 10)
	if len(msgs) != 2 {
		t.Fatalf("expected 2 persisted messages, got %d", len(msgs))
	}
	if msgs[0].Role != session.RoleUser || msgs[1].Role != session.RoleAssistant {
		t.Errorf("unexpected roles: %q, %q", msgs[0].Role, msgs[1].Role)
	}
}

func TestHandleChatValidation(t *testing.T) {
	mux, _ := newTestServer(t)

	rec := doJSON(t, mux, http.MethodPost, "/api/v1/chat", `{"user_id":"u1"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, mux, http.MethodPost, "/api/v1/chat", `{"message":"hi there"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, mux, http.MethodPost, "/api/v1/chat", `not json`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleChatUnknownSession(t *testing.T) {
	mux, _ := newTestServer(t)

	rec := doJSON(t, mux, http.MethodPost, "/api/v1/chat",
		`{"message":"hello","user_id":"u1","session_id":"missing"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestSessionEndpoints(t *testing.T) {
	mux, _ := newTestServer(t)

	rec := doJSON(t, mux, http.MethodPost, "/api/v1/sessions", `{"user_id":"u7"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var sess session.Session
	if err := json.Unmarshal(rec.Body.Bytes(), &sess); err != nil {
		t.Fatalf("unmarshal session: %v", err)
	}

	rec = doJSON(t, mux, http.MethodGet, "/api/v1/sessions/"+sess.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}

	rec = doJSON(t, mux, http.MethodGet, "/api/v1/sessions?user_id=u7", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var listed []session.Session
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("unmarshal sessions: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("expected 1 session, got %d", len(listed))
	}

	rec = doJSON(t, mux, http.MethodGet, "/api/v1/sessions/"+sess.ID+"/messages", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("messages status = %d", rec.Code)
	}
	if !strings.HasPrefix(rec.Body.String(), "[") {
		t.Errorf("expected JSON array, got %s", rec.Body.String())
	}

	rec = doJSON(t, mux, http.MethodPost, "/api/v1/sessions/"+sess.ID+"/close", `{"reason":"resolved"}`)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("close status = %d", rec.Code)
	}

	rec = doJSON(t, mux, http.MethodGet, "/api/v1/sessions/"+sess.ID, "")
	var closed session.Session
	_ = json.Unmarshal(rec.Body.Bytes(), &closed)
	if closed.Status != session.StatusClosed {
		t.Errorf("status = %q, want closed", closed.Status)
	}
}

func TestSessionNotFound(t *testing.T) {
	mux, _ := newTestServer(t)

	rec := doJSON(t, mux, http.MethodGet, "/api/v1/sessions/missing", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	mux, _ := newTestServer(t)

	rec := doJSON(t, mux, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestReadyNoDependencies(t *testing.T) {
	mux, _ := newTestServer(t)

	rec := doJSON(t, mux, http.MethodGet, "/health/ready", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}
