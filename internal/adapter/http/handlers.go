package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/supportflow/supportflow/internal/adapter/llmgw"
	"github.com/supportflow/supportflow/internal/domain/session"
	"github.com/supportflow/supportflow/internal/port/messagequeue"
	"github.com/supportflow/supportflow/internal/service"
)

// maxBodySize limits chat and session request bodies.
const maxBodySize = 64 * 1024

// Handlers holds the services the HTTP layer delegates to.
type Handlers struct {
	router   *service.RouterService
	sessions *service.SessionService
	queue    messagequeue.Queue
	gateway  *llmgw.Client
	version  string
}

// NewHandlers creates the HTTP handler set. queue and gateway may be nil;
// the health endpoint then skips the corresponding checks.
func NewHandlers(router *service.RouterService, sessions *service.SessionService, queue messagequeue.Queue, gateway *llmgw.Client, version string) *Handlers {
	return &Handlers{
		router:   router,
		sessions: sessions,
		queue:    queue,
		gateway:  gateway,
		version:  version,
	}
}

// --- Chat ---

type chatRequest struct {
	Message   string         `json:"message"`
	UserID    string         `json:"user_id"`
	SessionID string         `json:"session_id,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type chatResponse struct {
	SessionID string `json:"session_id"`
	service.Response
}

// HandleChat runs one user message through the orchestration pipeline.
// A missing session_id starts a new session.
func (h *Handlers) HandleChat(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[chatRequest](w, r, maxBodySize)
	if !ok {
		return
	}
	if !requireField(w, req.Message, "message") || !requireField(w, req.UserID, "user_id") {
		return
	}

	ctx := r.Context()

	sessionID := req.SessionID
	if sessionID == "" {
		sess, err := h.sessions.Create(ctx, session.CreateRequest{UserID: req.UserID})
		if err != nil {
			writeInternalError(w, err)
			return
		}
		sessionID = sess.ID
	} else if _, err := h.sessions.Get(ctx, sessionID); err != nil {
		writeDomainError(w, err, "session not found")
		return
	}

	history, err := h.sessions.History(ctx, sessionID)
	if err != nil {
		writeInternalError(w, err)
		return
	}

	if _, err := h.sessions.Append(ctx, session.AppendRequest{
		SessionID: sessionID,
		Role:      session.RoleUser,
		Content:   req.Message,
		Metadata:  req.Metadata,
	}); err != nil {
		writeInternalError(w, err)
		return
	}

	resp := h.router.ProcessRequest(ctx, service.Request{
		Message:   req.Message,
		UserID:    req.UserID,
		SessionID: sessionID,
		History:   history,
		Metadata:  req.Metadata,
	})

	h.recordOutcome(ctx, sessionID, resp)

	writeJSON(w, http.StatusOK, chatResponse{SessionID: sessionID, Response: resp})
}

// recordOutcome persists the assistant turn, updates session state on
// escalation, and publishes the request summary. Failures here are logged by
// the services and never fail the user's request.
func (h *Handlers) recordOutcome(ctx context.Context, sessionID string, resp service.Response) {
	_, _ = h.sessions.Append(ctx, session.AppendRequest{
		SessionID: sessionID,
		Role:      session.RoleAssistant,
		Content:   resp.Message,
		Intent:    resp.Intent,
	})

	if resp.Escalated {
		_ = h.sessions.UpdateStatus(ctx, sessionID, session.StatusEscalated, resp.EscalationReason)
	}

	if h.queue != nil {
		payload, _ := json.Marshal(messagequeue.RequestCompletedPayload{
			RequestID:  resp.Metadata.RequestID,
			SessionID:  sessionID,
			Intent:     resp.Intent,
			Success:    resp.Success,
			Escalated:  resp.Escalated,
			ElapsedMS:  resp.Metadata.Metrics.ElapsedMS,
			Tokens:     resp.Metadata.Metrics.TotalTokens,
			CostUSD:    resp.Metadata.Metrics.TotalCostUSD,
			ErrorCount: resp.Metadata.Metrics.ErrorCount,
		})
		_ = h.queue.Publish(ctx, messagequeue.SubjectRequestCompleted, payload)
	}
}

// --- Sessions ---

type createSessionRequest struct {
	UserID string `json:"user_id"`
}

func (h *Handlers) CreateSession(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[createSessionRequest](w, r, maxBodySize)
	if !ok {
		return
	}
	if !requireField(w, req.UserID, "user_id") {
		return
	}

	sess, err := h.sessions.Create(r.Context(), session.CreateRequest{UserID: req.UserID})
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (h *Handlers) GetSession(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")

	sess, err := h.sessions.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *Handlers) ListSessions(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if !requireField(w, userID, "user_id") {
		return
	}

	sessions, err := h.sessions.List(r.Context(), userID, queryLimit(r, 50))
	if err != nil {
		writeInternalError(w, err)
		return
	}
	if sessions == nil {
		sessions = []session.Session{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (h *Handlers) ListSessionMessages(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")

	if _, err := h.sessions.Get(r.Context(), id); err != nil {
		writeDomainError(w, err, "session not found")
		return
	}

	msgs, err := h.sessions.Messages(r.Context(), id, queryLimit(r, 100))
	if err != nil {
		writeInternalError(w, err)
		return
	}
	if msgs == nil {
		msgs = []session.Message{}
	}
	writeJSON(w, http.StatusOK, msgs)
}

type closeSessionRequest struct {
	Reason string `json:"reason,omitempty"`
}

func (h *Handlers) CloseSession(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")

	req, ok := readJSON[closeSessionRequest](w, r, maxBodySize)
	if !ok {
		return
	}

	if err := h.sessions.UpdateStatus(r.Context(), id, session.StatusClosed, req.Reason); err != nil {
		writeDomainError(w, err, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Health ---

func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": h.version})
}

// Ready reports whether downstream dependencies are reachable.
func (h *Handlers) Ready(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{}
	healthy := true

	if h.queue != nil {
		if h.queue.IsConnected() {
			checks["nats"] = "ok"
		} else {
			checks["nats"] = "disconnected"
			healthy = false
		}
	}

	if h.gateway != nil {
		if ok, err := h.gateway.Health(r.Context()); ok {
			checks["gateway"] = "ok"
		} else {
			checks["gateway"] = err.Error()
			healthy = false
		}
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, checks)
}

func queryLimit(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return fallback
	}
	return limit
}
