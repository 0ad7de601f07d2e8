package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/supportflow/supportflow/internal/domain/request"
	"github.com/supportflow/supportflow/internal/domain/session"
	"github.com/supportflow/supportflow/internal/port/cache"
	"github.com/supportflow/supportflow/internal/port/database"
	"github.com/supportflow/supportflow/internal/port/messagequeue"
)

// SessionService manages conversation sessions and their message history.
// Recent history is cached so each chat turn avoids a database round trip.
type SessionService struct {
	store        database.Store
	cache        cache.Cache
	queue        messagequeue.Queue
	historyTTL   time.Duration
	historyLimit int
	logger       *slog.Logger
}

// NewSessionService creates a new SessionService. The cache and queue are
// optional; a nil cache disables history caching and a nil queue disables
// session event publishing.
func NewSessionService(store database.Store, c cache.Cache, q messagequeue.Queue, historyTTL time.Duration, historyLimit int, logger *slog.Logger) *SessionService {
	if historyTTL <= 0 {
		historyTTL = 30 * time.Minute
	}
	if historyLimit <= 0 {
		historyLimit = 20
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionService{
		store:        store,
		cache:        c,
		queue:        q,
		historyTTL:   historyTTL,
		historyLimit: historyLimit,
		logger:       logger,
	}
}

// Create starts a new session for the given user.
func (s *SessionService) Create(ctx context.Context, req session.CreateRequest) (*session.Session, error) {
	sess, err := s.store.CreateSession(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	s.logger.Debug("session created", "session_id", sess.ID, "user_id", sess.UserID)
	return sess, nil
}

// Get returns a session by ID.
func (s *SessionService) Get(ctx context.Context, id string) (*session.Session, error) {
	return s.store.GetSession(ctx, id)
}

// List returns the most recent sessions for a user.
func (s *SessionService) List(ctx context.Context, userID string, limit int) ([]session.Session, error) {
	return s.store.ListSessions(ctx, userID, limit)
}

// Append persists one conversation turn and invalidates the cached history.
func (s *SessionService) Append(ctx context.Context, req session.AppendRequest) (*session.Message, error) {
	msg, err := s.store.AppendMessage(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, historyKey(req.SessionID)); err != nil {
			s.logger.Warn("history cache invalidation failed", "session_id", req.SessionID, "error", err)
		}
	}

	if s.queue != nil {
		payload, _ := json.Marshal(messagequeue.SessionMessagePayload{
			SessionID: req.SessionID,
			Role:      string(req.Role),
			Content:   req.Content,
		})
		if err := s.queue.Publish(ctx, messagequeue.SubjectSessionMessage, payload); err != nil {
			s.logger.Warn("session message publish failed", "session_id", req.SessionID, "error", err)
		}
	}

	return msg, nil
}

// History returns the recent conversation turns for a session, oldest first,
// in the shape the orchestration pipeline consumes.
func (s *SessionService) History(ctx context.Context, sessionID string) ([]request.HistoryEntry, error) {
	key := historyKey(sessionID)

	if s.cache != nil {
		if data, ok, err := s.cache.Get(ctx, key); err == nil && ok {
			var entries []request.HistoryEntry
			if err := json.Unmarshal(data, &entries); err == nil {
				return entries, nil
			}
			// Corrupt cache entry, fall through to the store.
			_ = s.cache.Delete(ctx, key)
		}
	}

	msgs, err := s.store.ListMessages(ctx, sessionID, s.historyLimit)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	entries := make([]request.HistoryEntry, 0, len(msgs))
	for _, m := range msgs {
		entries = append(entries, request.HistoryEntry{Role: string(m.Role), Content: m.Content})
	}

	if s.cache != nil {
		if data, err := json.Marshal(entries); err == nil {
			_ = s.cache.Set(ctx, key, data, s.historyTTL)
		}
	}

	return entries, nil
}

// Messages returns up to limit recent messages for a session, oldest first.
func (s *SessionService) Messages(ctx context.Context, sessionID string, limit int) ([]session.Message, error) {
	return s.store.ListMessages(ctx, sessionID, limit)
}

// UpdateStatus transitions a session's lifecycle state. Closing a session
// publishes a sessions.closed event and drops its cached history.
func (s *SessionService) UpdateStatus(ctx context.Context, id string, status session.Status, reason string) error {
	if err := s.store.UpdateSessionStatus(ctx, id, status); err != nil {
		return fmt.Errorf("update session status: %w", err)
	}

	if status == session.StatusClosed {
		if s.cache != nil {
			_ = s.cache.Delete(ctx, historyKey(id))
		}
		if s.queue != nil {
			payload, _ := json.Marshal(messagequeue.SessionClosedPayload{SessionID: id, Reason: reason})
			if err := s.queue.Publish(ctx, messagequeue.SubjectSessionClosed, payload); err != nil {
				s.logger.Warn("session closed publish failed", "session_id", id, "error", err)
			}
		}
	}

	s.logger.Debug("session status updated", "session_id", id, "status", status)
	return nil
}

func historyKey(sessionID string) string {
	return "history:" + sessionID
}
