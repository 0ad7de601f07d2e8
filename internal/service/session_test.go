package service_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/supportflow/supportflow/internal/domain"
	"github.com/supportflow/supportflow/internal/domain/session"
	"github.com/supportflow/supportflow/internal/port/messagequeue"
	"github.com/supportflow/supportflow/internal/service"
)

type memStore struct {
	mu       sync.Mutex
	sessions map[string]*session.Session
	messages map[string][]session.Message
	nextID   int
	listCall int
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
	m.listCall++
	return append([]session.Message(nil), m.messages[sessionID]...), nil
}

func (m *memStore) listCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listCall
}

type memCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string][]byte)}
}

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.entries[key]
	return data, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

type recordingQueue struct {
	mu        sync.Mutex
	published map[string][][]byte
}

func newRecordingQueue() *recordingQueue {
	return &recordingQueue{published: make(map[string][][]byte)}
}

func (q *recordingQueue) Publish(_ context.Context, subject string, data []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.published[subject] = append(q.published[subject], data)
	return nil
}

func (q *recordingQueue) Subscribe(context.Context, string, messagequeue.Handler) (func(), error) {
	return func() {}, nil
}

func (q *recordingQueue) Drain() error      { return nil }
func (q *recordingQueue) Close() error      { return nil }
func (q *recordingQueue) IsConnected() bool { return true }

func (q *recordingQueue) count(subject string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.published[subject])
}

func TestSessionServiceHistoryCaches(t *testing.T) {
	store := newMemStore()
	c := newMemCache()
	svc := service.NewSessionService(store, c, nil, time.Minute, 20, nil)
	ctx := context.Background()

	sess, err := svc.Create(ctx, session.CreateRequest{UserID: "u1"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := svc.Append(ctx, session.AppendRequest{SessionID: sess.ID, Role: session.RoleUser, Content: "hello"}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	first, err := svc.History(ctx, sess.ID)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(first) != 1 || first[0].Content != "hello" {
		t.Fatalf("unexpected history: %+v", first)
	}

	second, err := svc.History(ctx, sess.ID)
	if err != nil {
		t.Fatalf("History (cached) failed: %v", err)
	}
	if len(second) != 1 {
		t.Fatalf("unexpected cached history: %+v", second)
	}
	if got := store.listCalls(); got != 1 {
		t.Errorf("expected 1 store read, got %d", got)
	}
}

func TestSessionServiceAppendInvalidatesCache(t *testing.T) {
	store := newMemStore()
	c := newMemCache()
	svc := service.NewSessionService(store, c, nil, time.Minute, 20, nil)
	ctx := context.Background()

	sess, _ := svc.Create(ctx, session.CreateRequest{UserID: "u1"})
	_, _ = svc.Append(ctx, session.AppendRequest{SessionID: sess.ID, Role: session.RoleUser, Content: "first"})
	if _, err := svc.History(ctx, sess.ID); err != nil {
		t.Fatalf("History failed: %v", err)
	}

	_, _ = svc.Append(ctx, session.AppendRequest{SessionID: sess.ID, Role: session.RoleAssistant, Content: "second"})

	entries, err := svc.History(ctx, sess.ID)
	if err != nil {
		t.Fatalf("History after append failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[1].Content != "second" {
		t.Fatalf("unexpected last entry: %+v", entries[1])
	}
}

func TestSessionServicePublishesEvents(t *testing.T) {
	store := newMemStore()
	q := newRecordingQueue()
	svc := service.NewSessionService(store, nil, q, time.Minute, 20, nil)
	ctx := context.Background()

	sess, _ := svc.Create(ctx, session.CreateRequest{UserID: "u1"})
	_, _ = svc.Append(ctx, session.AppendRequest{SessionID: sess.ID, Role: session.RoleUser, Content: "hi"})

	if got := q.count(messagequeue.SubjectSessionMessage); got != 1 {
		t.Errorf("expected 1 message event, got %d", got)
	}

	if err := svc.UpdateStatus(ctx, sess.ID, session.StatusClosed, "resolved"); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}
	if got := q.count(messagequeue.SubjectSessionClosed); got != 1 {
		t.Errorf("expected 1 closed event, got %d", got)
	}

	got, _ := svc.Get(ctx, sess.ID)
	if got.Status != session.StatusClosed {
		t.Errorf("status = %q, want closed", got.Status)
	}
}
