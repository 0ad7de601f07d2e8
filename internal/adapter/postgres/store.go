package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/supportflow/supportflow/internal/domain"
	"github.com/supportflow/supportflow/internal/domain/session"
)

// Store implements database.Store using PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// --- Sessions ---

func (s *Store) CreateSession(ctx context.Context, req session.CreateRequest) (*session.Session, error) {
	var created session.Session
	err := s.pool.QueryRow(ctx,
		`INSERT INTO sessions (user_id, status)
		 VALUES ($1, $2)
		 RETURNING id, user_id, status, created_at, updated_at`,
		req.UserID, session.StatusActive,
	).Scan(&created.ID, &created.UserID, &created.Status, &created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &created, nil
}

func (s *Store) GetSession(ctx context.Context, id string) (*session.Session, error) {
	var sess session.Session
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, status, created_at, updated_at
		 FROM sessions WHERE id = $1`,
		id,
	).Scan(&sess.ID, &sess.UserID, &sess.Status, &sess.CreatedAt, &sess.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get session %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	return &sess, nil
}

func (s *Store) ListSessions(ctx context.Context, userID string, limit int) ([]session.Session, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, status, created_at, updated_at
		 FROM sessions WHERE user_id = $1 ORDER BY updated_at DESC LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var result []session.Session
	for rows.Next() {
		var sess session.Session
		if err := rows.Scan(&sess.ID, &sess.UserID, &sess.Status, &sess.CreatedAt, &sess.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		result = append(result, sess)
	}
	return result, rows.Err()
}

func (s *Store) UpdateSessionStatus(ctx context.Context, id string, status session.Status) error {
	if !session.ValidStatus(status) {
		return fmt.Errorf("update session %s: invalid status %q", id, status)
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE sessions SET status = $2, updated_at = NOW() WHERE id = $1`,
		id, status)
	if err != nil {
		return fmt.Errorf("update session %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update session %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// --- Messages ---

func (s *Store) AppendMessage(ctx context.Context, req session.AppendRequest) (*session.Message, error) {
	metadata := req.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	var created session.Message
	err := s.pool.QueryRow(ctx,
		`INSERT INTO session_messages (session_id, role, content, intent, metadata)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, session_id, role, content, intent, metadata, created_at`,
		req.SessionID, req.Role, req.Content, req.Intent, metadata,
	).Scan(&created.ID, &created.SessionID, &created.Role, &created.Content,
		&created.Intent, &created.Metadata, &created.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}
	// Keep the session's updated_at in step with its latest message.
	_, _ = s.pool.Exec(ctx, `UPDATE sessions SET updated_at = NOW() WHERE id = $1`, req.SessionID)
	return &created, nil
}

func (s *Store) ListMessages(ctx context.Context, sessionID string, limit int) ([]session.Message, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, session_id, role, content, intent, metadata, created_at
		 FROM (SELECT * FROM session_messages WHERE session_id = $1
		       ORDER BY created_at DESC LIMIT $2) recent
		 ORDER BY created_at ASC`,
		sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var result []session.Message
	for rows.Next() {
		var m session.Message
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content,
			&m.Intent, &m.Metadata, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		result = append(result, m)
	}
	return result, rows.Err()
}
