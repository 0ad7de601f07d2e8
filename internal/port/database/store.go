// Package database defines the database store port (interface).
package database

import (
	"context"

	"github.com/supportflow/supportflow/internal/domain/session"
)

// Store is the port interface for database operations.
type Store interface {
	// Sessions
	CreateSession(ctx context.Context, req session.CreateRequest) (*session.Session, error)
	GetSession(ctx context.Context, id string) (*session.Session, error)
	ListSessions(ctx context.Context, userID string, limit int) ([]session.Session, error)
	UpdateSessionStatus(ctx context.Context, id string, status session.Status) error

	// Messages
	AppendMessage(ctx context.Context, req session.AppendRequest) (*session.Message, error)
	ListMessages(ctx context.Context, sessionID string, limit int) ([]session.Message, error)
}
