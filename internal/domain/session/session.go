// Package session defines conversation sessions and their message history.
package session

import "time"

// Status represents the lifecycle state of a session.
type Status string

const (
	StatusActive    Status = "active"
	StatusEscalated Status = "escalated"
	StatusClosed    Status = "closed"
)

// Session is one conversation between a user and the support pipeline.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateRequest carries the parameters for creating a session.
type CreateRequest struct {
	UserID string `json:"user_id"`
}

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one turn in a session's conversation history.
type Message struct {
	ID        string         `json:"id"`
	SessionID string         `json:"session_id"`
	Role      Role           `json:"role"`
	Content   string         `json:"content"`
	Intent    string         `json:"intent,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// AppendRequest carries the parameters for appending a message to a session.
type AppendRequest struct {
	SessionID string         `json:"session_id"`
	Role      Role           `json:"role"`
	Content   string         `json:"content"`
	Intent    string         `json:"intent,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// ValidStatus reports whether s is a known session status.
func ValidStatus(s Status) bool {
	switch s {
	case StatusActive, StatusEscalated, StatusClosed:
		return true
	}
	return false
}
