package messagequeue

// EscalationPayload is the schema for escalations.raised messages.
type EscalationPayload struct {
	RequestID string `json:"request_id"`
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
	Intent    string `json:"intent"`
	Reason    string `json:"reason"`
	Urgency   string `json:"urgency"`
	Message   string `json:"message"`
}

// PipelineStagePayload is the schema for pipeline.stage messages.
type PipelineStagePayload struct {
	RequestID string `json:"request_id"`
	SessionID string `json:"session_id"`
	Stage     string `json:"stage"`
	Detail    string `json:"detail,omitempty"`
}

// RequestCompletedPayload is the schema for requests.completed messages.
type RequestCompletedPayload struct {
	RequestID  string  `json:"request_id"`
	SessionID  string  `json:"session_id"`
	Intent     string  `json:"intent"`
	Success    bool    `json:"success"`
	Escalated  bool    `json:"escalated"`
	ElapsedMS  float64 `json:"elapsed_ms"`
	Tokens     int     `json:"tokens"`
	CostUSD    float64 `json:"cost_usd"`
	ErrorCount int     `json:"error_count"`
}

// SessionMessagePayload is the schema for sessions.message messages.
type SessionMessagePayload struct {
	SessionID string `json:"session_id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
}

// SessionClosedPayload is the schema for sessions.closed messages.
type SessionClosedPayload struct {
	SessionID string `json:"session_id"`
	Reason    string `json:"reason"`
}
