// Package plan defines the per-request execution plan: a static DAG of
// actions fulfilling one classified intent.
package plan

// ActionType is the closed set of work an action can represent.
type ActionType string

const (
	TypeAgentCall          ActionType = "agent_call"
	TypeToolCall           ActionType = "tool_call"
	TypeDataFetch          ActionType = "data_fetch"
	TypeValidation         ActionType = "validation"
	TypeResponseGeneration ActionType = "response_generation"
	TypeEscalation         ActionType = "escalation"
)

// ActionStatus is the lifecycle state of a single action.
type ActionStatus string

const (
	StatusPending    ActionStatus = "pending"
	StatusInProgress ActionStatus = "in_progress"
	StatusCompleted  ActionStatus = "completed"
	StatusFailed     ActionStatus = "failed"
	StatusSkipped    ActionStatus = "skipped"
)

// Action is one unit of work in an execution plan.
type Action struct {
	ID          string         `json:"id"`
	Type        ActionType     `json:"type"`
	Component   string         `json:"component"`
	Description string         `json:"description"`
	DependsOn   []string       `json:"depends_on,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`

	Status ActionStatus   `json:"status"`
	Result map[string]any `json:"result,omitempty"`
	Error  string         `json:"error,omitempty"`

	// Required failure aborts the plan; optional failure skips the action.
	Required       bool `json:"required"`
	RetryOnFailure bool `json:"retry_on_failure,omitempty"`
	MaxRetries     int  `json:"max_retries,omitempty"`
}

// CanExecute reports whether the action is pending with every dependency
// completed.
func (a *Action) CanExecute(completed map[string]bool) bool {
	if a.Status != StatusPending {
		return false
	}
	for _, dep := range a.DependsOn {
		if !completed[dep] {
			return false
		}
	}
	return true
}

// MarkCompleted records a successful result.
func (a *Action) MarkCompleted(result map[string]any) {
	a.Status = StatusCompleted
	a.Result = result
}

// MarkFailed records a failure.
func (a *Action) MarkFailed(errMsg string) {
	a.Status = StatusFailed
	a.Error = errMsg
}

// MarkSkipped marks an optional action that failed or was bypassed.
func (a *Action) MarkSkipped() {
	a.Status = StatusSkipped
}

// Progress summarizes plan execution state by status.
type Progress struct {
	Total      int  `json:"total"`
	Pending    int  `json:"pending"`
	InProgress int  `json:"in_progress"`
	Completed  int  `json:"completed"`
	Failed     int  `json:"failed"`
	Skipped    int  `json:"skipped"`
	IsComplete bool `json:"is_complete"`
	HasFailed  bool `json:"has_failed"`
}

// ExecutionPlan is the ordered action DAG for one intent. Action ids are
// unique within the plan, every dependency references an action in the same
// plan, and the graph is acyclic — the builder guarantees all three; the
// runtime does not re-verify.
type ExecutionPlan struct {
	ID      string   `json:"id"`
	Intent  string   `json:"intent"`
	Actions []Action `json:"actions"`
}

// NewPlan creates an empty plan for an intent.
func NewPlan(id, intent string) *ExecutionPlan {
	return &ExecutionPlan{ID: id, Intent: intent}
}

// AddAction appends an action, defaulting its status to pending.
func (p *ExecutionPlan) AddAction(a Action) {
	if a.Status == "" {
		a.Status = StatusPending
	}
	p.Actions = append(p.Actions, a)
}

// Action returns the action with the given id, or nil.
func (p *ExecutionPlan) Action(id string) *Action {
	for i := range p.Actions {
		if p.Actions[i].ID == id {
			return &p.Actions[i]
		}
	}
	return nil
}

// NextActions returns the ready frontier: pending actions whose every
// dependency is completed.
func (p *ExecutionPlan) NextActions() []*Action {
	completed := make(map[string]bool, len(p.Actions))
	for i := range p.Actions {
		if p.Actions[i].Status == StatusCompleted {
			completed[p.Actions[i].ID] = true
		}
	}

	var ready []*Action
	for i := range p.Actions {
		if p.Actions[i].CanExecute(completed) {
			ready = append(ready, &p.Actions[i])
		}
	}
	return ready
}

// IsComplete reports whether every required action has completed.
func (p *ExecutionPlan) IsComplete() bool {
	for i := range p.Actions {
		if p.Actions[i].Required && p.Actions[i].Status != StatusCompleted {
			return false
		}
	}
	return true
}

// HasFailed reports whether any required action has failed.
func (p *ExecutionPlan) HasFailed() bool {
	for i := range p.Actions {
		if p.Actions[i].Required && p.Actions[i].Status == StatusFailed {
			return true
		}
	}
	return false
}

// GetProgress counts actions per status and derives the terminal flags.
func (p *ExecutionPlan) GetProgress() Progress {
	prog := Progress{Total: len(p.Actions)}
	for i := range p.Actions {
		switch p.Actions[i].Status {
		case StatusPending:
			prog.Pending++
		case StatusInProgress:
			prog.InProgress++
		case StatusCompleted:
			prog.Completed++
		case StatusFailed:
			prog.Failed++
		case StatusSkipped:
			prog.Skipped++
		}
	}
	prog.IsComplete = p.IsComplete()
	prog.HasFailed = p.HasFailed()
	return prog
}

// Components returns the distinct component names the plan references, in
// action order. Used to validate collaborator registries up front.
func (p *ExecutionPlan) Components() []string {
	seen := make(map[string]bool, len(p.Actions))
	var out []string
	for i := range p.Actions {
		c := p.Actions[i].Component
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}
