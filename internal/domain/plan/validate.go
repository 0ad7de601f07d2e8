package plan

import (
	"errors"
	"fmt"
)

var (
	ErrNoActions     = errors.New("at least one action is required")
	ErrDuplicateID   = errors.New("duplicate action id")
	ErrDAGCycle      = errors.New("action dependencies contain a cycle")
	ErrDAGInvalidRef = errors.New("action dependency references unknown id")
	ErrMissingField  = errors.New("action id, type, and component are required")
)

// Validate checks structural correctness: unique ids, in-plan dependency
// references, and acyclicity. Builders call this in tests; the executor
// trusts plans at runtime.
func (p *ExecutionPlan) Validate() error {
	if len(p.Actions) == 0 {
		return ErrNoActions
	}

	index := make(map[string]int, len(p.Actions))
	for i := range p.Actions {
		a := &p.Actions[i]
		if a.ID == "" || a.Type == "" || a.Component == "" {
			return fmt.Errorf("action %d: %w", i, ErrMissingField)
		}
		if _, dup := index[a.ID]; dup {
			return fmt.Errorf("action %q: %w", a.ID, ErrDuplicateID)
		}
		index[a.ID] = i
	}

	// Kahn's algorithm over dependency edges.
	n := len(p.Actions)
	inDegree := make([]int, n)
	adj := make([][]int, n)
	for i := range p.Actions {
		for _, dep := range p.Actions[i].DependsOn {
			j, ok := index[dep]
			if !ok {
				return fmt.Errorf("action %q depends on %q: %w", p.Actions[i].ID, dep, ErrDAGInvalidRef)
			}
			if j == i {
				return fmt.Errorf("action %q depends on itself: %w", p.Actions[i].ID, ErrDAGCycle)
			}
			adj[j] = append(adj[j], i)
			inDegree[i]++
		}
	}

	queue := make([]int, 0, n)
	for i, d := range inDegree {
		if d == 0 {
			queue = append(queue, i)
		}
	}

	visited := 0
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		visited++
		for _, next := range adj[node] {
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if visited != n {
		return ErrDAGCycle
	}
	return nil
}
