package agent

import (
	"fmt"
	"sort"
)

// Registry resolves component names to collaborators. It is assembled once
// at startup and validated against the set of component names the static
// plans can reference, so unknown names fail at construction rather than at
// call time.
type Registry struct {
	agents      map[string]Agent
	dataSources map[string]DataSource
	tools       map[string]Tool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		agents:      make(map[string]Agent),
		dataSources: make(map[string]DataSource),
		tools:       make(map[string]Tool),
	}
}

// RegisterAgent binds a domain agent to a component name.
func (r *Registry) RegisterAgent(name string, a Agent) {
	r.agents[name] = a
}

// RegisterDataSource binds a data source to a component name.
func (r *Registry) RegisterDataSource(name string, ds DataSource) {
	r.dataSources[name] = ds
}

// RegisterTool binds a tool to a component name.
func (r *Registry) RegisterTool(name string, t Tool) {
	r.tools[name] = t
}

// Agent resolves a domain agent by component name.
func (r *Registry) Agent(name string) (Agent, bool) {
	a, ok := r.agents[name]
	return a, ok
}

// DataSource resolves a data source by component name.
func (r *Registry) DataSource(name string) (DataSource, bool) {
	ds, ok := r.dataSources[name]
	return ds, ok
}

// Tool resolves a tool by component name.
func (r *Registry) Tool(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// known reports whether the name resolves in any capability map.
func (r *Registry) known(name string) bool {
	if _, ok := r.agents[name]; ok {
		return true
	}
	if _, ok := r.dataSources[name]; ok {
		return true
	}
	_, ok := r.tools[name]
	return ok
}

// Validate checks that every required component name resolves. Names handled
// internally by the executor (response synthesis, escalation hand-off) are
// passed in exempt.
func (r *Registry) Validate(required []string, exempt ...string) error {
	skip := make(map[string]bool, len(exempt))
	for _, e := range exempt {
		skip[e] = true
	}

	var missing []string
	for _, name := range required {
		if skip[name] || r.known(name) {
			continue
		}
		missing = append(missing, name)
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("registry: unbound components: %v", missing)
	}
	return nil
}
