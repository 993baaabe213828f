package agent

import (
	"fmt"
	"sync"

	"github.com/thomasfortoul/oxkair-workflow/pkg/workflow/state"
)

// Registration binds a stage name to the agent instance(s) that implement
// it. Replicas supports running the same stage N times for cross-checking;
// the registry stores one slice per name so callers needn't special-case
// the common Replicas==1 path.
type Registration struct {
	Name   state.AgentName
	Agents []Agent
	// AllRequired selects "all" vs "any": when false (default) the stage
	// is considered successful if any replica succeeds; when true every
	// replica must succeed.
	AllRequired bool
}

// Registry is the thread-safe agent lookup the orchestrator resolves stage
// names through: a mutex-protected map with defensive copies on read so
// callers can't mutate registry internals by holding onto a returned
// slice.
type Registry struct {
	mu            sync.RWMutex
	registrations map[state.AgentName]Registration
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{registrations: make(map[state.AgentName]Registration)}
}

// Register adds or replaces the registration for a stage name.
func (r *Registry) Register(reg Registration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registrations[reg.Name] = reg
}

// RegisterSingle is a convenience for the common single-agent-per-stage
// case.
func (r *Registry) RegisterSingle(a Agent) {
	r.Register(Registration{Name: a.Name(), Agents: []Agent{a}})
}

// Get returns a defensive copy of the registration for name.
func (r *Registry) Get(name state.AgentName) (Registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.registrations[name]
	if !ok {
		return Registration{}, false
	}
	out := reg
	out.Agents = append([]Agent(nil), reg.Agents...)
	return out, true
}

// Has reports whether a stage name is registered.
func (r *Registry) Has(name state.AgentName) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.registrations[name]
	return ok
}

// Names returns every registered stage name, in no particular order.
func (r *Registry) Names() []state.AgentName {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]state.AgentName, 0, len(r.registrations))
	for n := range r.registrations {
		out = append(out, n)
	}
	return out
}

// MustGet is Get but panics on a missing registration; reserved for
// call sites that already validated the stage exists (e.g. immediately
// after checking Has in a loop over a fixed topology).
func (r *Registry) MustGet(name state.AgentName) Registration {
	reg, ok := r.Get(name)
	if !ok {
		panic(fmt.Sprintf("agent: no registration for %s", name))
	}
	return reg
}
