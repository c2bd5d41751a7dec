package breaker

import "sync"

// Registry hands out one breaker per named dependency, creating it on first
// use with that dependency's settings.
type Registry struct {
	mu        sync.Mutex
	defaults  Settings
	overrides map[string]Settings
	breakers  map[string]*Breaker
}

// NewRegistry creates a Registry. overrides maps dependency names to
// per-dependency settings; anything else gets defaults.
func NewRegistry(defaults Settings, overrides map[string]Settings) *Registry {
	return &Registry{
		defaults:  defaults,
		overrides: overrides,
		breakers:  make(map[string]*Breaker),
	}
}

// Get returns the breaker for name, creating it if needed.
func (r *Registry) Get(name string) *Breaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.breakers[name]; ok {
		return b
	}
	settings := r.defaults
	if s, ok := r.overrides[name]; ok {
		settings = s
	}
	b := New(name, settings)
	r.breakers[name] = b
	return b
}

// Snapshots returns a diagnostic view of every breaker created so far.
func (r *Registry) Snapshots() []Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Snapshot, 0, len(r.breakers))
	for _, b := range r.breakers {
		out = append(out, b.GetState())
	}
	return out
}
