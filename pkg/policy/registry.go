package policy

import (
	"fmt"
	"sync"
)

// Registry is the mutable store of installed policy definitions, their
// enabled state, and threshold overrides. It is an explicit object passed
// into the Enforcer, never a process-wide singleton, so tests and
// multi-tenant callers instantiate a fresh one.
//
// Mutation (register/enable/disable/override) is owned by the registry;
// the Enforcer only ever reads a snapshot, so a policy set can never change
// mid-evaluation.
type Registry struct {
	mu         sync.RWMutex
	policies   map[string]*Definition
	order      []string // registration order, for stable evaluation
	enabled    map[string]bool
	thresholds map[string]Threshold
}

// NewRegistry creates an empty policy registry.
func NewRegistry() *Registry {
	return &Registry{
		policies:   make(map[string]*Definition),
		enabled:    make(map[string]bool),
		thresholds: make(map[string]Threshold),
	}
}

// Register installs a policy definition. The enabled state is seeded from
// DefaultEnabled; the policy's thresholds are installed at their default
// values unless an override already exists.
func (r *Registry) Register(def *Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.policies[def.ID]; exists {
		return fmt.Errorf("policy '%s' is already registered", def.ID)
	}
	r.policies[def.ID] = def
	r.order = append(r.order, def.ID)
	r.enabled[def.ID] = def.DefaultEnabled

	for _, t := range def.Thresholds {
		if _, exists := r.thresholds[t.ID]; !exists {
			r.thresholds[t.ID] = t
		}
	}
	return nil
}

// SetEnabled flips a policy's enabled state.
func (r *Registry) SetEnabled(policyID string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.policies[policyID]; !ok {
		return fmt.Errorf("unknown policy '%s'", policyID)
	}
	r.enabled[policyID] = enabled
	return nil
}

// IsEnabled reports a policy's current enabled state.
func (r *Registry) IsEnabled(policyID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.enabled[policyID]
}

// SetThreshold overrides a threshold's current value. The override must fall
// within the threshold's [Min, Max] bounds.
func (r *Registry) SetThreshold(id string, value float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.thresholds[id]
	if !ok {
		return fmt.Errorf("unknown threshold '%s'", id)
	}
	if value < t.Min || value > t.Max {
		return fmt.Errorf("threshold '%s': value %v is outside bounds [%v, %v]", id, value, t.Min, t.Max)
	}
	t.Value = value
	r.thresholds[id] = t
	return nil
}

// Threshold returns a threshold by ID.
func (r *Registry) Threshold(id string) (Threshold, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.thresholds[id]
	return t, ok
}

// snapshot captures the currently enabled policies, in registration order,
// together with the current threshold values. Enforcement evaluates against
// the snapshot so concurrent registry mutation never changes a policy set
// mid-evaluation.
func (r *Registry) snapshot() ([]*Definition, map[string]Threshold) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var defs []*Definition
	for _, id := range r.order {
		if r.enabled[id] {
			defs = append(defs, r.policies[id])
		}
	}
	thresholds := make(map[string]Threshold, len(r.thresholds))
	for id, t := range r.thresholds {
		thresholds[id] = t
	}
	return defs, thresholds
}
