// Package checks provides the ComplianceChecker interface, the rule registry
// and the IFC compliance rules themselves.
package checks

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/spboyer/ifccheck/internal/ifc"
)

// ErrUnknownRule is returned when a rule name is not registered.
var ErrUnknownRule = errors.New("unknown rule")

// Options is the open configuration bag passed to every rule. Each rule
// decides which keys, if any, it reads.
type Options map[string]any

// ComplianceChecker runs a single compliance rule against a loaded model.
type ComplianceChecker interface {
	// Name is the stable rule identifier used for discovery and in reports.
	Name() string
	// Description is a one-line human readable summary of the rule.
	Description() string
	// Check returns the per-element rows followed by one summary row.
	Check(model ifc.Model, opts Options) ([]Result, error)
}

// Registry holds the rules a harness can discover by name.
type Registry struct {
	mu    sync.RWMutex
	rules map[string]ComplianceChecker
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{rules: make(map[string]ComplianceChecker)}
}

// DefaultRegistry returns a registry holding every built-in rule.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.MustRegister(&SpaceNamingChecker{})
	return r
}

// Register adds c. Registering two rules with the same name is an error.
func (r *Registry) Register(c ComplianceChecker) error {
	if c == nil || c.Name() == "" {
		return fmt.Errorf("registering rule: missing name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, dup := r.rules[c.Name()]; dup {
		return fmt.Errorf("registering rule %q: already registered", c.Name())
	}
	r.rules[c.Name()] = c
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(c ComplianceChecker) {
	if err := r.Register(c); err != nil {
		panic(err)
	}
}

// Lookup returns the rule registered under name.
func (r *Registry) Lookup(name string) (ComplianceChecker, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.rules[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRule, name)
	}
	return c, nil
}

// All returns every registered rule sorted by name.
func (r *Registry) All() []ComplianceChecker {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ComplianceChecker, 0, len(r.rules))
	for _, c := range r.rules {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Select resolves names to rules, keeping the given order. An empty list
// selects every rule.
func (r *Registry) Select(names []string) ([]ComplianceChecker, error) {
	if len(names) == 0 {
		return r.All(), nil
	}
	out := make([]ComplianceChecker, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		c, err := r.Lookup(name)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
