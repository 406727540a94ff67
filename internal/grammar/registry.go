package grammar

import (
	"fmt"
	"sort"
	"sync"

	"aistep/internal/types"
)

// Registry holds grammar rules, stable-sorted by ascending priority at
// load time, per spec.md §3: "the registry must sort by priority at load
// time" and "when two rules share a priority, the insertion order must be
// stable across runs".
type Registry struct {
	mu        sync.Mutex
	rules     []Rule
	byName    map[string]int // name -> priority, for conflict detection
	sorted    []Rule
	sortDirty bool
}

// NewRegistry returns an empty registry. Use NewDefaultRegistry for the
// built-in rule set.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]int)}
}

// RegisterRule adds a grammar rule. Idempotent on rule.Name identity:
// registering the same name with an identical pattern is a no-op. A
// conflicting pattern registered under the same name at an equal or
// lower priority is rejected, per spec.md §4.1.
func (r *Registry) RegisterRule(rule Rule) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existingPriority, ok := r.byName[rule.Name]; ok {
		for _, existing := range r.rules {
			if existing.Name == rule.Name && existing.Pattern != nil && rule.Pattern != nil &&
				existing.Pattern.String() == rule.Pattern.String() {
				return nil
			}
		}
		if existingPriority <= rule.Priority {
			return &types.InternalError{Msg: fmt.Sprintf(
				"registerRule: rule %q already registered at priority %d, rejecting conflicting re-registration at priority %d",
				rule.Name, existingPriority, rule.Priority)}
		}
		// Strictly lower priority number (higher precedence): replace.
		for i, existing := range r.rules {
			if existing.Name == rule.Name {
				r.rules[i] = rule
				r.byName[rule.Name] = rule.Priority
				r.sortDirty = true
				return nil
			}
		}
	}

	r.rules = append(r.rules, rule)
	r.byName[rule.Name] = rule.Priority
	r.sortDirty = true
	return nil
}

// Sorted returns the rules in ascending-priority order, stable on ties.
func (r *Registry) Sorted() []Rule {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sortDirty || r.sorted == nil {
		r.sorted = make([]Rule, len(r.rules))
		copy(r.sorted, r.rules)
		sort.SliceStable(r.sorted, func(i, j int) bool {
			return r.sorted[i].Priority < r.sorted[j].Priority
		})
		r.sortDirty = false
	}
	out := make([]Rule, len(r.sorted))
	copy(out, r.sorted)
	return out
}
