// Package catalog holds the building and scenario registries the tools and
// the orchestrator are handed per call, and the customer segments that
// select them.
package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/crowagent/crowagent/internal/physics"
)

// Registry names used in UnknownEntityError.
const (
	RegistryBuildings = "buildings"
	RegistryScenarios = "scenarios"
	RegistrySegments  = "segments"
)

// UnknownEntityError reports a name missing from a registry.
type UnknownEntityError struct {
	Registry  string
	Key       string
	Available []string
}

func (e *UnknownEntityError) Error() string {
	msg := fmt.Sprintf("%q not found in %s registry", e.Key, e.Registry)
	if len(e.Available) > 0 {
		msg += "; available: " + strings.Join(e.Available, ", ")
	}
	return msg
}

// Buildings maps a human-readable name to a building record.
type Buildings map[string]physics.Building

// Lookup returns the named building or an *UnknownEntityError.
func (r Buildings) Lookup(name string) (physics.Building, error) {
	b, ok := r[name]
	if !ok {
		return physics.Building{}, &UnknownEntityError{Registry: RegistryBuildings, Key: name, Available: r.Names()}
	}
	return b, nil
}

// Names returns the building names in sorted order.
func (r Buildings) Names() []string { return sortedKeys(r) }

// Clone returns an independent copy of r.
func (r Buildings) Clone() Buildings {
	out := make(Buildings, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Scenarios maps a scenario identifier to its definition.
type Scenarios map[string]physics.Scenario

// Lookup returns the named scenario or an *UnknownEntityError.
func (r Scenarios) Lookup(name string) (physics.Scenario, error) {
	s, ok := r[name]
	if !ok {
		return physics.Scenario{}, &UnknownEntityError{Registry: RegistryScenarios, Key: name, Available: r.Names()}
	}
	return s, nil
}

// Names returns the scenario identifiers in sorted order.
func (r Scenarios) Names() []string { return sortedKeys(r) }

// Clone returns an independent copy of r.
func (r Scenarios) Clone() Scenarios {
	out := make(Scenarios, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Subset returns the scenarios named in ids, failing on the first unknown id.
func (r Scenarios) Subset(ids []string) (Scenarios, error) {
	out := make(Scenarios, len(ids))
	for _, id := range ids {
		s, err := r.Lookup(id)
		if err != nil {
			return nil, err
		}
		out[id] = s
	}
	return out, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
