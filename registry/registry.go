// Package registry maintains the process-wide set of named storage
// engines. Registration happens once, before the first Lookup, and is not
// safe for concurrent use (see spec.md §5 and the "Registration
// side-effects" design note: registration is explicit, invoked from a
// known start-up point, rather than via constructor-attribute tricks).
package registry

import "github.com/azmodb/kvds/algo"

// Entry binds one or more names to a single algorithm and a human
// description. Register the same Engine under multiple Entry values to
// give it aliases. Enumerate returns every entry, aliases included; Peers
// (used by the comparator engine) dedupes by comparing Engine identity.
type Entry struct {
	Name        string
	Description string
	Engine      algo.Engine
}

// Registry is an ordered collection of named engines. The zero value is
// ready to use.
type Registry struct {
	entries []Entry
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{}
}

// Register appends entry to the registry, preserving registration order.
func (r *Registry) Register(entry Entry) {
	r.entries = append(r.entries, entry)
}

// Lookup returns the engine registered under name, or ok == false if no
// entry carries that exact name.
func (r *Registry) Lookup(name string) (engine algo.Engine, ok bool) {
	for _, e := range r.entries {
		if e.Name == name {
			return e.Engine, true
		}
	}
	return nil, false
}

// Enumerate returns every registered entry in registration order.
func (r *Registry) Enumerate() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Peers returns every distinct engine in the registry, in first-registration
// order, skipping aliases of an engine already returned and skipping any
// engine identical to exclude (by interface identity). The comparator
// engine uses this to discover the peers it multiplexes over.
func Peers(r *Registry, exclude algo.Engine) []algo.Engine {
	var peers []algo.Engine
	seen := make(map[algo.Engine]bool)
	for _, e := range r.entries {
		if e.Engine == exclude || seen[e.Engine] {
			continue
		}
		seen[e.Engine] = true
		peers = append(peers, e.Engine)
	}
	return peers
}
