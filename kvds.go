// Package kvds wires the registry together with the three concrete
// engines at one explicit start-up point, rather than relying on
// constructor-attribute side effects (spec.md §9, "Registration
// side-effects").
package kvds

import (
	"go.uber.org/zap"

	"github.com/azmodb/kvds/algo"
	"github.com/azmodb/kvds/engine/comparator"
	"github.com/azmodb/kvds/engine/scapegoat"
	"github.com/azmodb/kvds/engine/sortedlist"
	"github.com/azmodb/kvds/registry"
)

// NewRegistry builds and returns the process's engine registry: the
// sorted-list engine ("linkedlist"/"lst"), the scapegoat tree engine
// ("scapegoat"/"scg", built with log and checkInvariants), and the
// comparator engine ("compare"/"inv") that multiplexes over both.
func NewRegistry(log *zap.Logger, checkInvariants bool) *registry.Registry {
	r := registry.New()

	var list algo.Engine = sortedlist.Engine{}
	r.Register(registry.Entry{Name: "linkedlist", Description: "Store entries in a sorted doubly-linked list.", Engine: list})
	r.Register(registry.Entry{Name: "lst", Description: "Store entries in a sorted doubly-linked list.", Engine: list})

	var tree algo.Engine = scapegoat.New(
		scapegoat.WithInvariantChecks(checkInvariants),
		scapegoat.WithLogger(log),
	)
	r.Register(registry.Entry{Name: "scapegoat", Description: "Store entries in a scapegoat-balanced binary search tree.", Engine: tree})
	r.Register(registry.Entry{Name: "scg", Description: "Store entries in a scapegoat-balanced binary search tree.", Engine: tree})

	cmp := comparator.New(r)
	var cmpEngine algo.Engine = cmp
	r.Register(registry.Entry{Name: "compare", Description: "Replay every operation against every other engine and assert agreement.", Engine: cmpEngine})
	r.Register(registry.Entry{Name: "inv", Description: "Replay every operation against every other engine and assert agreement.", Engine: cmpEngine})

	return r
}
