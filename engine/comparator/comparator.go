// Package comparator implements the invariant-comparing multiplexer: a
// debug-oriented engine that replays every operation against every other
// registered engine in lockstep and asserts that all observable results
// agree (spec.md §4.5). It is itself an algo.Engine, so it can be selected
// like any other and composes with the registry.
package comparator

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/azmodb/kvds/algo"
	"github.com/azmodb/kvds/registry"
)

// Engine is the comparator storage algorithm. Construct one with New and
// register the result under its own registry.Entry; peer discovery
// happens lazily on CreateDB, by which point registration has completed.
type Engine struct {
	peers func() []algo.Engine
}

// New returns a comparator engine whose peers are every distinct engine
// registered in r other than itself.
func New(r *registry.Registry) *Engine {
	e := &Engine{}
	e.peers = func() []algo.Engine {
		return registry.Peers(r, algo.Engine(e))
	}
	return e
}

type db struct {
	peers []algo.Engine
	dbs   []algo.DB
}

type cursor struct {
	cursors []algo.Cursor
}

var (
	_ algo.Engine  = (*Engine)(nil)
	_ algo.Mover   = (*Engine)(nil)
	_ algo.Keyer   = (*Engine)(nil)
	_ algo.Exister = (*Engine)(nil)
	_ algo.Snapper = (*Engine)(nil)
	_ algo.Writer  = (*Engine)(nil)
	_ algo.Reader  = (*Engine)(nil)
	_ algo.Remover = (*Engine)(nil)
)

func (e *Engine) CreateDB() algo.DB {
	peers := e.peers()
	d := &db{peers: peers, dbs: make([]algo.DB, len(peers))}
	for i, peer := range peers {
		d.dbs[i] = peer.CreateDB()
	}
	return d
}

func noopDispose(_ []byte) {}

// DestroyDB disposes each peer's remaining payloads via dispose exactly
// once overall: the same payload reference was handed to every peer on
// Write (see Write below), so only the last peer's DestroyDB call runs
// the real disposer; every other peer gets a no-op so the payload is not
// disposed of N times for one logical entry.
func (e *Engine) DestroyDB(_db algo.DB, dispose algo.Disposer) {
	d := _db.(*db)
	for i, peer := range d.peers {
		if i == len(d.peers)-1 {
			peer.DestroyDB(d.dbs[i], dispose)
		} else {
			peer.DestroyDB(d.dbs[i], noopDispose)
		}
	}
}

func (e *Engine) CreateCursor(_db algo.DB, key int64) algo.Cursor {
	d := _db.(*db)
	c := &cursor{cursors: make([]algo.Cursor, len(d.peers))}
	for i, peer := range d.peers {
		c.cursors[i] = peer.CreateCursor(d.dbs[i], key)
	}
	return c
}

// MoveCursor forwards to every peer's MoveCursor when available; a peer
// without Mover is destroyed and recreated at the new key instead, per
// spec.md §4.1.1's "comparator handles absence of move_cursor by
// destroy-and-recreate".
func (e *Engine) MoveCursor(_db algo.DB, _cur algo.Cursor, key int64) {
	d, c := _db.(*db), _cur.(*cursor)
	for i, peer := range d.peers {
		if mover, ok := peer.(algo.Mover); ok {
			mover.MoveCursor(d.dbs[i], c.cursors[i], key)
		} else {
			peer.DestroyCursor(d.dbs[i], c.cursors[i])
			c.cursors[i] = peer.CreateCursor(d.dbs[i], key)
		}
	}
}

func (e *Engine) DestroyCursor(_db algo.DB, _cur algo.Cursor) {
	d, c := _db.(*db), _cur.(*cursor)
	for i, peer := range d.peers {
		peer.DestroyCursor(d.dbs[i], c.cursors[i])
	}
}

func mismatch(op string, results []string) {
	var errs []error
	for i := 1; i < len(results); i++ {
		if results[i] != results[0] {
			errs = append(errs, fmt.Errorf("peer %d returned %s, peer 0 returned %s", i, results[i], results[0]))
		}
	}
	if len(errs) > 0 {
		panic(fmt.Sprintf("comparator: invariant violation during %s: %s", op, multierr.Combine(errs...)))
	}
}

func (e *Engine) Key(_db algo.DB, _cur algo.Cursor) int64 {
	d, c := _db.(*db), _cur.(*cursor)
	results := make([]string, len(d.peers))
	var first int64
	for i, peer := range d.peers {
		k := peer.(algo.Keyer).Key(d.dbs[i], c.cursors[i])
		if i == 0 {
			first = k
		}
		results[i] = fmt.Sprintf("%d", k)
	}
	mismatch("key", results)
	return first
}

func (e *Engine) Exists(_db algo.DB, _cur algo.Cursor) bool {
	d, c := _db.(*db), _cur.(*cursor)
	results := make([]string, len(d.peers))
	var first bool
	for i, peer := range d.peers {
		v := peer.(algo.Exister).Exists(d.dbs[i], c.cursors[i])
		if i == 0 {
			first = v
		}
		results[i] = fmt.Sprintf("%t", v)
	}
	mismatch("exists", results)
	return first
}

// Snap forwards to every peer and then, since Snap itself returns nothing,
// additionally calls Key on each peer afterward to assert they agree
// (spec.md §4.5).
func (e *Engine) Snap(_db algo.DB, _cur algo.Cursor, dir algo.Direction) {
	d, c := _db.(*db), _cur.(*cursor)
	results := make([]string, len(d.peers))
	for i, peer := range d.peers {
		peer.(algo.Snapper).Snap(d.dbs[i], c.cursors[i], dir)
		k := peer.(algo.Keyer).Key(d.dbs[i], c.cursors[i])
		results[i] = fmt.Sprintf("%d", k)
	}
	mismatch("snap", results)
}

// Write hands the same payload reference to every peer (sidestepping an
// N-way clone) and treats the last peer's returned previous value as the
// one surfaced to the caller, per spec.md §4.5 and §9's "Comparator shared
// payloads" design note.
func (e *Engine) Write(_db algo.DB, _cur algo.Cursor, payload []byte) (previous []byte, hadPrevious bool) {
	d, c := _db.(*db), _cur.(*cursor)
	results := make([]string, len(d.peers))
	for i, peer := range d.peers {
		prev, had := peer.(algo.Writer).Write(d.dbs[i], c.cursors[i], payload)
		results[i] = fmt.Sprintf("%t:%s", had, prev)
		previous, hadPrevious = prev, had
	}
	mismatch("write", results)
	return previous, hadPrevious
}

func (e *Engine) Read(_db algo.DB, _cur algo.Cursor) (payload []byte, ok bool) {
	d, c := _db.(*db), _cur.(*cursor)
	results := make([]string, len(d.peers))
	for i, peer := range d.peers {
		p, o := peer.(algo.Reader).Read(d.dbs[i], c.cursors[i])
		results[i] = fmt.Sprintf("%t:%s", o, p)
		payload, ok = p, o
	}
	mismatch("read", results)
	return payload, ok
}

// Remove forwards to every peer, the same shared-payload / last-wins
// policy as Write governs which peer's returned previous value is
// surfaced.
func (e *Engine) Remove(_db algo.DB, _cur algo.Cursor) (previous []byte, hadPrevious bool) {
	d, c := _db.(*db), _cur.(*cursor)
	results := make([]string, len(d.peers))
	for i, peer := range d.peers {
		prev, had := peer.(algo.Remover).Remove(d.dbs[i], c.cursors[i])
		results[i] = fmt.Sprintf("%t:%s", had, prev)
		previous, hadPrevious = prev, had
	}
	mismatch("remove", results)
	return previous, hadPrevious
}
