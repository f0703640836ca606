package comparator

import (
	"testing"

	"github.com/azmodb/kvds/algo"
	"github.com/azmodb/kvds/engine/scapegoat"
	"github.com/azmodb/kvds/engine/sortedlist"
	"github.com/azmodb/kvds/registry"
)

func newTestRegistry() (*registry.Registry, *Engine) {
	r := registry.New()

	var list algo.Engine = sortedlist.Engine{}
	r.Register(registry.Entry{Name: "linkedlist", Engine: list})

	var tree algo.Engine = scapegoat.New(scapegoat.WithInvariantChecks(true))
	r.Register(registry.Entry{Name: "scapegoat", Engine: tree})

	cmp := New(r)
	var cmpEngine algo.Engine = cmp
	r.Register(registry.Entry{Name: "compare", Engine: cmpEngine})

	return r, cmp
}

func TestComparatorAgreesAcrossPeers(t *testing.T) {
	_, cmp := newTestRegistry()

	db := cmp.CreateDB()
	cur := cmp.CreateCursor(db, 5)

	if cmp.Exists(db, cur) {
		t.Fatalf("Exists on empty database: want false")
	}

	cmp.Write(db, cur, []byte("hello"))
	if !cmp.Exists(db, cur) {
		t.Fatalf("Exists after write: want true")
	}
	payload, ok := cmp.Read(db, cur)
	if !ok || string(payload) != "hello" {
		t.Fatalf("Read after write: got (%q, %v)", payload, ok)
	}

	prev, had := cmp.Write(db, cur, []byte("world"))
	if !had || string(prev) != "hello" {
		t.Fatalf("overwrite: got (%q, %v), want (hello, true)", prev, had)
	}

	cmp.MoveCursor(db, cur, 1)
	cmp.Write(db, cur, []byte("a"))
	cmp.MoveCursor(db, cur, 10)
	cmp.Write(db, cur, []byte("z"))

	cmp.MoveCursor(db, cur, 5)
	cmp.Snap(db, cur, algo.SnapHigher)
	if k := cmp.Key(db, cur); k != 10 {
		t.Fatalf("snap higher from 5: got %d, want 10", k)
	}

	cmp.MoveCursor(db, cur, 5)
	cmp.Snap(db, cur, algo.SnapLower)
	if k := cmp.Key(db, cur); k != 1 {
		t.Fatalf("snap lower from 5: got %d, want 1", k)
	}

	prev, had = cmp.Remove(db, cur)
	if !had || string(prev) != "a" {
		t.Fatalf("remove: got (%q, %v), want (a, true)", prev, had)
	}
	if cmp.Exists(db, cur) {
		t.Fatalf("Exists after remove: want false")
	}

	cmp.DestroyCursor(db, cur)
	cmp.DestroyDB(db, func([]byte) {})
}

func TestComparatorExcludesItself(t *testing.T) {
	r, cmp := newTestRegistry()
	peers := registry.Peers(r, algo.Engine(cmp))
	if len(peers) != 2 {
		t.Fatalf("peers = %d, want 2 (comparator must exclude itself)", len(peers))
	}
}
