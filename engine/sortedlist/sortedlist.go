// Package sortedlist implements the sorted doubly linked list engine: the
// simplest correct implementation of the kvds contract, serving as a
// trivially-correct oracle and a baseline for the scapegoat tree (spec.md
// §4.3). Locate is O(N); every other operation is O(1) once located.
package sortedlist

import "github.com/azmodb/kvds/algo"

type node struct {
	key     int64
	payload []byte

	prev *node // lower
	next *node // higher
}

type db struct {
	head *node // lowest
	tail *node // highest
}

type cursor struct {
	key  int64
	best *node // nearby node: exact match, or one of the two neighbors
}

// Engine is the sorted-list storage algorithm. The zero value is ready to
// use; Engine holds no state of its own, all state lives in the *db and
// *cursor handles it hands out.
type Engine struct{}

var (
	_ algo.Engine   = Engine{}
	_ algo.Mover    = Engine{}
	_ algo.Keyer    = Engine{}
	_ algo.Exister  = Engine{}
	_ algo.Snapper  = Engine{}
	_ algo.Writer   = Engine{}
	_ algo.Reader   = Engine{}
	_ algo.Remover  = Engine{}
)

func (Engine) CreateDB() algo.DB { return &db{} }

func (Engine) DestroyDB(_db algo.DB, dispose algo.Disposer) {
	d := _db.(*db)
	for n := d.head; n != nil; {
		next := n.next
		dispose(n.payload)
		n = next
	}
}

// locate walks from anchor (or, if anchor is nil, from whichever endpoint
// is numerically nearer) toward key, following next while strictly less
// than key or prev while strictly greater, stopping at the node closest to
// key on the walked side (clamped to head/tail at the ends).
func locate(d *db, anchor *node, key int64) *node {
	n := anchor
	if n == nil {
		if d.head == nil {
			return nil // empty list
		}
		if d.tail.key-key < key-d.head.key {
			n = d.tail
		} else {
			n = d.head
		}
	}

	if n.key > key {
		for n != nil && n.key > key {
			n = n.prev
		}
		if n == nil {
			return d.head
		}
		return n
	} else if n.key < key {
		for n != nil && n.key < key {
			n = n.next
		}
		if n == nil {
			return d.tail
		}
		return n
	}
	return n
}

func (Engine) CreateCursor(_db algo.DB, key int64) algo.Cursor {
	d := _db.(*db)
	return &cursor{key: key, best: locate(d, nil, key)}
}

func (Engine) MoveCursor(_db algo.DB, _cur algo.Cursor, key int64) {
	d, c := _db.(*db), _cur.(*cursor)
	c.best = locate(d, c.best, key)
	c.key = key
}

func (Engine) DestroyCursor(_ algo.DB, _ algo.Cursor) {}

func (Engine) Key(_ algo.DB, _cur algo.Cursor) int64 {
	return _cur.(*cursor).key
}

func (Engine) Exists(_ algo.DB, _cur algo.Cursor) bool {
	c := _cur.(*cursor)
	return c.best != nil && c.best.key == c.key
}

func (Engine) Write(_db algo.DB, _cur algo.Cursor, payload []byte) (previous []byte, hadPrevious bool) {
	d, c := _db.(*db), _cur.(*cursor)

	if c.best != nil && c.best.key == c.key {
		previous, hadPrevious = c.best.payload, true
		c.best.payload = payload
		return previous, hadPrevious
	}

	n := &node{key: c.key, payload: payload}

	if c.best == nil { // first node in the list
		d.head = n
		d.tail = n
	} else {
		if c.best.key < c.key {
			n.prev = c.best
			n.next = c.best.next
		} else {
			n.prev = c.best.prev
			n.next = c.best
		}

		if n.next != nil {
			n.next.prev = n
		} else {
			d.tail = n
		}
		if n.prev != nil {
			n.prev.next = n
		} else {
			d.head = n
		}
	}

	c.best = n
	return nil, false
}

func (Engine) Read(_ algo.DB, _cur algo.Cursor) (payload []byte, ok bool) {
	c := _cur.(*cursor)
	if c.best != nil && c.best.key == c.key {
		return c.best.payload, true
	}
	return nil, false
}

func (Engine) Remove(_db algo.DB, _cur algo.Cursor) (previous []byte, hadPrevious bool) {
	d, c := _db.(*db), _cur.(*cursor)

	if c.best == nil || c.best.key != c.key {
		return nil, false
	}

	old := c.best

	if old.next != nil {
		old.next.prev = old.prev
	} else {
		d.tail = old.prev
	}
	if old.prev != nil {
		old.prev.next = old.next
	} else {
		d.head = old.next
	}

	if old.next != nil {
		c.best = old.next
	} else {
		c.best = old.prev // either neighbor is fine, prefer next when present
	}

	return old.payload, true
}

func (Engine) Snap(_ algo.DB, _cur algo.Cursor, dir algo.Direction) {
	c := _cur.(*cursor)
	if c.best == nil {
		return // nothing stored, nothing to find
	}

	switch dir {
	case algo.SnapClosest:
		if c.best.key != c.key {
			var left, right *node
			if c.key < c.best.key {
				left, right = c.best.prev, c.best
			} else {
				left, right = c.best, c.best.next
			}
			if left != nil && right != nil {
				if c.key-left.key <= right.key-c.key {
					c.best = left
				} else {
					c.best = right
				}
			}
		}
	case algo.SnapHigher:
		if c.key >= c.best.key && c.best.next != nil {
			c.best = c.best.next
		}
	case algo.SnapLower:
		if c.key <= c.best.key && c.best.prev != nil {
			c.best = c.best.prev
		}
	}
	c.key = c.best.key
}
