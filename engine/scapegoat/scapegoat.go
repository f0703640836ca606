// Package scapegoat implements the scapegoat tree engine: a self-balancing
// binary search tree keyed by int64, using parent-linked nodes and the
// scapegoat rebuild strategy (spec.md §4.4). This is the production engine.
package scapegoat

import (
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"go.uber.org/zap"

	"github.com/azmodb/kvds/algo"
)

// factorNum/factorDen is the scapegoat balance factor alpha: the maximum permitted
// ratio of a child subtree's size to its parent's. Fixed at 10/16 per
// spec.md §3.
const (
	factorNum = 10
	factorDen = 16
)

type node struct {
	key     int64
	payload []byte

	left, right, parent *node
	size                int
}

func size(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func isLeft(n *node) bool {
	return n.parent != nil && n.parent.left == n
}

type db struct {
	top *node
}

type cursor struct {
	key  int64
	best *node // node under which key would be, were it to exist
}

// Option configures an Engine.
type Option func(*Engine)

// WithInvariantChecks enables or disables the recursive invariant walk
// (BST order, parent links, size, and scapegoat weight bound) run after
// every mutation. Violations are catastrophic: they indicate a bug in the
// engine, never a user error, and abort the process (spec.md §7).
func WithInvariantChecks(enabled bool) Option {
	return func(e *Engine) { e.checkInvariants = enabled }
}

// WithLogger attaches a logger used to report structural context just
// before an invariant violation panics. A nil logger (the default) means
// no diagnostic is logged; the panic still fires.
func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// Engine is the scapegoat tree storage algorithm.
type Engine struct {
	checkInvariants bool
	log             *zap.Logger
}

// New returns a scapegoat tree engine. By default invariant checks are
// disabled; enable them with WithInvariantChecks(true) for debug builds or
// fuzzing (see buildmode.InvariantChecksEnabled).
func New(opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	return e
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

func (e *Engine) CreateDB() algo.DB { return &db{} }

func (e *Engine) DestroyDB(_db algo.DB, dispose algo.Disposer) {
	d := _db.(*db)
	if d.top != nil {
		destroySubtree(d.top, dispose)
	}
	d.top = nil
}

func destroySubtree(n *node, dispose algo.Disposer) {
	dispose(n.payload)
	if n.left != nil {
		destroySubtree(n.left, dispose)
	}
	if n.right != nil {
		destroySubtree(n.right, dispose)
	}
}

// locate descends from the root toward key, stopping at the node at which
// a search for key would terminate: either the node itself, or its parent-
// to-be.
func locate(d *db, key int64) *node {
	best := d.top
	for best != nil && best.key != key {
		if key < best.key {
			if best.left == nil {
				break
			}
			best = best.left
		} else {
			if best.right == nil {
				break
			}
			best = best.right
		}
	}
	return best
}

// navigateLeft returns the in-order predecessor of n, or nil if n is the
// first node.
func navigateLeft(n *node) *node {
	if n.left != nil {
		r := n.left
		for r.right != nil {
			r = r.right
		}
		return r
	}
	for n.parent != nil {
		if n.parent.right == n {
			return n.parent
		}
		n = n.parent
	}
	return nil
}

// navigateRight returns the in-order successor of n, or nil if n is the
// last node.
func navigateRight(n *node) *node {
	if n.right != nil {
		r := n.right
		for r.left != nil {
			r = r.left
		}
		return r
	}
	for n.parent != nil {
		if n.parent.left == n {
			return n.parent
		}
		n = n.parent
	}
	return nil
}

// detach removes n from its current parent (or from the root, if n is the
// root). If updateSize, every ancestor from the old parent up has its size
// decremented by n.size.
func detach(d *db, n *node, updateSize bool) {
	switch {
	case n.parent == nil:
		d.top = nil
	case n.parent.left == n:
		n.parent.left = nil
	case n.parent.right == n:
		n.parent.right = nil
	default:
		panic("scapegoat: detach: node not a child of its own parent")
	}
	if updateSize {
		for p := n.parent; p != nil; p = p.parent {
			p.size -= n.size
		}
	}
	n.parent = nil
}

// attach installs n as a child of parent (or as the root, if parent is
// nil) on the given side, which must currently be empty. If updateSize,
// every ancestor from parent up has its size incremented by n.size.
func attach(d *db, n *node, parent *node, onLeft, updateSize bool) {
	n.parent = parent
	if parent == nil {
		d.top = n
	} else if onLeft {
		parent.left = n
	} else {
		parent.right = n
	}
	if updateSize {
		for p := n.parent; p != nil; p = p.parent {
			p.size += n.size
		}
	}
}

// rotate exchanges n with its parent. The child of n facing the old
// parent (middle) becomes a child of the old parent on n's original side.
func rotate(d *db, n *node) *node {
	parent := n.parent
	if parent == nil {
		panic("scapegoat: rotate: node has no parent")
	}
	left := parent.left == n
	middle := n.left
	if left {
		middle = n.right
	}
	grandparent := parent.parent
	parentWasLeft := isLeft(parent)

	detach(d, parent, true)
	detach(d, n, true)
	if middle != nil {
		detach(d, middle, true)
	}

	attach(d, parent, n, !left, true)
	attach(d, n, grandparent, parentWasLeft, true)
	if middle != nil {
		attach(d, middle, parent, left, true)
	}
	return n
}

// rebalanceFrom walks from n toward the root, finds the highest ancestor
// that fails the scapegoat weight bound, and rebuilds its subtree into a
// perfectly weight-balanced BST. No-op if n is nil or no ancestor fails.
func rebalanceFrom(d *db, n *node) {
	var scapegoat *node
	for ; n != nil; n = n.parent {
		left, right, total := size(n.left), size(n.right), size(n)
		if left*factorDen > total*factorNum || right*factorDen > total*factorNum {
			scapegoat = n
		}
	}
	if scapegoat != nil {
		rebuild(d, scapegoat, size(scapegoat))
	}
}

func collectInOrder(n *node, out []*node) []*node {
	if n == nil {
		return out
	}
	out = collectInOrder(n.left, out)
	out = append(out, n)
	out = collectInOrder(n.right, out)
	return out
}

func reparent(nodes []*node, parent *node) *node {
	if len(nodes) == 0 {
		return nil
	}
	mid := len(nodes) / 2
	median := nodes[mid]
	median.left = reparent(nodes[:mid], median)
	median.right = reparent(nodes[mid+1:], median)
	median.parent = parent
	median.size = 1 + size(median.left) + size(median.right)
	return median
}

// rebuild replaces the subtree rooted at old (of the given size) with a
// perfectly weight-balanced BST containing the same nodes.
func rebuild(d *db, old *node, count int) {
	parent := old.parent
	onLeft := isLeft(old)

	detach(d, old, false)

	nodes := make([]*node, 0, count)
	nodes = collectInOrder(old, nodes)

	newRoot := reparent(nodes, nil)

	attach(d, newRoot, parent, onLeft, false)
}

func (e *Engine) CreateCursor(_db algo.DB, key int64) algo.Cursor {
	d := _db.(*db)
	return &cursor{key: key, best: locate(d, key)}
}

func (e *Engine) MoveCursor(_db algo.DB, _cur algo.Cursor, key int64) {
	d, c := _db.(*db), _cur.(*cursor)
	c.key = key
	c.best = locate(d, key)
}

func (e *Engine) DestroyCursor(_ algo.DB, _ algo.Cursor) {}

func (e *Engine) Key(_ algo.DB, _cur algo.Cursor) int64 {
	return _cur.(*cursor).key
}

func (e *Engine) Exists(_ algo.DB, _cur algo.Cursor) bool {
	c := _cur.(*cursor)
	return c.best != nil && c.best.key == c.key
}

func (e *Engine) Write(_db algo.DB, _cur algo.Cursor, payload []byte) (previous []byte, hadPrevious bool) {
	d, c := _db.(*db), _cur.(*cursor)

	if c.best != nil && c.best.key == c.key {
		previous, hadPrevious = c.best.payload, true
		c.best.payload = payload
		return previous, hadPrevious
	}

	n := &node{key: c.key, payload: payload, size: 1}
	onLeft := c.best != nil && n.key < c.best.key
	attach(d, n, c.best, onLeft, true)
	rebalanceFrom(d, n)

	c.best = n
	e.assertInvariants(d, "write")
	return nil, false
}

func (e *Engine) Read(_ algo.DB, _cur algo.Cursor) (payload []byte, ok bool) {
	c := _cur.(*cursor)
	if c.best != nil && c.best.key == c.key {
		return c.best.payload, true
	}
	return nil, false
}

func (e *Engine) Remove(_db algo.DB, _cur algo.Cursor) (previous []byte, hadPrevious bool) {
	d, c := _db.(*db), _cur.(*cursor)

	if c.best == nil || c.best.key != c.key {
		return nil, false
	}

	target := c.best
	payload := target.payload

	var victim *node
	if target.left != nil || target.right != nil {
		if size(target.right) > size(target.left) {
			victim = target.right
			for victim.left != nil {
				victim = victim.left
			}
			if victim.right != nil {
				rotate(d, victim.right)
			}
		} else {
			victim = target.left
			for victim.right != nil {
				victim = victim.right
			}
			if victim.left != nil {
				rotate(d, victim.left)
			}
		}
	}

	oldParent := target.parent
	oldWasLeft := isLeft(target)

	detach(d, target, true)

	var rebalanceRoot *node
	if victim != nil {
		left, right := target.left, target.right
		if left != nil {
			detach(d, left, true)
		}
		if right != nil {
			detach(d, right, true)
		}

		rebalanceRoot = victim
		if left != victim && right != victim {
			rebalanceRoot = victim.parent
			detach(d, victim, true)
		}

		if left != victim && left != nil {
			attach(d, left, victim, true, true)
		}
		if right != victim && right != nil {
			attach(d, right, victim, false, true)
		}
		attach(d, victim, oldParent, oldWasLeft, true)

		rebalanceFrom(d, rebalanceRoot)
	} else {
		rebalanceFrom(d, oldParent)
	}

	c.best = locate(d, c.key)

	e.assertInvariants(d, "remove")
	return payload, true
}

func (e *Engine) Snap(_ algo.DB, _cur algo.Cursor, dir algo.Direction) {
	c := _cur.(*cursor)
	if c.best == nil {
		return // empty database, nothing to find
	}

	switch dir {
	case algo.SnapHigher:
		if c.best.key <= c.key {
			if alt := navigateRight(c.best); alt != nil {
				c.best = alt
			}
		}
	case algo.SnapLower:
		if c.key <= c.best.key {
			if alt := navigateLeft(c.best); alt != nil {
				c.best = alt
			}
		}
	case algo.SnapClosest:
		if c.best.key != c.key {
			var left, right *node
			if c.key < c.best.key {
				left, right = navigateLeft(c.best), c.best
			} else {
				left, right = c.best, navigateRight(c.best)
			}
			if left != nil && right != nil {
				if c.key-left.key <= right.key-c.key {
					c.best = left
				} else {
					c.best = right
				}
			}
		}
	}
	c.key = c.best.key
}

// assertInvariants runs the recursive BST/size/scapegoat-bound check when
// invariant checks are enabled. A violation is logged (if a logger was
// configured) and then panics: a failure here is a bug in the engine
// itself, never a recoverable user error (spec.md §7).
func (e *Engine) assertInvariants(d *db, op string) {
	if !e.checkInvariants {
		return
	}
	if d.top == nil {
		return
	}
	if d.top.parent != nil {
		e.fail(op, d.top, "root has a parent")
	}
	checkSubtree(e, op, d.top)
}

func checkSubtree(e *Engine, op string, n *node) (min, max int64) {
	min, max = n.key, n.key
	leftSize, rightSize := 0, 0

	if n.left != nil {
		if n.left.parent != n {
			e.fail(op, n, "left child's parent pointer does not point back")
		}
		lmin, lmax := checkSubtree(e, op, n.left)
		if lmax >= n.key {
			e.fail(op, n, "left subtree not strictly less than node")
		}
		min = lmin
		leftSize = n.left.size
	}
	if n.right != nil {
		if n.right.parent != n {
			e.fail(op, n, "right child's parent pointer does not point back")
		}
		rmin, rmax := checkSubtree(e, op, n.right)
		if rmin <= n.key {
			e.fail(op, n, "right subtree not strictly greater than node")
		}
		max = rmax
		rightSize = n.right.size
	}

	if n.size != 1+leftSize+rightSize {
		e.fail(op, n, "size does not match 1+size(left)+size(right)")
	}
	if leftSize*factorDen > n.size*factorNum {
		e.fail(op, n, "left subtree exceeds the scapegoat weight bound")
	}
	if rightSize*factorDen > n.size*factorNum {
		e.fail(op, n, "right subtree exceeds the scapegoat weight bound")
	}
	return min, max
}

func (e *Engine) fail(op string, n *node, reason string) {
	if e.log != nil {
		e.log.Error("scapegoat tree invariant violation",
			zap.String("op", op),
			zap.Int64("key", n.key),
			zap.Int("size", n.size),
			zap.String("reason", reason),
			zap.String("tree", DumpTree(n)),
		)
	}
	panic(fmt.Sprintf("scapegoat: invariant violation during %s at key %d: %s", op, n.key, reason))
}

// snapshot is a plain-data mirror of a node subtree, built so spew has no
// parent back-pointers to chase (dumping node directly would walk parent
// links back up and reprint ancestors for every descendant).
type snapshot struct {
	Key   int64
	Size  int
	Left  *snapshot
	Right *snapshot
}

func snapshotOf(n *node) *snapshot {
	if n == nil {
		return nil
	}
	return &snapshot{Key: n.key, Size: n.size, Left: snapshotOf(n.left), Right: snapshotOf(n.right)}
}

// DumpTree renders the subtree rooted at n as an indented dump suitable for
// a log line or a test failure message, the Go counterpart to the source's
// debug tree printer (see original_source's scapegoat_tree.c).
func DumpTree(n *node) string {
	if n == nil {
		return "<empty>"
	}
	return spew.Sdump(snapshotOf(n))
}
