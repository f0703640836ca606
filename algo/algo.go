// Package algo defines the contract every storage engine must satisfy: the
// cursor-oriented operations, the ownership rules for payloads, and the
// snap directions used for neighbor lookups.
package algo

// Direction selects how Snap repositions a cursor onto a stored entry.
type Direction int

const (
	// SnapLower moves the cursor to the greatest stored key < the
	// cursor's key, or to the smallest stored key if none is <. When no
	// entry is stored at the cursor's key this is the greatest key <= it;
	// when one is, the cursor steps to the previous stored key.
	SnapLower Direction = iota
	// SnapHigher moves the cursor to the smallest stored key > the
	// cursor's key, or to the largest stored key if none is >. When no
	// entry is stored at the cursor's key this is the smallest key >= it;
	// when one is, the cursor steps to the next stored key.
	SnapHigher
	// SnapClosest moves the cursor to the stored key nearest the
	// cursor's key, ties broken toward the lower key.
	SnapClosest
)

func (d Direction) String() string {
	switch d {
	case SnapLower:
		return "lower"
	case SnapHigher:
		return "higher"
	case SnapClosest:
		return "closest"
	default:
		return "unknown"
	}
}

// DB is an opaque database handle owned by the engine that created it.
type DB interface{}

// Cursor is an opaque cursor handle, borrowed from the database that
// created it. A cursor must not outlive its database.
type Cursor interface{}

// Disposer is invoked once per payload still stored when a database is
// destroyed. It is the caller's hook to release payload memory.
type Disposer func(payload []byte)

// Engine is the uniform contract a storage algorithm exposes. CreateDB,
// DestroyDB, CreateCursor and DestroyCursor are mandatory; every other
// operation is optional and advertised through the capability interfaces
// below (Mover, Keyer, Exister, Snapper, Reader, Writer, Remover). A
// caller that type-asserts for a capability an engine lacks must treat its
// absence as the "unimplemented command" outcome (see package repl).
type Engine interface {
	// CreateDB returns a fresh, empty database.
	CreateDB() DB

	// DestroyDB releases db, calling dispose exactly once for each
	// payload still stored. DestroyDB may assume no cursor over db is
	// still alive.
	DestroyDB(db DB, dispose Disposer)

	// CreateCursor returns a new cursor over db, positioned at key.
	CreateCursor(db DB, key int64) Cursor

	// DestroyCursor releases cursor. db must outlive cursor.
	DestroyCursor(db DB, cursor Cursor)
}

// Mover repositions an existing cursor. Engines that cannot reposition in
// place leave this unimplemented; callers then destroy and recreate the
// cursor (see package repl and package comparator).
type Mover interface {
	MoveCursor(db DB, cursor Cursor, key int64)
}

// Keyer returns the key a cursor currently addresses.
type Keyer interface {
	Key(db DB, cursor Cursor) int64
}

// Exister reports whether an entry is stored at the cursor's key.
type Exister interface {
	Exists(db DB, cursor Cursor) bool
}

// Snapper repositions a cursor onto a stored entry per Direction. Snap is
// a no-op on an empty database.
type Snapper interface {
	Snap(db DB, cursor Cursor, dir Direction)
}

// Writer installs a payload at the cursor's key. Ownership of payload
// transfers to the database; if an entry previously existed there, its
// payload is returned with ownership transferred to the caller. After
// Write returns, the cursor addresses the written entry and Exists is
// true for it.
type Writer interface {
	Write(db DB, cursor Cursor, payload []byte) (previous []byte, hadPrevious bool)
}

// Reader returns a borrowed view of the stored payload at the cursor's
// key, valid until the next mutation on db. ok is false if no entry is
// stored there.
type Reader interface {
	Read(db DB, cursor Cursor) (payload []byte, ok bool)
}

// Remover deletes the entry at the cursor's key, if any, and returns its
// payload with ownership transferred to the caller. After Remove returns,
// Exists is false at the cursor's (unchanged) key.
type Remover interface {
	Remove(db DB, cursor Cursor) (previous []byte, hadPrevious bool)
}
