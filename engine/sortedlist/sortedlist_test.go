package sortedlist

import (
	"testing"

	"github.com/azmodb/kvds/algo"
)

func TestEmptyDatabase(t *testing.T) {
	e := Engine{}
	db := e.CreateDB()
	cur := e.CreateCursor(db, 42)

	if e.Exists(db, cur) {
		t.Fatalf("Exists on empty database: want false")
	}
	if _, ok := e.Read(db, cur); ok {
		t.Fatalf("Read on empty database: want ok=false")
	}
	if _, had := e.Remove(db, cur); had {
		t.Fatalf("Remove on empty database: want hadPrevious=false")
	}
	for _, dir := range []algo.Direction{algo.SnapLower, algo.SnapHigher, algo.SnapClosest} {
		e.Snap(db, cur, dir) // must not panic, must stay a no-op
	}
	if k := e.Key(db, cur); k != 42 {
		t.Fatalf("Snap on empty database moved the cursor: key = %d", k)
	}

	e.DestroyCursor(db, cur)
	e.DestroyDB(db, func([]byte) { t.Fatalf("dispose called on empty database") })
}

func TestWriteReadRoundTrip(t *testing.T) {
	e := Engine{}
	db := e.CreateDB()
	cur := e.CreateCursor(db, 5)

	if prev, had := e.Write(db, cur, []byte("hello")); had || prev != nil {
		t.Fatalf("Write: unexpected previous %q", prev)
	}
	if !e.Exists(db, cur) {
		t.Fatalf("Exists after write: want true")
	}
	payload, ok := e.Read(db, cur)
	if !ok || string(payload) != "hello" {
		t.Fatalf("Read after write: got (%q, %v)", payload, ok)
	}
}

func TestWriteOverwriteReturnsPrevious(t *testing.T) {
	e := Engine{}
	db := e.CreateDB()
	cur := e.CreateCursor(db, 5)

	e.Write(db, cur, []byte("v1"))
	prev, had := e.Write(db, cur, []byte("v2"))
	if !had || string(prev) != "v1" {
		t.Fatalf("Write overwrite: got (%q, %v), want (v1, true)", prev, had)
	}
	payload, _ := e.Read(db, cur)
	if string(payload) != "v2" {
		t.Fatalf("Read after overwrite: got %q, want v2", payload)
	}
}

func TestRemoveInvertsWrite(t *testing.T) {
	e := Engine{}
	db := e.CreateDB()
	cur := e.CreateCursor(db, 5)

	e.Write(db, cur, []byte("hello"))
	prev, had := e.Remove(db, cur)
	if !had || string(prev) != "hello" {
		t.Fatalf("Remove: got (%q, %v), want (hello, true)", prev, had)
	}
	if e.Exists(db, cur) {
		t.Fatalf("Exists after remove: want false")
	}
}

func TestOrderingSnapHigherLower(t *testing.T) {
	e := Engine{}
	db := e.CreateDB()
	keys := []int64{30, 10, 20}
	for _, k := range keys {
		cur := e.CreateCursor(db, k)
		e.Write(db, cur, []byte("x"))
		e.DestroyCursor(db, cur)
	}

	cur := e.CreateCursor(db, -1<<62)
	var visited []int64
	e.Snap(db, cur, algo.SnapHigher)
	visited = append(visited, e.Key(db, cur))
	for i := 0; i < len(keys)-1; i++ {
		e.MoveCursor(db, cur, e.Key(db, cur)+1)
		e.Snap(db, cur, algo.SnapHigher)
		visited = append(visited, e.Key(db, cur))
	}
	want := []int64{10, 20, 30}
	for i := range want {
		if visited[i] != want[i] {
			t.Fatalf("visit order = %v, want %v", visited, want)
		}
	}

	e.MoveCursor(db, cur, 1<<62)
	visited = visited[:0]
	e.Snap(db, cur, algo.SnapLower)
	visited = append(visited, e.Key(db, cur))
	for i := 0; i < len(keys)-1; i++ {
		e.MoveCursor(db, cur, e.Key(db, cur)-1)
		e.Snap(db, cur, algo.SnapLower)
		visited = append(visited, e.Key(db, cur))
	}
	wantDown := []int64{30, 20, 10}
	for i := range wantDown {
		if visited[i] != wantDown[i] {
			t.Fatalf("lower visit order = %v, want %v", visited, wantDown)
		}
	}
}

func TestSnapClosestTieBreaksLow(t *testing.T) {
	e := Engine{}
	db := e.CreateDB()
	for _, k := range []int64{10, 20} {
		cur := e.CreateCursor(db, k)
		e.Write(db, cur, []byte("x"))
		e.DestroyCursor(db, cur)
	}

	cur := e.CreateCursor(db, 15)
	e.Snap(db, cur, algo.SnapClosest)
	if k := e.Key(db, cur); k != 10 {
		t.Fatalf("Snap closest tie: got %d, want 10 (lower)", k)
	}
}
