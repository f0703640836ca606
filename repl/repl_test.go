package repl

import (
	"strings"
	"testing"

	"github.com/azmodb/kvds/engine/scapegoat"
	"github.com/azmodb/kvds/engine/sortedlist"
)

// TestScenarioBasicWriteReadKey is spec.md §8 scenario (a):
// `s 5; w hello; k; r; e` -> `5`, `hello`, `yes`.
func TestScenarioBasicWriteReadKey(t *testing.T) {
	for _, name := range []string{"scapegoat", "sortedlist"} {
		t.Run(name, func(t *testing.T) {
			s, out := newSession(t, name)
			defer s.Close()

			if kind := s.Execute("s 5", out); kind != OK {
				t.Fatalf("select: kind = %v", kind)
			}
			if kind := s.Execute("w hello", out); kind != OK {
				t.Fatalf("write: kind = %v", kind)
			}
			if kind := s.Execute("k", out); kind != OK {
				t.Fatalf("key: kind = %v", kind)
			}
			if kind := s.Execute("r", out); kind != OK {
				t.Fatalf("read: kind = %v", kind)
			}
			if kind := s.Execute("e", out); kind != OK {
				t.Fatalf("exists: kind = %v", kind)
			}

			want := "5\nhelloyes\n"
			if out.String() != want {
				t.Fatalf("output = %q, want %q", out.String(), want)
			}
		})
	}
}

// TestScenarioDeleteThenMiss is spec.md §8 scenario (b):
// `s 5; w hello; s 5; d; e; r` -> `no`, `(nil)`.
func TestScenarioDeleteThenMiss(t *testing.T) {
	for _, name := range []string{"scapegoat", "sortedlist"} {
		t.Run(name, func(t *testing.T) {
			s, out := newSession(t, name)
			defer s.Close()

			run(t, s, out, "s 5")
			run(t, s, out, "w hello")
			run(t, s, out, "s 5")
			run(t, s, out, "d")
			run(t, s, out, "e")
			run(t, s, out, "r")

			want := "no\n(nil)\n"
			if out.String() != want {
				t.Fatalf("output = %q, want %q", out.String(), want)
			}
		})
	}
}

// TestScenarioSnapNeighborsAndClosest is spec.md §8 scenario (c):
// `s 10; w a; s 20; w b; s 30; w c; s 15; >; k; s 15; <; k; s 15; c; k`
// -> `20`, `10`, `10` (ties break to the lower key).
func TestScenarioSnapNeighborsAndClosest(t *testing.T) {
	for _, name := range []string{"scapegoat", "sortedlist"} {
		t.Run(name, func(t *testing.T) {
			s, out := newSession(t, name)
			defer s.Close()

			run(t, s, out, "s 10")
			run(t, s, out, "w a")
			run(t, s, out, "s 20")
			run(t, s, out, "w b")
			run(t, s, out, "s 30")
			run(t, s, out, "w c")

			run(t, s, out, "s 15")
			run(t, s, out, ">")
			run(t, s, out, "k")

			run(t, s, out, "s 15")
			run(t, s, out, "<")
			run(t, s, out, "k")

			run(t, s, out, "s 15")
			run(t, s, out, "c")
			run(t, s, out, "k")

			want := "20\n10\n10\n"
			if out.String() != want {
				t.Fatalf("output = %q, want %q", out.String(), want)
			}
		})
	}
}

// TestScenarioQuitMidSession is spec.md §8 scenario (f): quit mid-session
// returns the Quit kind, and commands after it in the same line never run.
func TestScenarioQuitMidSession(t *testing.T) {
	s, out := newSession(t, "scapegoat")
	defer s.Close()

	if kind := s.Execute("s 1 q k", out); kind != Quit {
		t.Fatalf("kind = %v, want Quit", kind)
	}
	if out.String() != "" {
		t.Fatalf("output after quit = %q, want empty (k must not run)", out.String())
	}
}

func TestInvalidCommand(t *testing.T) {
	s, out := newSession(t, "scapegoat")
	defer s.Close()

	if kind := s.Execute("bogus", out); kind != Invalid {
		t.Fatalf("kind = %v, want Invalid", kind)
	}
}

func TestCommentTruncatesRestOfLine(t *testing.T) {
	s, out := newSession(t, "scapegoat")
	defer s.Close()

	if kind := s.Execute("s 1 # w should-not-run", out); kind != OK {
		t.Fatalf("kind = %v, want OK", kind)
	}
	if kind := s.Execute("k", out); kind != OK {
		t.Fatalf("kind = %v", kind)
	}
	if got := out.String(); got != "1\n" {
		t.Fatalf("output = %q, want %q", got, "1\n")
	}
}

func newSession(t *testing.T, engineName string) (*State, *strings.Builder) {
	t.Helper()
	switch engineName {
	case "scapegoat":
		return NewState(scapegoat.New(scapegoat.WithInvariantChecks(true)), nil), &strings.Builder{}
	case "sortedlist":
		return NewState(sortedlist.Engine{}, nil), &strings.Builder{}
	default:
		t.Fatalf("unknown engine %q", engineName)
		return nil, nil
	}
}

func run(t *testing.T, s *State, out *strings.Builder, line string) {
	t.Helper()
	if kind := s.Execute(line, out); kind != OK {
		t.Fatalf("Execute(%q): kind = %v", line, kind)
	}
}
