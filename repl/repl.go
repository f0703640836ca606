// Package repl implements the line-oriented command layer described in
// spec.md §6: tokenizing input lines into commands, dispatching each
// against one acquired cursor, and translating the algo capability
// contract into the small set of error kinds spec.md §7 names. This layer
// is explicitly "not the core" (spec.md §1) — it is the external
// collaborator the core's contract is written for.
package repl

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/azmodb/kvds/algo"
)

// Kind is one of the four error kinds spec.md §7 names: OK, Invalid,
// Unimplemented, and the pseudo-error Quit that signals clean
// termination. All other failures are fatal (they panic, per the engines'
// own invariant checks) rather than surfacing as a Kind.
type Kind int

const (
	OK Kind = iota
	Invalid
	Unimplemented
	Quit
)

// String renders the diagnostic text printed after "Error: " for any
// non-OK, non-Quit kind, matching the source's kvds_describe_error.
func (k Kind) String() string {
	switch k {
	case OK:
		return ""
	case Invalid:
		return "Invalid command"
	case Unimplemented:
		return "Unimplemented command"
	case Quit:
		return "Quit"
	default:
		return "Unknown Error"
	}
}

// State holds one REPL session's acquired resources: the engine, its
// database, and the single cursor every command addresses. A session is
// tagged with a UUID attached to every log line it emits, the same
// correlation-id pattern the retrieval pack's edirooss/zmux-server uses
// for HTTP request IDs.
type State struct {
	engine    algo.Engine
	db        algo.DB
	cursor    algo.Cursor
	log       *zap.Logger
	sessionID uuid.UUID
}

// NewState acquires a database and a cursor at key 0 from engine, in that
// order, per spec.md §1's "acquire a cursor, issue operations, release
// resources in order" contract. log may be nil.
func NewState(engine algo.Engine, log *zap.Logger) *State {
	id := uuid.New()
	if log != nil {
		log = log.With(zap.String("session", id.String()))
	}
	db := engine.CreateDB()
	cursor := engine.CreateCursor(db, 0)
	return &State{engine: engine, db: db, cursor: cursor, log: log, sessionID: id}
}

// Close releases the cursor and then the database, in that order.
func (s *State) Close() {
	s.engine.DestroyCursor(s.db, s.cursor)
	s.engine.DestroyDB(s.db, func(_ []byte) {})
}

// word splits off the next whitespace-delimited token from line, skipping
// any leading run of spaces or newlines, mirroring commands.c's manual
// scan rather than a regexp or strings.Fields (which would discard the
// distinction between "no more input" and "input starts a new command").
func word(line string) (tok, rest string) {
	line = strings.TrimLeft(line, " \n")
	if line == "" {
		return "", ""
	}
	i := strings.IndexAny(line, " \n")
	if i < 0 {
		return line, ""
	}
	return line[:i], line[i+1:]
}

// leadingInt skips any leading run of spaces or newlines, then parses an
// optional sign followed by decimal digits, like C's strtoll (which skips
// leading whitespace itself), returning the unconsumed remainder.
func leadingInt(s string) (value int64, rest string, ok bool) {
	s = strings.TrimLeft(s, " \n")
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	start := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == start {
		return 0, s, false
	}
	n, err := strconv.ParseInt(s[:i], 10, 64)
	if err != nil {
		return 0, s, false
	}
	return n, s[i:], true
}

const helpText = `Available commands:
  select, s [key] - Move the cursor to key
  key, k - Print current key
  exists, e - Print whether current key exists
  write, w [data...] - Write data at cursor
  read, r - Print data at cursor
  delete, d - Delete data at cursor
  prev, p, < - Move cursor left
  next, n, > - Move cursor right
  closest, c - Move cursor to closest
  # - Comment
  help, ? - Print this message
`

// Execute tokenizes line into one or more commands and runs each against
// s's cursor in order, writing command output to out. It returns the Kind
// of the first command that did not return OK, stopping there exactly
// like commands.c's kvds_execute_command (a line's remaining commands are
// not executed once one fails).
func (s *State) Execute(line string, out io.Writer) Kind {
	for line != "" {
		var tok string
		tok, line = word(line)
		if tok == "" {
			break
		}

		switch tok {
		case "select", "s":
			var key int64
			key, line, _ = leadingInt(line)
			if mover, ok := s.engine.(algo.Mover); ok {
				mover.MoveCursor(s.db, s.cursor, key)
			} else {
				s.engine.DestroyCursor(s.db, s.cursor)
				s.cursor = s.engine.CreateCursor(s.db, key)
			}

		case "key", "k":
			keyer, ok := s.engine.(algo.Keyer)
			if !ok {
				return Unimplemented
			}
			fmt.Fprintf(out, "%d\n", keyer.Key(s.db, s.cursor))

		case "exists", "e":
			exister, ok := s.engine.(algo.Exister)
			if !ok {
				return Unimplemented
			}
			if exister.Exists(s.db, s.cursor) {
				fmt.Fprintf(out, "yes\n")
			} else {
				fmt.Fprintf(out, "no\n")
			}

		case "read", "r":
			reader, ok := s.engine.(algo.Reader)
			if !ok {
				return Unimplemented
			}
			payload, has := reader.Read(s.db, s.cursor)
			if !has {
				fmt.Fprintf(out, "(nil)\n")
			} else {
				fmt.Fprintf(out, "%s", payload)
			}

		case "write", "w":
			writer, ok := s.engine.(algo.Writer)
			if !ok {
				return Unimplemented
			}
			data := strings.TrimLeft(line, " \n")
			line = ""
			writer.Write(s.db, s.cursor, []byte(data)) // previous payload is discarded: ownership transfers to us and we let it go

		case "delete", "d":
			remover, ok := s.engine.(algo.Remover)
			if !ok {
				return Unimplemented
			}
			remover.Remove(s.db, s.cursor) // previous payload discarded, same as write

		case "prev", "p", "<":
			snapper, ok := s.engine.(algo.Snapper)
			if !ok {
				return Unimplemented
			}
			snapper.Snap(s.db, s.cursor, algo.SnapLower)

		case "next", "n", ">":
			snapper, ok := s.engine.(algo.Snapper)
			if !ok {
				return Unimplemented
			}
			snapper.Snap(s.db, s.cursor, algo.SnapHigher)

		case "closest", "c":
			snapper, ok := s.engine.(algo.Snapper)
			if !ok {
				return Unimplemented
			}
			snapper.Snap(s.db, s.cursor, algo.SnapClosest)

		case "#":
			return OK // rest of the line is a comment

		case "help", "?":
			fmt.Fprint(out, helpText)

		case "quit", "q":
			return Quit

		default:
			return Invalid
		}
	}
	return OK
}
