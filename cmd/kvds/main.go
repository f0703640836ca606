// Command kvds is the line-oriented CLI front end for the kvds store
// (spec.md §6). It selects a storage engine by name, then runs a REPL over
// standard input until EOF or "quit".
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"

	"github.com/azmodb/kvds"
	"github.com/azmodb/kvds/buildmode"
	"github.com/azmodb/kvds/registry"
	"github.com/azmodb/kvds/repl"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin *os.File, stdout io.Writer, stderr io.Writer) int {
	fs := flag.NewFlagSet("kvds", flag.ContinueOnError)
	fs.SetOutput(stderr)
	verbose := fs.Bool("v", false, "log scapegoat-engine invariant diagnostics")
	forceCompare := fs.Bool("compare", false, "force the comparator engine regardless of build mode (see spec.md §9)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	rest := fs.Args()

	log := zap.NewNop()
	if *verbose {
		logConfig := zap.NewDevelopmentConfig()
		logConfig.DisableStacktrace = true
		built, err := logConfig.Build()
		if err == nil {
			log = built
			defer log.Sync()
		}
	}
	log = log.Named("kvds")

	reg := kvds.NewRegistry(log.Named("scapegoat"), buildmode.InvariantChecksEnabled)

	algoName := buildmode.DefaultAlgorithm
	if *forceCompare {
		algoName = "compare"
	}

	if len(rest) == 1 {
		switch rest[0] {
		case "help", "-h", "--help":
			printUsage(stderr, os.Args[0], reg)
			return 0
		default:
			algoName = rest[0]
		}
	}
	if len(rest) > 1 {
		fmt.Fprintln(stderr, "Error: Too many arguments.")
		printUsage(stderr, os.Args[0], reg)
		return 2
	}

	engine, ok := reg.Lookup(algoName)
	if !ok {
		fmt.Fprintf(stderr, "Error: No such algorithm: %s\n", algoName)
		printUsage(stderr, os.Args[0], reg)
		return 2
	}

	interactive := isatty.IsTerminal(stdin.Fd())

	state := repl.NewState(engine, log)
	defer state.Close()

	if interactive {
		fmt.Fprintf(stderr, "Created a database with algorithm: %s\n", algoName)
		fmt.Fprintln(stderr, `Use "help" for a list of commands.`)
	}

	exitCode := 0
	scanner := bufio.NewScanner(stdin)
	for {
		if interactive {
			fmt.Fprint(stderr, "> ")
			if f, ok := stderr.(*os.File); ok {
				f.Sync()
			}
		}
		if !scanner.Scan() {
			break
		}

		kind := state.Execute(scanner.Text(), stdout)
		if kind == repl.Quit {
			return 0
		}
		if kind != repl.OK {
			fmt.Fprintf(stderr, "Error: %s\n", kind.String())
			exitCode = 1
		} else {
			exitCode = 0
		}
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(stderr, "Read error: %v", err)
		return 2
	}

	return exitCode
}

// printUsage writes the usage banner and the enumeration of registered
// engines, grouped by algorithm identity with every alias listed before
// the dash and description, matching the source's print_usage.
func printUsage(w io.Writer, program string, reg *registry.Registry) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintf(w, "  %s [algorithm]\n\n", program)
	fmt.Fprint(w, "Available algorithms:")

	var lastEngine any
	var lastDescription string
	first := true
	for _, entry := range reg.Enumerate() {
		if !first && entry.Engine == lastEngine {
			fmt.Fprintf(w, ", %s", entry.Name)
		} else {
			if !first {
				fmt.Fprintf(w, " - %s", lastDescription)
			}
			fmt.Fprintf(w, "\n  %s", entry.Name)
		}
		lastEngine = entry.Engine
		lastDescription = entry.Description
		first = false
	}
	if !first {
		fmt.Fprintf(w, " - %s", lastDescription)
	}
	fmt.Fprintln(w)
}
