//go:build debug

// Package buildmode exposes the two build-time knobs spec.md ties to a
// debug/release split: the default algorithm the CLI selects when none is
// named, and whether the scapegoat engine's invariant walk runs after
// every mutation. Selected via the "debug" build tag, the same per-file
// //go:build split the retrieval pack's andreyvit/edb module uses for its
// mmap.MaxSize platform constants.
package buildmode

// DefaultAlgorithm is "compare": under a debug build every command is
// cross-checked against every other registered engine (spec.md §6).
const DefaultAlgorithm = "compare"

// InvariantChecksEnabled is true under a debug build: the scapegoat
// engine's recursive invariant walk runs after every mutation.
const InvariantChecksEnabled = true
