//go:build !debug

package buildmode

// DefaultAlgorithm is "scapegoat": under a release build the balanced
// tree runs alone, without the comparator's per-call peer fan-out
// (spec.md §6).
const DefaultAlgorithm = "scapegoat"

// InvariantChecksEnabled is false under a release build.
const InvariantChecksEnabled = false
