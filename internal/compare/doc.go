// Package compare diffs the diagnostics of two build logs stage by stage.
//
// Stages are matched by name only: the stage set is the sorted union of the
// names seen in either run, each paired with itself. Within a stage,
// diagnostics are compared by normalized text. Added and removed lists keep
// every occurrence, while the unchanged count is by distinct key.
package compare
