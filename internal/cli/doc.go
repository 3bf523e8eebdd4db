// Package cli wires together the Cobra command tree for the warndiff binary.
//
// It defines the root command and all subcommands (compare, stages, config,
// cache, version), binds flags, reads configuration, invokes the analyzer,
// and returns deterministic exit codes for CI gating.
package cli
