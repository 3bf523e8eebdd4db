// Warndiff is a CLI for comparing compiler warnings between two build logs.
//
// It rebuilds the stage tree of each log and extracts diagnostics from the
// configured target stages. Paths and line numbers are normalized away before
// diagnostics are matched per stage. Exit codes are deterministic so the tool
// can gate CI builds.
//
// Usage:
//
//	warndiff old.log new.log                 # compare two logs
//	warndiff compare old.log new.log -f json # machine-readable report
//	warndiff compare old.log new.log --fail-on added
//	warndiff stages build.log                # print the stage tree
//	warndiff config init                     # write the default config
//
// See https://github.com/dshills/warndiff for full documentation.
package main
