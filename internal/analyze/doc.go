// Package analyze wires the log reader, stage builder, diagnostic extractor
// and differ into a single comparison run.
//
// An [Analyzer] is built from compiled configuration. [Analyzer.Run] reads
// both logs sequentially, extracts the diagnostics of their target stages
// and returns a [Report] that every output writer consumes. When a cache is
// attached, the diagnostics of a log whose bytes and options were seen
// before are reused.
package analyze
