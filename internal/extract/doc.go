// Package extract turns the content lines of a stage tree into diagnostic
// records.
//
// A line is a diagnostic when it contains one of the configured warning
// patterns; the first pattern found decides its kind. Every record keeps the
// trimmed source line for display and a normalized key for comparison. The
// key has timestamps, flag and bracket prefixes, absolute path prefixes and
// line numbers removed, so that the same compiler message emitted by two
// different builds produces the same key.
package extract
