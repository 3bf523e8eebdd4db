// Package output formats comparison reports for display or machine consumption.
//
// Four formats are supported:
//   - text    : console report with frames, per-kind deltas and per-stage details (default)
//   - json    : full structured JSON report
//   - markdown: PR-comment-friendly with a collapsible section per changed stage
//   - sarif   : SARIF v2.1.0 with one result per added diagnostic
//
// Use [GetWriter] to obtain a [Writer] for a given format string, then call
// [Writer.Write] with an [io.Writer] and a [*analyze.Report]. [WriteReport]
// handles destination selection. [WriteStages] prints a log's stage forest.
package output
