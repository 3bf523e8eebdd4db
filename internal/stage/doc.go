// Package stage rebuilds the nested stage tree of a build log.
//
// A line opens a stage when it contains a configured target-step pattern or
// an angle-bracket marker followed by a colon (for example "<dcc>:" or
// "<Core.dpr>:"). The stage depth is the indentation after the optional
// "[HH:MM:SS]X:" prefix, counting a space as one unit and a tab as four.
// Opening a stage at depth d closes every open stage whose depth is >= d; the
// new stage becomes a child of whatever remains open. All other non-blank
// lines belong to the innermost open stage.
package stage
