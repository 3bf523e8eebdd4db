package output

import (
	"io"
	"strings"

	"github.com/dshills/warndiff/internal/stage"
)

// StageCounter returns the number of diagnostics in a stage's own lines.
type StageCounter func(n *stage.Node) int

// WriteStages prints the stage forest of a log, one stage per line indented
// by nesting level. Stages in targets are marked.
func WriteStages(w io.Writer, roots, targets []*stage.Node, count StageCounter) error {
	ew := &errWriter{w: w}
	isTarget := make(map[*stage.Node]bool, len(targets))
	for _, t := range targets {
		isTarget[t] = true
	}

	var stages, diagnostics int
	for _, root := range roots {
		stage.Walk(root, func(n *stage.Node, level int) {
			stages++
			c := count(n)
			diagnostics += c
			mark := ""
			if isTarget[n] {
				mark = " [target]"
			}
			ew.printf("%s%s%s  depth=%d lines=%d-%d diagnostics=%d\n",
				strings.Repeat("  ", level), n.Name, mark, n.Depth, n.StartLine, n.EndLine, c)
		})
	}

	ew.println(strings.Repeat("─", 60))
	ew.printf("%d stages, %d targets, %d diagnostics\n", stages, len(targets), diagnostics)
	return ew.err
}
