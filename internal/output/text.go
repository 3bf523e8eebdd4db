package output

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"github.com/dshills/warndiff/internal/analyze"
	"github.com/dshills/warndiff/internal/compare"
)

const (
	// boxWidth is the inner width of the report frames.
	boxWidth = 60
	// itemWidth is where diagnostic text wraps inside a stage frame.
	itemWidth = 58
)

// TextWriter outputs a human-readable console report.
type TextWriter struct {
	Options Options
}

func (t *TextWriter) Write(w io.Writer, report *analyze.Report) error {
	ew := &errWriter{w: w}
	p := newPalette(t.Options.UseColors)
	s := report.Summary
	kinds := reportKinds(report)

	// Header
	ew.println("╔" + strings.Repeat("═", boxWidth+2) + "╗")
	ew.println("║" + center("BUILD LOG WARNING COMPARISON", boxWidth+2) + "║")
	ew.println("╠" + strings.Repeat("═", boxWidth+2) + "╣")
	ew.println("║ " + fit("Old log: "+report.OldLog, boxWidth) + " ║")
	ew.println("║ " + fit("New log: "+report.NewLog, boxWidth) + " ║")
	ew.println("╚" + strings.Repeat("═", boxWidth+2) + "╝")
	ew.println("")

	// Overall statistics
	ew.println(sectionTop("OVERALL"))
	var oldTotal, newTotal int
	for _, kind := range kinds {
		kc := s.Kind(kind)
		oldTotal += kc.Old()
		newTotal += kc.New()
		ew.printf("│ %s %d → %d %s\n", label(kind), kc.Old(), kc.New(), p.delta(kc.Old(), kc.New()))
	}
	ew.printf("│ %s %d → %d %s\n", label("Total"), oldTotal, newTotal, p.delta(oldTotal, newTotal))
	ew.println(sectionBottom())
	ew.println("")

	changed := s.Changed()

	// Per-stage statistics
	if len(changed) > 0 {
		ew.println(sectionTop("BY STAGE"))
		for _, r := range changed {
			added := compare.CountByKind(compare.Dedup(r.Added))
			removed := compare.CountByKind(compare.Dedup(r.Removed))
			ew.printf("│ %s\n", r.Stage)
			for _, kind := range kinds {
				oldN := removed[kind] + r.UnchangedByKind[kind]
				newN := added[kind] + r.UnchangedByKind[kind]
				if oldN == 0 && newN == 0 {
					continue
				}
				ew.printf("│   %s %d → %d %s\n", label(kind), oldN, newN, p.delta(oldN, newN))
			}
			ew.println("│")
		}
		ew.println(sectionBottom())
		ew.println("")
	}

	// Details
	if len(changed) > 0 && t.Options.GroupByStage {
		ew.println("╔" + strings.Repeat("═", boxWidth+2) + "╗")
		ew.println("║" + center("DETAILED CHANGES", boxWidth+2) + "║")
		ew.println("╚" + strings.Repeat("═", boxWidth+2) + "╝")
		ew.println("")
		for _, r := range changed {
			t.writeStage(ew, p, kinds, r)
		}
	}

	if len(changed) == 0 {
		ew.println(p.muted.Sprint("No changes in diagnostics."))
		ew.println("")
	}

	ew.printf("Completed in %dms (parse: %dms, compare: %dms)\n",
		report.Timing.TotalMs, report.Timing.ParseMs, report.Timing.CompareMs)

	return ew.err
}

func (t *TextWriter) writeStage(ew *errWriter, p palette, kinds []string, r compare.Result) {
	blank := "│" + strings.Repeat(" ", boxWidth) + "│"
	ew.println(sectionTop(r.Stage))
	ew.println(blank)

	groups := []struct {
		title string
		occ   []compare.Occurrence
		c     *color.Color
	}{
		{"+ ADDED", compare.Dedup(r.Added), p.added},
		{"- REMOVED", compare.Dedup(r.Removed), p.removed},
	}
	for _, g := range groups {
		if len(g.occ) == 0 {
			continue
		}
		ew.printf("│ %s\n", g.c.Sprintf("%s (%s):", g.title, kindBreakdown(kinds, compare.CountByKind(g.occ))))
		ew.println(blank)
		for _, o := range g.occ {
			for _, line := range formatDiagnostic(o, itemWidth) {
				ew.printf("│   %s\n", g.c.Sprint(line))
			}
		}
		ew.println(blank)
	}

	if t.Options.ShowUnchangedCount && r.UnchangedCount > 0 {
		ew.printf("│ %s\n", p.muted.Sprintf("= UNCHANGED: %d diagnostics", r.UnchangedCount))
	}

	ew.println(sectionBottom())
	ew.println("")
}

// formatDiagnostic renders "[Kind] original (xN)" wrapped to width, with
// continuation lines aligned under the text.
func formatDiagnostic(o compare.Occurrence, width int) []string {
	prefix := "[" + o.Diagnostic.Kind + "] "
	text := o.Diagnostic.Original
	if o.Count > 1 {
		text += fmt.Sprintf(" (x%d)", o.Count)
	}
	indent := runewidth.StringWidth(prefix)
	lines := wrapText(text, width-indent)
	out := make([]string, len(lines))
	for i, l := range lines {
		if i == 0 {
			out[i] = prefix + l
		} else {
			out[i] = strings.Repeat(" ", indent) + l
		}
	}
	return out
}

func kindBreakdown(kinds []string, counts map[string]int) string {
	parts := make([]string, 0, len(kinds))
	for _, k := range kinds {
		parts = append(parts, fmt.Sprintf("%d %s", counts[k], k))
	}
	return strings.Join(parts, ", ")
}

// reportKinds returns the configured kinds followed by any other kind that
// occurs in the summary.
func reportKinds(report *analyze.Report) []string {
	kinds := append([]string(nil), report.Kinds...)
	seen := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		seen[k] = true
	}
	var extra []string
	for k := range report.Summary.ByKind {
		if !seen[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	return append(kinds, extra...)
}

func label(s string) string {
	return runewidth.FillRight(s+":", 10)
}

func center(s string, width int) string {
	pad := width - runewidth.StringWidth(s)
	if pad <= 0 {
		return runewidth.Truncate(s, width, "")
	}
	left := pad / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", pad-left)
}

// fit pads s to exactly width cells, truncating with an ellipsis.
func fit(s string, width int) string {
	if runewidth.StringWidth(s) > width {
		s = runewidth.Truncate(s, width, "...")
	}
	return runewidth.FillRight(s, width)
}

func sectionTop(title string) string {
	fill := boxWidth - 2 - runewidth.StringWidth(title)
	if fill < 1 {
		fill = 1
	}
	return "┌─ " + title + " " + strings.Repeat("─", fill) + "┐"
}

func sectionBottom() string {
	return "└" + strings.Repeat("─", boxWidth) + "┘"
}

type palette struct {
	added   *color.Color
	removed *color.Color
	muted   *color.Color
}

func newPalette(enabled bool) palette {
	mk := func(attr color.Attribute) *color.Color {
		c := color.New(attr)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}
	return palette{
		added:   mk(color.FgHiGreen),
		removed: mk(color.FgHiRed),
		muted:   mk(color.FgHiBlack),
	}
}

// delta formats cur-old as "(+d)"; growth is red, shrinkage green.
func (p palette) delta(old, cur int) string {
	d := cur - old
	switch {
	case d > 0:
		return p.removed.Sprintf("(%+d)", d)
	case d < 0:
		return p.added.Sprintf("(%+d)", d)
	default:
		return ""
	}
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}

// wrapText breaks text on spaces so no line exceeds width display cells.
// A single word wider than width gets a line of its own.
func wrapText(text string, width int) []string {
	if runewidth.StringWidth(text) <= width {
		return []string{text}
	}
	var lines []string
	var current strings.Builder
	currentWidth := 0
	for _, word := range strings.Fields(text) {
		ww := runewidth.StringWidth(word)
		if currentWidth > 0 && currentWidth+1+ww > width {
			lines = append(lines, current.String())
			current.Reset()
			currentWidth = 0
		}
		if currentWidth > 0 {
			current.WriteString(" ")
			currentWidth++
		}
		current.WriteString(word)
		currentWidth += ww
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}
