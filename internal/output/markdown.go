package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/dshills/warndiff/internal/analyze"
	"github.com/dshills/warndiff/internal/compare"
)

// MarkdownWriter outputs a PR-comment-friendly markdown report.
type MarkdownWriter struct{}

func (m *MarkdownWriter) Write(w io.Writer, report *analyze.Report) error {
	ew := &errWriter{w: w}
	s := report.Summary

	ew.printf("## Build Log Warning Comparison\n\n")
	ew.printf("**Old:** `%s` (%s)  \n", mdCode(report.OldLog), report.OldEncoding)
	ew.printf("**New:** `%s` (%s)\n\n", mdCode(report.NewLog), report.NewEncoding)

	// Summary table
	ew.printf("| Kind | Old | New | Change |\n")
	ew.printf("|------|-----|-----|--------|\n")
	var oldTotal, newTotal int
	for _, kind := range reportKinds(report) {
		kc := s.Kind(kind)
		oldTotal += kc.Old()
		newTotal += kc.New()
		ew.printf("| %s | %d | %d | %s |\n", mdCell(kind), kc.Old(), kc.New(), mdDelta(kc.Old(), kc.New()))
	}
	ew.printf("| **Total** | **%d** | **%d** | **%s** |\n\n", oldTotal, newTotal, mdDelta(oldTotal, newTotal))

	changed := s.Changed()
	if len(changed) == 0 {
		ew.println("No changes in diagnostics. :white_check_mark:")
		return ew.err
	}

	for _, r := range changed {
		added := compare.Dedup(r.Added)
		removed := compare.Dedup(r.Removed)

		ew.printf("<details>\n<summary><code>%s</code> (+%d / -%d)</summary>\n\n",
			htmlEscape(r.Stage), len(added), len(removed))

		if len(added) > 0 {
			ew.printf("**Added**\n\n")
			mdList(ew, ":heavy_plus_sign:", added)
		}
		if len(removed) > 0 {
			ew.printf("**Removed**\n\n")
			mdList(ew, ":heavy_minus_sign:", removed)
		}
		if r.UnchangedCount > 0 {
			ew.printf("Unchanged: %d\n\n", r.UnchangedCount)
		}

		ew.printf("</details>\n\n")
	}

	// Timing footer
	ew.printf("*Compared in %dms (parse: %dms, compare: %dms)*\n",
		report.Timing.TotalMs, report.Timing.ParseMs, report.Timing.CompareMs)

	return ew.err
}

func mdList(ew *errWriter, icon string, occ []compare.Occurrence) {
	for _, o := range occ {
		d := o.Diagnostic
		ew.printf("- %s **%s** `%s`", icon, d.Kind, mdCode(d.Original))
		if o.Count > 1 {
			ew.printf(" (x%d)", o.Count)
		}
		ew.println("")
	}
	ew.println("")
}

func mdDelta(old, cur int) string {
	if d := cur - old; d != 0 {
		return fmt.Sprintf("%+d", d)
	}
	return "0"
}

// mdCode makes s safe inside a single-backtick code span.
func mdCode(s string) string {
	return strings.ReplaceAll(s, "`", "'")
}

func mdCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func htmlEscape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}
