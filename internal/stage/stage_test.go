package stage

import (
	"errors"
	"fmt"
	"testing"
)

var testOpts = Options{
	Targets:         []Target{{Pattern: "Step 4/21: BuildOrionPRO", Name: "BuildOrionPRO"}},
	Markers:         []string{"<build>", "<brcc>", "<dcc>"},
	ProjectSuffixes: []string{".dpr"},
}

var sampleLog = []string{
	"[14:13:19] : Preparing build",
	"[14:13:20] : [Step 4/21] Step 4/21: BuildOrionPRO (Command Line)",
	"[14:13:27] :\t [Step 4/21] <Abd.dpr>: <build> (2s)",
	"[14:13:28] :\t\t [<build>] <brcc>: resources",
	"[14:13:28] :\t\t\t [<brcc>] Borland Resource Compiler",
	"",
	"[14:13:29] :\t\t [<build>] <dcc>: compile",
	"[14:13:30] :\t\t\t [<dcc>] file.pas(123) Warning: unused variable",
}

func TestIndentation(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"no indent", 0},
		{"  two spaces", 2},
		{"\t\tone tab", 8},
		{"  \t  mixed", 8},
		{"", 0},
		{"   ", 3},
	}
	for _, tt := range tests {
		if got := Indentation(tt.in); got != tt.want {
			t.Errorf("Indentation(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestBuild_SampleLog(t *testing.T) {
	roots := Build(sampleLog, testOpts)
	if len(roots) != 1 {
		t.Fatalf("got %d roots, want 1", len(roots))
	}

	root := roots[0]
	if root.Name != "BuildOrionPRO" {
		t.Errorf("root.Name = %q, want BuildOrionPRO", root.Name)
	}
	if root.Depth != 1 || root.StartLine != 2 || root.EndLine != 8 {
		t.Errorf("root depth/start/end = %d/%d/%d, want 1/2/8", root.Depth, root.StartLine, root.EndLine)
	}
	if len(root.Children) != 1 {
		t.Fatalf("root has %d children, want 1", len(root.Children))
	}

	project := root.Children[0]
	if project.Name != "<Abd.dpr>" || project.Depth != 5 {
		t.Errorf("project = %q depth %d, want <Abd.dpr> depth 5", project.Name, project.Depth)
	}
	if len(project.Children) != 2 {
		t.Fatalf("project has %d children, want 2", len(project.Children))
	}

	brcc, dcc := project.Children[0], project.Children[1]
	if brcc.Name != "<brcc>" || dcc.Name != "<dcc>" {
		t.Fatalf("children = %q, %q; want <brcc>, <dcc>", brcc.Name, dcc.Name)
	}
	if brcc.StartLine != 4 || brcc.EndLine != 6 {
		t.Errorf("brcc lines = %d-%d, want 4-6", brcc.StartLine, brcc.EndLine)
	}
	if len(brcc.Lines) != 2 {
		t.Errorf("brcc has %d lines, want header plus one content line", len(brcc.Lines))
	}
	if dcc.Depth != 9 || dcc.EndLine != 8 {
		t.Errorf("dcc depth/end = %d/%d, want 9/8", dcc.Depth, dcc.EndLine)
	}
	if got := dcc.Lines[len(dcc.Lines)-1]; got != sampleLog[7] {
		t.Errorf("dcc last line = %q", got)
	}
}

func TestBuild_ContentBeforeFirstStageDiscarded(t *testing.T) {
	roots := Build([]string{"noise", "<build>: go", "body"}, testOpts)
	if len(roots) != 1 {
		t.Fatalf("got %d roots, want 1", len(roots))
	}
	if len(roots[0].Lines) != 2 {
		t.Errorf("root lines = %q, want header and body only", roots[0].Lines)
	}
}

func TestBuild_DepthClosing(t *testing.T) {
	lines := []string{
		"<A.dpr>: start",
		"\t<build>: x",
		"\t\t<dcc>: y",
		"\t<brcc>: z",
	}
	roots := Build(lines, testOpts)
	if len(roots) != 1 {
		t.Fatalf("got %d roots, want 1", len(roots))
	}

	a := roots[0]
	if a.EndLine != 4 {
		t.Errorf("depth-0 node EndLine = %d, want 4 (still open)", a.EndLine)
	}
	if len(a.Children) != 2 {
		t.Fatalf("depth-0 node has %d children, want 2", len(a.Children))
	}
	build, brcc := a.Children[0], a.Children[1]
	if build.Name != "<build>" || brcc.Name != "<brcc>" {
		t.Fatalf("children = %q, %q", build.Name, brcc.Name)
	}
	if build.EndLine != 3 {
		t.Errorf("depth-4 node EndLine = %d, want 3", build.EndLine)
	}
	if len(build.Children) != 1 || build.Children[0].EndLine != 3 {
		t.Errorf("depth-8 node should close at line 3")
	}
	if len(brcc.Children) != 0 {
		t.Errorf("new depth-4 node must not adopt the closed depth-8 node")
	}
}

func TestBuild_SameDepthIsSibling(t *testing.T) {
	roots := Build([]string{"<A.dpr>: one", "<B.dpr>: two"}, testOpts)
	if len(roots) != 2 {
		t.Fatalf("got %d roots, want 2 siblings", len(roots))
	}
	if roots[0].EndLine != 1 {
		t.Errorf("first sibling EndLine = %d, want 1", roots[0].EndLine)
	}
}

func TestBuild_NonUnitDepthSteps(t *testing.T) {
	lines := []string{
		"<A.dpr>: a",
		"   <build>: b",
		"  <dcc>: c",
	}
	roots := Build(lines, testOpts)
	a := roots[0]
	if len(a.Children) != 2 {
		t.Fatalf("got %d children, want 2: depth 2 closes depth 3 but stays under depth 0", len(a.Children))
	}
}

func TestBuild_TargetBeatsMarker(t *testing.T) {
	line := "[14:13:27] :\t [Step 4/21] Step 4/21: BuildOrionPRO <Abd.dpr>: <build>"
	roots := Build([]string{line}, testOpts)
	if len(roots) != 1 || roots[0].Name != "BuildOrionPRO" {
		t.Fatalf("got %+v, want single BuildOrionPRO stage", roots)
	}
}

func TestBuild_FirstQualifyingMarkerWins(t *testing.T) {
	line := "<unknown>: <dcc>: <Core.dpr>: text"
	roots := Build([]string{line}, testOpts)
	if len(roots) != 1 || roots[0].Name != "<dcc>" {
		t.Fatalf("got %+v, want <dcc>", roots)
	}
	if roots[0].Lines[0] != line {
		t.Errorf("header line should stay as the stage's own content")
	}
}

func TestBuild_MarkerWithoutColonIsContent(t *testing.T) {
	lines := []string{
		"<A.dpr>: start",
		"\t\t [<brcc>] Borland Resource Compiler",
	}
	roots := Build(lines, testOpts)
	if len(roots) != 1 || len(roots[0].Children) != 0 {
		t.Fatalf("bracketed marker prefix must not open a stage")
	}
	if len(roots[0].Lines) != 2 {
		t.Errorf("got %d lines, want 2", len(roots[0].Lines))
	}
}

func TestBuild_WildcardNeverMatchesLines(t *testing.T) {
	opts := testOpts
	opts.Targets = []Target{{Pattern: Wildcard, Name: "all"}}
	roots := Build([]string{"a * b", "<build>: x"}, opts)
	if len(roots) != 1 || roots[0].Name != "<build>" {
		t.Fatalf("got %+v", roots)
	}
}

func TestBuild_BlankLinesSkipped(t *testing.T) {
	roots := Build([]string{"<build>: x", "   ", "\t", "body", ""}, testOpts)
	if len(roots[0].Lines) != 2 {
		t.Errorf("lines = %q", roots[0].Lines)
	}
	if roots[0].EndLine != 5 {
		t.Errorf("EndLine = %d, want last line number 5", roots[0].EndLine)
	}
}

func TestSelectTargets(t *testing.T) {
	roots := []*Node{
		{Name: "Prepare", Children: []*Node{
			{Name: "BuildOrionPRO", Children: []*Node{{Name: "<Abd.dpr>"}}},
		}},
		{Name: "BuildOrionPRO (retry)"},
		{Name: "Cleanup"},
	}
	targets := []Target{{Pattern: "BuildOrionPRO", Name: "BuildOrionPRO"}}

	got := SelectTargets(roots, targets)
	if len(got) != 2 {
		t.Fatalf("got %d targets, want 2", len(got))
	}
	if got[0].Name != "BuildOrionPRO" || len(got[0].Children) != 1 {
		t.Errorf("nested target should keep its subtree: %+v", got[0])
	}
	if got[1].Name != "BuildOrionPRO (retry)" {
		t.Errorf("got[1] = %q", got[1].Name)
	}

	all := SelectTargets(roots, []Target{{Pattern: "nothing", Name: "x"}, {Pattern: Wildcard, Name: "all"}})
	if len(all) != 3 {
		t.Errorf("wildcard selected %d roots, want 3", len(all))
	}
}

func TestWalk(t *testing.T) {
	roots := Build(sampleLog, testOpts)
	var visited []string
	Walk(roots[0], func(n *Node, level int) {
		visited = append(visited, fmt.Sprintf("%d:%s", level, n.Name))
	})
	want := []string{"0:BuildOrionPRO", "1:<Abd.dpr>", "2:<brcc>", "2:<dcc>"}
	if fmt.Sprint(visited) != fmt.Sprint(want) {
		t.Errorf("Walk order = %v, want %v", visited, want)
	}
}

func TestParseError(t *testing.T) {
	err := error(&ParseError{Line: 12, Msg: "bad"})
	if !errors.Is(err, ErrParse) {
		t.Error("ParseError should match ErrParse")
	}
	if err.Error() != "parse error at line 12: bad" {
		t.Errorf("Error() = %q", err.Error())
	}
	if (&ParseError{Msg: "bad"}).Error() != "parse error: bad" {
		t.Error("unnumbered message mismatch")
	}
}
