package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dshills/warndiff/internal/stage"
)

func TestWriteStages(t *testing.T) {
	child := &stage.Node{Name: "<dcc>", Depth: 5, StartLine: 3, EndLine: 4, Lines: []string{"a", "b"}}
	root := &stage.Node{Name: "BuildOrionPRO", Depth: 1, StartLine: 2, EndLine: 4, Children: []*stage.Node{child}}
	other := &stage.Node{Name: "<Tools.dpr>", Depth: 1, StartLine: 5, EndLine: 5}

	var buf bytes.Buffer
	count := func(n *stage.Node) int { return len(n.Lines) }
	if err := WriteStages(&buf, []*stage.Node{root, other}, []*stage.Node{root}, count); err != nil {
		t.Fatalf("WriteStages error: %v", err)
	}
	out := buf.String()

	checks := []string{
		"BuildOrionPRO [target]  depth=1 lines=2-4 diagnostics=0\n",
		"  <dcc>  depth=5 lines=3-4 diagnostics=2\n",
		"<Tools.dpr>  depth=1 lines=5-5 diagnostics=0\n",
		"3 stages, 1 targets, 2 diagnostics",
	}
	for _, c := range checks {
		if !strings.Contains(out, c) {
			t.Errorf("Output missing %q\n%s", c, out)
		}
	}
}
