package stage

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrParse marks structurally unrecoverable log input.
var ErrParse = errors.New("log parse failure")

// ParseError describes a parse failure, optionally tied to a line.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse error at line %d: %s", e.Line, e.Msg)
	}
	return "parse error: " + e.Msg
}

func (e *ParseError) Unwrap() error { return ErrParse }

// Wildcard is the target pattern that selects every top-level stage.
const Wildcard = "*"

// Target maps a substring of a log line to a stage name.
type Target struct {
	Pattern string `json:"pattern" yaml:"pattern" toml:"pattern"`
	Name    string `json:"name" yaml:"name" toml:"name"`
}

// Options configures stage recognition.
type Options struct {
	Targets         []Target
	Markers         []string
	ProjectSuffixes []string
}

// Node is a stage of the build log.
type Node struct {
	Name      string   `json:"name"`
	Depth     int      `json:"depth"`
	StartLine int      `json:"startLine"`
	EndLine   int      `json:"endLine"`
	Lines     []string `json:"lines,omitempty"`
	Children  []*Node  `json:"children,omitempty"`
}

var (
	// "[14:13:30] :" and friends; the flag character is optional.
	timestampPrefix = regexp.MustCompile(`^\s*\[\d{2}:\d{2}:\d{2}\](?:[^:]?:)?`)
	markerToken     = regexp.MustCompile(`<([^>]+)>:`)
)

type frame struct {
	depth int
	node  *Node
}

// Build parses lines into a forest of stages. Line numbers are 1-based.
func Build(lines []string, opts Options) []*Node {
	markers := make(map[string]bool, len(opts.Markers))
	for _, m := range opts.Markers {
		markers[m] = true
	}

	var (
		roots []*Node
		stack []frame
	)

	for i, line := range lines {
		lineNo := i + 1
		if strings.TrimSpace(line) == "" {
			continue
		}

		name, depth, ok := opens(line, opts, markers)
		if !ok {
			if len(stack) > 0 {
				top := stack[len(stack)-1].node
				top.Lines = append(top.Lines, line)
				top.EndLine = lineNo
			}
			continue
		}

		for len(stack) > 0 && stack[len(stack)-1].depth >= depth {
			stack[len(stack)-1].node.EndLine = lineNo - 1
			stack = stack[:len(stack)-1]
		}

		n := &Node{
			Name:      name,
			Depth:     depth,
			StartLine: lineNo,
			EndLine:   lineNo,
			Lines:     []string{line},
		}
		if len(stack) > 0 {
			parent := stack[len(stack)-1].node
			parent.Children = append(parent.Children, n)
		} else {
			roots = append(roots, n)
		}
		stack = append(stack, frame{depth: depth, node: n})
	}

	for _, f := range stack {
		f.node.EndLine = len(lines)
	}

	return roots
}

// opens reports whether line opens a stage, and its name and depth.
func opens(line string, opts Options, markers map[string]bool) (string, int, bool) {
	rest := line
	if loc := timestampPrefix.FindStringIndex(line); loc != nil {
		rest = line[loc[1]:]
	}

	depth := Indentation(rest)

	content := strings.TrimLeft(rest, " \t")
	if strings.HasPrefix(content, "[") {
		if end := strings.Index(content, "]"); end >= 0 {
			content = strings.TrimLeft(content[end+1:], " \t")
		}
	}

	for _, t := range opts.Targets {
		if t.Pattern == "" || t.Pattern == Wildcard {
			continue
		}
		if strings.Contains(line, t.Pattern) {
			return t.Name, depth, true
		}
	}

	for _, m := range markerToken.FindAllStringSubmatch(content, -1) {
		token := "<" + m[1] + ">"
		if markers[token] || hasSuffix(m[1], opts.ProjectSuffixes) {
			return token, depth, true
		}
	}

	return "", 0, false
}

// Indentation counts leading whitespace: a space is one unit, a tab four.
func Indentation(s string) int {
	n := 0
	for _, r := range s {
		switch r {
		case ' ':
			n++
		case '\t':
			n += 4
		default:
			return n
		}
	}
	return n
}

func hasSuffix(s string, suffixes []string) bool {
	for _, suf := range suffixes {
		if suf != "" && strings.HasSuffix(s, suf) {
			return true
		}
	}
	return false
}

// SelectTargets returns the stages named by targets, searching below
// non-target stages. A Wildcard target selects every root.
func SelectTargets(roots []*Node, targets []Target) []*Node {
	for _, t := range targets {
		if t.Pattern == Wildcard {
			return roots
		}
	}

	var out []*Node
	for _, n := range roots {
		if isTarget(n, targets) {
			out = append(out, n)
			continue
		}
		out = append(out, SelectTargets(n.Children, targets)...)
	}
	return out
}

func isTarget(n *Node, targets []Target) bool {
	for _, t := range targets {
		if t.Name == n.Name || (t.Pattern != "" && strings.Contains(n.Name, t.Pattern)) {
			return true
		}
	}
	return false
}

// Walk visits n and its descendants in pre-order.
func Walk(n *Node, fn func(n *Node, level int)) {
	walk(n, 0, fn)
}

func walk(n *Node, level int, fn func(*Node, int)) {
	fn(n, level)
	for _, c := range n.Children {
		walk(c, level+1, fn)
	}
}
