package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/dshills/warndiff/internal/stage"
)

// Pattern classifies lines containing a substring as a diagnostic kind.
type Pattern struct {
	Pattern string `json:"pattern" yaml:"pattern" toml:"pattern"`
	Kind    string `json:"kind" yaml:"kind" toml:"kind"`
}

// Diagnostic is one compiler message found in a stage.
type Diagnostic struct {
	Text       string `json:"text" msgpack:"text"`
	Original   string `json:"original" msgpack:"original"`
	Kind       string `json:"kind" msgpack:"kind"`
	Stage      string `json:"stage" msgpack:"stage"`
	FilePath   string `json:"filePath,omitempty" msgpack:"file_path"`
	LineNumber int    `json:"lineNumber,omitempty" msgpack:"line_number"`
}

// Options configures extraction and normalization.
type Options struct {
	Patterns         []Pattern
	Ignore           map[string]string
	CaseInsensitive  bool
	SourceExtensions []string
}

// Extractor finds and normalizes diagnostics.
type Extractor struct {
	patterns []Pattern
	norm     *Normalizer
	location *regexp.Regexp
}

// New compiles opts into an Extractor.
func New(opts Options) (*Extractor, error) {
	norm, err := NewNormalizer(opts)
	if err != nil {
		return nil, err
	}
	exts := extensionGroup(opts.SourceExtensions)
	location := regexp.MustCompile(
		`([A-Za-z]:[^\s()]+\.` + exts + `|[^\s():]+\.` + exts + `)\((\d+)\)`,
	)
	return &Extractor{
		patterns: opts.Patterns,
		norm:     norm,
		location: location,
	}, nil
}

// Extract returns the diagnostics of n and its descendants, in pre-order.
func (e *Extractor) Extract(n *stage.Node) []Diagnostic {
	var out []Diagnostic
	stage.Walk(n, func(s *stage.Node, _ int) {
		for _, line := range s.Lines {
			kind, ok := e.Classify(line)
			if !ok {
				continue
			}
			path, lineNo := e.Location(line)
			out = append(out, Diagnostic{
				Text:       e.norm.Normalize(line),
				Original:   strings.TrimSpace(line),
				Kind:       kind,
				Stage:      s.Name,
				FilePath:   path,
				LineNumber: lineNo,
			})
		}
	})
	return out
}

// ExtractAll concatenates Extract over nodes.
func (e *Extractor) ExtractAll(nodes []*stage.Node) []Diagnostic {
	var out []Diagnostic
	for _, n := range nodes {
		out = append(out, e.Extract(n)...)
	}
	return out
}

// Classify returns the kind of the first pattern contained in line.
func (e *Extractor) Classify(line string) (string, bool) {
	for _, p := range e.patterns {
		if strings.Contains(line, p.Pattern) {
			return p.Kind, true
		}
	}
	return "", false
}

// Location returns the source file and line a diagnostic points at, or ""
// and 0 when the text carries none.
func (e *Extractor) Location(text string) (string, int) {
	m := e.location.FindStringSubmatch(text)
	if m == nil {
		return "", 0
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		return m[1], 0
	}
	return m[1], n
}

// Normalize returns the comparison key for text.
func (e *Extractor) Normalize(text string) string {
	return e.norm.Normalize(text)
}

// Kinds returns the distinct kinds of patterns, in pattern order.
func Kinds(patterns []Pattern) []string {
	seen := make(map[string]bool, len(patterns))
	var kinds []string
	for _, p := range patterns {
		if !seen[p.Kind] {
			seen[p.Kind] = true
			kinds = append(kinds, p.Kind)
		}
	}
	return kinds
}

func extensionGroup(exts []string) string {
	quoted := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
		if ext != "" {
			quoted = append(quoted, regexp.QuoteMeta(ext))
		}
	}
	if len(quoted) == 0 {
		// Matches nothing.
		return `(?i:[^\s\S])`
	}
	return `(?i:` + strings.Join(quoted, "|") + `)`
}
