package extract

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Names of the ignore patterns with a fixed place in the pipeline. Any other
// named pattern is removed right after the path prefix, in name order.
const (
	IgnoreTimestamp  = "timestamp"
	IgnorePathPrefix = "path_prefix"
)

var (
	// " :", "i:", "W:" after the timestamp. The trailing whitespace is
	// required so "N:\" in a path survives.
	flagPrefix    = regexp.MustCompile(`^\s*[A-Za-z ]?\s*:\s+`)
	bracketPrefix = regexp.MustCompile(`^\s*\[[^\]]+\]\s*`)
	lineSuffix    = regexp.MustCompile(`([^\s()]*[\\./][^\s()]+)\(\d+\)`)
	whitespace    = regexp.MustCompile(`\s+`)
)

// Normalizer computes comparison keys.
type Normalizer struct {
	kindTag     *regexp.Regexp
	timestamp   *regexp.Regexp
	pathPrefix  *regexp.Regexp
	extra       []*regexp.Regexp
	fileKeyword *regexp.Regexp
	lower       bool
}

// NewNormalizer compiles the ignore patterns and kind keywords of opts.
func NewNormalizer(opts Options) (*Normalizer, error) {
	n := &Normalizer{lower: opts.CaseInsensitive}

	names := make([]string, 0, len(opts.Ignore))
	for name := range opts.Ignore {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		expr := opts.Ignore[name]
		if expr == "" {
			continue
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("ignore pattern %q: %w", name, err)
		}
		switch name {
		case IgnoreTimestamp:
			n.timestamp = re
		case IgnorePathPrefix:
			n.pathPrefix = re
		default:
			n.extra = append(n.extra, re)
		}
	}

	kinds := Kinds(opts.Patterns)
	if len(kinds) > 0 {
		alt := make([]string, len(kinds))
		for i, k := range kinds {
			alt[i] = regexp.QuoteMeta(k)
		}
		group := "(" + strings.Join(alt, "|") + ")"
		n.kindTag = regexp.MustCompile(`(?i)^\[` + group + `\]\s*`)

		exts := append(append([]string(nil), opts.SourceExtensions...), "txt")
		n.fileKeyword = regexp.MustCompile(`(?i)\s*\S+\.` + extensionGroup(exts) + `\s+` + group + `:`)
	}

	return n, nil
}

// Normalize strips environment noise from text. Each step works on the
// result of the previous one.
func (n *Normalizer) Normalize(text string) string {
	s := strings.TrimSpace(text)

	if n.kindTag != nil {
		s = n.kindTag.ReplaceAllString(s, "")
	}
	if n.timestamp != nil {
		s = n.timestamp.ReplaceAllString(s, "")
	}
	s = flagPrefix.ReplaceAllString(s, "")
	s = bracketPrefix.ReplaceAllString(s, "")
	if n.pathPrefix != nil {
		s = n.pathPrefix.ReplaceAllString(s, "")
	}
	for _, re := range n.extra {
		s = re.ReplaceAllString(s, "")
	}
	s = lineSuffix.ReplaceAllString(s, "${1}")
	if n.fileKeyword != nil {
		s = n.fileKeyword.ReplaceAllString(s, "${1}:")
	}
	s = strings.TrimSpace(whitespace.ReplaceAllString(s, " "))

	if n.lower {
		s = strings.ToLower(s)
	}
	return s
}
