package compare

import (
	"sort"

	"github.com/dshills/warndiff/internal/extract"
)

// KindCounts tallies diagnostics of one kind.
type KindCounts struct {
	Added     int `json:"added"`
	Removed   int `json:"removed"`
	Unchanged int `json:"unchanged"`
}

// Old is the count attributed to the old run.
func (k KindCounts) Old() int { return k.Removed + k.Unchanged }

// New is the count attributed to the new run.
func (k KindCounts) New() int { return k.Added + k.Unchanged }

// Result is the comparison of one matched stage.
type Result struct {
	Stage          string               `json:"stage"`
	Added          []extract.Diagnostic `json:"added"`
	Removed        []extract.Diagnostic `json:"removed"`
	UnchangedCount int                  `json:"unchangedCount"`
	// UnchangedByKind counts every old occurrence of an unchanged key, so it
	// can exceed UnchangedCount when the old run repeats a message.
	UnchangedByKind map[string]int `json:"unchangedByKind,omitempty"`
}

// Changed reports whether the stage has added or removed diagnostics.
func (r Result) Changed() bool {
	return len(r.Added) > 0 || len(r.Removed) > 0
}

// Summary aggregates the comparison of two runs.
type Summary struct {
	TotalAdded     int                   `json:"totalAdded"`
	TotalRemoved   int                   `json:"totalRemoved"`
	TotalUnchanged int                   `json:"totalUnchanged"`
	ByKind         map[string]KindCounts `json:"byKind"`
	ByStage        []Result              `json:"byStage"`
}

// Kind returns the counts for kind, zero if it never occurred.
func (s *Summary) Kind(kind string) KindCounts {
	return s.ByKind[kind]
}

// Changed returns the stage results with added or removed diagnostics.
func (s *Summary) Changed() []Result {
	var out []Result
	for _, r := range s.ByStage {
		if r.Changed() {
			out = append(out, r)
		}
	}
	return out
}

// GroupByStage buckets diagnostics by stage name, keeping their order.
func GroupByStage(diags []extract.Diagnostic) map[string][]extract.Diagnostic {
	grouped := make(map[string][]extract.Diagnostic)
	for _, d := range diags {
		grouped[d.Stage] = append(grouped[d.Stage], d)
	}
	return grouped
}

// MatchStages returns the union of stage names of both runs in
// lexicographic order. Each name is matched with itself.
func MatchStages(old, new map[string][]extract.Diagnostic) []string {
	names := make([]string, 0, len(old)+len(new))
	for name := range old {
		names = append(names, name)
	}
	for name := range new {
		if _, ok := old[name]; !ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Compare diffs the old and new diagnostics.
func Compare(old, new []extract.Diagnostic) *Summary {
	oldStages := GroupByStage(old)
	newStages := GroupByStage(new)

	s := &Summary{ByKind: make(map[string]KindCounts)}

	for _, name := range MatchStages(oldStages, newStages) {
		r := compareStage(name, oldStages[name], newStages[name])

		if r.Changed() || r.UnchangedCount > 0 {
			s.ByStage = append(s.ByStage, r)
		}

		s.TotalAdded += len(r.Added)
		s.TotalRemoved += len(r.Removed)
		s.TotalUnchanged += r.UnchangedCount

		for _, d := range r.Added {
			kc := s.ByKind[d.Kind]
			kc.Added++
			s.ByKind[d.Kind] = kc
		}
		for _, d := range r.Removed {
			kc := s.ByKind[d.Kind]
			kc.Removed++
			s.ByKind[d.Kind] = kc
		}
		for kind, n := range r.UnchangedByKind {
			kc := s.ByKind[kind]
			kc.Unchanged += n
			s.ByKind[kind] = kc
		}
	}

	return s
}

func compareStage(name string, old, new []extract.Diagnostic) Result {
	oldKeys := keySet(old)
	newKeys := keySet(new)

	r := Result{Stage: name}

	for _, d := range new {
		if !oldKeys[d.Text] {
			r.Added = append(r.Added, d)
		}
	}

	unchanged := make(map[string]bool)
	for _, d := range old {
		if !newKeys[d.Text] {
			r.Removed = append(r.Removed, d)
			continue
		}
		unchanged[d.Text] = true
		if r.UnchangedByKind == nil {
			r.UnchangedByKind = make(map[string]int)
		}
		r.UnchangedByKind[d.Kind]++
	}
	r.UnchangedCount = len(unchanged)

	return r
}

func keySet(diags []extract.Diagnostic) map[string]bool {
	set := make(map[string]bool, len(diags))
	for _, d := range diags {
		set[d.Text] = true
	}
	return set
}

// Occurrence is a distinct diagnostic key with its multiplicity.
type Occurrence struct {
	Diagnostic extract.Diagnostic
	Count      int
}

// Dedup collapses diags by normalized text, keeping the first record of each
// key and first-seen order.
func Dedup(diags []extract.Diagnostic) []Occurrence {
	index := make(map[string]int, len(diags))
	var out []Occurrence
	for _, d := range diags {
		if i, ok := index[d.Text]; ok {
			out[i].Count++
			continue
		}
		index[d.Text] = len(out)
		out = append(out, Occurrence{Diagnostic: d, Count: 1})
	}
	return out
}

// CountByKind counts occurrences per kind.
func CountByKind(occ []Occurrence) map[string]int {
	counts := make(map[string]int)
	for _, o := range occ {
		counts[o.Diagnostic.Kind]++
	}
	return counts
}
