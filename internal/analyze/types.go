package analyze

import (
	"github.com/dshills/warndiff/internal/compare"
	"github.com/dshills/warndiff/internal/config"
	"github.com/dshills/warndiff/internal/extract"
)

// Tool is the name reported in every Report.
const Tool = "warndiff"

// Version is the warndiff release.
var Version = "0.3.0"

// Timing contains performance metrics.
type Timing struct {
	ParseMs   int64 `json:"parseMs"`
	CompareMs int64 `json:"compareMs"`
	TotalMs   int64 `json:"totalMs"`
}

// Report is the top-level output structure.
type Report struct {
	Tool        string           `json:"tool"`
	Version     string           `json:"version"`
	OldLog      string           `json:"oldLog"`
	NewLog      string           `json:"newLog"`
	OldEncoding string           `json:"oldEncoding"`
	NewEncoding string           `json:"newEncoding"`
	Kinds       []string         `json:"kinds"`
	Summary     *compare.Summary `json:"summary"`
	Timing      Timing           `json:"timing"`
}

// MeetsThreshold reports whether the report should fail a run with the given
// fail_on setting.
func (r *Report) MeetsThreshold(failOn string) bool {
	return failOn == config.FailOnAdded && r.Summary != nil && r.Summary.TotalAdded > 0
}

// Source is the extracted state of one log.
type Source struct {
	Path        string
	Encoding    string
	Diagnostics []extract.Diagnostic
	Cached      bool
}
