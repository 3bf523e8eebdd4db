package config

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"sort"

	"github.com/dshills/warndiff/internal/extract"
	"github.com/dshills/warndiff/internal/stage"
)

// ErrInvalid is matched by every configuration error.
var ErrInvalid = errors.New("invalid configuration")

// ValidationError identifies the offending field of an invalid Config.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrInvalid }

// Validate reports the first problem found in cfg.
func Validate(cfg Config) error {
	if len(cfg.TargetSteps) == 0 {
		return &ValidationError{Field: "target_steps", Message: "at least one target step is required"}
	}
	for i, t := range cfg.TargetSteps {
		if t.Pattern == "" {
			return &ValidationError{Field: fmt.Sprintf("target_steps[%d].pattern", i), Message: "must not be empty"}
		}
		if t.Name == "" {
			return &ValidationError{Field: fmt.Sprintf("target_steps[%d].name", i), Message: "must not be empty"}
		}
	}

	if len(cfg.StageMarkers) == 0 {
		return &ValidationError{Field: "stage_markers", Message: "at least one marker is required"}
	}
	for i, m := range cfg.StageMarkers {
		if m == "" {
			return &ValidationError{Field: fmt.Sprintf("stage_markers[%d]", i), Message: "must not be empty"}
		}
	}

	if len(cfg.WarningPatterns) == 0 {
		return &ValidationError{Field: "warning_patterns", Message: "at least one pattern is required"}
	}
	for i, p := range cfg.WarningPatterns {
		if p.Pattern == "" {
			return &ValidationError{Field: fmt.Sprintf("warning_patterns[%d].pattern", i), Message: "must not be empty"}
		}
		if p.Kind == "" {
			return &ValidationError{Field: fmt.Sprintf("warning_patterns[%d].kind", i), Message: "must not be empty"}
		}
	}

	names := make([]string, 0, len(cfg.IgnorePatterns))
	for name := range cfg.IgnorePatterns {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		expr := cfg.IgnorePatterns[name]
		if expr == "" {
			continue
		}
		if _, err := regexp.Compile(expr); err != nil {
			return &ValidationError{Field: "ignore_patterns." + name, Message: err.Error()}
		}
	}

	if len(cfg.SourceExtensions) == 0 {
		return &ValidationError{Field: "source_extensions", Message: "at least one extension is required"}
	}

	if !slices.Contains(Formats, cfg.Format) {
		return &ValidationError{Field: "format", Message: fmt.Sprintf("unknown format %q", cfg.Format)}
	}
	if cfg.FailOn != FailOnNone && cfg.FailOn != FailOnAdded {
		return &ValidationError{Field: "fail_on", Message: fmt.Sprintf("must be %q or %q", FailOnNone, FailOnAdded)}
	}
	if cfg.Cache.TTLSeconds < 0 {
		return &ValidationError{Field: "cache.ttl_seconds", Message: "must not be negative"}
	}
	return nil
}

// Options is a validated Config in the shape the pipeline consumes.
type Options struct {
	Stage   stage.Options   `json:"stage"`
	Extract extract.Options `json:"extract"`
	Strict  bool            `json:"strict"`
}

// Compile validates cfg and converts it to Options.
func Compile(cfg Config) (Options, error) {
	if err := Validate(cfg); err != nil {
		return Options{}, err
	}
	return Options{
		Stage: stage.Options{
			Targets:         cfg.TargetSteps,
			Markers:         cfg.StageMarkers,
			ProjectSuffixes: cfg.ProjectSuffixes,
		},
		Extract: extract.Options{
			Patterns:         cfg.WarningPatterns,
			Ignore:           cfg.IgnorePatterns,
			CaseInsensitive:  cfg.Comparison.IgnoreCase,
			SourceExtensions: cfg.SourceExtensions,
		},
		Strict: cfg.Comparison.Strict,
	}, nil
}
