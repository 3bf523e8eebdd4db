package analyze

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/dshills/warndiff/internal/cache"
	"github.com/dshills/warndiff/internal/compare"
	"github.com/dshills/warndiff/internal/config"
	"github.com/dshills/warndiff/internal/extract"
	"github.com/dshills/warndiff/internal/logfile"
	"github.com/dshills/warndiff/internal/stage"
)

// cacheFormat is bumped whenever the cached diagnostics change shape.
const cacheFormat = "diagnostics/v1"

// Analyzer runs the read, build, select and extract pipeline for build logs.
type Analyzer struct {
	opts        config.Options
	extractor   *extract.Extractor
	cache       *cache.Cache
	logger      *slog.Logger
	fingerprint string
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithCache stores extracted diagnostics in c. A nil or disabled cache is
// ignored.
func WithCache(c *cache.Cache) Option {
	return func(a *Analyzer) {
		if c != nil && c.Enabled() {
			a.cache = c
		}
	}
}

// WithLogger sets the logger used for progress messages.
func WithLogger(l *slog.Logger) Option {
	return func(a *Analyzer) { a.logger = l }
}

// New creates an Analyzer for compiled options.
func New(opts config.Options, options ...Option) (*Analyzer, error) {
	ex, err := extract.New(opts.Extract)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalid, err)
	}
	fp, err := json.Marshal(struct {
		Format string
		Opts   config.Options
	}{cacheFormat, opts})
	if err != nil {
		return nil, fmt.Errorf("fingerprinting options: %w", err)
	}

	a := &Analyzer{
		opts:        opts,
		extractor:   ex,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		fingerprint: cache.HashKey(string(fp)),
	}
	for _, o := range options {
		o(a)
	}
	return a, nil
}

// Extractor returns the extractor built from the analyzer's options.
func (a *Analyzer) Extractor() *extract.Extractor {
	return a.extractor
}

// Forest reads the log at path and returns it with its stage forest.
func (a *Analyzer) Forest(path string) (*logfile.Log, []*stage.Node, error) {
	log, err := logfile.Read(path)
	if err != nil {
		return nil, nil, err
	}
	roots := stage.Build(log.Lines, a.opts.Stage)
	a.logger.Debug("parsed log",
		"path", path,
		"encoding", log.Encoding,
		"lines", len(log.Lines),
		"roots", len(roots))
	return log, roots, nil
}

// Targets returns the target stages of roots. In strict mode a forest
// without targets is a parse failure.
func (a *Analyzer) Targets(path string, roots []*stage.Node) ([]*stage.Node, error) {
	targets := stage.SelectTargets(roots, a.opts.Stage.Targets)
	if len(targets) == 0 && a.opts.Strict {
		return nil, &stage.ParseError{Msg: fmt.Sprintf("no target stage found in %s", path)}
	}
	return targets, nil
}

// Diagnostics extracts the diagnostics of the target stages of the log at
// path, consulting the cache first when one is configured.
func (a *Analyzer) Diagnostics(path string) (*Source, error) {
	log, roots, err := a.Forest(path)
	if err != nil {
		return nil, err
	}

	key := cache.BuildCacheKey(a.fingerprint, log.Digest)
	if a.cache != nil {
		if entry, ok := a.cache.Get(key); ok {
			a.logger.Debug("cache hit", "path", path, "diagnostics", len(entry.Diagnostics))
			return &Source{
				Path:        path,
				Encoding:    entry.Encoding,
				Diagnostics: entry.Diagnostics,
				Cached:      true,
			}, nil
		}
		a.logger.Debug("cache miss", "path", path)
	}

	targets, err := a.Targets(path, roots)
	if err != nil {
		return nil, err
	}
	diags := a.extractor.ExtractAll(targets)
	a.logger.Debug("extracted diagnostics",
		"path", path,
		"targets", len(targets),
		"diagnostics", len(diags))

	if a.cache != nil {
		if err := a.cache.Put(key, log.Encoding, diags); err != nil {
			a.logger.Warn("cache write failed", "path", path, "error", err)
		}
	}

	return &Source{Path: path, Encoding: log.Encoding, Diagnostics: diags}, nil
}

// Run compares the logs at oldPath and newPath.
func (a *Analyzer) Run(oldPath, newPath string) (*Report, error) {
	startTime := time.Now()

	old, err := a.Diagnostics(oldPath)
	if err != nil {
		return nil, err
	}
	cur, err := a.Diagnostics(newPath)
	if err != nil {
		return nil, err
	}
	parseMs := time.Since(startTime).Milliseconds()

	compareStart := time.Now()
	summary := compare.Compare(old.Diagnostics, cur.Diagnostics)
	compareMs := time.Since(compareStart).Milliseconds()

	a.logger.Debug("compared logs",
		"added", summary.TotalAdded,
		"removed", summary.TotalRemoved,
		"unchanged", summary.TotalUnchanged,
		"stages", len(summary.ByStage))

	return &Report{
		Tool:        Tool,
		Version:     Version,
		OldLog:      oldPath,
		NewLog:      newPath,
		OldEncoding: old.Encoding,
		NewEncoding: cur.Encoding,
		Kinds:       extract.Kinds(a.opts.Extract.Patterns),
		Summary:     summary,
		Timing: Timing{
			ParseMs:   parseMs,
			CompareMs: compareMs,
			TotalMs:   time.Since(startTime).Milliseconds(),
		},
	}, nil
}
