package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/dshills/warndiff/internal/extract"
	"github.com/dshills/warndiff/internal/stage"
)

// Output formats understood by the report writers.
var Formats = []string{"text", "json", "markdown", "sarif"}

// FailOn values.
const (
	FailOnNone  = "none"
	FailOnAdded = "added"
)

// Config represents the warndiff configuration.
type Config struct {
	TargetSteps      []stage.Target    `json:"target_steps" yaml:"target_steps" toml:"target_steps"`
	StageMarkers     []string          `json:"stage_markers" yaml:"stage_markers" toml:"stage_markers"`
	ProjectSuffixes  []string          `json:"project_suffixes" yaml:"project_suffixes" toml:"project_suffixes"`
	WarningPatterns  []extract.Pattern `json:"warning_patterns" yaml:"warning_patterns" toml:"warning_patterns"`
	IgnorePatterns   map[string]string `json:"ignore_patterns" yaml:"ignore_patterns" toml:"ignore_patterns"`
	SourceExtensions []string          `json:"source_extensions" yaml:"source_extensions" toml:"source_extensions"`
	Comparison       ComparisonConfig  `json:"comparison" yaml:"comparison" toml:"comparison"`
	Output           OutputConfig      `json:"output" yaml:"output" toml:"output"`
	Format           string            `json:"format" yaml:"format" toml:"format"`
	FailOn           string            `json:"fail_on" yaml:"fail_on" toml:"fail_on"`
	Cache            CacheConfig       `json:"cache" yaml:"cache" toml:"cache"`
}

// ComparisonConfig controls how diagnostics are matched.
type ComparisonConfig struct {
	IgnoreCase bool `json:"ignore_case" yaml:"ignore_case" toml:"ignore_case"`
	Strict     bool `json:"strict" yaml:"strict" toml:"strict"`
}

// OutputConfig controls the console report.
type OutputConfig struct {
	UseColors          bool `json:"use_colors" yaml:"use_colors" toml:"use_colors"`
	ShowUnchangedCount bool `json:"show_unchanged_count" yaml:"show_unchanged_count" toml:"show_unchanged_count"`
	GroupByStage       bool `json:"group_by_stage" yaml:"group_by_stage" toml:"group_by_stage"`
}

// CacheConfig controls caching behavior.
type CacheConfig struct {
	Enabled    bool   `json:"enabled" yaml:"enabled" toml:"enabled"`
	Dir        string `json:"dir,omitempty" yaml:"dir,omitempty" toml:"dir,omitempty"`
	TTLSeconds int    `json:"ttl_seconds" yaml:"ttl_seconds" toml:"ttl_seconds"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		TargetSteps: []stage.Target{
			{Pattern: "Step 4/21: BuildOrionPRO", Name: "BuildOrionPRO"},
		},
		StageMarkers:    []string{"<build>", "<brcc>", "<dcc>"},
		ProjectSuffixes: []string{".dpr"},
		WarningPatterns: []extract.Pattern{
			{Pattern: " Warning: ", Kind: "Warning"},
			{Pattern: " Hint: ", Kind: "Hint"},
		},
		IgnorePatterns: map[string]string{
			extract.IgnoreTimestamp:  `^\[\d{2}:\d{2}:\d{2}\]`,
			extract.IgnorePathPrefix: `N:\\BuildArea\\[^\\]+\\`,
		},
		SourceExtensions: []string{"pas", "dpr", "inc"},
		Output: OutputConfig{
			UseColors:          true,
			ShowUnchangedCount: true,
			GroupByStage:       true,
		},
		Format: "text",
		FailOn: FailOnNone,
		Cache: CacheConfig{
			TTLSeconds: 86400,
		},
	}
}

// ConfigDir returns the platform-appropriate config directory for warndiff.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "warndiff"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "warndiff"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "warndiff"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "warndiff"), nil
	default:
		return filepath.Join(home, ".config", "warndiff"), nil
	}
}

// ConfigPath returns the full path to the default config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// ResolvePath picks the config file to load. An explicit path is returned
// as is and must exist. Otherwise $WARNDIFF_CONFIG is used, then the default
// config file if present. An empty result means defaults only.
func ResolvePath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file %s: %w", explicit, err)
		}
		return explicit, nil
	}
	if env := os.Getenv("WARNDIFF_CONFIG"); env != "" {
		if _, err := os.Stat(env); err != nil {
			return "", fmt.Errorf("config file %s (WARNDIFF_CONFIG): %w", env, err)
		}
		return env, nil
	}
	path, err := ConfigPath()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("reading config file: %w", err)
	}
	return path, nil
}

// LoadFile decodes the file at path on top of the defaults. Keys present in
// the file replace the default; ignore_patterns merge by name.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	if err := decode(path, data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: parsing %s: %w", ErrInvalid, path, err)
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
	case ".toml":
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return err
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
		}
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
	}
	return nil
}

// Save writes cfg to the default config file.
func Save(cfg Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return WriteFile(path, cfg)
}

// WriteFile writes cfg to path, encoded by the path's extension.
func WriteFile(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	var buf bytes.Buffer
	if err := Encode(&buf, filepath.Ext(path), cfg); err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// Encode writes cfg in the format named by ext (".yaml", ".json", ".toml").
func Encode(w io.Writer, ext string, cfg Config) error {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	case "toml":
		return toml.NewEncoder(w).Encode(cfg)
	default:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return err
		}
		return enc.Close()
	}
}

// Load builds the effective config by merging: defaults <- file <- env <- overrides.
// path is passed through ResolvePath. The overrides map comes from CLI flags
// (only non-zero values should be set).
func Load(path string, overrides map[string]string) (Config, error) {
	resolved, err := ResolvePath(path)
	if err != nil {
		return Config{}, err
	}
	cfg, err := LoadFile(resolved)
	if err != nil {
		return Config{}, err
	}
	if err := mergeEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := mergeOverrides(&cfg, overrides); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func mergeEnv(cfg *Config) error {
	if v := os.Getenv("WARNDIFF_FORMAT"); v != "" {
		cfg.Format = v
	}
	if v := os.Getenv("WARNDIFF_FAIL_ON"); v != "" {
		cfg.FailOn = v
	}
	if v := os.Getenv("WARNDIFF_IGNORE_CASE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return &ValidationError{Field: "WARNDIFF_IGNORE_CASE", Message: "must be a boolean"}
		}
		cfg.Comparison.IgnoreCase = b
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		cfg.Output.UseColors = false
	}
	return nil
}

func mergeOverrides(cfg *Config, overrides map[string]string) error {
	if overrides == nil {
		return nil
	}
	if v, ok := overrides["format"]; ok && v != "" {
		cfg.Format = v
	}
	if v, ok := overrides["failOn"]; ok && v != "" {
		cfg.FailOn = v
	}
	if v, ok := overrides["ignoreCase"]; ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return &ValidationError{Field: "ignoreCase", Message: "must be a boolean"}
		}
		cfg.Comparison.IgnoreCase = b
	}
	if v, ok := overrides["noColor"]; ok && v == "true" {
		cfg.Output.UseColors = false
	}
	return nil
}

// Keys lists the keys accepted by SetField.
func Keys() []string {
	keys := []string{
		"format", "fail_on",
		"comparison.ignore_case", "comparison.strict",
		"output.use_colors", "output.show_unchanged_count", "output.group_by_stage",
		"cache.enabled", "cache.dir", "cache.ttl_seconds",
	}
	sort.Strings(keys)
	return keys
}

// SetField sets a single config field by key name. Returns error if key is unknown.
func SetField(cfg *Config, key, value string) error {
	boolField := func(dst *bool) error {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s must be a boolean: %w", key, err)
		}
		*dst = b
		return nil
	}

	switch key {
	case "format":
		cfg.Format = value
	case "fail_on":
		cfg.FailOn = value
	case "comparison.ignore_case":
		return boolField(&cfg.Comparison.IgnoreCase)
	case "comparison.strict":
		return boolField(&cfg.Comparison.Strict)
	case "output.use_colors":
		return boolField(&cfg.Output.UseColors)
	case "output.show_unchanged_count":
		return boolField(&cfg.Output.ShowUnchangedCount)
	case "output.group_by_stage":
		return boolField(&cfg.Output.GroupByStage)
	case "cache.enabled":
		return boolField(&cfg.Cache.Enabled)
	case "cache.dir":
		cfg.Cache.Dir = value
	case "cache.ttl_seconds":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("cache.ttl_seconds must be an integer: %w", err)
		}
		cfg.Cache.TTLSeconds = n
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}
