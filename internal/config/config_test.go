package config

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// isolate points the config lookup at an empty directory and clears the
// environment variables Load reads.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	for _, k := range []string{"WARNDIFF_CONFIG", "WARNDIFF_FORMAT", "WARNDIFF_FAIL_ON", "WARNDIFF_IGNORE_CASE"} {
		t.Setenv(k, "")
	}
	if v, ok := os.LookupEnv("NO_COLOR"); ok {
		os.Unsetenv("NO_COLOR")
		t.Cleanup(func() { os.Setenv("NO_COLOR", v) })
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if len(cfg.TargetSteps) != 1 || cfg.TargetSteps[0].Name != "BuildOrionPRO" {
		t.Errorf("Default target steps = %+v", cfg.TargetSteps)
	}
	if cfg.TargetSteps[0].Pattern != "Step 4/21: BuildOrionPRO" {
		t.Errorf("Default target pattern = %q", cfg.TargetSteps[0].Pattern)
	}
	if got := strings.Join(cfg.StageMarkers, ","); got != "<build>,<brcc>,<dcc>" {
		t.Errorf("Default markers = %q", got)
	}
	if len(cfg.WarningPatterns) != 2 || cfg.WarningPatterns[0].Kind != "Warning" || cfg.WarningPatterns[1].Kind != "Hint" {
		t.Errorf("Default warning patterns = %+v", cfg.WarningPatterns)
	}
	if cfg.Format != "text" {
		t.Errorf("Default format = %q, want %q", cfg.Format, "text")
	}
	if cfg.FailOn != FailOnNone {
		t.Errorf("Default failOn = %q, want %q", cfg.FailOn, FailOnNone)
	}
	if cfg.Comparison.IgnoreCase {
		t.Error("Default ignore_case should be false")
	}
	if !cfg.Output.UseColors || !cfg.Output.ShowUnchangedCount || !cfg.Output.GroupByStage {
		t.Errorf("Default output = %+v", cfg.Output)
	}
	if cfg.Cache.Enabled || cfg.Cache.TTLSeconds != 86400 {
		t.Errorf("Default cache = %+v", cfg.Cache)
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("Default config should validate: %v", err)
	}
}

func TestLoadFile_YAMLMergesOnDefaults(t *testing.T) {
	path := writeFile(t, "cfg.yaml", `
target_steps:
  - pattern: "Step 2/9: BuildCore"
    name: BuildCore
ignore_patterns:
  build_id: '\(build #\d+\)'
  path_prefix: ''
comparison:
  ignore_case: true
`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(cfg.TargetSteps) != 1 || cfg.TargetSteps[0].Name != "BuildCore" {
		t.Errorf("target steps = %+v", cfg.TargetSteps)
	}
	if len(cfg.StageMarkers) != 3 {
		t.Errorf("markers should keep defaults, got %v", cfg.StageMarkers)
	}
	if cfg.IgnorePatterns["timestamp"] == "" {
		t.Error("timestamp pattern should survive the merge")
	}
	if cfg.IgnorePatterns["path_prefix"] != "" {
		t.Errorf("path_prefix should be disabled, got %q", cfg.IgnorePatterns["path_prefix"])
	}
	if cfg.IgnorePatterns["build_id"] == "" {
		t.Error("build_id pattern should be added")
	}
	if !cfg.Comparison.IgnoreCase {
		t.Error("ignore_case should be true")
	}
	if !cfg.Output.UseColors {
		t.Error("use_colors should keep its default")
	}
}

func TestLoadFile_JSON(t *testing.T) {
	path := writeFile(t, "cfg.json", `{"format": "json", "stage_markers": ["<make>"]}`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Format != "json" {
		t.Errorf("Format = %q", cfg.Format)
	}
	if len(cfg.StageMarkers) != 1 || cfg.StageMarkers[0] != "<make>" {
		t.Errorf("StageMarkers = %v", cfg.StageMarkers)
	}
}

func TestLoadFile_TOML(t *testing.T) {
	path := writeFile(t, "cfg.toml", `
format = "markdown"
fail_on = "added"

[[warning_patterns]]
pattern = " Error: "
kind = "Error"

[cache]
enabled = true
ttl_seconds = 60
`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Format != "markdown" || cfg.FailOn != FailOnAdded {
		t.Errorf("format/fail_on = %q/%q", cfg.Format, cfg.FailOn)
	}
	if len(cfg.WarningPatterns) != 1 || cfg.WarningPatterns[0].Kind != "Error" {
		t.Errorf("WarningPatterns = %+v", cfg.WarningPatterns)
	}
	if !cfg.Cache.Enabled || cfg.Cache.TTLSeconds != 60 {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
}

func TestLoadFile_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"yaml unknown key", "c.yaml", "colour: true\n"},
		{"yaml wrong type", "c.yaml", "stage_markers: 5\n"},
		{"json unknown key", "c.json", `{"colour": true}`},
		{"json wrong type", "c.json", `{"format": 3}`},
		{"toml unknown key", "c.toml", "colour = true\n"},
		{"toml syntax", "c.toml", "format = \n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFile(writeFile(t, tt.file, tt.content))
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestLoadFile_EmptyYAML(t *testing.T) {
	cfg, err := LoadFile(writeFile(t, "empty.yaml", ""))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Format != "text" {
		t.Errorf("empty file should yield defaults, got format %q", cfg.Format)
	}
}

func TestResolvePath(t *testing.T) {
	isolate(t)

	got, err := ResolvePath("")
	if err != nil || got != "" {
		t.Errorf("no config anywhere: got (%q, %v), want empty", got, err)
	}

	_, err = ResolvePath(filepath.Join(t.TempDir(), "missing.yaml"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("missing explicit config: expected fs.ErrNotExist, got %v", err)
	}

	envPath := writeFile(t, "env.yaml", "format: json\n")
	t.Setenv("WARNDIFF_CONFIG", envPath)
	got, err = ResolvePath("")
	if err != nil || got != envPath {
		t.Errorf("WARNDIFF_CONFIG: got (%q, %v)", got, err)
	}

	explicit := writeFile(t, "explicit.yaml", "")
	got, err = ResolvePath(explicit)
	if err != nil || got != explicit {
		t.Errorf("explicit should win: got (%q, %v)", got, err)
	}
}

func TestResolvePath_DefaultFile(t *testing.T) {
	isolate(t)
	path, err := ConfigPath()
	if err != nil {
		t.Fatal(err)
	}
	if err := Save(Default()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := ResolvePath("")
	if err != nil || got != path {
		t.Errorf("ResolvePath = (%q, %v), want %q", got, err, path)
	}
}

func TestMergeEnv(t *testing.T) {
	isolate(t)
	t.Setenv("WARNDIFF_FORMAT", "json")
	t.Setenv("WARNDIFF_FAIL_ON", "added")
	t.Setenv("WARNDIFF_IGNORE_CASE", "true")
	t.Setenv("NO_COLOR", "1")

	cfg := Default()
	if err := mergeEnv(&cfg); err != nil {
		t.Fatalf("mergeEnv error: %v", err)
	}
	if cfg.Format != "json" {
		t.Errorf("Format = %q, want %q", cfg.Format, "json")
	}
	if cfg.FailOn != "added" {
		t.Errorf("FailOn = %q, want %q", cfg.FailOn, "added")
	}
	if !cfg.Comparison.IgnoreCase {
		t.Error("IgnoreCase should be true")
	}
	if cfg.Output.UseColors {
		t.Error("NO_COLOR should disable colors")
	}
}

func TestMergeEnv_BadBool(t *testing.T) {
	isolate(t)
	t.Setenv("WARNDIFF_IGNORE_CASE", "sometimes")
	cfg := Default()
	err := mergeEnv(&cfg)
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "WARNDIFF_IGNORE_CASE" {
		t.Errorf("expected ValidationError for WARNDIFF_IGNORE_CASE, got %v", err)
	}
}

func TestLoad_Precedence(t *testing.T) {
	isolate(t)
	path := writeFile(t, "cfg.yaml", "format: markdown\nfail_on: added\n")
	t.Setenv("WARNDIFF_FORMAT", "json")

	cfg, err := Load(path, map[string]string{"failOn": "none", "ignoreCase": "true"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Format != "json" {
		t.Errorf("env should beat file: Format = %q", cfg.Format)
	}
	if cfg.FailOn != "none" {
		t.Errorf("override should beat file: FailOn = %q", cfg.FailOn)
	}
	if !cfg.Comparison.IgnoreCase {
		t.Error("ignoreCase override not applied")
	}
}

func TestSetField(t *testing.T) {
	cfg := Default()
	tests := []struct {
		key, value string
		wantErr    bool
	}{
		{"format", "sarif", false},
		{"fail_on", "added", false},
		{"comparison.ignore_case", "true", false},
		{"comparison.strict", "yes", true},
		{"output.use_colors", "false", false},
		{"cache.ttl_seconds", "120", false},
		{"cache.ttl_seconds", "soon", true},
		{"nope", "x", true},
	}
	for _, tt := range tests {
		err := SetField(&cfg, tt.key, tt.value)
		if (err != nil) != tt.wantErr {
			t.Errorf("SetField(%q, %q) error = %v, wantErr %v", tt.key, tt.value, err, tt.wantErr)
		}
	}
	if cfg.Format != "sarif" || cfg.FailOn != "added" || !cfg.Comparison.IgnoreCase {
		t.Errorf("fields not applied: %+v", cfg)
	}
	if cfg.Output.UseColors || cfg.Cache.TTLSeconds != 120 {
		t.Errorf("fields not applied: output=%+v cache=%+v", cfg.Output, cfg.Cache)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"no targets", func(c *Config) { c.TargetSteps = nil }, "target_steps"},
		{"target without name", func(c *Config) { c.TargetSteps[0].Name = "" }, "target_steps[0].name"},
		{"no markers", func(c *Config) { c.StageMarkers = nil }, "stage_markers"},
		{"no patterns", func(c *Config) { c.WarningPatterns = nil }, "warning_patterns"},
		{"pattern without kind", func(c *Config) { c.WarningPatterns[1].Kind = "" }, "warning_patterns[1].kind"},
		{"bad regex", func(c *Config) { c.IgnorePatterns["timestamp"] = "([" }, "ignore_patterns.timestamp"},
		{"no extensions", func(c *Config) { c.SourceExtensions = nil }, "source_extensions"},
		{"bad format", func(c *Config) { c.Format = "html" }, "format"},
		{"bad fail_on", func(c *Config) { c.FailOn = "high" }, "fail_on"},
		{"negative ttl", func(c *Config) { c.Cache.TTLSeconds = -1 }, "cache.ttl_seconds"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			err := Validate(cfg)
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("expected ErrInvalid, got %v", err)
			}
			var ve *ValidationError
			if !errors.As(err, &ve) || ve.Field != tt.field {
				t.Errorf("field = %v, want %q", err, tt.field)
			}
		})
	}
}

func TestValidate_DisabledPatternAllowed(t *testing.T) {
	cfg := Default()
	cfg.IgnorePatterns["path_prefix"] = ""
	if err := Validate(cfg); err != nil {
		t.Errorf("empty ignore pattern should be allowed: %v", err)
	}
}

func TestCompile(t *testing.T) {
	cfg := Default()
	cfg.Comparison.IgnoreCase = true
	cfg.Comparison.Strict = true

	opts, err := Compile(cfg)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(opts.Stage.Targets) != 1 || len(opts.Stage.Markers) != 3 {
		t.Errorf("stage options = %+v", opts.Stage)
	}
	if !opts.Extract.CaseInsensitive || len(opts.Extract.Patterns) != 2 {
		t.Errorf("extract options = %+v", opts.Extract)
	}
	if !opts.Strict {
		t.Error("Strict not carried over")
	}

	cfg.StageMarkers = nil
	if _, err := Compile(cfg); !errors.Is(err, ErrInvalid) {
		t.Errorf("Compile of invalid config: expected ErrInvalid, got %v", err)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	for _, ext := range []string{".yaml", ".json", ".toml"} {
		t.Run(ext, func(t *testing.T) {
			cfg := Default()
			cfg.Format = "sarif"
			var buf bytes.Buffer
			if err := Encode(&buf, ext, cfg); err != nil {
				t.Fatalf("Encode: %v", err)
			}
			path := writeFile(t, "cfg"+ext, buf.String())
			got, err := LoadFile(path)
			if err != nil {
				t.Fatalf("LoadFile: %v", err)
			}
			if got.Format != "sarif" || got.IgnorePatterns["path_prefix"] != cfg.IgnorePatterns["path_prefix"] {
				t.Errorf("round trip lost data: %+v", got)
			}
		})
	}
}
