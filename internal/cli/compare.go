package cli

import (
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dshills/warndiff/internal/analyze"
	"github.com/dshills/warndiff/internal/cache"
	"github.com/dshills/warndiff/internal/config"
	"github.com/dshills/warndiff/internal/output"
)

// Shared compare flags
var (
	flagFormat     string
	flagOut        string
	flagFailOn     string
	flagIgnoreCase bool
	flagNoColor    bool
)

func addCompareFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&flagFormat, "format", "f", "", "Output format (text, json, markdown, sarif)")
	cmd.Flags().StringVarP(&flagOut, "out", "o", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&flagFailOn, "fail-on", "", "Exit with code 5 on regressions (none, added)")
	cmd.Flags().BoolVarP(&flagIgnoreCase, "ignore-case", "i", false, "Compare diagnostics case-insensitively")
	cmd.Flags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
}

func buildOverrides() map[string]string {
	m := make(map[string]string)
	if flagFormat != "" {
		m["format"] = flagFormat
	}
	if flagFailOn != "" {
		m["failOn"] = flagFailOn
	}
	if flagIgnoreCase {
		m["ignoreCase"] = strconv.FormatBool(flagIgnoreCase)
	}
	if flagNoColor {
		m["noColor"] = "true"
	}
	return m
}

// outputOptions resolves console options. Colors additionally require stdout
// to be a terminal.
func outputOptions(cfg config.Config) output.Options {
	return output.Options{
		UseColors:          cfg.Output.UseColors && flagOut == "" && term.IsTerminal(int(os.Stdout.Fd())),
		ShowUnchangedCount: cfg.Output.ShowUnchangedCount,
		GroupByStage:       cfg.Output.GroupByStage,
	}
}

// newAnalyzer loads, validates and compiles the configuration and builds an
// Analyzer from it.
func newAnalyzer(cmd *cobra.Command, overrides map[string]string) (*analyze.Analyzer, config.Config, error) {
	cfg, err := config.Load(flagConfig, overrides)
	if err != nil {
		return nil, config.Config{}, err
	}
	opts, err := config.Compile(cfg)
	if err != nil {
		return nil, config.Config{}, err
	}

	logger := newLogger(cmd.ErrOrStderr())
	c, err := cache.New(cfg.Cache.Enabled, cfg.Cache.Dir, cfg.Cache.TTLSeconds)
	if err != nil {
		logger.Warn("cache unavailable", "error", err)
		c = nil
	}

	a, err := analyze.New(opts, analyze.WithCache(c), analyze.WithLogger(logger))
	if err != nil {
		return nil, config.Config{}, err
	}
	return a, cfg, nil
}

func runCompare(cmd *cobra.Command, oldPath, newPath string) {
	errOut := cmd.ErrOrStderr()

	a, cfg, err := newAnalyzer(cmd, buildOverrides())
	if err != nil {
		fail(errOut, err)
		return
	}

	report, err := a.Run(oldPath, newPath)
	if err != nil {
		fail(errOut, err)
		return
	}

	if err := output.WriteReport(report, cfg.Format, flagOut, outputOptions(cfg)); err != nil {
		fail(errOut, err)
		return
	}

	if report.MeetsThreshold(cfg.FailOn) {
		exitCode = ExitRegression
	}
}

var compareCmd = &cobra.Command{
	Use:   "compare <old.log> <new.log>",
	Short: "Compare the diagnostics of two build logs",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		runCompare(cmd, args[0], args[1])
		return nil
	},
}

func init() {
	addCompareFlags(compareCmd)
}
