package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/warndiff/internal/analyze"
	"github.com/dshills/warndiff/internal/config"
	"github.com/dshills/warndiff/internal/logfile"
	"github.com/dshills/warndiff/internal/stage"
)

// Exit codes
const (
	ExitSuccess       = 0
	ExitNotFound      = 1
	ExitConfigError   = 2
	ExitParseError    = 3
	ExitEncodingError = 4
	ExitRegression    = 5
	ExitUnexpected    = 255
)

// Global flags
var (
	flagConfig  string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "warndiff [old.log new.log]",
	Short: "Compare compiler warnings between two build logs",
	Long: "Warndiff rebuilds the stage tree of two build logs, extracts and normalizes " +
		"their compiler diagnostics and reports which were added, removed or unchanged per stage.",
	Args:          cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		if len(args) != 2 {
			return fmt.Errorf("expected two log files, got %d", len(args))
		}
		runCompare(cmd, args[0], args[1])
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "Config file (YAML, JSON or TOML)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Log pipeline details to stderr")
	addCompareFlags(rootCmd)

	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(stagesCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(versionCmd)
}

// Run executes the root command and returns an exit code.
func Run() int {
	return run(os.Args[1:])
}

func run(args []string) int {
	exitCode = ExitSuccess
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error
		if code := exitCodeFor(err); code != ExitUnexpected {
			return code
		}
		return ExitConfigError
	}
	return exitCode
}

// exitCode is set by command handlers to control the process exit code.
var exitCode = ExitSuccess

// exitCodeFor maps an error to the exit code of its kind.
func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, logfile.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return ExitNotFound
	case errors.Is(err, config.ErrInvalid):
		return ExitConfigError
	case errors.Is(err, stage.ErrParse):
		return ExitParseError
	case errors.Is(err, logfile.ErrEncoding):
		return ExitEncodingError
	default:
		return ExitUnexpected
	}
}

// fail reports err on w and records its exit code.
func fail(w io.Writer, err error) {
	fmt.Fprintf(w, "Error: %v\n", err)
	exitCode = exitCodeFor(err)
}

func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if flagVerbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print warndiff version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "warndiff version %s\n", analyze.Version)
	},
}
