package output

import (
	"fmt"
	"io"
	"os"

	"github.com/dshills/warndiff/internal/analyze"
)

// Writer writes a report in a specific format.
type Writer interface {
	Write(w io.Writer, report *analyze.Report) error
}

// Options controls the console report. Machine formats ignore it.
type Options struct {
	UseColors          bool
	ShowUnchangedCount bool
	GroupByStage       bool
}

// DefaultOptions returns the console defaults without colors.
func DefaultOptions() Options {
	return Options{ShowUnchangedCount: true, GroupByStage: true}
}

// GetWriter returns a writer for the specified format.
func GetWriter(format string, opts Options) (Writer, error) {
	switch format {
	case "text", "":
		return &TextWriter{Options: opts}, nil
	case "json":
		return &JSONWriter{}, nil
	case "markdown":
		return &MarkdownWriter{}, nil
	case "sarif":
		return &SARIFWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// WriteReport writes the report to the specified output (file path or stdout).
func WriteReport(report *analyze.Report, format, outPath string, opts Options) error {
	writer, err := GetWriter(format, opts)
	if err != nil {
		return err
	}

	var w io.Writer
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		w = f
	} else {
		w = os.Stdout
	}

	return writer.Write(w, report)
}
