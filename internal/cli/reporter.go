package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/petergi/segysak-cli/internal/operations"
)

// ReportOptions contains options for report generation
type ReportOptions struct {
	Format       OutputFormat
	Formatter    Formatter
	OutputPath   string
	ColorEnabled bool
	Verbose      bool
}

// NewReportOptions creates report options from flags
func NewReportOptions(flags *RootFlags) (*ReportOptions, error) {
	format, err := ParseFormat(flags.Format)
	if err != nil {
		return nil, NewCLIError(ExitUsage, err.Error())
	}

	// Disable color for file output or if explicitly disabled
	colorEnabled := flags.Color
	if flags.Report != "" || format != FormatText {
		colorEnabled = false
	}

	return &ReportOptions{
		Format:       format,
		Formatter:    NewFormatter(format, colorEnabled),
		OutputPath:   flags.Report,
		ColorEnabled: colorEnabled,
		Verbose:      flags.Verbose,
	}, nil
}

// WriteScanReport writes a formatted trace header scan
func WriteScanReport(w io.Writer, report *operations.ScanReport, opts *ReportOptions) error {
	if report == nil {
		return fmt.Errorf("no scan report to write")
	}
	return writeReport(w, opts.Formatter.FormatScan(report), opts)
}

// WriteTextHeaderReport writes a formatted textual header
func WriteTextHeaderReport(w io.Writer, report *operations.TextHeaderReport, opts *ReportOptions) error {
	if report == nil {
		return fmt.Errorf("no textual header to write")
	}
	return writeReport(w, opts.Formatter.FormatTextHeader(report), opts)
}

// WriteConvertReport writes a formatted conversion result
func WriteConvertReport(w io.Writer, result *operations.BatchResult, opts *ReportOptions) error {
	if result == nil {
		return fmt.Errorf("no conversion result to write")
	}
	return writeReport(w, opts.Formatter.FormatConvert(result), opts)
}

// writeReport writes content to the report file when one is set, to w
// otherwise.
func writeReport(w io.Writer, content string, opts *ReportOptions) error {
	if opts.OutputPath != "" {
		if dir := filepath.Dir(opts.OutputPath); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("create report directory: %w", err)
			}
		}
		return os.WriteFile(opts.OutputPath, []byte(content), 0644)
	}

	return WriteOutput(w, content)
}
