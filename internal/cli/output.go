package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/petergi/segysak-cli/internal/netcdf"
	"github.com/petergi/segysak-cli/internal/operations"
	"github.com/petergi/segysak-cli/internal/segy"
)

// OutputFormat represents the type of output format
type OutputFormat int

const (
	FormatText OutputFormat = iota
	FormatJSON
	FormatMarkdown
	FormatYAML
)

// ParseFormat converts a string to OutputFormat
func ParseFormat(s string) (OutputFormat, error) {
	switch strings.ToLower(s) {
	case "text", "":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return FormatText, fmt.Errorf("invalid format: %s (valid: text, json, markdown, yaml)", s)
	}
}

// Formatter defines the interface for output formatters
type Formatter interface {
	FormatScan(report *operations.ScanReport) string
	FormatTextHeader(report *operations.TextHeaderReport) string
	FormatConvert(result *operations.BatchResult) string
}

// NewFormatter creates a formatter based on format and options
func NewFormatter(format OutputFormat, colorEnabled bool) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{}
	case FormatMarkdown:
		return &MarkdownFormatter{}
	case FormatYAML:
		return &YAMLFormatter{}
	default:
		return &TextFormatter{ColorEnabled: colorEnabled}
	}
}

var statsHeaders = []string{"byte", "name", "count", "mean", "std", "min", "25%", "50%", "75%", "max"}

func statsRow(s segy.FieldStats) []string {
	return []string{
		strconv.Itoa(s.Byte),
		s.Name,
		strconv.Itoa(s.Count),
		formatStat(s.Mean),
		formatStat(s.Std),
		formatStat(s.Min),
		formatStat(s.P25),
		formatStat(s.P50),
		formatStat(s.P75),
		formatStat(s.Max),
	}
}

// formatStat prints whole numbers without a fraction and keeps two decimals
// otherwise.
func formatStat(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatDims(dims []netcdf.Dimension) string {
	parts := make([]string, len(dims))
	for i, d := range dims {
		parts[i] = fmt.Sprintf("%s=%d", d.Name, d.Len)
	}
	return strings.Join(parts, ", ")
}

// TextFormatter formats output as human-readable text
type TextFormatter struct {
	ColorEnabled bool
	// Raw prints the textual header as bare lines.
	Raw bool
}

func (f *TextFormatter) FormatScan(report *operations.ScanReport) string {
	var b strings.Builder

	b.WriteString(f.header("Trace Header Scan"))
	b.WriteString("\n")
	b.WriteString(f.field("File", report.FilePath))
	b.WriteString("\n")

	s := report.Summary
	b.WriteString(f.subheader("Summary"))
	b.WriteString(f.field("Traces", strconv.Itoa(s.Traces)))
	b.WriteString(f.field("Samples", strconv.Itoa(s.Samples)))
	b.WriteString(f.field("Sample Interval", fmt.Sprintf("%d us (%s ms)", s.SampleInterval, formatStat(s.SampleRate))))
	b.WriteString(f.field("Format", s.Format))
	b.WriteString(f.field("Revision", s.Revision))
	b.WriteString(f.field("Byte Order", s.ByteOrder))
	b.WriteString(f.field("Text Encoding", s.TextEncoding))
	if s.ExtendedHeaders > 0 {
		b.WriteString(f.field("Extended Headers", strconv.Itoa(s.ExtendedHeaders)))
	}
	if s.Measurement != "" {
		b.WriteString(f.field("Units", s.Measurement))
	}
	b.WriteString(f.field("Traces Scanned", strconv.Itoa(report.TracesScanned)))
	b.WriteString("\n")

	if len(report.Warnings) > 0 {
		b.WriteString(f.subheader("Warnings"))
		for _, w := range report.Warnings {
			b.WriteString(f.warning("  ⚠ " + w))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if len(report.Fields) == 0 {
		b.WriteString(f.muted("No trace header fields to show."))
		b.WriteString("\n")
		return b.String()
	}

	rows := make([][]string, len(report.Fields))
	for i, s := range report.Fields {
		rows[i] = statsRow(s)
	}
	b.WriteString(f.table(statsHeaders, rows))
	b.WriteString("\n")

	return b.String()
}

func (f *TextFormatter) FormatTextHeader(report *operations.TextHeaderReport) string {
	if f.Raw {
		var b strings.Builder
		writeLines(&b, report.Lines)
		for _, ext := range report.Extended {
			writeLines(&b, ext)
		}
		return b.String()
	}

	var b strings.Builder
	b.WriteString(f.header("Textual File Header"))
	b.WriteString("\n")
	b.WriteString(f.field("File", report.FilePath))
	b.WriteString(f.field("Encoding", report.Encoding))
	b.WriteString("\n")
	b.WriteString(f.box(report.Lines))
	b.WriteString("\n")

	for i, ext := range report.Extended {
		b.WriteString("\n")
		b.WriteString(f.subheader(fmt.Sprintf("Extended Header %d", i+1)))
		b.WriteString(f.box(ext))
		b.WriteString("\n")
	}

	return b.String()
}

func (f *TextFormatter) FormatConvert(result *operations.BatchResult) string {
	var b strings.Builder

	b.WriteString(f.header("Conversion Report"))
	b.WriteString("\n")

	if result.Total > 1 {
		b.WriteString(f.subheader("Summary"))
		b.WriteString(f.field("Total Files", strconv.Itoa(result.Total)))
		b.WriteString(f.field("Converted", strconv.Itoa(len(result.Succeeded))))
		b.WriteString(f.field("Failed", strconv.Itoa(len(result.Failed))))
		b.WriteString(f.field("Duration", result.Duration.Round(time.Millisecond).String()))
		b.WriteString("\n")
	}

	for _, r := range result.Succeeded {
		c := r.Convert
		b.WriteString(f.success("✓ " + c.Input))
		b.WriteString("\n")
		b.WriteString(f.field("Output", c.Output))
		b.WriteString(f.field("Output Type", string(c.Direction)))
		b.WriteString(f.field("Traces", strconv.Itoa(c.Traces)))
		b.WriteString(f.field("Dimensions", formatDims(c.Dims)))
		b.WriteString(f.field("Duration", c.Duration.Round(time.Millisecond).String()))
		b.WriteString("\n")
	}

	for _, r := range result.Failed {
		msg := "no result"
		if r.Error != nil {
			msg = r.Error.Error()
		}
		b.WriteString(f.error(fmt.Sprintf("✗ %s: %s", filepath.Base(r.FilePath), msg)))
		b.WriteString("\n")
	}

	return b.String()
}

func (f *TextFormatter) table(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...)
	if f.ColorEnabled {
		headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")).Padding(0, 1)
		cellStyle := lipgloss.NewStyle().Padding(0, 1)
		t = t.StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	} else {
		cellStyle := lipgloss.NewStyle().Padding(0, 1)
		t = t.StyleFunc(func(row, col int) lipgloss.Style { return cellStyle })
	}
	return t.Render()
}

func (f *TextFormatter) box(lines []string) string {
	style := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	if f.ColorEnabled {
		style = style.BorderForeground(lipgloss.Color("6"))
	}
	return style.Render(strings.Join(lines, "\n"))
}

func (f *TextFormatter) header(s string) string {
	if f.ColorEnabled {
		return color.New(color.Bold, color.FgCyan).Sprintf("═══ %s ═══\n", s)
	}
	return fmt.Sprintf("=== %s ===\n", s)
}

func (f *TextFormatter) subheader(s string) string {
	if f.ColorEnabled {
		return color.New(color.Bold).Sprintf("%s:\n", s)
	}
	return fmt.Sprintf("%s:\n", s)
}

func (f *TextFormatter) field(key, value string) string {
	if f.ColorEnabled {
		return fmt.Sprintf("  %s: %s\n", color.CyanString(key), value)
	}
	return fmt.Sprintf("  %s: %s\n", key, value)
}

func (f *TextFormatter) success(s string) string {
	if f.ColorEnabled {
		return color.GreenString(s)
	}
	return s
}

func (f *TextFormatter) warning(s string) string {
	if f.ColorEnabled {
		return color.YellowString(s)
	}
	return s
}

func (f *TextFormatter) error(s string) string {
	if f.ColorEnabled {
		return color.RedString(s)
	}
	return s
}

func (f *TextFormatter) muted(s string) string {
	if f.ColorEnabled {
		return color.New(color.Faint).Sprint(s)
	}
	return s
}

func writeLines(b *strings.Builder, lines []string) {
	for _, l := range lines {
		b.WriteString(l)
		b.WriteString("\n")
	}
}

// conversion is the serialized form of one convert result.
type conversion struct {
	Input      string             `json:"input" yaml:"input"`
	Output     string             `json:"output,omitempty" yaml:"output,omitempty"`
	OutputType string             `json:"output_type,omitempty" yaml:"output_type,omitempty"`
	Traces     int                `json:"traces" yaml:"traces"`
	Dims       []netcdf.Dimension `json:"dims,omitempty" yaml:"dims,omitempty"`
	DurationMS int64              `json:"duration_ms" yaml:"duration_ms"`
	Error      string             `json:"error,omitempty" yaml:"error,omitempty"`
}

type conversionSummary struct {
	Total      int          `json:"total" yaml:"total"`
	Succeeded  int          `json:"succeeded" yaml:"succeeded"`
	Failed     int          `json:"failed" yaml:"failed"`
	DurationMS int64        `json:"duration_ms" yaml:"duration_ms"`
	Results    []conversion `json:"results" yaml:"results"`
}

func summarizeConversions(result *operations.BatchResult) conversionSummary {
	out := conversionSummary{
		Total:      result.Total,
		Succeeded:  len(result.Succeeded),
		Failed:     len(result.Failed),
		DurationMS: result.Duration.Milliseconds(),
		Results:    make([]conversion, 0, result.Total),
	}
	for _, r := range result.Succeeded {
		c := r.Convert
		out.Results = append(out.Results, conversion{
			Input:      c.Input,
			Output:     c.Output,
			OutputType: string(c.Direction),
			Traces:     c.Traces,
			Dims:       c.Dims,
			DurationMS: c.Duration.Milliseconds(),
		})
	}
	for _, r := range result.Failed {
		c := conversion{Input: r.FilePath, Error: "no result"}
		if r.Error != nil {
			c.Error = r.Error.Error()
		}
		out.Results = append(out.Results, c)
	}
	return out
}

// JSONFormatter formats output as JSON
type JSONFormatter struct{}

func (f *JSONFormatter) FormatScan(report *operations.ScanReport) string {
	return f.marshal(report, "report")
}

func (f *JSONFormatter) FormatTextHeader(report *operations.TextHeaderReport) string {
	return f.marshal(report, "report")
}

func (f *JSONFormatter) FormatConvert(result *operations.BatchResult) string {
	return f.marshal(summarizeConversions(result), "batch result")
}

func (f *JSONFormatter) marshal(v any, what string) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error": "failed to marshal %s: %s"}`, what, err)
	}
	return string(data) + "\n"
}

// YAMLFormatter formats output as YAML
type YAMLFormatter struct{}

func (f *YAMLFormatter) FormatScan(report *operations.ScanReport) string {
	return f.marshal(report)
}

func (f *YAMLFormatter) FormatTextHeader(report *operations.TextHeaderReport) string {
	return f.marshal(report)
}

func (f *YAMLFormatter) FormatConvert(result *operations.BatchResult) string {
	return f.marshal(summarizeConversions(result))
}

func (f *YAMLFormatter) marshal(v any) string {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Sprintf("error: %q\n", err.Error())
	}
	return string(data)
}

// MarkdownFormatter formats output as GitHub-flavored Markdown
type MarkdownFormatter struct{}

func (f *MarkdownFormatter) FormatScan(report *operations.ScanReport) string {
	var b strings.Builder

	b.WriteString("# Trace Header Scan\n\n")
	b.WriteString(fmt.Sprintf("**File:** `%s`\n\n", report.FilePath))

	s := report.Summary
	b.WriteString("## Summary\n\n")
	b.WriteString("| Property | Value |\n")
	b.WriteString("|----------|-------|\n")
	b.WriteString(fmt.Sprintf("| Traces | %d |\n", s.Traces))
	b.WriteString(fmt.Sprintf("| Samples | %d |\n", s.Samples))
	b.WriteString(fmt.Sprintf("| Sample Interval | %d us |\n", s.SampleInterval))
	b.WriteString(fmt.Sprintf("| Format | %s |\n", s.Format))
	b.WriteString(fmt.Sprintf("| Revision | %s |\n", s.Revision))
	b.WriteString(fmt.Sprintf("| Byte Order | %s |\n", s.ByteOrder))
	b.WriteString(fmt.Sprintf("| Text Encoding | %s |\n", s.TextEncoding))
	b.WriteString(fmt.Sprintf("| Traces Scanned | %d |\n\n", report.TracesScanned))

	if len(report.Warnings) > 0 {
		b.WriteString("## Warnings\n\n")
		for _, w := range report.Warnings {
			b.WriteString(fmt.Sprintf("- ⚠️ %s\n", w))
		}
		b.WriteString("\n")
	}

	if len(report.Fields) > 0 {
		b.WriteString("## Trace Header Fields\n\n")
		b.WriteString("| " + strings.Join(statsHeaders, " | ") + " |\n")
		b.WriteString("|" + strings.Repeat("---|", len(statsHeaders)) + "\n")
		for _, s := range report.Fields {
			b.WriteString("| " + strings.Join(statsRow(s), " | ") + " |\n")
		}
		b.WriteString("\n")
	}

	return b.String()
}

func (f *MarkdownFormatter) FormatTextHeader(report *operations.TextHeaderReport) string {
	var b strings.Builder

	b.WriteString("# Textual File Header\n\n")
	b.WriteString(fmt.Sprintf("**File:** `%s`\n\n", report.FilePath))
	b.WriteString(fmt.Sprintf("**Encoding:** %s\n\n", report.Encoding))
	b.WriteString("```text\n")
	writeLines(&b, report.Lines)
	b.WriteString("```\n\n")

	for i, ext := range report.Extended {
		b.WriteString(fmt.Sprintf("## Extended Header %d\n\n", i+1))
		b.WriteString("```text\n")
		writeLines(&b, ext)
		b.WriteString("```\n\n")
	}

	return b.String()
}

func (f *MarkdownFormatter) FormatConvert(result *operations.BatchResult) string {
	var b strings.Builder

	b.WriteString("# Conversion Report\n\n")

	b.WriteString("## Summary\n\n")
	b.WriteString("| Metric | Value |\n")
	b.WriteString("|--------|-------|\n")
	b.WriteString(fmt.Sprintf("| Total Files | %d |\n", result.Total))
	b.WriteString(fmt.Sprintf("| Converted | %d |\n", len(result.Succeeded)))
	b.WriteString(fmt.Sprintf("| Failed | %d |\n", len(result.Failed)))
	b.WriteString(fmt.Sprintf("| Duration | %s |\n\n", result.Duration.Round(time.Millisecond)))

	if len(result.Succeeded) > 0 {
		b.WriteString("## Outputs\n\n")
		b.WriteString("| Input | Output | Type | Traces | Dimensions |\n")
		b.WriteString("|-------|--------|------|--------|------------|\n")
		for _, r := range result.Succeeded {
			c := r.Convert
			b.WriteString(fmt.Sprintf("| `%s` | `%s` | %s | %d | %s |\n", c.Input, c.Output, c.Direction, c.Traces, formatDims(c.Dims)))
		}
		b.WriteString("\n")
	}

	if len(result.Failed) > 0 {
		b.WriteString("## Failed Files\n\n")
		for _, r := range result.Failed {
			msg := "no result"
			if r.Error != nil {
				msg = r.Error.Error()
			}
			b.WriteString(fmt.Sprintf("- ❌ **%s**: %s\n", filepath.Base(r.FilePath), msg))
		}
		b.WriteString("\n")
	}

	return b.String()
}

// WriteOutput writes formatted output to a writer or file
func WriteOutput(w io.Writer, content string) error {
	_, err := fmt.Fprint(w, content)
	return err
}
