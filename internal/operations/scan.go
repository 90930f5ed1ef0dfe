package operations

import (
	"context"
	"fmt"

	"github.com/petergi/segysak-cli/internal/segy"
)

// FileSummary describes the file-level properties of a SEG-Y file.
type FileSummary struct {
	Traces          int     `json:"traces" yaml:"traces"`
	Samples         int     `json:"samples" yaml:"samples"`
	SampleInterval  int     `json:"sample_interval_us" yaml:"sample_interval_us"`
	SampleRate      float64 `json:"sample_rate_ms" yaml:"sample_rate_ms"`
	Format          string  `json:"format" yaml:"format"`
	Revision        string  `json:"revision" yaml:"revision"`
	ByteOrder       string  `json:"byte_order" yaml:"byte_order"`
	TextEncoding    string  `json:"text_encoding" yaml:"text_encoding"`
	ExtendedHeaders int     `json:"extended_headers" yaml:"extended_headers"`
	Measurement     string  `json:"measurement_system" yaml:"measurement_system"`
}

// ScanReport is the result of scanning the trace headers of one file.
type ScanReport struct {
	FilePath      string            `json:"file" yaml:"file"`
	Summary       FileSummary       `json:"summary" yaml:"summary"`
	TracesScanned int               `json:"traces_scanned" yaml:"traces_scanned"`
	Fields        []segy.FieldStats `json:"fields" yaml:"fields"`
	Warnings      []string          `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// NonZero drops the fields whose scanned values were all zero.
func (r *ScanReport) NonZero() {
	kept := r.Fields[:0]
	for _, f := range r.Fields {
		if f.NonZero() {
			kept = append(kept, f)
		}
	}
	r.Fields = kept
}

// ScanOperation computes trace header statistics
type ScanOperation struct {
	ctx       context.Context
	maxTraces int
}

// NewScanOperation creates a scan over the first 1000 traces.
func NewScanOperation(ctx context.Context) *ScanOperation {
	return &ScanOperation{ctx: ctx, maxTraces: 1000}
}

// WithMaxTraces limits the scan to n traces; n <= 0 scans every trace.
func (s *ScanOperation) WithMaxTraces(n int) *ScanOperation {
	s.maxTraces = n
	return s
}

// Execute scans the SEG-Y file at filePath.
func (s *ScanOperation) Execute(filePath string) (*ScanReport, error) {
	f, err := segy.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	summary, err := summarize(f)
	if err != nil {
		return nil, err
	}

	stats, scanned, err := segy.ScanHeaders(s.ctx, f, s.maxTraces)
	if err != nil {
		return nil, fmt.Errorf("scan trace headers: %w", err)
	}

	return &ScanReport{
		FilePath:      filePath,
		Summary:       summary,
		TracesScanned: scanned,
		Fields:        stats,
		Warnings:      fileWarnings(f),
	}, nil
}

func summarize(f *segy.File) (FileSummary, error) {
	interval, err := f.SampleInterval()
	if err != nil {
		return FileSummary{}, err
	}
	return FileSummary{
		Traces:          f.NumTraces,
		Samples:         f.Samples,
		SampleInterval:  interval,
		SampleRate:      float64(interval) / 1000,
		Format:          f.Format().String(),
		Revision:        f.Binary.RevisionString(),
		ByteOrder:       segy.ByteOrderName(f.ByteOrder),
		TextEncoding:    string(f.Text.Encoding),
		ExtendedHeaders: len(f.Extended),
		Measurement:     f.Binary.MeasurementUnit(),
	}, nil
}

func fileWarnings(f *segy.File) []string {
	var warnings []string
	if f.Remainder != 0 {
		warnings = append(warnings, fmt.Sprintf("%d trailing bytes do not form a complete trace", f.Remainder))
	}
	if f.NumTraces == 0 {
		warnings = append(warnings, "file contains no traces")
	}
	if f.Binary.SamplesPerTrace == 0 {
		warnings = append(warnings, "binary header samples per trace is zero, using the first trace header")
	}
	return warnings
}
