// Package segytest writes small synthetic SEG-Y files for tests.
package segytest

import (
	"bufio"
	"os"
	"path/filepath"
	"testing"

	"github.com/petergi/segysak-cli/internal/segy"
)

// Cube describes a regular synthetic 3D survey.
type Cube struct {
	Inlines        int
	Crosslines     int
	Samples        int
	FirstInline    int32
	FirstCrossline int32
	SampleInterval uint16 // microseconds
	Format         segy.SampleFormat
	Encoding       segy.TextEncoding
	// Skip lists (inline, crossline) pairs left out of the file.
	Skip [][2]int32
}

// DefaultCube is a 5x4 cube with 50 samples at 4 ms.
func DefaultCube() Cube {
	return Cube{
		Inlines:        5,
		Crosslines:     4,
		Samples:        50,
		FirstInline:    100,
		FirstCrossline: 200,
		SampleInterval: 4000,
		Format:         segy.FormatIBMFloat32,
		Encoding:       segy.EncodingEBCDIC,
	}
}

// SampleValue is the amplitude written at (inline, crossline, sample).
func SampleValue(il, xl int32, s int) float32 {
	return float32(il)*0.5 + float32(xl)*0.25 + float32(s)
}

// CDPX and CDPY are the coordinates written for (inline, crossline).
func CDPX(il, xl int32) float64 { return 1000 + float64(il)*12.5 }
func CDPY(il, xl int32) float64 { return 5000 + float64(xl)*12.5 }

// TextLines is the textual header written into every cube.
var TextLines = segy.DefaultTextLines("SYNTHETIC CUBE FOR TESTS", "INLINE BYTE 189 CROSSLINE BYTE 193")

// Write writes the cube to dir/name and returns the path.
func Write(tb testing.TB, dir, name string, c Cube) string {
	tb.Helper()

	path := filepath.Join(dir, name)
	fh, err := os.Create(path)
	if err != nil {
		tb.Fatalf("create %s: %v", path, err)
	}
	defer func() { _ = fh.Close() }()

	bw := bufio.NewWriter(fh)
	bin := segy.BinaryHeader{
		SampleInterval:    c.SampleInterval,
		SamplesPerTrace:   uint16(c.Samples),
		Format:            c.Format,
		MeasurementSystem: 1,
		Revision:          segy.Revision1,
		FixedLengthTraces: 1,
	}
	w, err := segy.NewWriter(bw, segy.EncodeText(TextLines, c.Encoding), bin)
	if err != nil {
		tb.Fatalf("segy writer: %v", err)
	}

	skip := make(map[[2]int32]bool, len(c.Skip))
	for _, s := range c.Skip {
		skip[s] = true
	}

	samples := make([]float32, c.Samples)
	seq := int32(0)
	for i := 0; i < c.Inlines; i++ {
		for j := 0; j < c.Crosslines; j++ {
			il := c.FirstInline + int32(i)
			xl := c.FirstCrossline + int32(j)
			if skip[[2]int32{il, xl}] {
				continue
			}
			seq++

			h := segy.NewTraceHeader(w.ByteOrder())
			_ = h.Set(segy.ByteTraceSequenceLine, seq)
			_ = h.Set(segy.ByteTraceSequenceFile, seq)
			_ = h.Set(segy.ByteCDP, seq)
			_ = h.Set(segy.ByteCoordinateScalar, -100)
			_ = h.Set(segy.ByteCDPX, int32(CDPX(il, xl)*100))
			_ = h.Set(segy.ByteCDPY, int32(CDPY(il, xl)*100))
			_ = h.Set(segy.ByteInline, il)
			_ = h.Set(segy.ByteCrossline, xl)

			for s := range samples {
				samples[s] = SampleValue(il, xl, s)
			}
			if err := w.WriteTrace(h, samples); err != nil {
				tb.Fatalf("write trace: %v", err)
			}
		}
	}

	if err := bw.Flush(); err != nil {
		tb.Fatalf("flush %s: %v", path, err)
	}
	return path
}
