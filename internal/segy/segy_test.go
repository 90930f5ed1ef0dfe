package segy_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petergi/segysak-cli/internal/segy"
	"github.com/petergi/segysak-cli/internal/segy/segytest"
)

func TestOpen_Cube(t *testing.T) {
	cube := segytest.DefaultCube()
	path := segytest.Write(t, t.TempDir(), "cube.sgy", cube)

	f, err := segy.Open(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, cube.Inlines*cube.Crosslines, f.NumTraces)
	assert.Equal(t, cube.Samples, f.Samples)
	assert.Equal(t, int64(0), f.Remainder)
	assert.Equal(t, segy.FormatIBMFloat32, f.Format())
	assert.Equal(t, binary.ByteOrder(binary.BigEndian), f.ByteOrder)
	assert.Equal(t, segy.EncodingEBCDIC, f.Text.Encoding)
	assert.Equal(t, "1.0", f.Binary.RevisionString())
	assert.Equal(t, "m", f.Binary.MeasurementUnit())

	dt, err := f.SampleInterval()
	require.NoError(t, err)
	assert.Equal(t, 4000, dt)

	h, samples, err := f.ReadTrace(5, nil)
	require.NoError(t, err)
	il := h.MustGet(segy.ByteInline)
	xl := h.MustGet(segy.ByteCrossline)
	assert.Equal(t, int32(101), il)
	assert.Equal(t, int32(201), xl)
	require.Len(t, samples, cube.Samples)
	for s, v := range samples {
		assert.InDelta(t, segytest.SampleValue(il, xl, s), v, 1e-3)
	}

	x, err := h.Coordinate(segy.ByteCDPX)
	require.NoError(t, err)
	assert.InDelta(t, segytest.CDPX(il, xl), x, 1e-6)
}

func TestOpen_TraceIndex(t *testing.T) {
	path := segytest.Write(t, t.TempDir(), "cube.sgy", segytest.DefaultCube())
	f, err := segy.Open(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	_, err = f.TraceHeader(f.NumTraces)
	assert.ErrorIs(t, err, segy.ErrTraceIndex)
	_, _, err = f.ReadTrace(-1, nil)
	assert.ErrorIs(t, err, segy.ErrTraceIndex)
}

func TestOpen_Invalid(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"short", bytes.Repeat([]byte{0x40}, 1000)},
		{"bad format code", make([]byte, segy.TextHeaderSize+segy.BinaryHeaderSize+segy.TraceHeaderSize)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".sgy")
			require.NoError(t, os.WriteFile(path, tt.data, 0644))

			_, err := segy.Open(path)
			assert.ErrorIs(t, err, segy.ErrInvalidFile)
		})
	}

	_, err := segy.Open(filepath.Join(dir, "missing.sgy"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestOpen_LittleEndianAndRemainder(t *testing.T) {
	bin := segy.BinaryHeader{SampleInterval: 2000, SamplesPerTrace: 3, Format: segy.FormatInt16}

	var buf bytes.Buffer
	buf.Write(segy.EncodeText(segy.DefaultTextLines("LE"), segy.EncodingASCII))
	buf.Write(bin.Encode(binary.LittleEndian))

	h := segy.NewTraceHeader(binary.LittleEndian)
	require.NoError(t, h.Set(segy.ByteInline, 7))
	buf.Write(h.Bytes())
	for _, v := range []int16{1, -2, 3} {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, v))
	}
	buf.Write([]byte{1, 2, 3})

	f, err := segy.NewFile(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	assert.Equal(t, binary.ByteOrder(binary.LittleEndian), f.ByteOrder)
	assert.Equal(t, segy.EncodingASCII, f.Text.Encoding)
	assert.Equal(t, 1, f.NumTraces)
	assert.Equal(t, int64(3), f.Remainder)

	th, samples, err := f.ReadTrace(0, nil)
	require.NoError(t, err)
	assert.Equal(t, int32(7), th.MustGet(segy.ByteInline))
	assert.Equal(t, []float32{1, -2, 3}, samples)
}

func TestOpen_SamplesFromTraceHeader(t *testing.T) {
	bin := segy.BinaryHeader{Format: segy.FormatIEEEFloat32}

	var buf bytes.Buffer
	buf.Write(segy.EncodeText(nil, segy.EncodingEBCDIC))
	buf.Write(bin.Encode(binary.BigEndian))
	h := segy.NewTraceHeader(binary.BigEndian)
	require.NoError(t, h.Set(segy.ByteSampleCount, 2))
	require.NoError(t, h.Set(segy.ByteSampleInterval, 1000))
	buf.Write(h.Bytes())
	buf.Write(make([]byte, 8))

	f, err := segy.NewFile(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	assert.Equal(t, 2, f.Samples)
	assert.Equal(t, 1, f.NumTraces)

	dt, err := f.SampleInterval()
	require.NoError(t, err)
	assert.Equal(t, 1000, dt)
}

func TestExtendedHeaders(t *testing.T) {
	bin := segy.BinaryHeader{SampleInterval: 4000, SamplesPerTrace: 1, Format: segy.FormatIEEEFloat32, ExtendedHeaders: -1}

	var buf bytes.Buffer
	buf.Write(segy.EncodeText(nil, segy.EncodingEBCDIC))
	buf.Write(bin.Encode(binary.BigEndian))
	buf.Write(segy.EncodeText([]string{"EXTENDED ONE"}, segy.EncodingEBCDIC))
	buf.Write(segy.EncodeText([]string{"((EndText))"}, segy.EncodingEBCDIC))
	buf.Write(make([]byte, segy.TraceHeaderSize+4))

	f, err := segy.NewFile(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	require.Len(t, f.Extended, 2)
	assert.Equal(t, "EXTENDED ONE", f.Extended[0].Lines()[0])
	assert.Equal(t, 1, f.NumTraces)
}

func TestWriter_RejectsBadInput(t *testing.T) {
	var buf bytes.Buffer

	_, err := segy.NewWriter(&buf, []byte("short"), segy.BinaryHeader{SamplesPerTrace: 1, Format: segy.FormatIEEEFloat32})
	assert.Error(t, err)

	text := segy.EncodeText(nil, segy.EncodingASCII)
	_, err = segy.NewWriter(&buf, text, segy.BinaryHeader{SamplesPerTrace: 1, Format: 4})
	assert.Error(t, err)

	w, err := segy.NewWriter(&buf, text, segy.BinaryHeader{SamplesPerTrace: 2, Format: segy.FormatIEEEFloat32})
	require.NoError(t, err)
	assert.Error(t, w.WriteTrace(segy.NewTraceHeader(nil), []float32{1}))
}

func TestWriter_IntegerFormats(t *testing.T) {
	for _, format := range []segy.SampleFormat{segy.FormatInt32, segy.FormatInt16, segy.FormatInt8} {
		t.Run(format.String(), func(t *testing.T) {
			var buf bytes.Buffer
			bin := segy.BinaryHeader{SampleInterval: 1000, SamplesPerTrace: 3, Format: format}
			w, err := segy.NewWriter(&buf, segy.EncodeText(nil, segy.EncodingEBCDIC), bin)
			require.NoError(t, err)
			require.NoError(t, w.WriteTrace(segy.NewTraceHeader(nil), []float32{1.4, -7, 1000}))
			assert.Equal(t, 1, w.Traces())

			f, err := segy.NewFile(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
			require.NoError(t, err)
			_, samples, err := f.ReadTrace(0, nil)
			require.NoError(t, err)

			want := []float32{1, -7, 1000}
			if format == segy.FormatInt8 {
				want[2] = 127
			}
			assert.Equal(t, want, samples)
		})
	}
}

func TestScanHeaders(t *testing.T) {
	cube := segytest.DefaultCube()
	path := segytest.Write(t, t.TempDir(), "cube.sgy", cube)
	f, err := segy.Open(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	stats, scanned, err := segy.ScanHeaders(context.Background(), f, 0)
	require.NoError(t, err)
	assert.Equal(t, f.NumTraces, scanned)
	require.Len(t, stats, len(segy.TraceHeaderFields))

	byName := make(map[string]segy.FieldStats, len(stats))
	for _, s := range stats {
		byName[s.Name] = s
	}

	il := byName["INLINE_3D"]
	assert.Equal(t, 189, il.Byte)
	assert.Equal(t, 20, il.Count)
	assert.Equal(t, 100.0, il.Min)
	assert.Equal(t, 104.0, il.Max)
	assert.Equal(t, 102.0, il.Mean)
	assert.Equal(t, 102.0, il.P50)
	assert.Equal(t, 101.0, il.P25)
	assert.True(t, il.NonZero())

	assert.False(t, byName["SourceX"].NonZero())
	assert.Equal(t, 50.0, byName["TRACE_SAMPLE_COUNT"].Max)

	_, scanned, err = segy.ScanHeaders(context.Background(), f, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, scanned)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = segy.ScanHeaders(ctx, f, 0)
	assert.ErrorIs(t, err, context.Canceled)
}
