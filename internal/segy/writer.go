package segy

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Writer writes a SEG-Y stream: headers first, then fixed-length traces.
type Writer struct {
	w      io.Writer
	order  binary.ByteOrder
	bin    BinaryHeader
	buf    []byte
	traces int
}

// NewWriter writes the textual and binary headers to w and returns a Writer
// for the traces. text must be exactly 3200 bytes.
func NewWriter(w io.Writer, text []byte, bin BinaryHeader) (*Writer, error) {
	if len(text) != TextHeaderSize {
		return nil, fmt.Errorf("textual header is %d bytes, want %d", len(text), TextHeaderSize)
	}
	if !bin.Format.Valid() {
		return nil, fmt.Errorf("unsupported sample format %s", bin.Format)
	}
	if bin.SamplesPerTrace == 0 {
		return nil, fmt.Errorf("samples per trace must be positive")
	}
	bin.ExtendedHeaders = 0

	order := binary.BigEndian
	if _, err := w.Write(text); err != nil {
		return nil, fmt.Errorf("write textual header: %w", err)
	}
	if _, err := w.Write(bin.Encode(order)); err != nil {
		return nil, fmt.Errorf("write binary header: %w", err)
	}

	return &Writer{
		w:     w,
		order: order,
		bin:   bin,
		buf:   make([]byte, TraceHeaderSize+int(bin.SamplesPerTrace)*bin.Format.Size()),
	}, nil
}

// ByteOrder returns the byte order trace headers must be built with.
func (w *Writer) ByteOrder() binary.ByteOrder {
	return w.order
}

// Traces returns the number of traces written so far.
func (w *Writer) Traces() int {
	return w.traces
}

// WriteTrace writes one trace. The sample count and interval fields of h are
// overwritten to match the binary header.
func (w *Writer) WriteTrace(h TraceHeader, samples []float32) error {
	ns := int(w.bin.SamplesPerTrace)
	if len(samples) != ns {
		return fmt.Errorf("trace has %d samples, want %d", len(samples), ns)
	}

	hdr := NewTraceHeader(w.order)
	if h.order == nil || h.order == w.order {
		hdr.raw = h.raw
	} else {
		for _, f := range TraceHeaderFields {
			v, err := h.Get(f.Byte)
			if err != nil {
				return err
			}
			if err := hdr.Set(f.Byte, v); err != nil {
				return err
			}
		}
	}
	hdr.setUint16(ByteSampleCount, w.bin.SamplesPerTrace)
	hdr.setUint16(ByteSampleInterval, w.bin.SampleInterval)

	copy(w.buf, hdr.raw[:])
	encodeSamples(w.buf[TraceHeaderSize:], samples, w.bin.Format, w.order)
	if _, err := w.w.Write(w.buf); err != nil {
		return fmt.Errorf("write trace %d: %w", w.traces+1, err)
	}
	w.traces++
	return nil
}

func encodeSamples(b []byte, src []float32, format SampleFormat, order binary.ByteOrder) {
	switch format {
	case FormatIBMFloat32:
		for i, v := range src {
			order.PutUint32(b[i*4:], Float32ToIBM(v))
		}
	case FormatIEEEFloat32:
		for i, v := range src {
			order.PutUint32(b[i*4:], math.Float32bits(v))
		}
	case FormatInt32:
		for i, v := range src {
			order.PutUint32(b[i*4:], uint32(int32(clamp(v, math.MinInt32, math.MaxInt32))))
		}
	case FormatInt16:
		for i, v := range src {
			order.PutUint16(b[i*2:], uint16(int16(clamp(v, math.MinInt16, math.MaxInt16))))
		}
	case FormatInt8:
		for i, v := range src {
			b[i] = byte(int8(clamp(v, math.MinInt8, math.MaxInt8)))
		}
	}
}

func clamp(v float32, lo, hi float64) float64 {
	f := math.Round(float64(v))
	switch {
	case math.IsNaN(f):
		return 0
	case f < lo:
		return lo
	case f > hi:
		return hi
	}
	return f
}
