package segy

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
)

const endTextStanza = "((EndText))"

// File is an open SEG-Y file.
type File struct {
	Text      TextHeader
	Extended  []TextHeader
	Binary    BinaryHeader
	ByteOrder binary.ByteOrder

	// NumTraces is the number of complete traces in the file.
	NumTraces int
	// Samples is the number of samples per trace.
	Samples int
	// Remainder counts trailing bytes that do not form a complete trace.
	Remainder int64

	r          io.ReaderAt
	closer     io.Closer
	dataOffset int64
	traceSize  int64
	buf        []byte
}

// Open opens the SEG-Y file at path.
func Open(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := fh.Stat()
	if err != nil {
		_ = fh.Close()
		return nil, err
	}
	f, err := NewFile(fh, info.Size())
	if err != nil {
		_ = fh.Close()
		return nil, err
	}
	f.closer = fh
	return f, nil
}

// NewFile reads the file headers from r, which holds size bytes.
func NewFile(r io.ReaderAt, size int64) (*File, error) {
	if size < TextHeaderSize+BinaryHeaderSize {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the %d byte file headers", ErrInvalidFile, size, TextHeaderSize+BinaryHeaderSize)
	}

	head := make([]byte, TextHeaderSize+BinaryHeaderSize)
	if _, err := r.ReadAt(head, 0); err != nil {
		return nil, fmt.Errorf("read file headers: %w", err)
	}

	binRaw := head[TextHeaderSize:]
	order, ok := detectByteOrder(binRaw)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported sample format code %d", ErrInvalidFile, int16(binary.BigEndian.Uint16(binRaw[binFormat:])))
	}
	bin, err := DecodeBinaryHeader(binRaw, order)
	if err != nil {
		return nil, err
	}

	f := &File{
		Text:      NewTextHeader(head[:TextHeaderSize]),
		Binary:    bin,
		ByteOrder: order,
		r:         r,
	}

	offset := int64(TextHeaderSize + BinaryHeaderSize)
	offset, err = f.readExtended(offset, size)
	if err != nil {
		return nil, err
	}
	f.dataOffset = offset

	f.Samples = int(bin.SamplesPerTrace)
	if f.Samples == 0 && size >= offset+TraceHeaderSize {
		first, err := f.readTraceHeaderAt(offset)
		if err != nil {
			return nil, err
		}
		f.Samples = int(uint16(first.MustGet(ByteSampleCount)))
	}
	if f.Samples == 0 && size > offset {
		return nil, fmt.Errorf("%w: samples per trace is zero in both binary and trace header", ErrInvalidFile)
	}

	f.traceSize = int64(TraceHeaderSize + f.Samples*bin.Format.Size())
	f.NumTraces = int((size - offset) / f.traceSize)
	f.Remainder = (size - offset) % f.traceSize
	return f, nil
}

func (f *File) readExtended(offset, size int64) (int64, error) {
	count := int(f.Binary.ExtendedHeaders)
	if count > maxExtendedHeaders {
		return 0, fmt.Errorf("%w: %d extended textual headers", ErrInvalidFile, count)
	}
	variable := count < 0
	if variable {
		count = maxExtendedHeaders
	}

	for i := 0; i < count; i++ {
		if offset+TextHeaderSize > size {
			if variable {
				break
			}
			return 0, fmt.Errorf("%w: extended textual header %d is truncated", ErrInvalidFile, i+1)
		}
		raw := make([]byte, TextHeaderSize)
		if _, err := f.r.ReadAt(raw, offset); err != nil {
			return 0, fmt.Errorf("read extended textual header %d: %w", i+1, err)
		}
		offset += TextHeaderSize
		th := NewTextHeader(raw)
		f.Extended = append(f.Extended, th)
		if variable && th.Contains(endTextStanza) {
			break
		}
	}
	return offset, nil
}

// Close releases the underlying file when the File was opened by Open.
func (f *File) Close() error {
	if f.closer == nil {
		return nil
	}
	return f.closer.Close()
}

// Format returns the sample format of the trace data.
func (f *File) Format() SampleFormat {
	return f.Binary.Format
}

// SampleInterval returns the sample interval in microseconds, falling back to
// the first trace header when the binary header carries zero.
func (f *File) SampleInterval() (int, error) {
	if f.Binary.SampleInterval != 0 {
		return int(f.Binary.SampleInterval), nil
	}
	if f.NumTraces == 0 {
		return 0, nil
	}
	h, err := f.TraceHeader(0)
	if err != nil {
		return 0, err
	}
	return int(uint16(h.MustGet(ByteSampleInterval))), nil
}

// TraceHeader reads the header of trace i.
func (f *File) TraceHeader(i int) (TraceHeader, error) {
	if i < 0 || i >= f.NumTraces {
		return TraceHeader{}, fmt.Errorf("%w: %d (file has %d traces)", ErrTraceIndex, i, f.NumTraces)
	}
	return f.readTraceHeaderAt(f.dataOffset + int64(i)*f.traceSize)
}

func (f *File) readTraceHeaderAt(offset int64) (TraceHeader, error) {
	raw := make([]byte, TraceHeaderSize)
	if _, err := f.r.ReadAt(raw, offset); err != nil {
		return TraceHeader{}, fmt.Errorf("read trace header at byte %d: %w", offset, err)
	}
	return DecodeTraceHeader(raw, f.ByteOrder)
}

// ReadTrace reads trace i, decoding its samples into dst (grown as needed).
// It is not safe for concurrent use.
func (f *File) ReadTrace(i int, dst []float32) (TraceHeader, []float32, error) {
	if i < 0 || i >= f.NumTraces {
		return TraceHeader{}, dst, fmt.Errorf("%w: %d (file has %d traces)", ErrTraceIndex, i, f.NumTraces)
	}
	if int64(cap(f.buf)) < f.traceSize {
		f.buf = make([]byte, f.traceSize)
	}
	buf := f.buf[:f.traceSize]
	if _, err := f.r.ReadAt(buf, f.dataOffset+int64(i)*f.traceSize); err != nil {
		return TraceHeader{}, dst, fmt.Errorf("read trace %d: %w", i, err)
	}

	h, err := DecodeTraceHeader(buf[:TraceHeaderSize], f.ByteOrder)
	if err != nil {
		return TraceHeader{}, dst, err
	}

	if cap(dst) < f.Samples {
		dst = make([]float32, f.Samples)
	}
	dst = dst[:f.Samples]
	decodeSamples(dst, buf[TraceHeaderSize:], f.Binary.Format, f.ByteOrder)
	return h, dst, nil
}

func decodeSamples(dst []float32, b []byte, format SampleFormat, order binary.ByteOrder) {
	switch format {
	case FormatIBMFloat32:
		for i := range dst {
			dst[i] = IBMToFloat32(order.Uint32(b[i*4:]))
		}
	case FormatIEEEFloat32:
		for i := range dst {
			dst[i] = math.Float32frombits(order.Uint32(b[i*4:]))
		}
	case FormatInt32:
		for i := range dst {
			dst[i] = float32(int32(order.Uint32(b[i*4:])))
		}
	case FormatInt16:
		for i := range dst {
			dst[i] = float32(int16(order.Uint16(b[i*2:])))
		}
	case FormatInt8:
		for i := range dst {
			dst[i] = float32(int8(b[i]))
		}
	}
}
