package segy

import (
	"encoding/binary"
	"fmt"
)

// Offsets into the 400 byte binary header (0-based, relative to byte 3201).
const (
	binJobID             = 0
	binLineNumber        = 4
	binReelNumber        = 8
	binTracesPerEnsemble = 12
	binAuxTraces         = 14
	binSampleInterval    = 16
	binSampleIntervalOrg = 18
	binSamplesPerTrace   = 20
	binSamplesOrg        = 22
	binFormat            = 24
	binEnsembleFold      = 26
	binTraceSorting      = 28
	binMeasurementSystem = 54
	binRevision          = 300
	binFixedLength       = 302
	binExtendedHeaders   = 304
)

// Revision1 is the revision number written for SEG-Y rev 1.0 files.
const Revision1 uint16 = 0x0100

// BinaryHeader holds the binary file header fields this package uses.
type BinaryHeader struct {
	JobID                  int32
	LineNumber             int32
	ReelNumber             int32
	TracesPerEnsemble      int16
	AuxTracesPerEnsemble   int16
	SampleInterval         uint16 // microseconds (or mm / m for depth data)
	SampleIntervalOriginal uint16
	SamplesPerTrace        uint16
	SamplesPerTraceOrig    uint16
	Format                 SampleFormat
	EnsembleFold           int16
	TraceSorting           int16
	MeasurementSystem      int16 // 1 meters, 2 feet
	Revision               uint16
	FixedLengthTraces      int16
	ExtendedHeaders        int16
}

// DecodeBinaryHeader reads a binary header from its 400 raw bytes.
func DecodeBinaryHeader(b []byte, order binary.ByteOrder) (BinaryHeader, error) {
	if len(b) < BinaryHeaderSize {
		return BinaryHeader{}, fmt.Errorf("%w: binary header is %d bytes, want %d", ErrInvalidFile, len(b), BinaryHeaderSize)
	}
	i16 := func(off int) int16 { return int16(order.Uint16(b[off:])) }
	u16 := func(off int) uint16 { return order.Uint16(b[off:]) }
	i32 := func(off int) int32 { return int32(order.Uint32(b[off:])) }

	return BinaryHeader{
		JobID:                  i32(binJobID),
		LineNumber:             i32(binLineNumber),
		ReelNumber:             i32(binReelNumber),
		TracesPerEnsemble:      i16(binTracesPerEnsemble),
		AuxTracesPerEnsemble:   i16(binAuxTraces),
		SampleInterval:         u16(binSampleInterval),
		SampleIntervalOriginal: u16(binSampleIntervalOrg),
		SamplesPerTrace:        u16(binSamplesPerTrace),
		SamplesPerTraceOrig:    u16(binSamplesOrg),
		Format:                 SampleFormat(i16(binFormat)),
		EnsembleFold:           i16(binEnsembleFold),
		TraceSorting:           i16(binTraceSorting),
		MeasurementSystem:      i16(binMeasurementSystem),
		Revision:               u16(binRevision),
		FixedLengthTraces:      i16(binFixedLength),
		ExtendedHeaders:        i16(binExtendedHeaders),
	}, nil
}

// Encode writes the header into 400 bytes; fields it does not model are zero.
func (h BinaryHeader) Encode(order binary.ByteOrder) []byte {
	b := make([]byte, BinaryHeaderSize)
	put16 := func(off int, v uint16) { order.PutUint16(b[off:], v) }
	put32 := func(off int, v uint32) { order.PutUint32(b[off:], v) }

	put32(binJobID, uint32(h.JobID))
	put32(binLineNumber, uint32(h.LineNumber))
	put32(binReelNumber, uint32(h.ReelNumber))
	put16(binTracesPerEnsemble, uint16(h.TracesPerEnsemble))
	put16(binAuxTraces, uint16(h.AuxTracesPerEnsemble))
	put16(binSampleInterval, h.SampleInterval)
	put16(binSampleIntervalOrg, h.SampleIntervalOriginal)
	put16(binSamplesPerTrace, h.SamplesPerTrace)
	put16(binSamplesOrg, h.SamplesPerTraceOrig)
	put16(binFormat, uint16(h.Format))
	put16(binEnsembleFold, uint16(h.EnsembleFold))
	put16(binTraceSorting, uint16(h.TraceSorting))
	put16(binMeasurementSystem, uint16(h.MeasurementSystem))
	put16(binRevision, h.Revision)
	put16(binFixedLength, uint16(h.FixedLengthTraces))
	put16(binExtendedHeaders, uint16(h.ExtendedHeaders))
	return b
}

// RevisionString renders the revision as major.minor.
func (h BinaryHeader) RevisionString() string {
	return fmt.Sprintf("%d.%d", h.Revision>>8, h.Revision&0xff)
}

// MeasurementUnit names the measurement system code.
func (h BinaryHeader) MeasurementUnit() string {
	switch h.MeasurementSystem {
	case 1:
		return "m"
	case 2:
		return "ft"
	default:
		return "unknown"
	}
}

// detectByteOrder reports the byte order under which the format code at
// binary header bytes 25-26 is valid, big-endian first.
func detectByteOrder(b []byte) (binary.ByteOrder, bool) {
	if SampleFormat(int16(binary.BigEndian.Uint16(b[binFormat:]))).Valid() {
		return binary.BigEndian, true
	}
	if SampleFormat(int16(binary.LittleEndian.Uint16(b[binFormat:]))).Valid() {
		return binary.LittleEndian, true
	}
	return nil, false
}

// ByteOrderName renders a byte order for reports.
func ByteOrderName(order binary.ByteOrder) string {
	if order == binary.LittleEndian {
		return "little-endian"
	}
	return "big-endian"
}
