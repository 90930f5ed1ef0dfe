// Package segy reads and writes SEG-Y seismic files.
//
// A SEG-Y file is a 3200 byte textual header, a 400 byte binary header,
// optional extended textual headers, then a sequence of traces. Each trace is
// a 240 byte trace header followed by a fixed number of samples. Byte
// locations in this package are 1-based, as the standard defines them.
package segy

import (
	"errors"
	"fmt"
)

const (
	TextHeaderSize   = 3200
	BinaryHeaderSize = 400
	TraceHeaderSize  = 240

	// maxExtendedHeaders bounds the extended textual header count we accept.
	maxExtendedHeaders = 100
)

var (
	// ErrInvalidFile is wrapped by every structural problem found while
	// reading a file.
	ErrInvalidFile = errors.New("invalid SEG-Y file")
	// ErrTraceIndex is returned for trace indices outside the file.
	ErrTraceIndex = errors.New("trace index out of range")
)

// SampleFormat is the data sample format code from binary header bytes
// 3225-3226.
type SampleFormat int16

const (
	FormatIBMFloat32  SampleFormat = 1
	FormatInt32       SampleFormat = 2
	FormatInt16       SampleFormat = 3
	FormatIEEEFloat32 SampleFormat = 5
	FormatInt8        SampleFormat = 8
)

// Valid reports whether the format code is one this package can decode.
func (f SampleFormat) Valid() bool {
	switch f {
	case FormatIBMFloat32, FormatInt32, FormatInt16, FormatIEEEFloat32, FormatInt8:
		return true
	default:
		return false
	}
}

// Size returns the number of bytes per sample.
func (f SampleFormat) Size() int {
	switch f {
	case FormatIBMFloat32, FormatInt32, FormatIEEEFloat32:
		return 4
	case FormatInt16:
		return 2
	case FormatInt8:
		return 1
	default:
		return 0
	}
}

func (f SampleFormat) String() string {
	switch f {
	case FormatIBMFloat32:
		return "ibm-float32"
	case FormatInt32:
		return "int32"
	case FormatInt16:
		return "int16"
	case FormatIEEEFloat32:
		return "ieee-float32"
	case FormatInt8:
		return "int8"
	default:
		return fmt.Sprintf("unknown(%d)", int16(f))
	}
}

// ParseSampleFormat converts a user-facing name into a SampleFormat.
func ParseSampleFormat(s string) (SampleFormat, error) {
	switch s {
	case "ibm", "ibm-float32", "1":
		return FormatIBMFloat32, nil
	case "ieee", "ieee-float32", "float32", "5":
		return FormatIEEEFloat32, nil
	case "int32", "2":
		return FormatInt32, nil
	case "int16", "3":
		return FormatInt16, nil
	case "int8", "8":
		return FormatInt8, nil
	default:
		return 0, fmt.Errorf("invalid sample format: %s (valid: ibm, ieee, int32, int16, int8)", s)
	}
}
