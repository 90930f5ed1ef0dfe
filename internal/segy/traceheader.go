package segy

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrFieldRange is returned when a value does not fit its header field.
var ErrFieldRange = errors.New("value does not fit the header field")

// Well known trace header byte locations.
const (
	ByteTraceSequenceLine = 1
	ByteTraceSequenceFile = 5
	ByteFieldRecord       = 9
	ByteCDP               = 21
	ByteCoordinateScalar  = 71
	ByteDelayRecording    = 109
	ByteSampleCount       = 115
	ByteSampleInterval    = 117
	ByteCDPX              = 181
	ByteCDPY              = 185
	ByteInline            = 189
	ByteCrossline         = 193
)

// HeaderField describes one trace header field.
type HeaderField struct {
	Name string `json:"name" yaml:"name"`
	Byte int    `json:"byte" yaml:"byte"`
	Size int    `json:"size" yaml:"size"`
}

// TraceHeaderFields is the SEG-Y rev 1 trace header layout.
var TraceHeaderFields = []HeaderField{
	{"TRACE_SEQUENCE_LINE", 1, 4},
	{"TRACE_SEQUENCE_FILE", 5, 4},
	{"FieldRecord", 9, 4},
	{"TraceNumber", 13, 4},
	{"EnergySourcePoint", 17, 4},
	{"CDP", 21, 4},
	{"CDP_TRACE", 25, 4},
	{"TraceIdentificationCode", 29, 2},
	{"NSummedTraces", 31, 2},
	{"NStackedTraces", 33, 2},
	{"DataUse", 35, 2},
	{"offset", 37, 4},
	{"ReceiverGroupElevation", 41, 4},
	{"SourceSurfaceElevation", 45, 4},
	{"SourceDepth", 49, 4},
	{"ReceiverDatumElevation", 53, 4},
	{"SourceDatumElevation", 57, 4},
	{"SourceWaterDepth", 61, 4},
	{"GroupWaterDepth", 65, 4},
	{"ElevationScalar", 69, 2},
	{"SourceGroupScalar", 71, 2},
	{"SourceX", 73, 4},
	{"SourceY", 77, 4},
	{"GroupX", 81, 4},
	{"GroupY", 85, 4},
	{"CoordinateUnits", 89, 2},
	{"WeatheringVelocity", 91, 2},
	{"SubWeatheringVelocity", 93, 2},
	{"SourceUpholeTime", 95, 2},
	{"GroupUpholeTime", 97, 2},
	{"SourceStaticCorrection", 99, 2},
	{"GroupStaticCorrection", 101, 2},
	{"TotalStaticApplied", 103, 2},
	{"LagTimeA", 105, 2},
	{"LagTimeB", 107, 2},
	{"DelayRecordingTime", 109, 2},
	{"MuteTimeStart", 111, 2},
	{"MuteTimeEND", 113, 2},
	{"TRACE_SAMPLE_COUNT", 115, 2},
	{"TRACE_SAMPLE_INTERVAL", 117, 2},
	{"GainType", 119, 2},
	{"InstrumentGainConstant", 121, 2},
	{"InstrumentInitialGain", 123, 2},
	{"Correlated", 125, 2},
	{"SweepFrequencyStart", 127, 2},
	{"SweepFrequencyEnd", 129, 2},
	{"SweepLength", 131, 2},
	{"SweepType", 133, 2},
	{"SweepTraceTaperLengthStart", 135, 2},
	{"SweepTraceTaperLengthEnd", 137, 2},
	{"TaperType", 139, 2},
	{"AliasFilterFrequency", 141, 2},
	{"AliasFilterSlope", 143, 2},
	{"NotchFilterFrequency", 145, 2},
	{"NotchFilterSlope", 147, 2},
	{"LowCutFrequency", 149, 2},
	{"HighCutFrequency", 151, 2},
	{"LowCutSlope", 153, 2},
	{"HighCutSlope", 155, 2},
	{"YearDataRecorded", 157, 2},
	{"DayOfYear", 159, 2},
	{"HourOfDay", 161, 2},
	{"MinuteOfHour", 163, 2},
	{"SecondOfMinute", 165, 2},
	{"TimeBaseCode", 167, 2},
	{"TraceWeightingFactor", 169, 2},
	{"GeophoneGroupNumberRoll1", 171, 2},
	{"GeophoneGroupNumberFirstTraceOrigField", 173, 2},
	{"GeophoneGroupNumberLastTraceOrigField", 175, 2},
	{"GapSize", 177, 2},
	{"OverTravel", 179, 2},
	{"CDP_X", 181, 4},
	{"CDP_Y", 185, 4},
	{"INLINE_3D", 189, 4},
	{"CROSSLINE_3D", 193, 4},
	{"ShotPoint", 197, 4},
	{"ShotPointScalar", 201, 2},
	{"TraceValueMeasurementUnit", 203, 2},
	{"TransductionConstantMantissa", 205, 4},
	{"TransductionConstantPower", 209, 2},
	{"TransductionUnit", 211, 2},
	{"TraceIdentifier", 213, 2},
	{"ScalarTraceHeader", 215, 2},
	{"SourceType", 217, 2},
	{"SourceEnergyDirectionMantissa", 219, 4},
	{"SourceEnergyDirectionExponent", 223, 2},
	{"SourceMeasurementMantissa", 225, 4},
	{"SourceMeasurementExponent", 229, 2},
	{"SourceMeasurementUnit", 231, 2},
	{"UnassignedInt1", 233, 4},
	{"UnassignedInt2", 237, 4},
}

var fieldsByByte = func() map[int]HeaderField {
	m := make(map[int]HeaderField, len(TraceHeaderFields))
	for _, f := range TraceHeaderFields {
		m[f.Byte] = f
	}
	return m
}()

// FieldAt returns the standard field starting at byteLoc. Locations outside
// the standard layout are treated as 4 byte integers.
func FieldAt(byteLoc int) (HeaderField, bool) {
	f, ok := fieldsByByte[byteLoc]
	if !ok {
		return HeaderField{Name: fmt.Sprintf("byte_%d", byteLoc), Byte: byteLoc, Size: 4}, false
	}
	return f, true
}

// TraceHeader is a 240 byte trace header.
type TraceHeader struct {
	raw   [TraceHeaderSize]byte
	order binary.ByteOrder
}

// NewTraceHeader returns a zeroed header using the given byte order.
func NewTraceHeader(order binary.ByteOrder) TraceHeader {
	if order == nil {
		order = binary.BigEndian
	}
	return TraceHeader{order: order}
}

// DecodeTraceHeader copies raw header bytes.
func DecodeTraceHeader(b []byte, order binary.ByteOrder) (TraceHeader, error) {
	if len(b) < TraceHeaderSize {
		return TraceHeader{}, fmt.Errorf("%w: trace header is %d bytes, want %d", ErrInvalidFile, len(b), TraceHeaderSize)
	}
	h := NewTraceHeader(order)
	copy(h.raw[:], b)
	return h, nil
}

// Bytes returns the encoded header.
func (h *TraceHeader) Bytes() []byte {
	return h.raw[:]
}

// Get reads the field at byteLoc.
func (h *TraceHeader) Get(byteLoc int) (int32, error) {
	f, _ := FieldAt(byteLoc)
	if err := checkByteLoc(f); err != nil {
		return 0, err
	}
	off := f.Byte - 1
	if f.Size == 2 {
		return int32(int16(h.order.Uint16(h.raw[off:]))), nil
	}
	return int32(h.order.Uint32(h.raw[off:])), nil
}

// MustGet reads a standard field, panicking on a bad byte location. It is
// meant for the constant locations declared in this package.
func (h *TraceHeader) MustGet(byteLoc int) int32 {
	v, err := h.Get(byteLoc)
	if err != nil {
		panic(err)
	}
	return v
}

// Set writes v into the field at byteLoc. Values outside the int16 range
// are rejected for two byte fields.
func (h *TraceHeader) Set(byteLoc int, v int32) error {
	f, _ := FieldAt(byteLoc)
	if err := checkByteLoc(f); err != nil {
		return err
	}
	off := f.Byte - 1
	if f.Size == 2 {
		if v < math.MinInt16 || v > math.MaxInt16 {
			return fmt.Errorf("%w: %d at byte %d (2 bytes)", ErrFieldRange, v, byteLoc)
		}
		h.order.PutUint16(h.raw[off:], uint16(int16(v)))
		return nil
	}
	h.order.PutUint32(h.raw[off:], uint32(v))
	return nil
}

// setUint16 writes a two byte field read as unsigned, like the sample count
// and interval.
func (h *TraceHeader) setUint16(byteLoc int, v uint16) {
	h.order.PutUint16(h.raw[byteLoc-1:], v)
}

// Coordinate applies the coordinate scalar (byte 71) to the field at byteLoc.
func (h *TraceHeader) Coordinate(byteLoc int) (float64, error) {
	v, err := h.Get(byteLoc)
	if err != nil {
		return 0, err
	}
	return ApplyScalar(float64(v), int16(h.MustGet(ByteCoordinateScalar))), nil
}

// ApplyScalar applies a SEG-Y scalar: positive multiplies, negative divides,
// zero is treated as one.
func ApplyScalar(v float64, scalar int16) float64 {
	switch {
	case scalar > 0:
		return v * float64(scalar)
	case scalar < 0:
		return v / float64(-scalar)
	default:
		return v
	}
}

func checkByteLoc(f HeaderField) error {
	if f.Byte < 1 || f.Byte+f.Size-1 > TraceHeaderSize {
		return fmt.Errorf("byte location %d is outside the %d byte trace header", f.Byte, TraceHeaderSize)
	}
	return nil
}
