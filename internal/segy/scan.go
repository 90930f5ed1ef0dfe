package segy

import (
	"context"
	"math"
	"sort"
)

// FieldStats summarises the values of one trace header field over the
// scanned traces.
type FieldStats struct {
	Name  string  `json:"name" yaml:"name"`
	Byte  int     `json:"byte_loc" yaml:"byte_loc"`
	Count int     `json:"count" yaml:"count"`
	Mean  float64 `json:"mean" yaml:"mean"`
	Std   float64 `json:"std" yaml:"std"`
	Min   float64 `json:"min" yaml:"min"`
	P25   float64 `json:"25%" yaml:"25%"`
	P50   float64 `json:"50%" yaml:"50%"`
	P75   float64 `json:"75%" yaml:"75%"`
	Max   float64 `json:"max" yaml:"max"`
}

// NonZero reports whether any scanned value of the field was non-zero.
func (s FieldStats) NonZero() bool {
	return s.Min != 0 || s.Max != 0
}

// ScanHeaders computes statistics for every standard trace header field over
// the first maxTraces traces (all traces when maxTraces <= 0). It returns the
// stats in byte order and the number of traces scanned.
func ScanHeaders(ctx context.Context, f *File, maxTraces int) ([]FieldStats, int, error) {
	n := f.NumTraces
	if maxTraces > 0 && maxTraces < n {
		n = maxTraces
	}

	values := make([][]int32, len(TraceHeaderFields))
	for i := range values {
		values[i] = make([]int32, 0, n)
	}

	for t := 0; t < n; t++ {
		if t%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, t, err
			}
		}
		h, err := f.TraceHeader(t)
		if err != nil {
			return nil, t, err
		}
		for i, field := range TraceHeaderFields {
			v, _ := h.Get(field.Byte)
			values[i] = append(values[i], v)
		}
	}

	stats := make([]FieldStats, len(TraceHeaderFields))
	for i, field := range TraceHeaderFields {
		stats[i] = describe(field, values[i])
	}
	return stats, n, nil
}

func describe(field HeaderField, vals []int32) FieldStats {
	s := FieldStats{Name: field.Name, Byte: field.Byte, Count: len(vals)}
	if len(vals) == 0 {
		return s
	}

	sorted := make([]float64, len(vals))
	var sum float64
	for i, v := range vals {
		sorted[i] = float64(v)
		sum += float64(v)
	}
	sort.Float64s(sorted)

	s.Mean = sum / float64(len(sorted))
	if len(sorted) > 1 {
		var ss float64
		for _, v := range sorted {
			d := v - s.Mean
			ss += d * d
		}
		s.Std = math.Sqrt(ss / float64(len(sorted)-1))
	}
	s.Min = sorted[0]
	s.Max = sorted[len(sorted)-1]
	s.P25 = quantile(sorted, 0.25)
	s.P50 = quantile(sorted, 0.5)
	s.P75 = quantile(sorted, 0.75)
	return s
}

// quantile uses linear interpolation between closest ranks.
func quantile(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (sorted[hi]-sorted[lo])*(pos-float64(lo))
}
