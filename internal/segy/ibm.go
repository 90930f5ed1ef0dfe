package segy

import "math"

// IBMToFloat32 converts an IBM System/360 single precision float to IEEE 754.
func IBMToFloat32(v uint32) float32 {
	if v&0x7fffffff == 0 {
		return 0
	}
	sign := 1.0
	if v&0x80000000 != 0 {
		sign = -1.0
	}
	exp := int((v>>24)&0x7f) - 64
	mant := float64(v&0x00ffffff) / float64(1<<24)
	return float32(sign * mant * math.Pow(16, float64(exp)))
}

// Float32ToIBM converts an IEEE 754 float to IBM System/360 single precision.
// Values beyond the IBM range saturate; NaN is written as zero.
func Float32ToIBM(f float32) uint32 {
	if f == 0 || math.IsNaN(float64(f)) {
		return 0
	}
	var sign uint32
	v := float64(f)
	if v < 0 {
		sign = 0x80000000
		v = -v
	}
	if math.IsInf(v, 0) {
		return sign | 0x7fffffff
	}

	// v = mant * 16^exp with 1/16 <= mant < 1
	exp := 0
	for v >= 1 {
		v /= 16
		exp++
	}
	for v < 1.0/16 {
		v *= 16
		exp--
	}

	mant := uint32(math.Round(v * float64(1<<24)))
	if mant >= 1<<24 {
		mant >>= 4
		exp++
	}
	exp += 64
	switch {
	case exp > 127:
		return sign | 0x7fffffff
	case exp < 0:
		return 0
	}
	return sign | uint32(exp)<<24 | mant
}
