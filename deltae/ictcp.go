// Package deltae computes perceptual colour differences in the ICtCp colour
// space (Dolby 2016 / ITU-R BT.2100) between measured and reference sample
// sets. It is stateless; every function is pure.
package deltae

import (
	"math"

	"github.com/mrjoshuak/go-ledcal/internal/mat3"
)

// ST 2084 (PQ) constants.
const (
	pqM1 = 2610.0 / 16384.0
	pqM2 = 2523.0 / 4096.0 * 128.0
	pqC1 = 3424.0 / 4096.0
	pqC2 = 2413.0 / 4096.0 * 32.0
	pqC3 = 2392.0 / 4096.0 * 32.0

	// pqPeak is the absolute luminance, in cd/m2, that PQ code value 1.0
	// represents.
	pqPeak = 10000.0
)

// Linear RGB (BT.2020 primaries) to LMS, ITU-R BT.2100-2 table 4.
var rgbToLMS = mat3.Mat3{
	1688.0 / 4096.0, 2146.0 / 4096.0, 262.0 / 4096.0,
	683.0 / 4096.0, 2951.0 / 4096.0, 462.0 / 4096.0,
	99.0 / 4096.0, 309.0 / 4096.0, 3688.0 / 4096.0,
}

// PQ-encoded L'M'S' to ICtCp.
var lmsToICtCp = mat3.Mat3{
	2048.0 / 4096.0, 2048.0 / 4096.0, 0.0,
	6610.0 / 4096.0, -13613.0 / 4096.0, 7003.0 / 4096.0,
	17933.0 / 4096.0, -17390.0 / 4096.0, -543.0 / 4096.0,
}

// pqEncode applies the ST 2084 inverse EOTF to an absolute luminance in
// cd/m2. Negative input clamps to 0.
func pqEncode(nits float64) float64 {
	if nits < 0 {
		nits = 0
	}
	y := math.Pow(nits/pqPeak, pqM1)
	return math.Pow((pqC1+pqC2*y)/(1+pqC3*y), pqM2)
}

// NitsToPQ maps an absolute luminance in cd/m2 to its ST 2084 signal value.
func NitsToPQ(nits float64) float64 { return pqEncode(nits) }

// PQToNits maps an ST 2084 signal value back to absolute luminance in cd/m2.
func PQToNits(pq float64) float64 {
	e := math.Pow(pq, 1/pqM2)
	num := e - pqC1
	if num < 0 {
		num = 0
	}
	return pqPeak * math.Pow(num/(pqC2-pqC3*e), 1/pqM1)
}

// RGBToICtCp converts a linear RGB value in absolute cd/m2 to ICtCp using
// the Dolby 2016 method: RGB to LMS, PQ encoding, then the ICtCp matrix.
func RGBToICtCp(rgb mat3.Vec3) mat3.Vec3 {
	lms := rgbToLMS.MulVec(rgb)
	encoded := mat3.Vec3{pqEncode(lms[0]), pqEncode(lms[1]), pqEncode(lms[2])}
	return lmsToICtCp.MulVec(encoded)
}
