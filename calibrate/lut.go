package calibrate

import (
	"sort"

	"github.com/mrjoshuak/go-ledcal/internal/mat3"
)

// CurvePoint is one (input, output) pair of a 1D correction curve. The
// input axis carries measured screen values, the output axis the signal
// values the screen should have produced.
type CurvePoint struct {
	In  float64 `json:"in"`
	Out float64 `json:"out"`
}

// LUT is a 1D curve as a list of points sorted by input. Application is
// always piecewise-linear interpolation, clamped to the end points; inverse
// application swaps the interpolation axes.
type LUT []CurvePoint

// LUT3 holds the per-channel EOTF correction curves.
type LUT3 struct {
	R LUT `json:"r"`
	G LUT `json:"g"`
	B LUT `json:"b"`
}

// buildEOTFLUTs builds the three EOTF correction curves from the measured
// ramp in screen space and the displayed signal values. Steps whose ΔE
// exceeds the exclusion threshold are dropped; an explicit (0,0) anchor is
// always included. With avoidClipping, input values beyond the linear peak
// rescale the input axis only, leaving the target output levels untouched.
func buildEOTFLUTs(rampScreen []mat3.Vec3, signal []mat3.Vec3, rampDeltaE []float64,
	avoidClipping bool, peakLum float64) LUT3 {

	luts := LUT3{
		R: LUT{{0, 0}},
		G: LUT{{0, 0}},
		B: LUT{{0, 0}},
	}
	for i, step := range rampScreen {
		if rampDeltaE[i] > deltaEExclusionThreshold {
			continue
		}
		in := mat3.Vec3{max0(step[0]), max0(step[1]), max0(step[2])}
		luts.R = append(luts.R, CurvePoint{In: in[0], Out: signal[i][0]})
		luts.G = append(luts.G, CurvePoint{In: in[1], Out: signal[i][1]})
		luts.B = append(luts.B, CurvePoint{In: in[2], Out: signal[i][2]})
	}

	if avoidClipping {
		maxIn := maxInput(luts.R)
		if v := maxInput(luts.G); v > maxIn {
			maxIn = v
		}
		if v := maxInput(luts.B); v > maxIn {
			maxIn = v
		}
		if maxIn > peakLum {
			scale := peakLum / maxIn
			scaleInputs(luts.R, scale)
			scaleInputs(luts.G, scale)
			scaleInputs(luts.B, scale)
		}
	}

	sortByInput(luts.R)
	sortByInput(luts.G)
	sortByInput(luts.B)
	return luts
}

func max0(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

func maxInput(l LUT) float64 {
	m := 0.0
	for _, p := range l {
		if p.In > m {
			m = p.In
		}
	}
	return m
}

func scaleInputs(l LUT, s float64) {
	for i := range l {
		l[i].In *= s
	}
}

func sortByInput(l LUT) {
	sort.SliceStable(l, func(i, j int) bool { return l[i].In < l[j].In })
}

// apply evaluates the curve at v by piecewise-linear interpolation over the
// input axis, clamped to the first and last points.
func (l LUT) apply(v float64) float64 {
	return interp(v, l, false)
}

// applyInverse evaluates the inverse curve at v, interpolating over the
// output axis.
func (l LUT) applyInverse(v float64) float64 {
	return interp(v, l, true)
}

func interp(v float64, l LUT, inverse bool) float64 {
	if len(l) == 0 {
		return v
	}
	x := func(p CurvePoint) float64 {
		if inverse {
			return p.Out
		}
		return p.In
	}
	y := func(p CurvePoint) float64 {
		if inverse {
			return p.In
		}
		return p.Out
	}

	if v <= x(l[0]) {
		return y(l[0])
	}
	last := l[len(l)-1]
	if v >= x(last) {
		return y(last)
	}
	for i := 1; i < len(l); i++ {
		x0, x1 := x(l[i-1]), x(l[i])
		if v <= x1 {
			if x1 == x0 {
				return y(l[i])
			}
			t := (v - x0) / (x1 - x0)
			return y(l[i-1]) + t*(y(l[i])-y(l[i-1]))
		}
	}
	return y(last)
}

// applyLUTs runs every sample through the per-channel curves.
func applyLUTs(samples []mat3.Vec3, luts LUT3, inverse bool) []mat3.Vec3 {
	out := make([]mat3.Vec3, len(samples))
	for i, s := range samples {
		if inverse {
			out[i] = mat3.Vec3{
				luts.R.applyInverse(s[0]),
				luts.G.applyInverse(s[1]),
				luts.B.applyInverse(s[2]),
			}
		} else {
			out[i] = mat3.Vec3{
				luts.R.apply(s[0]),
				luts.G.apply(s[1]),
				luts.B.apply(s[2]),
			}
		}
	}
	return out
}
