package calibrate

import (
	"math"
	"testing"

	"github.com/mrjoshuak/go-ledcal/internal/mat3"
)

func rampAndSignal(values ...float64) (ramp, signal []mat3.Vec3, des []float64) {
	for _, v := range values {
		ramp = append(ramp, mat3.Vec3{v, v, v})
		signal = append(signal, mat3.Vec3{v, v, v})
		des = append(des, 0)
	}
	return ramp, signal, des
}

func TestBuildEOTFLUTsExcludesBadSteps(t *testing.T) {
	ramp, signal, des := rampAndSignal(0.1, 0.5, 0.9)
	des[1] = 25 // beyond the exclusion threshold

	luts := buildEOTFLUTs(ramp, signal, des, false, 1)

	// Anchor plus the two surviving steps.
	if len(luts.G) != 3 {
		t.Fatalf("green LUT has %d points, want 3", len(luts.G))
	}
	for _, p := range luts.G {
		if p.In == 0.5 {
			t.Errorf("excluded step still present: %v", p)
		}
	}
}

func TestBuildEOTFLUTsAnchorAndClamp(t *testing.T) {
	ramp := []mat3.Vec3{{-0.01, -0.01, -0.01}, {0.5, 0.5, 0.5}}
	signal := []mat3.Vec3{{0.02, 0.02, 0.02}, {0.5, 0.5, 0.5}}
	des := []float64{0, 0}

	luts := buildEOTFLUTs(ramp, signal, des, false, 1)

	if luts.R[0].In != 0 || luts.R[0].Out != 0 {
		t.Errorf("first point = %v, want the (0,0) anchor", luts.R[0])
	}
	for _, p := range luts.R {
		if p.In < 0 {
			t.Errorf("negative input survived clamping: %v", p)
		}
	}
	// The clamped step keeps its target output.
	found := false
	for _, p := range luts.R {
		if p.In == 0 && p.Out == 0.02 {
			found = true
		}
	}
	if !found {
		t.Errorf("clamped step lost its output level: %v", luts.R)
	}
}

func TestBuildEOTFLUTsAvoidClippingRescale(t *testing.T) {
	ramp, signal, des := rampAndSignal(0.3, 0.9, 1.5)

	luts := buildEOTFLUTs(ramp, signal, des, true, 1)

	for _, l := range []LUT{luts.R, luts.G, luts.B} {
		for _, p := range l {
			if p.In > 1+1e-12 {
				t.Errorf("input %g exceeds the peak after rescale", p.In)
			}
		}
	}
	// Inputs scale by peak/maxIn, outputs stay at the signal levels.
	last := luts.G[len(luts.G)-1]
	if math.Abs(last.In-1) > 1e-12 || math.Abs(last.Out-1.5) > 1e-12 {
		t.Errorf("top point = %v, want In 1 Out 1.5", last)
	}
	mid := luts.G[len(luts.G)-2]
	if math.Abs(mid.In-0.6) > 1e-12 {
		t.Errorf("mid point In = %g, want 0.6", mid.In)
	}
}

func TestBuildEOTFLUTsNoRescaleBelowPeak(t *testing.T) {
	ramp, signal, des := rampAndSignal(0.3, 0.9)

	luts := buildEOTFLUTs(ramp, signal, des, true, 1)
	last := luts.G[len(luts.G)-1]
	if last.In != 0.9 {
		t.Errorf("top point In = %g, want 0.9 untouched", last.In)
	}
}

func TestLUTApplyInterpolates(t *testing.T) {
	l := LUT{{0, 0}, {0.5, 0.4}, {1, 1}}

	tests := []struct {
		in, want float64
	}{
		{-1, 0}, // clamped low
		{0, 0},
		{0.25, 0.2},
		{0.5, 0.4},
		{0.75, 0.7},
		{1, 1},
		{2, 1}, // clamped high
	}
	for _, tt := range tests {
		if got := l.apply(tt.in); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("apply(%g) = %g, want %g", tt.in, got, tt.want)
		}
	}
}

func TestLUTApplyInverseRoundTrip(t *testing.T) {
	l := LUT{{0, 0}, {0.2, 0.15}, {0.5, 0.45}, {1, 1}}
	for _, v := range []float64{0, 0.1, 0.3, 0.6, 0.95, 1} {
		out := l.apply(v)
		back := l.applyInverse(out)
		if math.Abs(back-v) > 1e-12 {
			t.Errorf("applyInverse(apply(%g)) = %g", v, back)
		}
	}
}

func TestApplyLUTsInverseFlag(t *testing.T) {
	luts := LUT3{
		R: LUT{{0, 0}, {1, 0.5}},
		G: LUT{{0, 0}, {1, 0.5}},
		B: LUT{{0, 0}, {1, 0.5}},
	}
	samples := []mat3.Vec3{{1, 1, 1}}

	fwd := applyLUTs(samples, luts, false)
	if !vecNear(fwd[0], mat3.Vec3{0.5, 0.5, 0.5}, 1e-12) {
		t.Errorf("forward = %v, want 0.5", fwd[0])
	}
	inv := applyLUTs(fwd, luts, true)
	if !vecNear(inv[0], samples[0], 1e-12) {
		t.Errorf("inverse = %v, want %v", inv[0], samples[0])
	}
}

// TestClippingInvariants pins the two clipping-avoidance bounds: no matrix
// row may sum above 1, and no LUT input may exceed the linear peak.
func TestClippingInvariants(t *testing.T) {
	cfg := identityConfig()
	cfg.AvoidClipping = true
	cfg.EnableEOTFCorrection = true

	// A wall whose measured gamut is narrower than claimed and whose ramp
	// reads hot: both bounds must hold on the result.
	measured := identitySamples(10)
	measured.DesaturatedRGB = SaturateRGB(measured.DesaturatedRGB, 0.9)
	for i := range measured.EOTFRamp {
		measured.EOTFRamp[i] = measured.EOTFRamp[i].Scale(1.3)
	}

	res, err := Run(measured, identitySamples(10), cfg)
	if err != nil {
		t.Fatal(err)
	}

	if sum := res.TargetToScreenMatrix.MaxRowSum(); sum > 1+1e-9 {
		t.Errorf("TargetToScreenMatrix row sum %g exceeds 1", sum)
	}
	peak := res.TargetMaxLumNits * 0.01
	for _, l := range []LUT{res.EOTFLUTs.R, res.EOTFLUTs.G, res.EOTFLUTs.B} {
		for _, p := range l {
			if p.In > peak+1e-9 {
				t.Errorf("LUT input %g exceeds the %g peak", p.In, peak)
			}
		}
	}
}
