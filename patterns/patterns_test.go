package patterns

import (
	"math"
	"testing"

	"github.com/mrjoshuak/go-ledcal/colorspace"
	"github.com/mrjoshuak/go-ledcal/internal/mat3"
)

func TestGreySignalsRange(t *testing.T) {
	signals := GreySignals(100, 30)
	if len(signals) != 31 {
		t.Fatalf("GreySignals returned %d values, want 31", len(signals))
	}
	if signals[0] != 0 {
		t.Errorf("signals[0] = %g, want 0", signals[0])
	}
	last := signals[len(signals)-1]
	if math.Abs(last-1) > 1e-9 {
		t.Errorf("signals[last] = %g, want 1", last)
	}
	for i := 1; i < len(signals); i++ {
		if signals[i] <= signals[i-1] {
			t.Fatalf("signals not strictly increasing at %d: %g then %g", i, signals[i-1], signals[i])
		}
	}
}

func TestGreySignalsPeakScaling(t *testing.T) {
	signals := GreySignals(1500, 20)
	last := signals[len(signals)-1]
	if math.Abs(last-15) > 1e-6 {
		t.Errorf("1500 nit peak: signals[last] = %g, want 15", last)
	}
}

func TestReferenceSamplesShape(t *testing.T) {
	ref, err := ReferenceSamples(Config{
		Registry:         colorspace.NewRegistry(),
		TargetGamut:      colorspace.ACEScg,
		TargetMaxLumNits: 100,
		NumGreyPatches:   10,
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(ref.DesaturatedRGB) != 3 {
		t.Errorf("DesaturatedRGB has %d samples, want 3", len(ref.DesaturatedRGB))
	}
	if len(ref.EOTFRamp) != 11 {
		t.Errorf("EOTFRamp has %d steps, want 11", len(ref.EOTFRamp))
	}
	if len(ref.EOTFRampSignal) != len(ref.EOTFRamp) {
		t.Errorf("signal count %d does not match ramp length %d", len(ref.EOTFRampSignal), len(ref.EOTFRamp))
	}
	if len(ref.Macbeth) != 24 {
		t.Errorf("Macbeth has %d swatches, want 24", len(ref.Macbeth))
	}
	if ref.PrimariesSaturation != DefaultPrimariesSaturation {
		t.Errorf("PrimariesSaturation = %g, want default %g", ref.PrimariesSaturation, DefaultPrimariesSaturation)
	}

	want := mat3.Vec3{0.18, 0.18, 0.18}
	for i := range ref.Grey {
		if math.Abs(ref.Grey[i]-want[i]) > 1e-12 {
			t.Errorf("Grey = %v, want %v", ref.Grey, want)
			break
		}
	}
	for i := range ref.MaxWhite {
		if math.Abs(ref.MaxWhite[i]-1) > 1e-12 {
			t.Errorf("MaxWhite = %v, want 1 per channel", ref.MaxWhite)
			break
		}
	}
}

func TestReferenceSamplesDefaults(t *testing.T) {
	ref, err := ReferenceSamples(Config{
		Registry:         colorspace.NewRegistry(),
		TargetGamut:      colorspace.ACEScg,
		TargetMaxLumNits: 100,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(ref.EOTFRamp) != DefaultGreyPatches+1 {
		t.Errorf("EOTFRamp has %d steps, want %d", len(ref.EOTFRamp), DefaultGreyPatches+1)
	}
}

func TestReferenceSamplesDesaturation(t *testing.T) {
	full, err := ReferenceSamples(Config{
		Registry:            colorspace.NewRegistry(),
		TargetGamut:         colorspace.ACEScg,
		TargetMaxLumNits:    100,
		NumGreyPatches:      10,
		PrimariesSaturation: 1,
	})
	if err != nil {
		t.Fatal(err)
	}

	// At saturation 1 the patches stay pure primaries at the 18% level.
	want := []mat3.Vec3{
		{0.18, 0, 0},
		{0, 0.18, 0},
		{0, 0, 0.18},
	}
	for i, p := range full.DesaturatedRGB {
		for ch := range p {
			if math.Abs(p[ch]-want[i][ch]) > 1e-12 {
				t.Errorf("primary %d = %v, want %v", i, p, want[i])
				break
			}
		}
	}

	des, err := ReferenceSamples(Config{
		Registry:            colorspace.NewRegistry(),
		TargetGamut:         colorspace.ACEScg,
		TargetMaxLumNits:    100,
		NumGreyPatches:      10,
		PrimariesSaturation: 0.7,
	})
	if err != nil {
		t.Fatal(err)
	}
	for i, p := range des.DesaturatedRGB {
		// Desaturation lifts the off channels above zero and preserves the
		// per-sample mean.
		if math.Abs(p.Mean()-0.06) > 1e-12 {
			t.Errorf("primary %d mean = %g, want 0.06", i, p.Mean())
		}
		for ch := range p {
			if ch == i {
				if p[ch] <= p[(ch+1)%3] {
					t.Errorf("primary %d channel %d not dominant: %v", i, ch, p)
				}
			} else if p[ch] <= 0 {
				t.Errorf("primary %d off-channel %d = %g, want > 0", i, ch, p[ch])
			}
		}
	}
}

func TestMacbethReferenceNeutrals(t *testing.T) {
	reg := colorspace.NewRegistry()
	swatches, err := MacbethReference(reg, colorspace.ACEScg, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(swatches) != 24 {
		t.Fatalf("MacbethReference returned %d swatches, want 24", len(swatches))
	}

	// The bottom row is the neutral series: near-achromatic in the target
	// space after adaptation, descending in luminance.
	prev := math.Inf(1)
	for i := 18; i < 24; i++ {
		sw := swatches[i]
		mean := sw.Mean()
		for ch := range sw {
			if math.Abs(sw[ch]-mean)/mean > 0.05 {
				t.Errorf("neutral swatch %d not achromatic: %v", i, sw)
				break
			}
		}
		if mean >= prev {
			t.Errorf("neutral swatch %d brighter than the one before it: %g >= %g", i, mean, prev)
		}
		prev = mean
	}

	// White 9.5 reflects about 88% of the illuminant.
	if w := swatches[18]; math.Abs(w.Mean()-0.88) > 0.03 {
		t.Errorf("white swatch mean = %g, want about 0.88", w.Mean())
	}
}

func TestMacbethReferenceScalesWithPeak(t *testing.T) {
	reg := colorspace.NewRegistry()
	one, err := MacbethReference(reg, colorspace.ACEScg, 1)
	if err != nil {
		t.Fatal(err)
	}
	ten, err := MacbethReference(reg, colorspace.ACEScg, 10)
	if err != nil {
		t.Fatal(err)
	}
	for i := range one {
		for ch := range one[i] {
			if math.Abs(ten[i][ch]-10*one[i][ch]) > 1e-9 {
				t.Errorf("swatch %d channel %d does not scale with peak", i, ch)
			}
		}
	}
}

func TestMacbethReferenceUnknownGamut(t *testing.T) {
	if _, err := MacbethReference(colorspace.NewRegistry(), "bogus", 1); err == nil {
		t.Error("expected error for an unknown target gamut")
	}
}
