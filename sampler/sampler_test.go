package sampler

import (
	"errors"
	"math"
	"testing"

	"github.com/mrjoshuak/go-ledcal/colorspace"
	"github.com/mrjoshuak/go-ledcal/internal/mat3"
)

// fakeSequence serves a constant colour per frame, with a default for frames
// not explicitly listed.
type fakeSequence struct {
	plate  string
	frames map[int]mat3.Vec3
	def    mat3.Vec3
}

func (f *fakeSequence) PlateColorSpace() string { return f.plate }

func (f *fakeSequence) ExtractRegion(frameIndex int, roi ROI) ([]mat3.Vec3, error) {
	v, ok := f.frames[frameIndex]
	if !ok {
		v = f.def
	}
	pixels := make([]mat3.Vec3, roi.Width*roi.Height)
	for i := range pixels {
		pixels[i] = v
	}
	return pixels, nil
}

func newTestSampler(t *testing.T, seq Sequence) *Sampler {
	t.Helper()
	s, err := New(Config{
		Sequence: seq,
		Registry: colorspace.NewRegistry(),
		ROI:      ROI{X: 0, Y: 0, Width: 4, Height: 4},
	})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func vecNear(a, b mat3.Vec3, tol float64) bool {
	for i := range a {
		if math.Abs(a[i]-b[i]) > tol {
			return false
		}
	}
	return true
}

func TestNewValidation(t *testing.T) {
	reg := colorspace.NewRegistry()
	seq := &fakeSequence{plate: colorspace.ACES2065}

	if _, err := New(Config{Registry: reg}); err == nil {
		t.Error("expected error without a sequence")
	}
	if _, err := New(Config{Sequence: seq}); err == nil {
		t.Error("expected error without a registry")
	}
	if _, err := New(Config{Sequence: seq, Registry: reg, ReferenceSpace: "bogus"}); err == nil {
		t.Error("expected error for an unknown reference space")
	}
	if _, err := New(Config{Sequence: &fakeSequence{plate: "bogus"}, Registry: reg}); err == nil {
		t.Error("expected error for an unknown plate space")
	}
}

func TestSamplePatchRejectsOutlierFrame(t *testing.T) {
	// Patch interval 0-4, candidates after trimming are frames 1, 2 and 3.
	// Frame 3 deviates far beyond the median tolerance on red and must be
	// dropped from the mean.
	seq := &fakeSequence{
		plate: colorspace.ACES2065,
		frames: map[int]mat3.Vec3{
			1: {0.10, 0.10, 0.10},
			2: {0.10, 0.10, 0.10},
			3: {0.50, 0.10, 0.10},
		},
	}
	s := newTestSampler(t, seq)

	res, err := s.SamplePatch(Separation{FirstRedFrame: 0, Frames: 5, NumGreyPatches: 10}, PatchRedPrimaryDesaturated)
	if err != nil {
		t.Fatal(err)
	}
	if !vecNear(res.Value, mat3.Vec3{0.10, 0.10, 0.10}, 1e-12) {
		t.Errorf("Value = %v, want (0.10, 0.10, 0.10)", res.Value)
	}
	if len(res.Frames) != 2 || res.Frames[0] != 1 || res.Frames[1] != 2 {
		t.Errorf("Frames = %v, want [1 2]", res.Frames)
	}
}

func TestSamplePatchSeparationQuality(t *testing.T) {
	// All three candidate frames disagree, only the median frame survives
	// rejection, which is below the minimum of two.
	seq := &fakeSequence{
		plate: colorspace.ACES2065,
		frames: map[int]mat3.Vec3{
			1: {0.10, 0.10, 0.10},
			2: {0.20, 0.20, 0.20},
			3: {0.30, 0.30, 0.30},
		},
	}
	s := newTestSampler(t, seq)

	_, err := s.SamplePatch(Separation{FirstRedFrame: 0, Frames: 5, NumGreyPatches: 10}, PatchRedPrimaryDesaturated)
	var qerr *SeparationQualityError
	if !errors.As(err, &qerr) {
		t.Fatalf("err = %v, want SeparationQualityError", err)
	}
	if qerr.Patch != PatchRedPrimaryDesaturated {
		t.Errorf("error names patch %q, want %q", qerr.Patch, PatchRedPrimaryDesaturated)
	}
}

func TestCandidateFramesCentred(t *testing.T) {
	seq := &fakeSequence{plate: colorspace.ACES2065, def: mat3.Vec3{0.5, 0.5, 0.5}}
	s := newTestSampler(t, seq)

	// Interval 10-14, trimmed to 11-13, exactly the three nominal frames.
	res, err := s.SamplePatch(Separation{FirstRedFrame: 10, Frames: 5, NumGreyPatches: 10}, PatchRedPrimaryDesaturated)
	if err != nil {
		t.Fatal(err)
	}
	want := []int{11, 12, 13}
	if len(res.Frames) != len(want) {
		t.Fatalf("Frames = %v, want %v", res.Frames, want)
	}
	for i := range want {
		if res.Frames[i] != want[i] {
			t.Errorf("Frames = %v, want %v", res.Frames, want)
			break
		}
	}
}

func TestSamplePatchIntervalTooShort(t *testing.T) {
	seq := &fakeSequence{plate: colorspace.ACES2065, def: mat3.Vec3{0.5, 0.5, 0.5}}
	s := newTestSampler(t, seq)

	// Two frames per patch leave no candidates after trimming.
	_, err := s.SamplePatch(Separation{FirstRedFrame: 0, Frames: 2, NumGreyPatches: 10}, PatchGrey18Percent)
	var qerr *SeparationQualityError
	if !errors.As(err, &qerr) {
		t.Fatalf("err = %v, want SeparationQualityError", err)
	}
}

func TestSeparationInterval(t *testing.T) {
	sep := Separation{FirstRedFrame: 100, Frames: 10, NumGreyPatches: 5}

	tests := []struct {
		patch Patch
		first int
	}{
		{PatchRedPrimaryDesaturated, 100},
		{PatchGreenPrimaryDesaturated, 110},
		{PatchGrey18Percent, 130},
		{PatchMaxWhite, 170},
		{PatchEOTFRamps, 220},
		// End slate follows the ramp's NumGreyPatches extra steps.
		{PatchEndSlate, 280},
	}
	for _, tt := range tests {
		iv, err := sep.Interval(tt.patch)
		if err != nil {
			t.Fatalf("Interval(%s): %v", tt.patch, err)
		}
		if iv.First != tt.first || iv.Last != tt.first+9 {
			t.Errorf("Interval(%s) = %+v, want first %d last %d", tt.patch, iv, tt.first, tt.first+9)
		}
	}

	if _, err := sep.Interval(Patch("bogus")); err == nil {
		t.Error("expected error for an unknown patch")
	}
}

func TestSampleRampOrderStable(t *testing.T) {
	sep := Separation{FirstRedFrame: 0, Frames: 5, NumGreyPatches: 3}
	base, err := sep.Interval(PatchEOTFRamps)
	if err != nil {
		t.Fatal(err)
	}

	// Each ramp step shows a distinct level on all of its frames.
	seq := &fakeSequence{plate: colorspace.ACES2065, frames: map[int]mat3.Vec3{}}
	steps := sep.NumGreyPatches + 1
	for i := 0; i < steps; i++ {
		level := float64(i) * 0.25
		for f := base.First + i*sep.Frames; f < base.First+(i+1)*sep.Frames; f++ {
			seq.frames[f] = mat3.Vec3{level, level, level}
		}
	}
	s := newTestSampler(t, seq)

	results, err := s.SampleRamp(sep)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != steps {
		t.Fatalf("SampleRamp returned %d steps, want %d", len(results), steps)
	}
	for i, res := range results {
		level := float64(i) * 0.25
		if !vecNear(res.Value, mat3.Vec3{level, level, level}, 1e-12) {
			t.Errorf("step %d = %v, want level %g", i, res.Value, level)
		}
	}
}

func TestSampleRampFailureFailsWhole(t *testing.T) {
	sep := Separation{FirstRedFrame: 0, Frames: 5, NumGreyPatches: 3}
	base, err := sep.Interval(PatchEOTFRamps)
	if err != nil {
		t.Fatal(err)
	}

	// Step 2's candidate frames all disagree, so the whole ramp must fail.
	seq := &fakeSequence{plate: colorspace.ACES2065, def: mat3.Vec3{0.5, 0.5, 0.5}, frames: map[int]mat3.Vec3{}}
	first := base.First + 2*sep.Frames
	seq.frames[first+1] = mat3.Vec3{0.1, 0.1, 0.1}
	seq.frames[first+2] = mat3.Vec3{0.5, 0.5, 0.5}
	seq.frames[first+3] = mat3.Vec3{0.9, 0.9, 0.9}
	s := newTestSampler(t, seq)

	if _, err := s.SampleRamp(sep); err == nil {
		t.Error("expected ramp failure when one step is inconsistent")
	}
}

func TestSampleMacbethUniformChart(t *testing.T) {
	seq := &fakeSequence{plate: colorspace.ACES2065, def: mat3.Vec3{0.18, 0.18, 0.18}}
	s := newTestSampler(t, seq)

	res, err := s.SampleMacbeth(Separation{FirstRedFrame: 0, Frames: 5, NumGreyPatches: 10},
		ROI{X: 0, Y: 0, Width: 60, Height: 40})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Swatches) != MacbethSwatches {
		t.Fatalf("Swatches = %d, want %d", len(res.Swatches), MacbethSwatches)
	}
	for i, sw := range res.Swatches {
		if !vecNear(sw, mat3.Vec3{0.18, 0.18, 0.18}, 1e-9) {
			t.Errorf("swatch %d = %v, want uniform 0.18", i, sw)
		}
	}
}

func TestSampleMacbethNonNumericFallsBack(t *testing.T) {
	nan := math.NaN()
	seq := &fakeSequence{plate: colorspace.ACES2065, def: mat3.Vec3{nan, nan, nan}}
	s := newTestSampler(t, seq)

	res, err := s.SampleMacbeth(Separation{FirstRedFrame: 0, Frames: 5, NumGreyPatches: 10},
		ROI{X: 0, Y: 0, Width: 60, Height: 40})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Swatches) != MacbethSwatches {
		t.Fatalf("Swatches = %d, want %d", len(res.Swatches), MacbethSwatches)
	}
	for i, sw := range res.Swatches {
		if sw != (mat3.Vec3{}) {
			t.Errorf("swatch %d = %v, want black placeholder", i, sw)
		}
	}
}

func TestClippedMeanIgnoresEdgeOutliers(t *testing.T) {
	// A region dominated by patch content with a small number of ringing
	// pixels stays near the patch level.
	pixels := make([]mat3.Vec3, 0, 103)
	for i := 0; i < 100; i++ {
		pixels = append(pixels, mat3.Vec3{0.5, 0.5, 0.5})
	}
	pixels = append(pixels,
		mat3.Vec3{5, 5, 5},
		mat3.Vec3{5, 5, 5},
		mat3.Vec3{5, 5, 5})

	got := clippedMean(pixels, clipSigma)
	if !vecNear(got, mat3.Vec3{0.5, 0.5, 0.5}, 1e-9) {
		t.Errorf("clippedMean = %v, want 0.5 per channel", got)
	}
}

func TestRejectOutliersKeepsConsistent(t *testing.T) {
	frames := []mat3.Vec3{
		{0.100, 0.100, 0.100},
		{0.101, 0.100, 0.099},
		{0.100, 0.102, 0.100},
	}
	keep := rejectOutliers(frames)
	if len(keep) != 3 {
		t.Errorf("rejectOutliers kept %d of 3 consistent frames", len(keep))
	}
}
