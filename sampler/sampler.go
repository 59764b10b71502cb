package sampler

import (
	"fmt"
	"math"
	"sort"

	"github.com/mrjoshuak/go-ledcal/colorspace"
	"github.com/mrjoshuak/go-ledcal/internal/mat3"
)

const (
	// trimFrames is trimmed off each end of a patch interval to avoid
	// multiplexing artifacts at patch boundaries.
	trimFrames = 1

	// requiredSampleFrames is the nominal number of candidate frames per
	// patch; minSampleFrames is the hard minimum that must survive outlier
	// rejection.
	requiredSampleFrames = 3
	minSampleFrames      = 2

	// Across-frame outlier rejection: a frame triplet is discarded when any
	// channel deviates from the per-channel median by more than
	// rejectATol + rejectRTol*|median|.
	rejectATol = 1e-4
	rejectRTol = 0.1

	// clipSigma bounds the per-region clipped mean, isolating patch content
	// from compression ringing at patch edges.
	clipSigma = 3.0
)

// Config configures a Sampler.
type Config struct {
	Sequence Sequence
	Registry *colorspace.Registry

	// ReferenceSpace is the space samples are reduced into. Empty selects
	// ACES2065-1.
	ReferenceSpace string

	// ROI is the wall region sampled for solid patches.
	ROI ROI

	// Workers bounds the ramp sampling pool. 0 selects GOMAXPROCS.
	Workers int
}

// Sampler reduces patch intervals to single colour values in the reference
// colour space.
type Sampler struct {
	seq       Sequence
	reference *colorspace.ColorSpace
	plate     *colorspace.ColorSpace
	toRef     mat3.Mat3
	roi       ROI
	workers   int
}

// SampleResult is the reduced colour for one patch together with the frames
// that contributed to it.
type SampleResult struct {
	Patch  Patch
	Frames []int
	Value  mat3.Vec3
}

// New builds a Sampler. The plate colour space is taken from the sequence
// and resolved against the registry.
func New(cfg Config) (*Sampler, error) {
	if cfg.Sequence == nil {
		return nil, fmt.Errorf("sampler: no sequence provided")
	}
	if cfg.Registry == nil {
		return nil, fmt.Errorf("sampler: no colour space registry provided")
	}
	refName := cfg.ReferenceSpace
	if refName == "" {
		refName = colorspace.ACES2065
	}
	ref, err := cfg.Registry.Resolve(refName)
	if err != nil {
		return nil, err
	}
	plate, err := cfg.Registry.Resolve(cfg.Sequence.PlateColorSpace())
	if err != nil {
		return nil, err
	}
	toRef, err := colorspace.MatrixRGBToRGB(plate, ref, colorspace.CATNone)
	if err != nil {
		return nil, err
	}
	return &Sampler{
		seq:       cfg.Sequence,
		reference: ref,
		plate:     plate,
		toRef:     toRef,
		roi:       cfg.ROI,
		workers:   cfg.Workers,
	}, nil
}

// Reference returns the colour space samples are produced in.
func (s *Sampler) Reference() *colorspace.ColorSpace { return s.reference }

// Plate returns the plate's native colour space.
func (s *Sampler) Plate() *colorspace.ColorSpace { return s.plate }

// SamplePatch reduces one patch to a single colour value.
func (s *Sampler) SamplePatch(sep Separation, p Patch) (SampleResult, error) {
	iv, err := sep.Interval(p)
	if err != nil {
		return SampleResult{}, err
	}
	return s.sampleInterval(iv, p)
}

// sampleInterval samples the candidate frames of one interval, rejects
// outlier frames against the per-channel median, and returns the mean of
// the survivors.
func (s *Sampler) sampleInterval(iv Interval, p Patch) (SampleResult, error) {
	candidates, err := candidateFrames(iv, p)
	if err != nil {
		return SampleResult{}, err
	}

	perFrame := make([]mat3.Vec3, len(candidates))
	for i, frame := range candidates {
		pixels, err := s.seq.ExtractRegion(frame, s.roi)
		if err != nil {
			return SampleResult{}, fmt.Errorf("sampler: patch %q frame %d: %w", p, frame, err)
		}
		perFrame[i] = s.toRef.MulVec(clippedMean(pixels, clipSigma))
	}

	survivors := rejectOutliers(perFrame)
	if len(survivors) < minSampleFrames {
		return SampleResult{}, &SeparationQualityError{Patch: p, Frames: candidates}
	}

	var sum mat3.Vec3
	frames := make([]int, len(survivors))
	for i, idx := range survivors {
		sum = sum.Add(perFrame[idx])
		frames[i] = candidates[idx]
	}
	return SampleResult{
		Patch:  p,
		Frames: frames,
		Value:  sum.Scale(1.0 / float64(len(survivors))),
	}, nil
}

// candidateFrames trims the interval and places the candidate indices
// symmetrically around its centre.
func candidateFrames(iv Interval, p Patch) ([]int, error) {
	first := iv.First + trimFrames
	last := iv.Last - trimFrames
	avail := last - first + 1
	if avail < minSampleFrames {
		return nil, &SeparationQualityError{Patch: p, Frames: nil}
	}
	n := requiredSampleFrames
	if avail < n {
		n = avail
	}
	start := first + (avail-n)/2
	frames := make([]int, n)
	for i := range frames {
		frames[i] = start + i
	}
	return frames, nil
}

// clippedMean reduces a pixel region to one triplet: per channel, pixels
// beyond sigma standard deviations from the channel mean are discarded and
// the mean recomputed over the rest.
func clippedMean(pixels []mat3.Vec3, sigma float64) mat3.Vec3 {
	var out mat3.Vec3
	n := float64(len(pixels))
	if n == 0 {
		return out
	}
	for ch := 0; ch < 3; ch++ {
		var sum float64
		for _, p := range pixels {
			sum += p[ch]
		}
		mean := sum / n

		var varSum float64
		for _, p := range pixels {
			d := p[ch] - mean
			varSum += d * d
		}
		std := math.Sqrt(varSum / n)

		lower, upper := mean-sigma*std, mean+sigma*std
		var clippedSum float64
		var clippedN int
		for _, p := range pixels {
			if p[ch] >= lower && p[ch] <= upper {
				clippedSum += p[ch]
				clippedN++
			}
		}
		if clippedN == 0 {
			out[ch] = mean
			continue
		}
		out[ch] = clippedSum / float64(clippedN)
	}
	return out
}

// rejectOutliers returns the indices of frames whose triplet stays within
// rejectATol + rejectRTol*|median| of the per-channel median on every
// channel.
func rejectOutliers(frames []mat3.Vec3) []int {
	med := channelMedians(frames)
	var keep []int
	for i, f := range frames {
		ok := true
		for ch := 0; ch < 3; ch++ {
			tol := rejectATol + rejectRTol*abs(med[ch])
			if abs(f[ch]-med[ch]) > tol {
				ok = false
				break
			}
		}
		if ok {
			keep = append(keep, i)
		}
	}
	return keep
}

func channelMedians(frames []mat3.Vec3) mat3.Vec3 {
	var med mat3.Vec3
	vals := make([]float64, len(frames))
	for ch := 0; ch < 3; ch++ {
		for i, f := range frames {
			vals[i] = f[ch]
		}
		sort.Float64s(vals)
		n := len(vals)
		if n%2 == 1 {
			med[ch] = vals[n/2]
		} else {
			med[ch] = (vals[n/2-1] + vals[n/2]) / 2
		}
	}
	return med
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
