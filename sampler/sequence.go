// Package sampler extracts representative colour samples from a recorded
// calibration patch sequence: a robust mean per patch, a parallel grey ramp,
// and the Macbeth chart swatches. Samplers read frames through a Sequence
// accessor and never mutate sequence state.
package sampler

import (
	"fmt"

	"github.com/mrjoshuak/go-ledcal/internal/mat3"
)

// ROI is a rectangular region of interest in pixel coordinates.
type ROI struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Sequence provides read access to the recorded plate. ExtractRegion must be
// safe to call concurrently for distinct frame indices.
type Sequence interface {
	// ExtractRegion returns the linear RGB pixels of the given region of
	// frame index, in the plate's native colour space.
	ExtractRegion(frameIndex int, roi ROI) ([]mat3.Vec3, error)

	// PlateColorSpace returns the registered name of the plate's native
	// colour space.
	PlateColorSpace() string
}

// Interval is the frame range of one displayed patch, inclusive on both
// ends. Intervals are computed upstream by patch separation; samplers only
// consume them.
type Interval struct {
	First int
	Last  int
}

// Len returns the number of frames in the interval.
func (iv Interval) Len() int { return iv.Last - iv.First + 1 }

// Patch identifies one logical patch in the calibration sequence.
type Patch string

// The displayed patch order. The EOTF ramp occupies NumGreyPatches+1 slots
// between FlatField and EndSlate.
const (
	PatchSlate                   Patch = "Slate"
	PatchRedPrimaryDesaturated   Patch = "Red_Primary_Desaturated"
	PatchGreenPrimaryDesaturated Patch = "Green_Primary_Desaturated"
	PatchBluePrimaryDesaturated  Patch = "Blue_Primary_Desaturated"
	PatchGrey18Percent           Patch = "Grey_18_Percent"
	PatchRedPrimary              Patch = "Red_Primary"
	PatchGreenPrimary            Patch = "Green_Primary"
	PatchBluePrimary             Patch = "Blue_Primary"
	PatchMaxWhite                Patch = "White"
	PatchMacbeth                 Patch = "Macbeth"
	PatchSaturationRamp          Patch = "Saturation_Ramp"
	PatchDistortAndROI           Patch = "Distort_and_Roi"
	PatchFlatField               Patch = "Flat_Field"
	PatchEOTFRamps               Patch = "EOTF_Ramps"
	PatchEndSlate                Patch = "End_Slate"
)

var patchOrder = []Patch{
	PatchSlate,
	PatchRedPrimaryDesaturated,
	PatchGreenPrimaryDesaturated,
	PatchBluePrimaryDesaturated,
	PatchGrey18Percent,
	PatchRedPrimary,
	PatchGreenPrimary,
	PatchBluePrimary,
	PatchMaxWhite,
	PatchMacbeth,
	PatchSaturationRamp,
	PatchDistortAndROI,
	PatchFlatField,
	PatchEOTFRamps,
	PatchEndSlate,
}

func patchIndex(p Patch) (int, error) {
	for i, candidate := range patchOrder {
		if candidate == p {
			return i, nil
		}
	}
	return 0, fmt.Errorf("sampler: unknown patch %q", p)
}

// Separation locates the patch sequence within the plate: the frame on which
// the first (desaturated red) patch starts, the per-patch duration in
// frames, and the number of grey steps in the EOTF ramp.
type Separation struct {
	FirstRedFrame  int
	Frames         int
	NumGreyPatches int
}

// Interval returns the frame interval occupied by the given patch. Patches
// displayed after the EOTF ramp account for the ramp's extra steps.
func (s Separation) Interval(p Patch) (Interval, error) {
	redIndex, err := patchIndex(PatchRedPrimaryDesaturated)
	if err != nil {
		return Interval{}, err
	}
	rampIndex, _ := patchIndex(PatchEOTFRamps)
	idx, err := patchIndex(p)
	if err != nil {
		return Interval{}, err
	}

	relative := idx - redIndex
	if idx > rampIndex {
		relative += s.NumGreyPatches
	}

	first := s.FirstRedFrame + relative*s.Frames
	return Interval{First: first, Last: first + s.Frames - 1}, nil
}
