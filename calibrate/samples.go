// Package calibrate derives an LED wall's colour correction from sampled
// calibration patches: the measured screen colour space, the white balance
// and target-to-screen matrices, the EOTF correction LUTs, the gamut
// compression bounds, and the ICtCp ΔE validation metrics.
//
// The engine is a single-threaded, purely functional numeric pipeline:
// given identical inputs it produces bit-identical results, and summation
// order is fixed throughout.
package calibrate

import (
	"errors"
	"fmt"

	"github.com/mrjoshuak/go-ledcal/internal/mat3"
	"github.com/mrjoshuak/go-ledcal/sampler"
)

// SampleSet groups the per-wall measurement kinds consumed by the engine.
// Two parallel instances exist per wall: one measured from the camera plate
// and one holding the reference values that were actually displayed. The
// engine never mutates a SampleSet.
type SampleSet struct {
	// Grey is the 18% grey patch.
	Grey mat3.Vec3 `json:"grey"`

	// MaxWhite is the full-white patch at the wall's peak.
	MaxWhite mat3.Vec3 `json:"max_white"`

	// DesaturatedRGB holds the three desaturated primary patches in R, G,
	// B order.
	DesaturatedRGB []mat3.Vec3 `json:"desaturated_rgb"`

	// PrimariesSaturation is the saturation factor the desaturated
	// primaries were generated with.
	PrimariesSaturation float64 `json:"primaries_saturation"`

	// EOTFRamp is the grey ramp from black to peak, in step order.
	EOTFRamp []mat3.Vec3 `json:"eotf_ramp"`

	// EOTFRampSignal is the signal value displayed for each ramp step.
	EOTFRampSignal []float64 `json:"eotf_ramp_signal,omitempty"`

	// Macbeth holds the 24 chart swatches in row-major chart order.
	Macbeth []mat3.Vec3 `json:"macbeth"`
}

// ErrNoReferenceSamples is returned when the reference SampleSet is missing
// or empty.
var ErrNoReferenceSamples = errors.New("calibrate: no reference samples supplied")

// validateSampleSets checks the invariants the engine relies on before any
// numeric work: reference data present, and measured/reference ramp and
// Macbeth lengths matching.
func validateSampleSets(measured, reference *SampleSet) error {
	if reference == nil || len(reference.EOTFRamp) == 0 || len(reference.DesaturatedRGB) == 0 {
		return ErrNoReferenceSamples
	}
	if measured == nil || len(measured.EOTFRamp) == 0 {
		return &ConfigError{Msg: "no measured samples supplied"}
	}
	if len(measured.DesaturatedRGB) != 3 || len(reference.DesaturatedRGB) != 3 {
		return &ConfigError{Msg: "desaturated primaries must hold exactly 3 samples"}
	}
	if len(measured.EOTFRamp) != len(reference.EOTFRamp) {
		return &ConfigError{Msg: fmt.Sprintf("EOTF ramp length mismatch: %d measured vs %d reference",
			len(measured.EOTFRamp), len(reference.EOTFRamp))}
	}
	if len(measured.EOTFRampSignal) != len(measured.EOTFRamp) {
		return &ConfigError{Msg: fmt.Sprintf("EOTF ramp signal length mismatch: %d signals vs %d steps",
			len(measured.EOTFRampSignal), len(measured.EOTFRamp))}
	}
	if len(measured.Macbeth) != len(reference.Macbeth) {
		return &ConfigError{Msg: fmt.Sprintf("Macbeth length mismatch: %d measured vs %d reference",
			len(measured.Macbeth), len(reference.Macbeth))}
	}
	if len(measured.Macbeth) != sampler.MacbethSwatches {
		return &ConfigError{Msg: fmt.Sprintf("Macbeth chart must hold %d swatches, got %d",
			sampler.MacbethSwatches, len(measured.Macbeth))}
	}
	if measured.PrimariesSaturation <= 0 {
		return &ConfigError{Msg: "primaries saturation must be positive"}
	}
	return nil
}
