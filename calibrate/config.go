package calibrate

import (
	"github.com/mrjoshuak/go-ledcal/colorspace"
	"github.com/mrjoshuak/go-ledcal/internal/mat3"
)

// EOTF identifies the target display transfer function.
type EOTF string

// Supported target EOTFs.
const (
	EOTFGamma18 EOTF = "gamma 1.80"
	EOTFGamma22 EOTF = "gamma 2.20"
	EOTFGamma24 EOTF = "gamma 2.40"
	EOTFGamma26 EOTF = "gamma 2.60"
	EOTFBT1886  EOTF = "ITU-R BT.1886"
	EOTFSRGB    EOTF = "sRGB"
	EOTFST2084  EOTF = "ST 2084"
)

func validEOTF(e EOTF) bool {
	switch e {
	case EOTFGamma18, EOTFGamma22, EOTFGamma24, EOTFGamma26, EOTFBT1886, EOTFSRGB, EOTFST2084:
		return true
	}
	return false
}

// CalculationOrder selects whether the 3x3 gamut correction or the 1D EOTF
// correction is derived first.
type CalculationOrder string

const (
	// OrderCSEOTF derives the screen colour space and matrix first, then
	// the EOTF LUTs, then re-derives the screen space through the LUTs.
	OrderCSEOTF CalculationOrder = "CS > EOTF"

	// OrderEOTFCS derives the EOTF LUTs first and extracts the screen
	// colour space from LUT-corrected measurements.
	OrderEOTFCS CalculationOrder = "EOTF > CS"
)

// DefaultShadowRolloff is the gamut-compression shadow rolloff applied to
// dark colours when computing the compression bounds.
const DefaultShadowRolloff = 0.008

// deltaEExclusionThreshold drops ramp steps from the EOTF LUT whose
// measured ΔE indicates an unusable sample.
const deltaEExclusionThreshold = 20.0

// Config is the parameter bundle for one calibration run. It is owned by an
// external settings collaborator; the engine treats it as plain data.
type Config struct {
	Registry *colorspace.Registry

	// InputPlateGamut is the colour space the samples were measured in.
	InputPlateGamut string
	// NativeCameraGamut is the capture camera's native colour space.
	NativeCameraGamut string
	// TargetGamut is the colour volume the wall should reproduce.
	TargetGamut string

	// TargetToScreenCAT adapts the target-to-screen calibration matrix.
	TargetToScreenCAT colorspace.CAT
	// ReferenceToTargetCAT adapts the pipeline reference-to-target matrix.
	// Empty selects Bradford.
	ReferenceToTargetCAT colorspace.CAT

	// TargetMaxLumNits is the wall's peak luminance. Forced to 100 for
	// non-PQ EOTFs.
	TargetMaxLumNits float64
	TargetEOTF       EOTF

	EnablePlateWhiteBalance bool
	EnableGamutCompression  bool
	EnableEOTFCorrection    bool

	CalculationOrder CalculationOrder

	// GamutCompressionShadowRolloff defaults to DefaultShadowRolloff when
	// zero.
	GamutCompressionShadowRolloff float64

	// ReferenceWallWhiteBalance is a precomputed white balance matrix from
	// a reference wall, used when matching walls. Mutually exclusive with
	// EnablePlateWhiteBalance and DecoupledLensWhite.
	ReferenceWallWhiteBalance *mat3.Mat3

	// DecoupledLensWhite is a white sample taken independently of the lens
	// path used for the grey patch, separating lens from panel white
	// balance error. Mutually exclusive with the other two sources.
	DecoupledLensWhite *mat3.Vec3

	// AvoidClipping scales the calibration matrix and LUT inputs so no
	// channel can be driven above the wall's native peak.
	AvoidClipping bool
}

// ConfigError reports an invalid engine configuration. Configuration errors
// are raised before any numeric work begins and are fatal for the run.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string { return "calibrate: " + e.Msg }

// validate applies the entry preconditions from the configuration: a known
// EOTF and calculation order, and at most one active white balance source.
func (c *Config) validate() error {
	if c.Registry == nil {
		return &ConfigError{Msg: "no colour space registry supplied"}
	}
	if !validEOTF(c.TargetEOTF) {
		return &ConfigError{Msg: "unknown EOTF " + string(c.TargetEOTF)}
	}
	switch c.CalculationOrder {
	case OrderCSEOTF, OrderEOTFCS:
	default:
		return &ConfigError{Msg: "unknown calculation order " + string(c.CalculationOrder)}
	}

	sources := 0
	if c.EnablePlateWhiteBalance {
		sources++
	}
	if c.ReferenceWallWhiteBalance != nil {
		sources++
	}
	if c.DecoupledLensWhite != nil {
		sources++
	}
	if sources > 1 {
		return &ConfigError{Msg: "only one of auto white balance, reference wall white balance, " +
			"or decoupled lens white balance is allowed"}
	}
	return nil
}
