// Package patterns builds the reference sample values for a calibration
// run: the colours that were actually displayed on the wall for each patch,
// against which the camera measurements are compared.
package patterns

import (
	"github.com/mrjoshuak/go-ledcal/calibrate"
	"github.com/mrjoshuak/go-ledcal/colorspace"
	"github.com/mrjoshuak/go-ledcal/deltae"
	"github.com/mrjoshuak/go-ledcal/internal/mat3"
)

// DefaultGreyPatches is the nominal EOTF ramp resolution.
const DefaultGreyPatches = 30

// DefaultPrimariesSaturation is the saturation factor applied when the
// desaturated primary patches are generated.
const DefaultPrimariesSaturation = 0.7

// Config describes the wall the calibration patches were generated for.
type Config struct {
	Registry *colorspace.Registry

	// TargetGamut names the colour space the patches were authored in.
	TargetGamut string

	// TargetMaxLumNits is the wall's peak luminance.
	TargetMaxLumNits float64

	// NumGreyPatches is the EOTF ramp step count, excluding the black
	// floor. Zero selects DefaultGreyPatches.
	NumGreyPatches int

	// PrimariesSaturation is the factor the primary patches were
	// desaturated by. Zero selects DefaultPrimariesSaturation.
	PrimariesSaturation float64
}

// GreySignals returns the EOTF ramp signal values from black to the wall's
// peak. Steps are spaced uniformly in PQ code value regardless of the
// target EOTF, then expressed in normalized units where 1.0 is 100 nits.
func GreySignals(targetMaxLumNits float64, numGreyPatches int) []float64 {
	maxPQ := deltae.NitsToPQ(targetMaxLumNits)
	perPatch := maxPQ / float64(numGreyPatches)

	signals := make([]float64, numGreyPatches+1)
	for i := range signals {
		signals[i] = deltae.PQToNits(float64(i)*perPatch) * 0.01
	}
	return signals
}

// ReferenceSamples builds the reference SampleSet for the configured wall:
// the 18% grey patch, the desaturated primaries, the max-white patch, the
// EOTF ramp with its signal values, and the Macbeth chart rendered into the
// target space.
func ReferenceSamples(cfg Config) (*calibrate.SampleSet, error) {
	numGrey := cfg.NumGreyPatches
	if numGrey == 0 {
		numGrey = DefaultGreyPatches
	}
	saturation := cfg.PrimariesSaturation
	if saturation == 0 {
		saturation = DefaultPrimariesSaturation
	}

	peakLum := cfg.TargetMaxLumNits * 0.01
	grey := peakLum * 0.18

	primaries := []mat3.Vec3{
		{grey, 0, 0},
		{0, grey, 0},
		{0, 0, grey},
	}
	desaturated := calibrate.SaturateRGB(primaries, saturation)

	signals := GreySignals(cfg.TargetMaxLumNits, numGrey)
	ramp := make([]mat3.Vec3, len(signals))
	for i, v := range signals {
		ramp[i] = mat3.Vec3{v, v, v}
	}

	macbeth, err := MacbethReference(cfg.Registry, cfg.TargetGamut, peakLum)
	if err != nil {
		return nil, err
	}

	return &calibrate.SampleSet{
		Grey:                mat3.Vec3{grey, grey, grey},
		MaxWhite:            mat3.Vec3{peakLum, peakLum, peakLum},
		DesaturatedRGB:      desaturated,
		PrimariesSaturation: saturation,
		EOTFRamp:            ramp,
		EOTFRampSignal:      signals,
		Macbeth:             macbeth,
	}, nil
}

// MacbethReference renders the 24 chart swatches into the target colour
// space, adapted from the chart's D50 measurement illuminant to the
// target's white point, and scaled to the wall's peak.
func MacbethReference(reg *colorspace.Registry, targetGamut string, peakLum float64) ([]mat3.Vec3, error) {
	target, err := reg.Resolve(targetGamut)
	if err != nil {
		return nil, err
	}

	adapt, err := colorspace.AdaptationMatrix(
		colorspace.XYToXYZ(macbethIlluminant), target.WhiteXYZ(), colorspace.CATCAT02)
	if err != nil {
		return nil, err
	}
	xyzToRGB := target.XYZToRGB()

	out := make([]mat3.Vec3, len(macbethChart))
	for i, sw := range macbethChart {
		xyz := mat3.Vec3{
			sw.x / sw.y * sw.bigY,
			sw.bigY,
			(1 - sw.x - sw.y) / sw.y * sw.bigY,
		}
		out[i] = xyzToRGB.MulVec(adapt.MulVec(xyz)).Scale(peakLum)
	}
	return out, nil
}

// macbethIlluminant is the D50 illuminant the chart colourimetry is
// published under.
var macbethIlluminant = colorspace.Chromaticity{X: 0.34570, Y: 0.35850}

type macbethSwatch struct {
	name       string
	x, y, bigY float64
}

// macbethChart holds the ColorChecker Classic swatches (post November
// 2014 colourimetry) as CIE xyY under D50, in row-major chart order.
var macbethChart = [24]macbethSwatch{
	{"dark skin", 0.437488, 0.378489, 0.098324},
	{"light skin", 0.422252, 0.372459, 0.336202},
	{"blue sky", 0.276138, 0.298342, 0.178552},
	{"foliage", 0.373323, 0.451133, 0.134679},
	{"blue flower", 0.302881, 0.286249, 0.228718},
	{"bluish green", 0.286402, 0.389675, 0.414355},
	{"orange", 0.528164, 0.405307, 0.312642},
	{"purplish blue", 0.232371, 0.211170, 0.109109},
	{"moderate red", 0.504451, 0.327035, 0.189000},
	{"purple", 0.333459, 0.250518, 0.062767},
	{"yellow green", 0.398908, 0.504117, 0.433176},
	{"orange yellow", 0.493593, 0.444255, 0.429338},
	{"blue", 0.205205, 0.168636, 0.055962},
	{"green", 0.323046, 0.510381, 0.223344},
	{"red", 0.562883, 0.335536, 0.127801},
	{"yellow", 0.467778, 0.475996, 0.599298},
	{"magenta", 0.421303, 0.266893, 0.189511},
	{"cyan", 0.209120, 0.302615, 0.180610},
	{"white 9.5", 0.348912, 0.364174, 0.880690},
	{"neutral 8", 0.345581, 0.359842, 0.589971},
	{"neutral 6.5", 0.344147, 0.359146, 0.364865},
	{"neutral 5", 0.345766, 0.359055, 0.190623},
	{"neutral 3.5", 0.342645, 0.357545, 0.088172},
	{"black 2", 0.343764, 0.356019, 0.031513},
}
