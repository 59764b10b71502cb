package calibrate

import (
	"github.com/mrjoshuak/go-ledcal/colorspace"
	"github.com/mrjoshuak/go-ledcal/deltae"
	"github.com/mrjoshuak/go-ledcal/internal/mat3"
)

// Result is the full output record of one calibration run, serialisable for
// the colour-pipeline config writer and the reporting collaborators.
type Result struct {
	PreScreenPrimaries  [3]colorspace.Chromaticity `json:"pre_calibration_screen_primaries"`
	PreScreenWhite      colorspace.Chromaticity    `json:"pre_calibration_screen_whitepoint"`
	PostScreenPrimaries [3]colorspace.Chromaticity `json:"post_calibration_screen_primaries"`
	PostScreenWhite     colorspace.Chromaticity    `json:"post_calibration_screen_whitepoint"`

	TargetGamut       string `json:"target_gamut"`
	NativeCameraGamut string `json:"native_camera_gamut"`
	ReferenceGamut    string `json:"reference_gamut"`
	TargetEOTF        EOTF   `json:"target_eotf"`

	EnablePlateWhiteBalance bool             `json:"enable_plate_white_balance"`
	EnableGamutCompression  bool             `json:"enable_gamut_compression"`
	EnableEOTFCorrection    bool             `json:"enable_eotf_correction"`
	CalculationOrder        CalculationOrder `json:"calculation_order"`
	AvoidClipping           bool             `json:"avoid_clipping"`

	WhiteBalanceMatrix      mat3.Mat3 `json:"white_balance_matrix"`
	TargetToScreenMatrix    mat3.Mat3 `json:"target_to_screen_matrix"`
	ReferenceToTargetMatrix mat3.Mat3 `json:"reference_to_target_matrix"`
	ReferenceToScreenMatrix mat3.Mat3 `json:"reference_to_screen_matrix"`
	TargetToXYZMatrix       mat3.Mat3 `json:"target_to_xyz_matrix"`
	ReferenceToXYZMatrix    mat3.Mat3 `json:"reference_to_xyz_matrix"`
	ReferenceToInputMatrix  mat3.Mat3 `json:"reference_to_input_matrix"`

	// MacbethFitMatrix is the least-squares Macbeth fit, diagnostic only.
	MacbethFitMatrix mat3.Mat3 `json:"macbeth_fit_matrix"`

	EOTFLUTs     LUT3      `json:"eotf_luts"`
	MaxDistances mat3.Vec3 `json:"max_distances"`

	PreEOTFRamps  []mat3.Vec3               `json:"pre_eotf_ramps"`
	PostEOTFRamps []mat3.Vec3               `json:"post_eotf_ramps"`
	PreMacbethXY  []colorspace.Chromaticity `json:"pre_macbeth_samples_xy"`
	PostMacbethXY []colorspace.Chromaticity `json:"post_macbeth_samples_xy"`

	DeltaEWRGB     []float64 `json:"delta_e_wrgb"`
	DeltaEEOTFRamp []float64 `json:"delta_e_eotf_ramp"`
	DeltaEMacbeth  []float64 `json:"delta_e_macbeth"`

	ExposureScalingFactor float64     `json:"exposure_scaling_factor"`
	TargetMaxLumNits      float64     `json:"target_max_lum_nits"`
	Measured18Percent     float64     `json:"measured_18_percent_sample"`
	MeasuredMaxLumNits    mat3.Vec3   `json:"measured_max_lum_nits"`
	MaxWhiteDelta         float64     `json:"max_white_delta"`
	ReferenceEOTFRamp     []float64   `json:"reference_eotf_ramp"`
	EOTFLinearity         []mat3.Vec3 `json:"eotf_linearity"`
}

// convertedSamples holds the measured sample kinds moved into camera-native
// space, plus the reference kinds kept in target space, with the synthetic
// 18% grey step spliced into both ramps.
type convertedSamples struct {
	grey     mat3.Vec3
	maxWhite mat3.Vec3
	macbeth  []mat3.Vec3
	// rgbw holds the three desaturated primaries followed by the grey patch.
	rgbw           []mat3.Vec3
	eotfRamp       []mat3.Vec3
	signal         []float64
	decoupledWhite *mat3.Vec3

	rgbwRef     []mat3.Vec3
	macbethRef  []mat3.Vec3
	eotfRampRef []mat3.Vec3
}

// Run executes the full calibration for one wall: white balance, exposure
// anchoring, ΔE analysis, screen colour space extraction, EOTF correction
// LUTs and gamut compression bounds, in the configured calculation order.
//
// The pipeline is deterministic: identical inputs produce bit-identical
// results.
func Run(measured, reference *SampleSet, cfg Config) (*Result, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if err := validateSampleSets(measured, reference); err != nil {
		return nil, err
	}

	// Outside PQ the signal tops out at 1.0, which the pipeline treats as
	// 100 nits regardless of the wall's physical peak.
	targetMaxLumNits := cfg.TargetMaxLumNits
	if cfg.TargetEOTF != EOTFST2084 {
		targetMaxLumNits = 100
	}
	peakLum := targetMaxLumNits * 0.01

	inputPlate, err := cfg.Registry.Resolve(cfg.InputPlateGamut)
	if err != nil {
		return nil, err
	}
	cameraNative, err := cfg.Registry.Resolve(cfg.NativeCameraGamut)
	if err != nil {
		return nil, err
	}
	target, err := cfg.Registry.Resolve(cfg.TargetGamut)
	if err != nil {
		return nil, err
	}
	referenceSpace, err := cfg.Registry.Resolve(colorspace.ACES2065)
	if err != nil {
		return nil, err
	}

	cameraCAT := colorspace.CameraConversionCAT(cameraNative.Name())

	cs, err := convertSamples(measured, reference, inputPlate, cameraNative,
		cameraCAT, peakLum, cfg.DecoupledLensWhite)
	if err != nil {
		return nil, err
	}

	if cs.decoupledWhite != nil {
		decoupling := decouplingWhiteBalanceMatrix(cs.grey, *cs.decoupledWhite)
		cs.applyMatrix(decoupling)
	}

	var wbMatrix mat3.Mat3
	if cfg.ReferenceWallWhiteBalance != nil {
		wbMatrix = *cfg.ReferenceWallWhiteBalance
	} else {
		greyTarget, err := colorspace.Convert(cs.grey, cameraNative, target, colorspace.CATNone)
		if err != nil {
			return nil, err
		}
		wbMatrix = whiteBalanceMatrix(greyTarget)
	}
	if cfg.EnablePlateWhiteBalance || cfg.ReferenceWallWhiteBalance != nil {
		grey := cs.grey
		cs.applyMatrix(wbMatrix)
		// The standalone grey patch keeps its unbalanced value; the balanced
		// copy lives in rgbw[3].
		cs.grey = grey
	}

	refToTargetCAT := cfg.ReferenceToTargetCAT
	if refToTargetCAT == "" {
		refToTargetCAT = colorspace.CATBradford
	}
	refToTarget, err := colorspace.MatrixRGBToRGB(referenceSpace, target, refToTargetCAT)
	if err != nil {
		return nil, err
	}
	refToInput, err := colorspace.MatrixRGBToRGB(referenceSpace, inputPlate, refToTargetCAT)
	if err != nil {
		return nil, err
	}

	// Anchor camera exposure: the max-white green channel defines the scale
	// at which the wall's peak maps onto the intended peak luminance.
	measured18 := cs.rgbw[3][1]
	exposureScale := cs.maxWhite[1] / peakLum
	maxWhiteDelta := cs.maxWhite[1] / cs.eotfRamp[len(cs.eotfRamp)-1][1]

	invExposure := 1 / exposureScale
	cs.rgbw = scaleAll(cs.rgbw, invExposure)
	cs.eotfRamp = scaleAll(cs.eotfRamp, invExposure)
	cs.macbeth = scaleAll(cs.macbeth, invExposure)

	deltaEWRGB, deltaERamp, deltaEMacbeth, err := deltaEAnalysis(cs, target, cameraNative)
	if err != nil {
		return nil, err
	}

	order := cfg.CalculationOrder
	if !cfg.EnableEOTFCorrection {
		order = OrderCSEOTF
	}

	signalRGB := make([]mat3.Vec3, len(cs.signal))
	for i, v := range cs.signal {
		signalRGB[i] = mat3.Vec3{v, v, v}
	}

	eotfLinearity := make([]mat3.Vec3, len(cs.eotfRamp))
	for i, step := range cs.eotfRamp {
		sig := cs.signal[i]
		if sig == 0 {
			eotfLinearity[i] = step
			continue
		}
		eotfLinearity[i] = step.Scale(1 / sig)
	}

	rampCalibrated := append([]mat3.Vec3(nil), cs.eotfRamp...)
	macbethCalibrated := append([]mat3.Vec3(nil), cs.macbeth...)

	var ext screenExtraction
	var luts LUT3

	switch order {
	case OrderCSEOTF:
		ext, err = extractScreenCS(cs.rgbw[:3], measured.PrimariesSaturation, cs.rgbw[3],
			cameraNative, target, inputPlate, cfg.TargetToScreenCAT, cameraCAT,
			refToTarget, cfg.AvoidClipping, cs.macbeth, reference.Macbeth)
		if err != nil {
			return nil, err
		}

		if cfg.EnableEOTFCorrection {
			rampTarget, err := colorspace.ConvertAll(cs.eotfRamp, cameraNative, target, colorspace.CATNone)
			if err != nil {
				return nil, err
			}
			rgbwTarget, err := colorspace.ConvertAll(cs.rgbw, cameraNative, target, colorspace.CATNone)
			if err != nil {
				return nil, err
			}

			rampScreen := mulAll(ext.targetToScreen, rampTarget)
			rgbwTarget = mulAll(ext.targetToScreen, rgbwTarget)

			// The matrix shifts the ramp's white; rebalance against the
			// corrected grey before fitting the curves.
			wbOffset := whiteBalanceMatrix(rgbwTarget[3])
			rampScreen = mulAll(wbOffset, rampScreen)

			luts = buildEOTFLUTs(rampScreen, signalRGB, deltaERamp, cfg.AvoidClipping, peakLum)

			rampCalibrated, err = throughMatrix(rampCalibrated, ext.targetToScreen, cameraNative, target)
			if err != nil {
				return nil, err
			}
			macbethCalibrated, err = throughMatrix(macbethCalibrated, ext.targetToScreen, cameraNative, target)
			if err != nil {
				return nil, err
			}

			// Second derivation: push the RGBW set through the fresh LUTs to
			// capture any primaries drift the 1D correction introduced.
			rgbwTarget = applyLUTs(rgbwTarget, luts, false)
			rgbwCorrected, err := colorspace.ConvertAll(rgbwTarget, target, cameraNative, colorspace.CATNone)
			if err != nil {
				return nil, err
			}

			second, err := extractScreenCS(rgbwCorrected[:3], measured.PrimariesSaturation, rgbwCorrected[3],
				cameraNative, target, inputPlate, cfg.TargetToScreenCAT, cameraCAT,
				refToTarget, cfg.AvoidClipping, cs.macbeth, reference.Macbeth)
			if err != nil {
				return nil, err
			}
			second.targetToScreen = ext.targetToScreen
			ext = second
		}

	case OrderEOTFCS:
		rampTarget, err := colorspace.ConvertAll(cs.eotfRamp, cameraNative, target, colorspace.CATNone)
		if err != nil {
			return nil, err
		}
		// The ramp is balanced here only when the balance has not already
		// been applied to the samples above.
		if !cfg.EnablePlateWhiteBalance && cfg.ReferenceWallWhiteBalance == nil {
			rampTarget = mulAll(wbMatrix, rampTarget)
		}

		luts = buildEOTFLUTs(rampTarget, signalRGB, deltaERamp, cfg.AvoidClipping, peakLum)

		rgbwTarget, err := colorspace.ConvertAll(cs.rgbw, cameraNative, target, colorspace.CATNone)
		if err != nil {
			return nil, err
		}
		rgbwTarget = applyLUTs(rgbwTarget, luts, false)
		rgbwCorrected, err := colorspace.ConvertAll(rgbwTarget, target, cameraNative, colorspace.CATNone)
		if err != nil {
			return nil, err
		}

		ext, err = extractScreenCS(rgbwCorrected[:3], measured.PrimariesSaturation, rgbwCorrected[3],
			cameraNative, target, inputPlate, cfg.TargetToScreenCAT, cameraCAT,
			refToTarget, cfg.AvoidClipping, cs.macbeth, reference.Macbeth)
		if err != nil {
			return nil, err
		}
	}

	rolloff := cfg.GamutCompressionShadowRolloff
	if rolloff == 0 {
		rolloff = DefaultShadowRolloff
	}
	maxDist, err := maxDistances(target, ext.screen, cfg.TargetToScreenCAT, rolloff)
	if err != nil {
		return nil, err
	}

	// Post-correction ramp and Macbeth, for reporting only.
	if cfg.EnableEOTFCorrection {
		rampCalTarget, err := colorspace.ConvertAll(rampCalibrated, cameraNative, target, colorspace.CATNone)
		if err != nil {
			return nil, err
		}
		if order == OrderEOTFCS {
			rampCalTarget = mulAll(ext.targetToScreen, rampCalTarget)
		}
		rampCalTarget = applyLUTs(rampCalTarget, luts, false)
		rampCalibrated, err = colorspace.ConvertAll(rampCalTarget, target, cameraNative, colorspace.CATNone)
		if err != nil {
			return nil, err
		}

		macbethCalTarget, err := colorspace.ConvertAll(macbethCalibrated, cameraNative, target, colorspace.CATNone)
		if err != nil {
			return nil, err
		}
		macbethCalTarget = applyLUTs(macbethCalTarget, luts, false)
		macbethCalibrated, err = colorspace.ConvertAll(macbethCalTarget, target, cameraNative, colorspace.CATNone)
		if err != nil {
			return nil, err
		}
	}

	measuredMaxLumNits := cs.eotfRamp[len(cs.eotfRamp)-1].Scale(deltae.NitsScale)

	camToXYZ := cameraNative.RGBToXYZ()
	preMacbethXY := chromaticities(camToXYZ, cs.macbeth)
	postMacbethXY := chromaticities(camToXYZ, macbethCalibrated)

	preR, preG, preB := ext.screen.Primaries()
	postR, postG, postB := ext.calibratedScreen.Primaries()

	return &Result{
		PreScreenPrimaries:  [3]colorspace.Chromaticity{preR, preG, preB},
		PreScreenWhite:      ext.screen.White(),
		PostScreenPrimaries: [3]colorspace.Chromaticity{postR, postG, postB},
		PostScreenWhite:     ext.calibratedScreen.White(),

		TargetGamut:       target.Name(),
		NativeCameraGamut: cameraNative.Name(),
		ReferenceGamut:    referenceSpace.Name(),
		TargetEOTF:        cfg.TargetEOTF,

		EnablePlateWhiteBalance: cfg.EnablePlateWhiteBalance,
		EnableGamutCompression:  cfg.EnableGamutCompression,
		EnableEOTFCorrection:    cfg.EnableEOTFCorrection,
		CalculationOrder:        order,
		AvoidClipping:           cfg.AvoidClipping,

		WhiteBalanceMatrix:      wbMatrix,
		TargetToScreenMatrix:    ext.targetToScreen,
		ReferenceToTargetMatrix: refToTarget,
		ReferenceToScreenMatrix: ext.targetToScreen.Mul(refToTarget),
		TargetToXYZMatrix:       target.RGBToXYZ(),
		ReferenceToXYZMatrix:    referenceSpace.RGBToXYZ(),
		ReferenceToInputMatrix:  refToInput,
		MacbethFitMatrix:        ext.colourMatrix,

		EOTFLUTs:     luts,
		MaxDistances: maxDist,

		PreEOTFRamps:  cs.eotfRamp,
		PostEOTFRamps: rampCalibrated,
		PreMacbethXY:  preMacbethXY,
		PostMacbethXY: postMacbethXY,

		DeltaEWRGB:     deltaEWRGB,
		DeltaEEOTFRamp: deltaERamp,
		DeltaEMacbeth:  deltaEMacbeth,

		ExposureScalingFactor: exposureScale,
		TargetMaxLumNits:      targetMaxLumNits,
		Measured18Percent:     measured18,
		MeasuredMaxLumNits:    measuredMaxLumNits,
		MaxWhiteDelta:         maxWhiteDelta,
		ReferenceEOTFRamp:     cs.signal,
		EOTFLinearity:         eotfLinearity,
	}, nil
}

// convertSamples moves the measured sample kinds from the input plate space
// into camera-native space and splices the 18% grey patch into the EOTF
// ramp as a synthetic step, at the position keeping the signal values
// sorted. The reference kinds stay in target space, with a matching
// synthetic step.
func convertSamples(measured, reference *SampleSet, inputPlate, cameraNative *colorspace.ColorSpace,
	cameraCAT colorspace.CAT, peakLum float64, decoupledWhite *mat3.Vec3) (*convertedSamples, error) {

	signal := append([]float64(nil), measured.EOTFRampSignal...)
	greyIdx := findClosestBelow(signal, peakLum*0.18)
	signal = insertFloat(signal, greyIdx, peakLum*0.18)

	grey, err := colorspace.Convert(measured.Grey, inputPlate, cameraNative, cameraCAT)
	if err != nil {
		return nil, err
	}
	maxWhite, err := colorspace.Convert(measured.MaxWhite, inputPlate, cameraNative, cameraCAT)
	if err != nil {
		return nil, err
	}
	macbeth, err := colorspace.ConvertAll(measured.Macbeth, inputPlate, cameraNative, cameraCAT)
	if err != nil {
		return nil, err
	}

	rgbwPlate := append(append([]mat3.Vec3(nil), measured.DesaturatedRGB...), measured.Grey)
	rgbw, err := colorspace.ConvertAll(rgbwPlate, inputPlate, cameraNative, cameraCAT)
	if err != nil {
		return nil, err
	}

	ramp, err := colorspace.ConvertAll(measured.EOTFRamp, inputPlate, cameraNative, cameraCAT)
	if err != nil {
		return nil, err
	}
	ramp = insertVec(ramp, greyIdx, grey)

	rgbwRef := append(append([]mat3.Vec3(nil), reference.DesaturatedRGB...), reference.Grey)
	rampRef := append([]mat3.Vec3(nil), reference.EOTFRamp...)
	g18 := peakLum * 0.18
	rampRef = insertVec(rampRef, greyIdx, mat3.Vec3{g18, g18, g18})

	var decoupled *mat3.Vec3
	if decoupledWhite != nil {
		v, err := colorspace.Convert(*decoupledWhite, inputPlate, cameraNative, cameraCAT)
		if err != nil {
			return nil, err
		}
		decoupled = &v
	}

	return &convertedSamples{
		grey:           grey,
		maxWhite:       maxWhite,
		macbeth:        macbeth,
		rgbw:           rgbw,
		eotfRamp:       ramp,
		signal:         signal,
		decoupledWhite: decoupled,
		rgbwRef:        rgbwRef,
		macbethRef:     reference.Macbeth,
		eotfRampRef:    rampRef,
	}, nil
}

// applyMatrix runs every measured sample kind through m.
func (cs *convertedSamples) applyMatrix(m mat3.Mat3) {
	cs.grey = m.MulVec(cs.grey)
	cs.maxWhite = m.MulVec(cs.maxWhite)
	cs.rgbw = mulAll(m, cs.rgbw)
	cs.eotfRamp = mulAll(m, cs.eotfRamp)
	cs.macbeth = mulAll(m, cs.macbeth)
}

// deltaEAnalysis computes the perceptual error of the RGBW, ramp and
// Macbeth sets against their references, with the RGBW array rolled to
// white-first order.
func deltaEAnalysis(cs *convertedSamples, target, cameraNative *colorspace.ColorSpace) (
	wrgb, ramp, macbeth []float64, err error) {

	rgbwRefCam, err := colorspace.ConvertAll(cs.rgbwRef, target, cameraNative, colorspace.CATNone)
	if err != nil {
		return nil, nil, nil, err
	}
	rampRefCam, err := colorspace.ConvertAll(cs.eotfRampRef, target, cameraNative, colorspace.CATNone)
	if err != nil {
		return nil, nil, nil, err
	}
	macbethRefCam, err := colorspace.ConvertAll(cs.macbethRef, target, cameraNative, colorspace.CATNone)
	if err != nil {
		return nil, nil, nil, err
	}

	rgbwDE, err := deltae.Between(cs.rgbw, rgbwRefCam)
	if err != nil {
		return nil, nil, nil, err
	}
	ramp, err = deltae.Between(cs.eotfRamp, rampRefCam)
	if err != nil {
		return nil, nil, nil, err
	}
	macbeth, err = deltae.Between(cs.macbeth, macbethRefCam)
	if err != nil {
		return nil, nil, nil, err
	}

	// Reported in W, R, G, B order.
	wrgb = make([]float64, len(rgbwDE))
	for i := range rgbwDE {
		wrgb[(i+1)%len(rgbwDE)] = rgbwDE[i]
	}
	return wrgb, ramp, macbeth, nil
}

// whiteBalanceMatrix builds the green-anchored diagonal balance for the
// given grey sample.
func whiteBalanceMatrix(grey mat3.Vec3) mat3.Mat3 {
	if grey[0] == 0 || grey[2] == 0 {
		return mat3.Identity()
	}
	return mat3.Diagonal(grey[1]/grey[0], 1, grey[1]/grey[2])
}

// decouplingWhiteBalanceMatrix separates lens white balance error from
// panel error: the decoupled white is first exposure-matched to the grey
// patch on the green channel, then the red and blue ratios form a diagonal
// correction.
func decouplingWhiteBalanceMatrix(grey, decoupledWhite mat3.Vec3) mat3.Mat3 {
	greenScale := grey[1] / decoupledWhite[1]
	scaled := decoupledWhite.Scale(greenScale)
	return mat3.Diagonal(scaled[0]/grey[0], 1, scaled[2]/grey[2])
}

// throughMatrix applies m to the samples in target space, converting from
// and back to camera-native space around it.
func throughMatrix(samples []mat3.Vec3, m mat3.Mat3, cameraNative, target *colorspace.ColorSpace) ([]mat3.Vec3, error) {
	inTarget, err := colorspace.ConvertAll(samples, cameraNative, target, colorspace.CATNone)
	if err != nil {
		return nil, err
	}
	inTarget = mulAll(m, inTarget)
	return colorspace.ConvertAll(inTarget, target, cameraNative, colorspace.CATNone)
}

func mulAll(m mat3.Mat3, samples []mat3.Vec3) []mat3.Vec3 {
	out := make([]mat3.Vec3, len(samples))
	for i, s := range samples {
		out[i] = m.MulVec(s)
	}
	return out
}

func scaleAll(samples []mat3.Vec3, s float64) []mat3.Vec3 {
	out := make([]mat3.Vec3, len(samples))
	for i, v := range samples {
		out[i] = v.Scale(s)
	}
	return out
}

func chromaticities(rgbToXYZ mat3.Mat3, samples []mat3.Vec3) []colorspace.Chromaticity {
	out := make([]colorspace.Chromaticity, len(samples))
	for i, s := range samples {
		out[i] = colorspace.XYZToXY(rgbToXYZ.MulVec(s))
	}
	return out
}

// findClosestBelow returns the insertion index directly after the last
// value not exceeding target, assuming values is sorted ascending.
func findClosestBelow(values []float64, target float64) int {
	idx := 0
	for i, v := range values {
		if v > target {
			break
		}
		idx = i + 1
	}
	return idx
}

func insertFloat(s []float64, i int, v float64) []float64 {
	s = append(s, 0)
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}

func insertVec(s []mat3.Vec3, i int, v mat3.Vec3) []mat3.Vec3 {
	s = append(s, mat3.Vec3{})
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}
