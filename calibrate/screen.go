package calibrate

import (
	"fmt"

	"github.com/mrjoshuak/go-ledcal/colorspace"
	"github.com/mrjoshuak/go-ledcal/internal/mat3"
)

// SaturateRGB scales the saturation of each sample by factor, Nuke-style
// with average-mode luminance: a lerp between the per-sample channel mean
// and the original values. factor 1 is a no-op, 0 produces greyscale; the
// factor is not clamped, values above 1 re-saturate.
func SaturateRGB(samples []mat3.Vec3, factor float64) []mat3.Vec3 {
	out := make([]mat3.Vec3, len(samples))
	for i, s := range samples {
		lum := s.Mean()
		out[i] = mat3.Vec3{
			(s[0]-lum)*factor + lum,
			(s[1]-lum)*factor + lum,
			(s[2]-lum)*factor + lum,
		}
	}
	return out
}

// screenExtraction bundles the outputs of one screen colour space
// derivation.
type screenExtraction struct {
	screen           *colorspace.ColorSpace
	calibratedScreen *colorspace.ColorSpace
	targetToScreen   mat3.Mat3
	// colourMatrix is the Cheung 2004 least-squares Macbeth fit, carried
	// for diagnostics only; it is never applied to the calibration
	// matrices.
	colourMatrix mat3.Mat3
}

// extractScreenCS derives the wall's measured colour space from the
// desaturated primary and white measurements (camera-native space) and
// computes the target-to-screen correction matrix.
//
// The primaries are re-saturated back to full saturation in the same target
// space they were desaturated in, converted through the camera's RGB-to-XYZ
// matrix to xy chromaticities, and a new colour space is constructed with
// derived matrices. A second, calibrated screen space is derived by pushing
// the same measurements through the freshly computed correction, showing
// where the wall will land after calibration.
func extractScreenCS(
	primaries []mat3.Vec3,
	primariesSaturation float64,
	white mat3.Vec3,
	cameraNative, target, inputPlate *colorspace.ColorSpace,
	csCAT, cameraCAT colorspace.CAT,
	referenceToTarget mat3.Mat3,
	avoidClipping bool,
	macbethCameraNative []mat3.Vec3,
	macbethReference []mat3.Vec3,
) (screenExtraction, error) {

	primariesTarget, err := colorspace.ConvertAll(primaries, cameraNative, target, colorspace.CATNone)
	if err != nil {
		return screenExtraction{}, err
	}
	saturatedTarget := SaturateRGB(primariesTarget, 1.0/primariesSaturation)
	saturated, err := colorspace.ConvertAll(saturatedTarget, target, cameraNative, colorspace.CATNone)
	if err != nil {
		return screenExtraction{}, err
	}

	camToXYZ := cameraNative.RGBToXYZ()
	var primariesXY [3]colorspace.Chromaticity
	for i, p := range saturated {
		primariesXY[i] = colorspace.XYZToXY(camToXYZ.MulVec(p))
	}
	whiteXY := colorspace.XYZToXY(camToXYZ.MulVec(white))

	screen, err := colorspace.New("screen", primariesXY[0], primariesXY[1], primariesXY[2], whiteXY)
	if err != nil {
		return screenExtraction{}, fmt.Errorf("calibrate: measured screen space: %w", err)
	}

	targetToScreen, err := colorspace.MatrixRGBToRGB(target, screen, csCAT)
	if err != nil {
		return screenExtraction{}, err
	}

	macbethRefCamera, err := colorspace.ConvertAll(macbethReference, target, cameraNative, colorspace.CATNone)
	if err != nil {
		return screenExtraction{}, err
	}
	colourMatrix := colourCorrectionMatrix(macbethCameraNative, macbethRefCamera)

	// Scale the matrix down uniformly when any row sums above 1, so no
	// channel can be driven past the screen's native peak.
	if avoidClipping {
		if maxSum := targetToScreen.MaxRowSum(); maxSum > 1 {
			targetToScreen = targetToScreen.Scale(1 / maxSum)
		}
	}

	// Post-calibration screen space: route the saturated primaries and the
	// white point through reference->target and the new correction matrix,
	// then read their chromaticities in target XYZ.
	saturatedPlate, err := colorspace.ConvertAll(saturated, cameraNative, inputPlate, cameraCAT)
	if err != nil {
		return screenExtraction{}, err
	}
	targetToXYZ := target.RGBToXYZ()
	var calibratedXY [3]colorspace.Chromaticity
	for i, p := range saturatedPlate {
		v := targetToScreen.MulVec(referenceToTarget.MulVec(p))
		calibratedXY[i] = colorspace.XYZToXY(targetToXYZ.MulVec(v))
	}

	whitePlate, err := colorspace.Convert(white, cameraNative, inputPlate, cameraCAT)
	if err != nil {
		return screenExtraction{}, err
	}
	calibratedWhite := targetToScreen.MulVec(referenceToTarget.MulVec(whitePlate))
	calibratedWhiteXY := colorspace.XYZToXY(targetToXYZ.MulVec(calibratedWhite))

	calibratedScreen, err := colorspace.New("screen_calibrated",
		calibratedXY[0], calibratedXY[1], calibratedXY[2], calibratedWhiteXY)
	if err != nil {
		return screenExtraction{}, fmt.Errorf("calibrate: calibrated screen space: %w", err)
	}

	return screenExtraction{
		screen:           screen,
		calibratedScreen: calibratedScreen,
		targetToScreen:   targetToScreen,
		colourMatrix:     colourMatrix,
	}, nil
}

// colourCorrectionMatrix fits the 3x3 matrix mapping measured to reference
// by linear least squares (Cheung 2004 with 3 terms): M minimises
// sum |M*measured - reference|^2, solved through the normal equations.
// Returns the identity when the measurement covariance is singular, which
// happens for the all-black placeholder chart.
func colourCorrectionMatrix(measured, reference []mat3.Vec3) mat3.Mat3 {
	var xtx, rxt mat3.Mat3
	for k := range measured {
		x := measured[k]
		r := reference[k]
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				xtx[i*3+j] += x[i] * x[j]
				rxt[i*3+j] += r[i] * x[j]
			}
		}
	}
	inv, ok := xtx.Inverse()
	if !ok {
		return mat3.Identity()
	}
	return rxt.Mul(inv)
}
