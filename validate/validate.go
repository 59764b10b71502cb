// Package validate runs plausibility checks over a pre-calibration analysis
// result, catching capture and wall-configuration problems before a full
// calibration is attempted.
package validate

import (
	"fmt"
	"math"

	"github.com/mrjoshuak/go-ledcal/calibrate"
	"github.com/mrjoshuak/go-ledcal/deltae"
)

// Status grades one validation check.
type Status string

const (
	StatusPass    Status = "PASS"
	StatusWarning Status = "WARNING"
	StatusFail    Status = "FAIL"
)

// Check is the outcome of one validation, with an operator-facing message
// when the status is not a pass.
type Check struct {
	Name    string `json:"name"`
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}

// Run executes every validation over the given analysis result.
func Run(res *calibrate.Result) []Check {
	return []Check{
		exposureCheck(res),
		maxWhiteCheck(res),
		scaled18PercentCheck(res),
		eotfCheck(res),
		eotfClampingCheck(res),
		gamutDeltaECheck(res),
	}
}

// exposureCheck verifies the measured 18% patch sits near the expected
// exposure: a fail outside a quarter stop, a warning outside a tenth of a
// stop.
func exposureCheck(res *calibrate.Result) Check {
	c := Check{Name: "Measured Exposure Validation", Status: StatusPass}

	const (
		quarterStopDown = 0.144
		quarterStopUp   = 0.225
		tenthStopDown   = 0.163
		tenthStopUp     = 0.198
	)

	v := res.Measured18Percent
	if v < quarterStopDown || v > quarterStopUp {
		c.Status = StatusFail
		c.Message = fmt.Sprintf("the 18%% patch is exposed at %.1f%%; expose it correctly "+
			"using the camera false colour or a light meter and re-record", v*100)
		return c
	}
	if v <= tenthStopDown || v >= tenthStopUp {
		c.Status = StatusWarning
		c.Message = fmt.Sprintf("the 18%% patch is exposed at %.1f%%, which is not ideal; "+
			"expose it using the camera false colour or a light meter", v*100)
	}
	return c
}

// maxWhiteCheck verifies the max-white patch agrees with the top of the
// EOTF ramp within 10%.
func maxWhiteCheck(res *calibrate.Result) Check {
	c := Check{Name: "Max White vs EOTF Validation", Status: StatusPass}

	const tolerance = 0.1
	if math.Abs(math.Abs(res.MaxWhiteDelta)-1) > tolerance {
		c.Status = StatusFail
		c.Message = "the EOTF ramp does not reach the peak luminance of the wall; check that " +
			"the wall settings match its actual peak and check the imaging chain from content " +
			"engine to LED processor, then re-record"
	}
	return c
}

// scaled18PercentCheck verifies that exposure normalisation lands the 18%
// patch between 16% and 20% of the target peak, guarding against extreme
// scaling from a misconfigured chain.
func scaled18PercentCheck(res *calibrate.Result) Check {
	c := Check{Name: "Check Scaled 18% Validation", Status: StatusPass}

	if res.ExposureScalingFactor == 0 {
		c.Status = StatusFail
		c.Message = "exposure scaling factor is zero"
		return c
	}
	scaledNits := res.Measured18Percent / res.ExposureScalingFactor * deltae.NitsScale
	minNits := res.TargetMaxLumNits * 0.16
	maxNits := res.TargetMaxLumNits * 0.20
	if scaledNits < minNits || scaledNits > maxNits {
		c.Status = StatusFail
		c.Message = fmt.Sprintf("the scaled 18%% patch lands at %.1f nits, outside the "+
			"%.1f-%.1f nits range; check that the wall settings match its actual peak "+
			"luminance and re-record", scaledNits, minNits, maxNits)
	}
	return c
}

// eotfCheck verifies the wall's transfer function: the mean ΔE over the
// upper portion of the ramp, excluding the peak step, must stay tolerable.
func eotfCheck(res *calibrate.Result) Check {
	c := Check{Name: "EOTF Validation", Status: StatusPass}

	ramp := res.DeltaEEOTFRamp
	if len(ramp) < 2 {
		return c
	}
	from := len(ramp) / 3
	valid := ramp[from : len(ramp)-1]
	if len(valid) == 0 {
		return c
	}
	total := 0.0
	for _, v := range valid {
		total += v
	}
	if total/float64(len(valid)) > 5 {
		c.Status = StatusFail
		c.Message = "the measured EOTF is outside a tolerable range; check the imaging chain " +
			"from content engine to LED processor and re-record the plates"
	}
	return c
}

// eotfClampingCheck flags channels whose last ramp steps bunch together,
// which indicates the signal is being clamped before it reaches the wall.
func eotfClampingCheck(res *calibrate.Result) Check {
	c := Check{Name: "EOTF Clamping Validation", Status: StatusPass}

	const (
		sampleSelection = 4
		tolerance       = 0.01
	)
	ramp := res.PreEOTFRamps
	if len(ramp) < sampleSelection {
		return c
	}
	last := ramp[len(ramp)-sampleSelection:]

	names := [3]string{"red", "green", "blue"}
	for ch := 0; ch < 3; ch++ {
		tooClose := false
		for i := 0; i < len(last) && !tooClose; i++ {
			for j := i + 1; j < len(last); j++ {
				if math.Abs(last[i][ch]-last[j][ch]) <= tolerance {
					tooClose = true
					break
				}
			}
		}
		if tooClose {
			c.Status = StatusFail
			c.Message += fmt.Sprintf("the last %d steps of the EOTF ramp in the %s channel "+
				"share the same value, which suggests the signal is being clamped\n",
				sampleSelection, names[ch])
		}
	}
	return c
}

// gamutDeltaECheck warns when the wall is already within a perceivable
// tolerance and may not need calibrating at all.
func gamutDeltaECheck(res *calibrate.Result) Check {
	c := Check{Name: "Gamut Delta Validation", Status: StatusPass}

	const perceivableLimit = 3
	for _, v := range res.DeltaEWRGB {
		if v > perceivableLimit {
			return c
		}
	}
	c.Status = StatusWarning
	c.Message = "the wall as viewed by the camera is already within a perceivable tolerance; " +
		"calibration may not be required"
	return c
}
