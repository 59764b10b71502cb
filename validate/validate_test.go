package validate

import (
	"strings"
	"testing"

	"github.com/mrjoshuak/go-ledcal/calibrate"
	"github.com/mrjoshuak/go-ledcal/internal/mat3"
)

// healthyResult builds an analysis result that passes every check.
func healthyResult() *calibrate.Result {
	ramp := make([]mat3.Vec3, 10)
	des := make([]float64, 10)
	for i := range ramp {
		v := float64(i) * 0.1
		ramp[i] = mat3.Vec3{v, v, v}
		des[i] = 0.5
	}
	return &calibrate.Result{
		Measured18Percent:     0.18,
		ExposureScalingFactor: 1,
		TargetMaxLumNits:      100,
		MaxWhiteDelta:         1,
		PreEOTFRamps:          ramp,
		DeltaEEOTFRamp:        des,
		DeltaEWRGB:            []float64{5, 4, 4, 4},
	}
}

func findCheck(t *testing.T, checks []Check, name string) Check {
	t.Helper()
	for _, c := range checks {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("no check named %q in %v", name, checks)
	return Check{}
}

func TestRunAllPass(t *testing.T) {
	checks := Run(healthyResult())
	if len(checks) != 6 {
		t.Fatalf("Run returned %d checks, want 6", len(checks))
	}
	for _, c := range checks {
		if c.Status != StatusPass {
			t.Errorf("%s = %s (%s), want PASS", c.Name, c.Status, c.Message)
		}
	}
}

func TestExposureCheck(t *testing.T) {
	tests := []struct {
		value float64
		want  Status
	}{
		{0.18, StatusPass},
		{0.170, StatusPass},
		{0.163, StatusWarning},
		{0.198, StatusWarning},
		{0.150, StatusWarning},
		{0.210, StatusWarning},
		{0.144, StatusWarning},
		{0.225, StatusWarning},
		{0.140, StatusFail},
		{0.100, StatusFail},
		{0.230, StatusFail},
	}
	for _, tt := range tests {
		res := healthyResult()
		res.Measured18Percent = tt.value
		c := findCheck(t, Run(res), "Measured Exposure Validation")
		if c.Status != tt.want {
			t.Errorf("exposure %.3f: status = %s, want %s", tt.value, c.Status, tt.want)
		}
	}
}

func TestMaxWhiteCheck(t *testing.T) {
	tests := []struct {
		delta float64
		want  Status
	}{
		{1, StatusPass},
		{1.05, StatusPass},
		{0.95, StatusPass},
		{0.9, StatusPass},
		{-1.05, StatusPass},
		{1.2, StatusFail},
		{0.85, StatusFail},
		{0, StatusFail},
	}
	for _, tt := range tests {
		res := healthyResult()
		res.MaxWhiteDelta = tt.delta
		c := findCheck(t, Run(res), "Max White vs EOTF Validation")
		if c.Status != tt.want {
			t.Errorf("delta %.2f: status = %s, want %s", tt.delta, c.Status, tt.want)
		}
	}
}

func TestScaled18PercentCheck(t *testing.T) {
	tests := []struct {
		measured18 float64
		scale      float64
		want       Status
	}{
		{0.18, 1, StatusPass},
		{0.16, 1, StatusPass},
		{0.20, 1, StatusPass},
		{0.36, 2, StatusPass},
		{0.18, 2, StatusFail},
		{0.18, 0.5, StatusFail},
		{0.18, 0, StatusFail},
	}
	for _, tt := range tests {
		res := healthyResult()
		res.Measured18Percent = tt.measured18
		res.ExposureScalingFactor = tt.scale
		c := findCheck(t, Run(res), "Check Scaled 18% Validation")
		if c.Status != tt.want {
			t.Errorf("measured %.2f scale %.1f: status = %s, want %s",
				tt.measured18, tt.scale, c.Status, tt.want)
		}
	}
}

func TestEOTFCheck(t *testing.T) {
	res := healthyResult()
	c := findCheck(t, Run(res), "EOTF Validation")
	if c.Status != StatusPass {
		t.Errorf("healthy ramp: status = %s, want PASS", c.Status)
	}

	// The upper two thirds of the ramp, peak excluded, average above the
	// tolerable limit.
	for i := range res.DeltaEEOTFRamp {
		res.DeltaEEOTFRamp[i] = 10
	}
	c = findCheck(t, Run(res), "EOTF Validation")
	if c.Status != StatusFail {
		t.Errorf("bad ramp: status = %s, want FAIL", c.Status)
	}

	// A bad peak step alone must not fail the check.
	res = healthyResult()
	res.DeltaEEOTFRamp[len(res.DeltaEEOTFRamp)-1] = 100
	c = findCheck(t, Run(res), "EOTF Validation")
	if c.Status != StatusPass {
		t.Errorf("bad peak step only: status = %s, want PASS", c.Status)
	}
}

func TestEOTFCheckShortRamp(t *testing.T) {
	// A result arriving over the JSON boundary can carry a short or empty
	// ramp; the check must degrade to a pass, not panic.
	for _, n := range []int{0, 1} {
		res := healthyResult()
		res.DeltaEEOTFRamp = res.DeltaEEOTFRamp[:n]
		c := findCheck(t, Run(res), "EOTF Validation")
		if c.Status != StatusPass {
			t.Errorf("ramp length %d: status = %s, want PASS", n, c.Status)
		}
	}
}

func TestEOTFClampingCheck(t *testing.T) {
	res := healthyResult()
	c := findCheck(t, Run(res), "EOTF Clamping Validation")
	if c.Status != StatusPass {
		t.Errorf("spread ramp: status = %s, want PASS", c.Status)
	}

	// Flatten the green channel over the last four steps.
	n := len(res.PreEOTFRamps)
	for i := n - 4; i < n; i++ {
		res.PreEOTFRamps[i][1] = 0.9
	}
	c = findCheck(t, Run(res), "EOTF Clamping Validation")
	if c.Status != StatusFail {
		t.Errorf("clamped green: status = %s, want FAIL", c.Status)
	}
	if !strings.Contains(c.Message, "green") {
		t.Errorf("message does not name the clamped channel: %q", c.Message)
	}
	if strings.Contains(c.Message, "red") {
		t.Errorf("message names an unclamped channel: %q", c.Message)
	}
}

func TestGamutDeltaECheck(t *testing.T) {
	res := healthyResult()
	c := findCheck(t, Run(res), "Gamut Delta Validation")
	if c.Status != StatusPass {
		t.Errorf("visible error: status = %s, want PASS", c.Status)
	}

	// Every patch already under the perceivable limit: worth a warning,
	// the wall may not need calibrating.
	res.DeltaEWRGB = []float64{1, 2, 0.5, 2.9}
	c = findCheck(t, Run(res), "Gamut Delta Validation")
	if c.Status != StatusWarning {
		t.Errorf("near-perfect wall: status = %s, want WARNING", c.Status)
	}
}
