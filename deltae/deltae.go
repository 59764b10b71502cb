package deltae

import (
	"fmt"
	"math"

	"github.com/mrjoshuak/go-ledcal/internal/mat3"
)

// NitsScale converts the pipeline's normalized units (1.0 == 100 nits) to
// absolute cd/m2 before PQ encoding.
const NitsScale = 100.0

// metricRescale brings the 720-scaled ITP difference down to the metric's
// customary 0-100ish working range.
const metricRescale = 3.0

// ITP returns the ITU-R BT.2124 colour difference between two ICtCp values.
// Ct is halved per the ITP definition; the result carries the 720 scale.
func ITP(a, b mat3.Vec3) float64 {
	di := a[0] - b[0]
	dt := 0.5 * (a[1] - b[1])
	dp := a[2] - b[2]
	return 720.0 * math.Sqrt(di*di+dt*dt+dp*dp)
}

// Between computes the per-sample ΔE between measured and reference linear
// RGB sets. Both sets are expected in the same colour space and in
// normalized units; they are scaled to absolute nits, converted to ICtCp and
// compared, and the result is rescaled by 1/3.
func Between(measured, reference []mat3.Vec3) ([]float64, error) {
	if len(measured) != len(reference) {
		return nil, fmt.Errorf("deltae: sample count mismatch, %d measured vs %d reference",
			len(measured), len(reference))
	}
	out := make([]float64, len(measured))
	for i := range measured {
		m := RGBToICtCp(measured[i].Scale(NitsScale))
		r := RGBToICtCp(reference[i].Scale(NitsScale))
		out[i] = ITP(m, r) / metricRescale
	}
	return out, nil
}
