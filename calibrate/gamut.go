package calibrate

import (
	"math"

	"github.com/mrjoshuak/go-ledcal/colorspace"
	"github.com/mrjoshuak/go-ledcal/internal/mat3"
)

// achromatic returns the achromatic-axis value for rgb, with a tanh rolloff
// pulling values below the shadow threshold toward the rolloff asymptote
// instead of clamping them.
func achromatic(rgb mat3.Vec3, shadowRolloff float64) mat3.Vec3 {
	v := rgb.Max()
	if v <= shadowRolloff {
		v = shadowRolloff * (1 - math.Tanh((shadowRolloff-v)/shadowRolloff))
	}
	return mat3.Vec3{v, v, v}
}

// maxDistances computes the per-channel maximum relative distance between
// the source primaries, converted into the destination space, and their
// achromatic-axis counterparts. The result parameterises the downstream
// gamut compression operator; no compression is applied here.
func maxDistances(source, destination *colorspace.ColorSpace, cat colorspace.CAT,
	shadowRolloff float64) (mat3.Vec3, error) {

	unit := []mat3.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	primaries, err := colorspace.ConvertAll(unit, source, destination, cat)
	if err != nil {
		return mat3.Vec3{}, err
	}

	var distances mat3.Vec3
	for i, p := range primaries {
		a := achromatic(p, shadowRolloff)
		for ch := 0; ch < 3; ch++ {
			d := (a[ch] - p[ch]) / a[ch]
			if i == 0 || d > distances[ch] {
				distances[ch] = d
			}
		}
	}
	return distances, nil
}
