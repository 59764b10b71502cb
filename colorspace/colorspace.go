// Package colorspace defines RGB colour spaces by their primaries and white
// point, derives their RGB/XYZ matrix pairs, and provides chromatic
// adaptation and RGB-to-RGB conversion between spaces.
//
// Spaces are resolved through an explicit Registry rather than a package
// global, so user-defined custom primaries stay scoped to the pipeline that
// registered them.
package colorspace

import (
	"errors"
	"fmt"

	"github.com/mrjoshuak/go-ledcal/internal/mat3"
)

// Chromaticity is a CIE 1931 xy coordinate.
type Chromaticity struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ColorSpace is an RGB colour space: three primaries and a white point in
// CIE xy, plus the RGB/XYZ matrix pair derived from them. A ColorSpace is
// immutable once constructed; the matrices are always regenerated together
// from the primaries and white point, never patched individually.
type ColorSpace struct {
	name     string
	red      Chromaticity
	green    Chromaticity
	blue     Chromaticity
	white    Chromaticity
	rgbToXYZ mat3.Mat3
	xyzToRGB mat3.Mat3
}

// ErrDegeneratePrimaries is returned when a set of primaries does not span a
// usable gamut (the primary matrix is singular).
var ErrDegeneratePrimaries = errors.New("colorspace: primaries are degenerate")

// New constructs a colour space from three primaries and a white point and
// derives its RGB/XYZ matrices.
func New(name string, red, green, blue, white Chromaticity) (*ColorSpace, error) {
	m, ok := normalizedPrimaryMatrix(red, green, blue, white)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrDegeneratePrimaries, name)
	}
	inv, ok := m.Inverse()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrDegeneratePrimaries, name)
	}
	return &ColorSpace{
		name:     name,
		red:      red,
		green:    green,
		blue:     blue,
		white:    white,
		rgbToXYZ: m,
		xyzToRGB: inv,
	}, nil
}

// Name returns the colour space name.
func (cs *ColorSpace) Name() string { return cs.name }

// Primaries returns the red, green and blue primaries in CIE xy.
func (cs *ColorSpace) Primaries() (red, green, blue Chromaticity) {
	return cs.red, cs.green, cs.blue
}

// White returns the white point in CIE xy.
func (cs *ColorSpace) White() Chromaticity { return cs.white }

// RGBToXYZ returns the RGB to CIE XYZ matrix.
func (cs *ColorSpace) RGBToXYZ() mat3.Mat3 { return cs.rgbToXYZ }

// XYZToRGB returns the CIE XYZ to RGB matrix.
func (cs *ColorSpace) XYZToRGB() mat3.Mat3 { return cs.xyzToRGB }

// WhiteXYZ returns the white point as CIE XYZ with Y=1.
func (cs *ColorSpace) WhiteXYZ() mat3.Vec3 { return XYToXYZ(cs.white) }

// XYToXYZ converts a CIE xy chromaticity to XYZ with Y=1.
func XYToXYZ(c Chromaticity) mat3.Vec3 {
	return mat3.Vec3{c.X / c.Y, 1.0, (1.0 - c.X - c.Y) / c.Y}
}

// XYZToXY converts a CIE XYZ value to its xy chromaticity.
func XYZToXY(v mat3.Vec3) Chromaticity {
	sum := v[0] + v[1] + v[2]
	if sum == 0 {
		return Chromaticity{}
	}
	return Chromaticity{X: v[0] / sum, Y: v[1] / sum}
}

// normalizedPrimaryMatrix builds the RGB to XYZ matrix for the given
// primaries such that RGB (1,1,1) maps to the white point with Y=1. The
// primaries matrix in XYZ is inverted, the white point is evaluated across
// the inverse to obtain per-primary scale factors, and the factors are
// applied back to the primary columns.
func normalizedPrimaryMatrix(red, green, blue, white Chromaticity) (mat3.Mat3, bool) {
	p := mat3.Mat3{
		red.X, green.X, blue.X,
		red.Y, green.Y, blue.Y,
		1 - red.X - red.Y, 1 - green.X - green.Y, 1 - blue.X - blue.Y,
	}
	inv, ok := p.Inverse()
	if !ok {
		return mat3.Mat3{}, false
	}
	s := inv.MulVec(XYToXYZ(white))
	return mat3.Mat3{
		s[0] * p[0], s[1] * p[1], s[2] * p[2],
		s[0] * p[3], s[1] * p[4], s[2] * p[5],
		s[0] * p[6], s[1] * p[7], s[2] * p[8],
	}, true
}

// MatrixRGBToRGB computes the RGB-to-RGB matrix from src to dst, optionally
// chromatically adapting the source white point to the destination white
// point with the given transform. With CATNone the XYZ values pass through
// unadapted.
func MatrixRGBToRGB(src, dst *ColorSpace, cat CAT) (mat3.Mat3, error) {
	m := src.rgbToXYZ
	if cat != CATNone {
		adapt, err := AdaptationMatrix(src.WhiteXYZ(), dst.WhiteXYZ(), cat)
		if err != nil {
			return mat3.Mat3{}, err
		}
		m = adapt.Mul(m)
	}
	return dst.xyzToRGB.Mul(m), nil
}

// Convert converts a single RGB value from src to dst.
func Convert(v mat3.Vec3, src, dst *ColorSpace, cat CAT) (mat3.Vec3, error) {
	m, err := MatrixRGBToRGB(src, dst, cat)
	if err != nil {
		return mat3.Vec3{}, err
	}
	return m.MulVec(v), nil
}

// ConvertAll converts a slice of RGB values from src to dst. The returned
// slice preserves input order.
func ConvertAll(vs []mat3.Vec3, src, dst *ColorSpace, cat CAT) ([]mat3.Vec3, error) {
	m, err := MatrixRGBToRGB(src, dst, cat)
	if err != nil {
		return nil, err
	}
	out := make([]mat3.Vec3, len(vs))
	for i, v := range vs {
		out[i] = m.MulVec(v)
	}
	return out, nil
}
