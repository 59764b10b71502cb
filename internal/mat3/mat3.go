// Package mat3 provides the small fixed-size linear algebra used by the
// calibration pipeline: 3-component vectors and row-major 3x3 matrices.
package mat3

import "math"

// Vec3 is a 3-component column vector.
type Vec3 [3]float64

// Mat3 is a row-major 3x3 matrix.
type Mat3 [9]float64

// Identity returns the 3x3 identity matrix.
func Identity() Mat3 {
	return Mat3{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	}
}

// Diagonal returns a diagonal matrix with the given entries.
func Diagonal(r, g, b float64) Mat3 {
	return Mat3{
		r, 0, 0,
		0, g, 0,
		0, 0, b,
	}
}

// Mul returns the matrix product a*b.
func (a Mat3) Mul(b Mat3) Mat3 {
	var c Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			c[i*3+j] = a[i*3+0]*b[0*3+j] + a[i*3+1]*b[1*3+j] + a[i*3+2]*b[2*3+j]
		}
	}
	return c
}

// MulVec returns the matrix-vector product a*v.
func (a Mat3) MulVec(v Vec3) Vec3 {
	return Vec3{
		a[0]*v[0] + a[1]*v[1] + a[2]*v[2],
		a[3]*v[0] + a[4]*v[1] + a[5]*v[2],
		a[6]*v[0] + a[7]*v[1] + a[8]*v[2],
	}
}

// Scale returns the matrix with every element multiplied by s.
func (a Mat3) Scale(s float64) Mat3 {
	var c Mat3
	for i := range a {
		c[i] = a[i] * s
	}
	return c
}

// Det returns the determinant of a.
func (a Mat3) Det() float64 {
	return a[0]*(a[4]*a[8]-a[5]*a[7]) -
		a[1]*(a[3]*a[8]-a[5]*a[6]) +
		a[2]*(a[3]*a[7]-a[4]*a[6])
}

// DetTolerance is the smallest determinant magnitude considered invertible.
const DetTolerance = 1e-10

// Inverse returns the inverse of a. ok is false if a is singular.
func (a Mat3) Inverse() (inv Mat3, ok bool) {
	c0 := a[4]*a[8] - a[5]*a[7]
	c1 := -(a[3]*a[8] - a[5]*a[6])
	c2 := a[3]*a[7] - a[4]*a[6]

	det := a[0]*c0 + a[1]*c1 + a[2]*c2
	if math.Abs(det) < DetTolerance {
		return Mat3{}, false
	}

	inv[0] = c0 / det
	inv[1] = (a[2]*a[7] - a[1]*a[8]) / det
	inv[2] = (a[1]*a[5] - a[2]*a[4]) / det
	inv[3] = c1 / det
	inv[4] = (a[0]*a[8] - a[2]*a[6]) / det
	inv[5] = (a[2]*a[3] - a[0]*a[5]) / det
	inv[6] = c2 / det
	inv[7] = (a[1]*a[6] - a[0]*a[7]) / det
	inv[8] = (a[0]*a[4] - a[1]*a[3]) / det
	return inv, true
}

// Transpose returns the transpose of a.
func (a Mat3) Transpose() Mat3 {
	return Mat3{
		a[0], a[3], a[6],
		a[1], a[4], a[7],
		a[2], a[5], a[8],
	}
}

// RowSums returns the sum of each row of a.
func (a Mat3) RowSums() Vec3 {
	return Vec3{
		a[0] + a[1] + a[2],
		a[3] + a[4] + a[5],
		a[6] + a[7] + a[8],
	}
}

// MaxRowSum returns the largest row sum of a.
func (a Mat3) MaxRowSum() float64 {
	s := a.RowSums()
	m := s[0]
	if s[1] > m {
		m = s[1]
	}
	if s[2] > m {
		m = s[2]
	}
	return m
}

// Add returns the component-wise sum a+b.
func (v Vec3) Add(w Vec3) Vec3 {
	return Vec3{v[0] + w[0], v[1] + w[1], v[2] + w[2]}
}

// Sub returns the component-wise difference a-b.
func (v Vec3) Sub(w Vec3) Vec3 {
	return Vec3{v[0] - w[0], v[1] - w[1], v[2] - w[2]}
}

// Scale returns v with every component multiplied by s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v[0] * s, v[1] * s, v[2] * s}
}

// Max returns the largest component of v.
func (v Vec3) Max() float64 {
	m := v[0]
	if v[1] > m {
		m = v[1]
	}
	if v[2] > m {
		m = v[2]
	}
	return m
}

// Mean returns the arithmetic mean of the components of v.
func (v Vec3) Mean() float64 {
	return (v[0] + v[1] + v[2]) / 3
}
