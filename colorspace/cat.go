package colorspace

import (
	"fmt"

	"github.com/mrjoshuak/go-ledcal/internal/mat3"
)

// CAT identifies a chromatic adaptation transform.
type CAT string

// Supported chromatic adaptation transforms.
const (
	CATNone       CAT = "None"
	CATBradford   CAT = "Bradford"
	CATCAT02      CAT = "CAT02"
	CATCAT16      CAT = "CAT16"
	CATVonKries   CAT = "Von Kries"
	CATSharp      CAT = "Sharp"
	CATCMCCAT2000 CAT = "CMCCAT2000"
	CATXYZScaling CAT = "XYZ Scaling"
)

// Cone response matrices, XYZ to sharpened cone space.
var (
	coneBradford = mat3.Mat3{
		0.8951, 0.2664, -0.1614,
		-0.7502, 1.7135, 0.0367,
		0.0389, -0.0685, 1.0296,
	}
	coneCAT02 = mat3.Mat3{
		0.7328, 0.4296, -0.1624,
		-0.7036, 1.6975, 0.0061,
		0.0030, 0.0136, 0.9834,
	}
	coneCAT16 = mat3.Mat3{
		0.401288, 0.650173, -0.051461,
		-0.250268, 1.204414, 0.045854,
		-0.002079, 0.048952, 0.953127,
	}
	// Hunt-Pointer-Estevez, D65 normalized.
	coneVonKries = mat3.Mat3{
		0.40024, 0.70760, -0.08081,
		-0.22630, 1.16532, 0.04570,
		0.00000, 0.00000, 0.91822,
	}
	coneSharp = mat3.Mat3{
		1.2694, -0.0988, -0.1706,
		-0.8364, 1.8006, 0.0357,
		0.0297, -0.0315, 1.0018,
	}
	coneCMCCAT2000 = mat3.Mat3{
		0.7982, 0.3389, -0.1371,
		-0.5918, 1.5512, 0.0406,
		0.0008, 0.0239, 0.9753,
	}
)

// coneMatrix returns the cone response matrix for the transform. ok is false
// for unknown transforms; CATXYZScaling uses the identity cone space.
func coneMatrix(cat CAT) (mat3.Mat3, bool) {
	switch cat {
	case CATBradford:
		return coneBradford, true
	case CATCAT02:
		return coneCAT02, true
	case CATCAT16:
		return coneCAT16, true
	case CATVonKries:
		return coneVonKries, true
	case CATSharp:
		return coneSharp, true
	case CATCMCCAT2000:
		return coneCMCCAT2000, true
	case CATXYZScaling:
		return mat3.Identity(), true
	default:
		return mat3.Mat3{}, false
	}
}

// AdaptationMatrix computes the XYZ-space chromatic adaptation matrix from
// the srcWhite illuminant to dstWhite using the given transform: both white
// points are projected into the transform's cone space, a diagonal von Kries
// scaling maps source cone response to destination cone response, and the
// result is brought back to XYZ.
func AdaptationMatrix(srcWhite, dstWhite mat3.Vec3, cat CAT) (mat3.Mat3, error) {
	cone, ok := coneMatrix(cat)
	if !ok {
		return mat3.Mat3{}, fmt.Errorf("colorspace: unknown chromatic adaptation transform %q", cat)
	}
	coneInv, ok := cone.Inverse()
	if !ok {
		return mat3.Mat3{}, fmt.Errorf("colorspace: cone matrix for %q is singular", cat)
	}

	s := cone.MulVec(srcWhite)
	d := cone.MulVec(dstWhite)
	for i := 0; i < 3; i++ {
		if s[i] == 0 {
			return mat3.Mat3{}, fmt.Errorf("colorspace: source white has zero cone response in %q", cat)
		}
	}

	scale := mat3.Diagonal(d[0]/s[0], d[1]/s[1], d[2]/s[2])
	return coneInv.Mul(scale.Mul(cone)), nil
}

// CameraConversionCAT returns the chromatic adaptation transform used when
// converting plate samples into the given camera-native space. RED wide
// gamut cameras adapt with Bradford; every other camera family uses CAT02.
// This is a fixed per-camera rule, not a user setting.
func CameraConversionCAT(cameraSpaceName string) CAT {
	if cameraSpaceName == REDWideGamut {
		return CATBradford
	}
	return CATCAT02
}
