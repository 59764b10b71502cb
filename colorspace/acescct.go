package colorspace

import "math"

// ACEScct log encoding, used as the working space for Macbeth swatch
// detection. Linear-segment constants per S-2016-001.
const (
	acesCCTCut    = 0.0078125
	acesCCTSlope  = 10.5402377416545
	acesCCTOffset = 0.0729055341958355
)

// ACEScctEncode converts a linear value to ACEScct.
func ACEScctEncode(linear float64) float64 {
	if linear <= acesCCTCut {
		return acesCCTSlope*linear + acesCCTOffset
	}
	return (math.Log2(linear) + 9.72) / 17.52
}

// ACEScctDecode converts an ACEScct value back to linear.
func ACEScctDecode(cct float64) float64 {
	if cct <= acesCCTSlope*acesCCTCut+acesCCTOffset {
		return (cct - acesCCTOffset) / acesCCTSlope
	}
	return math.Exp2(cct*17.52 - 9.72)
}
