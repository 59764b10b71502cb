package sampler

import (
	"fmt"
	"math"

	"github.com/mrjoshuak/go-ledcal/colorspace"
	"github.com/mrjoshuak/go-ledcal/internal/mat3"
)

// Macbeth chart layout: 6 columns by 4 rows, read row-major.
const (
	macbethCols     = 6
	macbethRows     = 4
	MacbethSwatches = macbethCols * macbethRows
)

// macbethCellMargin is the fraction of each grid cell excluded on every side
// before sampling, keeping swatch borders and chart dividers out of the
// mean.
const macbethCellMargin = 0.25

// MacbethResult is the reduced chart: 24 swatch colours in row-major chart
// order, plus the frames that contributed.
type MacbethResult struct {
	Frames   []int
	Swatches []mat3.Vec3
}

// SampleMacbeth samples the 24 Macbeth chart swatches from the chart patch.
// The chart region is white-balance pre-multiplied and moved into an
// ACEScct working space before the swatch grid is measured, then both steps
// are reversed and the swatches converted to the reference space.
//
// Macbeth data is diagnostic, not load-bearing: when detection produces
// non-numeric values the whole chart is replaced by 24 black placeholders
// instead of failing, so a bad chart never silently biases the fit.
func (s *Sampler) SampleMacbeth(sep Separation, chartROI ROI) (MacbethResult, error) {
	iv, err := sep.Interval(PatchMacbeth)
	if err != nil {
		return MacbethResult{}, err
	}
	candidates, err := candidateFrames(iv, PatchMacbeth)
	if err != nil {
		return MacbethResult{}, err
	}

	sum := make([]mat3.Vec3, MacbethSwatches)
	for _, frame := range candidates {
		pixels, err := s.seq.ExtractRegion(frame, chartROI)
		if err != nil {
			return MacbethResult{}, fmt.Errorf("sampler: macbeth frame %d: %w", frame, err)
		}
		swatches := s.detectSwatches(pixels, chartROI)
		for i := range sum {
			sum[i] = sum[i].Add(swatches[i])
		}
	}

	mean := make([]mat3.Vec3, MacbethSwatches)
	scale := 1.0 / float64(len(candidates))
	numeric := true
	for i := range sum {
		mean[i] = sum[i].Scale(scale)
		for ch := 0; ch < 3; ch++ {
			if math.IsNaN(mean[i][ch]) || math.IsInf(mean[i][ch], 0) {
				numeric = false
			}
		}
	}
	if !numeric {
		for i := range mean {
			mean[i] = mat3.Vec3{}
		}
	}

	return MacbethResult{Frames: candidates, Swatches: mean}, nil
}

// detectSwatches measures the 24 swatches of one frame's chart region. The
// chart fills the region in a known 6x4 grid (the calibration displays the
// chart itself), so detection is a deterministic grid walk rather than a
// segmentation search.
func (s *Sampler) detectSwatches(pixels []mat3.Vec3, roi ROI) []mat3.Vec3 {
	wb := regionWhiteBalance(pixels)
	wbInv := mat3.Diagonal(1/wb[0], 1/wb[4], 1/wb[8])

	working := make([]mat3.Vec3, len(pixels))
	for i, p := range pixels {
		v := wb.MulVec(p)
		working[i] = mat3.Vec3{
			colorspace.ACEScctEncode(v[0]),
			colorspace.ACEScctEncode(v[1]),
			colorspace.ACEScctEncode(v[2]),
		}
	}

	cellW := float64(roi.Width) / macbethCols
	cellH := float64(roi.Height) / macbethRows

	swatches := make([]mat3.Vec3, 0, MacbethSwatches)
	for row := 0; row < macbethRows; row++ {
		for col := 0; col < macbethCols; col++ {
			x0 := int(float64(col)*cellW + cellW*macbethCellMargin)
			x1 := int(float64(col+1)*cellW - cellW*macbethCellMargin)
			y0 := int(float64(row)*cellH + cellH*macbethCellMargin)
			y1 := int(float64(row+1)*cellH - cellH*macbethCellMargin)

			var cell []mat3.Vec3
			for y := y0; y < y1; y++ {
				for x := x0; x < x1; x++ {
					idx := y*roi.Width + x
					if idx >= 0 && idx < len(working) {
						cell = append(cell, working[idx])
					}
				}
			}
			m := clippedMean(cell, clipSigma)

			// Reverse the working-space curve and the white balance, then
			// bring the swatch into the reference space.
			linear := mat3.Vec3{
				colorspace.ACEScctDecode(m[0]),
				colorspace.ACEScctDecode(m[1]),
				colorspace.ACEScctDecode(m[2]),
			}
			swatches = append(swatches, s.toRef.MulVec(wbInv.MulVec(linear)))
		}
	}
	return swatches
}

// regionWhiteBalance derives the green-anchored diagonal balance used to
// stabilise swatch detection, from the region's clipped mean.
func regionWhiteBalance(pixels []mat3.Vec3) mat3.Mat3 {
	mean := clippedMean(pixels, clipSigma)
	if mean[0] <= 0 || mean[1] <= 0 || mean[2] <= 0 {
		return mat3.Identity()
	}
	return mat3.Diagonal(mean[1]/mean[0], 1, mean[1]/mean[2])
}
