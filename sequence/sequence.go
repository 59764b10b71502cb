// Package sequence provides an EXR-backed frame sequence accessor for the
// samplers: a directory of numbered .exr plates exposed by frame index,
// with the plate's colour space read from the file chromaticities or
// supplied explicitly.
package sequence

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/mrjoshuak/go-openexr/exr"

	"github.com/mrjoshuak/go-ledcal/colorspace"
	"github.com/mrjoshuak/go-ledcal/internal/mat3"
	"github.com/mrjoshuak/go-ledcal/sampler"
)

// Errors returned by the sequence accessor.
var (
	ErrNoFrames     = errors.New("sequence: no EXR frames found")
	ErrMissingFrame = errors.New("sequence: no such frame")
	ErrUnknownPlate = errors.New("sequence: cannot determine plate colour space")
)

var frameNumber = regexp.MustCompile(`(\d+)\.exr$`)

// Config selects the plate directory and how its colour space is resolved.
type Config struct {
	// Dir is the directory holding the numbered .exr frames.
	Dir string

	// PlateColorSpace overrides colour space detection. When empty the
	// first frame's chromaticities attribute is matched against the
	// registry.
	PlateColorSpace string

	// Registry resolves the detected or supplied space name.
	Registry *colorspace.Registry
}

// Sequence is a read-only EXR frame sequence. Frames are opened per read,
// so concurrent reads of distinct frame indices are safe.
type Sequence struct {
	frames map[int]string
	first  int
	last   int
	plate  string
}

// Open scans the directory for numbered EXR frames and resolves the plate
// colour space.
func Open(cfg Config) (*Sequence, error) {
	entries, err := os.ReadDir(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("sequence: %w", err)
	}

	frames := make(map[int]string)
	var indices []int
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := frameNumber.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		frames[n] = filepath.Join(cfg.Dir, e.Name())
		indices = append(indices, n)
	}
	if len(indices) == 0 {
		return nil, ErrNoFrames
	}
	sort.Ints(indices)

	s := &Sequence{
		frames: frames,
		first:  indices[0],
		last:   indices[len(indices)-1],
		plate:  cfg.PlateColorSpace,
	}
	if s.plate == "" {
		s.plate, err = detectPlateSpace(frames[s.first], cfg.Registry)
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}

// PlateColorSpace reports the colour space the plate pixels are encoded in.
func (s *Sequence) PlateColorSpace() string { return s.plate }

// FrameRange reports the first and last frame numbers found on disk.
func (s *Sequence) FrameRange() (first, last int) { return s.first, s.last }

// ExtractRegion reads the given region of one frame as linear RGB triplets
// in row-major order.
func (s *Sequence) ExtractRegion(frameIndex int, roi sampler.ROI) ([]mat3.Vec3, error) {
	path, ok := s.frames[frameIndex]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrMissingFrame, frameIndex)
	}

	f, err := exr.OpenRGBAInputFile(path)
	if err != nil {
		return nil, fmt.Errorf("sequence: frame %d: %w", frameIndex, err)
	}
	defer f.Close()

	img, err := f.ReadRGBA()
	if err != nil {
		return nil, fmt.Errorf("sequence: frame %d: %w", frameIndex, err)
	}

	bounds := img.Bounds()
	if roi.X < bounds.Min.X || roi.Y < bounds.Min.Y ||
		roi.X+roi.Width > bounds.Max.X || roi.Y+roi.Height > bounds.Max.Y {
		return nil, fmt.Errorf("sequence: frame %d: region %dx%d+%d+%d outside image bounds %v",
			frameIndex, roi.Width, roi.Height, roi.X, roi.Y, bounds)
	}

	pixels := make([]mat3.Vec3, 0, roi.Width*roi.Height)
	for y := roi.Y; y < roi.Y+roi.Height; y++ {
		for x := roi.X; x < roi.X+roi.Width; x++ {
			r, g, b, _ := img.RGBA(x, y)
			pixels = append(pixels, mat3.Vec3{float64(r), float64(g), float64(b)})
		}
	}
	return pixels, nil
}

// detectPlateSpace reads the chromaticities attribute of the first frame
// and matches it against the registry's spaces.
func detectPlateSpace(path string, reg *colorspace.Registry) (string, error) {
	if reg == nil {
		return "", ErrUnknownPlate
	}
	f, err := exr.OpenRGBAInputFile(path)
	if err != nil {
		return "", fmt.Errorf("sequence: %w", err)
	}
	defer f.Close()

	header := f.Header()
	if !header.Has("chromaticities") {
		return "", ErrUnknownPlate
	}
	attr := header.Get("chromaticities")
	if attr == nil {
		return "", ErrUnknownPlate
	}
	chr, ok := attr.Value.(exr.Chromaticities)
	if !ok {
		return "", ErrUnknownPlate
	}

	for _, name := range reg.Names() {
		cs, err := reg.Resolve(name)
		if err != nil {
			continue
		}
		if chromaticitiesMatch(cs, chr) {
			return name, nil
		}
	}
	return "", fmt.Errorf("%w: chromaticities match no registered space", ErrUnknownPlate)
}

// chromaticitiesMatch compares a registered space to file chromaticities
// within the precision the float32 attribute carries.
func chromaticitiesMatch(cs *colorspace.ColorSpace, chr exr.Chromaticities) bool {
	const tol = 1e-4
	red, green, blue := cs.Primaries()
	white := cs.White()
	pairs := [4][2]float64{
		{red.X, red.Y},
		{green.X, green.Y},
		{blue.X, blue.Y},
		{white.X, white.Y},
	}
	file := [4][2]float32{
		{chr.RedX, chr.RedY},
		{chr.GreenX, chr.GreenY},
		{chr.BlueX, chr.BlueY},
		{chr.WhiteX, chr.WhiteY},
	}
	for i := range pairs {
		if math.Abs(pairs[i][0]-float64(file[i][0])) > tol ||
			math.Abs(pairs[i][1]-float64(file[i][1])) > tol {
			return false
		}
	}
	return true
}
