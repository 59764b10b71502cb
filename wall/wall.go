// Package wall orchestrates calibration across the LED walls of a stage:
// per-wall settings, verification walls mirroring another wall's settings,
// and dependency-ordered processing with reference-wall white balance
// handoff.
package wall

import (
	"errors"
	"fmt"

	"github.com/mrjoshuak/go-ledcal/calibrate"
	"github.com/mrjoshuak/go-ledcal/colorspace"
	"github.com/mrjoshuak/go-ledcal/internal/mat3"
)

// Settings is the per-wall configuration bundle.
type Settings struct {
	InputPlateGamut   string `json:"input_plate_gamut"`
	NativeCameraGamut string `json:"native_camera_gamut"`
	TargetGamut       string `json:"target_gamut"`

	TargetToScreenCAT    colorspace.CAT `json:"target_to_screen_cat"`
	ReferenceToTargetCAT colorspace.CAT `json:"reference_to_target_cat"`

	TargetMaxLumNits float64        `json:"target_max_lum_nits"`
	TargetEOTF       calibrate.EOTF `json:"target_eotf"`

	NumGreyPatches      int     `json:"num_grey_patches"`
	PrimariesSaturation float64 `json:"primaries_saturation"`

	AutoWhiteBalance       bool                       `json:"auto_white_balance"`
	EnableGamutCompression bool                       `json:"enable_gamut_compression"`
	EnableEOTFCorrection   bool                       `json:"enable_eotf_correction"`
	CalculationOrder       calibrate.CalculationOrder `json:"calculation_order"`
	ShadowRolloff          float64                    `json:"shadow_rolloff"`
	AvoidClipping          bool                       `json:"avoid_clipping"`

	// MatchReferenceWall names the wall whose white balance matrix this
	// wall adopts instead of deriving its own.
	MatchReferenceWall string `json:"match_reference_wall,omitempty"`

	// ExternalWhitePoint is a decoupled lens white sample in the input
	// plate space.
	ExternalWhitePoint *mat3.Vec3 `json:"external_white_point,omitempty"`
}

// Wall is one LED wall. Its settings are either its own or a read-through
// to another wall's record; a verification wall mirrors its parent so the
// two are always configured identically.
type Wall struct {
	name    string
	own     *Settings
	mirrors string
}

// New creates a wall with its own settings.
func New(name string, s Settings) *Wall {
	return &Wall{name: name, own: &s}
}

// NewMirror creates a verification wall that reads its settings through the
// named parent wall.
func NewMirror(name, parent string) *Wall {
	return &Wall{name: name, mirrors: parent}
}

// Name returns the wall's identifier.
func (w *Wall) Name() string { return w.name }

// Mirrors returns the parent wall name for a verification wall, or "".
func (w *Wall) Mirrors() string { return w.mirrors }

// ErrDuplicateWall is returned when two walls in one set share a name.
var ErrDuplicateWall = errors.New("wall: duplicate wall name")

// DependencyError reports a wall whose reference or parent wall is missing,
// unprocessed, or part of a cycle. It is fatal for that wall only.
type DependencyError struct {
	Wall      string
	DependsOn string
	Reason    string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("wall: %s depends on %s: %s", e.Wall, e.DependsOn, e.Reason)
}

// Set holds the walls of a project, keyed by name.
type Set struct {
	walls map[string]*Wall
	order []string
}

// NewSet builds a set from the given walls, keeping their declaration
// order.
func NewSet(walls ...*Wall) (*Set, error) {
	s := &Set{walls: make(map[string]*Wall, len(walls))}
	for _, w := range walls {
		if _, ok := s.walls[w.name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateWall, w.name)
		}
		s.walls[w.name] = w
		s.order = append(s.order, w.name)
	}
	return s, nil
}

// Settings resolves a wall's effective settings, following mirror
// read-through. A mirror chain that is broken or cyclic yields a
// DependencyError.
func (s *Set) Settings(name string) (*Settings, error) {
	seen := make(map[string]bool)
	current := name
	for {
		w, ok := s.walls[current]
		if !ok {
			return nil, &DependencyError{Wall: name, DependsOn: current, Reason: "no such wall"}
		}
		if w.own != nil {
			return w.own, nil
		}
		if seen[current] {
			return nil, &DependencyError{Wall: name, DependsOn: current, Reason: "mirror cycle"}
		}
		seen[current] = true
		current = w.mirrors
	}
}

// ProcessOrder returns the wall names sequenced so every wall runs after
// the wall it references for white balance and, for mirrors, after its
// parent. Declaration order is preserved among independent walls.
func (s *Set) ProcessOrder() ([]string, error) {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(s.order))
	var ordered []string

	var visit func(name, origin string) error
	visit = func(name, origin string) error {
		switch state[name] {
		case done:
			return nil
		case visiting:
			return &DependencyError{Wall: origin, DependsOn: name, Reason: "dependency cycle"}
		}
		state[name] = visiting

		w := s.walls[name]
		for _, dep := range s.dependencies(w) {
			if _, ok := s.walls[dep]; !ok {
				return &DependencyError{Wall: name, DependsOn: dep, Reason: "no such wall"}
			}
			if err := visit(dep, origin); err != nil {
				return err
			}
		}
		state[name] = done
		ordered = append(ordered, name)
		return nil
	}

	for _, name := range s.order {
		if err := visit(name, name); err != nil {
			return nil, err
		}
	}
	return ordered, nil
}

func (s *Set) dependencies(w *Wall) []string {
	var deps []string
	if w.mirrors != "" {
		deps = append(deps, w.mirrors)
	}
	if w.own != nil && w.own.MatchReferenceWall != "" {
		deps = append(deps, w.own.MatchReferenceWall)
	}
	return deps
}
