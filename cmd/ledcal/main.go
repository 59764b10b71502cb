// ledcal calibrates the LED walls described in a JSON job file.
//
// Each wall either carries inline measured/reference sample sets, or points
// at a directory of recorded EXR plates to sample. Walls are processed in
// dependency order, a reference wall before any wall matching its white
// balance, and the per-wall analysis, validation checks and calibration
// results are written as JSON.
//
// Usage:
//
//	ledcal [options] job.json
//
// Options:
//
//	-o <file>    write results to file instead of stdout
//	-v           verbose output
//	-version     show version information
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/mrjoshuak/go-ledcal/calibrate"
	"github.com/mrjoshuak/go-ledcal/colorspace"
	"github.com/mrjoshuak/go-ledcal/internal/mat3"
	"github.com/mrjoshuak/go-ledcal/patterns"
	"github.com/mrjoshuak/go-ledcal/sampler"
	"github.com/mrjoshuak/go-ledcal/sequence"
	"github.com/mrjoshuak/go-ledcal/wall"
)

const version = "1.0.0"

func main() {
	outPath := flag.String("o", "", "write results to file instead of stdout")
	verbose := flag.Bool("v", false, "verbose output")
	showVersion := flag.Bool("version", false, "show version information")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ledcal [options] job.json\n\n")
		fmt.Fprintf(os.Stderr, "Calibrate the LED walls described in a JSON job file.\n\n")
		fmt.Fprintf(os.Stderr, "Each wall either carries inline measured/reference samples or\n")
		fmt.Fprintf(os.Stderr, "points at a directory of recorded EXR plates to sample.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("ledcal version %s\n", version)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) != 1 {
		flag.Usage()
		os.Exit(1)
	}

	if err := run(args[0], *outPath, *verbose); err != nil {
		fmt.Fprintf(os.Stderr, "ledcal: %v\n", err)
		os.Exit(1)
	}
}

// jobFile is the top level of the JSON job description.
type jobFile struct {
	CustomColorSpaces []customSpace `json:"custom_color_spaces,omitempty"`
	Walls             []jobWall     `json:"walls"`
}

type customSpace struct {
	Name  string                  `json:"name"`
	Red   colorspace.Chromaticity `json:"red"`
	Green colorspace.Chromaticity `json:"green"`
	Blue  colorspace.Chromaticity `json:"blue"`
	White colorspace.Chromaticity `json:"white"`
}

type jobWall struct {
	Name string `json:"name"`

	// Mirrors makes this a verification wall of the named parent; Settings
	// must be absent.
	Mirrors  string         `json:"mirrors,omitempty"`
	Settings *wall.Settings `json:"settings,omitempty"`

	// Inline samples, or a plate directory to sample them from.
	Measured  *calibrate.SampleSet `json:"measured,omitempty"`
	Reference *calibrate.SampleSet `json:"reference,omitempty"`
	Plates    *plateJob            `json:"plates,omitempty"`
}

type plateJob struct {
	Dir             string             `json:"dir"`
	PlateColorSpace string             `json:"plate_color_space,omitempty"`
	ROI             sampler.ROI        `json:"roi"`
	ChartROI        sampler.ROI        `json:"chart_roi"`
	Separation      sampler.Separation `json:"separation"`
	Workers         int                `json:"workers,omitempty"`
}

func run(jobPath, outPath string, verbose bool) error {
	data, err := os.ReadFile(jobPath)
	if err != nil {
		return err
	}
	var job jobFile
	if err := json.Unmarshal(data, &job); err != nil {
		return fmt.Errorf("parsing %s: %w", jobPath, err)
	}

	registry := colorspace.NewRegistry()
	for _, cs := range job.CustomColorSpaces {
		if _, err := registry.RegisterCustom(cs.Name, cs.Red, cs.Green, cs.Blue, cs.White); err != nil {
			return err
		}
	}

	walls := make([]*wall.Wall, 0, len(job.Walls))
	samples := make(map[string]wall.Samples, len(job.Walls))
	for _, jw := range job.Walls {
		w, s, err := prepareWall(jw, registry, verbose)
		if err != nil {
			return fmt.Errorf("wall %s: %w", jw.Name, err)
		}
		walls = append(walls, w)
		if s != nil {
			samples[jw.Name] = *s
		}
	}

	set, err := wall.NewSet(walls...)
	if err != nil {
		return err
	}

	processor := wall.NewProcessor(set, registry)
	results, err := processor.ProcessAll(samples)
	if err != nil {
		return err
	}

	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(os.Stderr, "ledcal: wall %s failed: %v\n", r.Wall, r.Err)
		} else if verbose {
			fmt.Fprintf(os.Stderr, "ledcal: wall %s calibrated\n", r.Wall)
		}
	}

	out, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return err
	}
	out = append(out, '\n')

	if outPath == "" {
		_, err = os.Stdout.Write(out)
		return err
	}
	return os.WriteFile(outPath, out, 0o644)
}

// prepareWall resolves one job entry into a wall plus its sample pair,
// sampling the plates when no inline samples are given.
func prepareWall(jw jobWall, registry *colorspace.Registry, verbose bool) (*wall.Wall, *wall.Samples, error) {
	var w *wall.Wall
	switch {
	case jw.Mirrors != "" && jw.Settings != nil:
		return nil, nil, fmt.Errorf("cannot both mirror %s and carry settings", jw.Mirrors)
	case jw.Mirrors != "":
		w = wall.NewMirror(jw.Name, jw.Mirrors)
	case jw.Settings != nil:
		w = wall.New(jw.Name, *jw.Settings)
	default:
		return nil, nil, fmt.Errorf("needs settings or a wall to mirror")
	}

	measured := jw.Measured
	if measured == nil && jw.Plates != nil {
		if jw.Settings == nil {
			return nil, nil, fmt.Errorf("plate sampling needs wall settings")
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "ledcal: sampling plates for wall %s from %s\n", jw.Name, jw.Plates.Dir)
		}
		var err error
		measured, err = samplePlates(jw.Plates, jw.Settings, registry)
		if err != nil {
			return nil, nil, err
		}
	}
	if measured == nil {
		// A wall without samples is configuration-only, e.g. a mirror
		// parent defined for a later run.
		return w, nil, nil
	}

	ref := jw.Reference
	if ref == nil {
		if jw.Settings == nil {
			return nil, nil, fmt.Errorf("reference generation needs wall settings")
		}
		var err error
		ref, err = patterns.ReferenceSamples(patterns.Config{
			Registry:            registry,
			TargetGamut:         jw.Settings.TargetGamut,
			TargetMaxLumNits:    jw.Settings.TargetMaxLumNits,
			NumGreyPatches:      jw.Settings.NumGreyPatches,
			PrimariesSaturation: jw.Settings.PrimariesSaturation,
		})
		if err != nil {
			return nil, nil, err
		}
	}
	return w, &wall.Samples{Measured: measured, Reference: ref}, nil
}

// samplePlates extracts a measured SampleSet from a recorded plate
// sequence.
func samplePlates(pj *plateJob, settings *wall.Settings, registry *colorspace.Registry) (*calibrate.SampleSet, error) {
	seq, err := sequence.Open(sequence.Config{
		Dir:             pj.Dir,
		PlateColorSpace: pj.PlateColorSpace,
		Registry:        registry,
	})
	if err != nil {
		return nil, err
	}

	s, err := sampler.New(sampler.Config{
		Sequence:       seq,
		Registry:       registry,
		ReferenceSpace: settings.InputPlateGamut,
		ROI:            pj.ROI,
		Workers:        pj.Workers,
	})
	if err != nil {
		return nil, err
	}

	sep := pj.Separation
	if sep.NumGreyPatches == 0 {
		sep.NumGreyPatches = settings.NumGreyPatches
	}

	grey, err := s.SamplePatch(sep, sampler.PatchGrey18Percent)
	if err != nil {
		return nil, err
	}
	maxWhite, err := s.SamplePatch(sep, sampler.PatchMaxWhite)
	if err != nil {
		return nil, err
	}

	var desaturated []mat3.Vec3
	for _, p := range []sampler.Patch{
		sampler.PatchRedPrimaryDesaturated,
		sampler.PatchGreenPrimaryDesaturated,
		sampler.PatchBluePrimaryDesaturated,
	} {
		r, err := s.SamplePatch(sep, p)
		if err != nil {
			return nil, err
		}
		desaturated = append(desaturated, r.Value)
	}

	ramp, err := s.SampleRamp(sep)
	if err != nil {
		return nil, err
	}
	rampValues := make([]mat3.Vec3, len(ramp))
	for i, r := range ramp {
		rampValues[i] = r.Value
	}

	chart, err := s.SampleMacbeth(sep, pj.ChartROI)
	if err != nil {
		return nil, err
	}

	saturation := settings.PrimariesSaturation
	if saturation == 0 {
		saturation = patterns.DefaultPrimariesSaturation
	}

	return &calibrate.SampleSet{
		Grey:                grey.Value,
		MaxWhite:            maxWhite.Value,
		DesaturatedRGB:      desaturated,
		PrimariesSaturation: saturation,
		EOTFRamp:            rampValues,
		EOTFRampSignal:      patterns.GreySignals(settings.TargetMaxLumNits, sep.NumGreyPatches),
		Macbeth:             chart.Swatches,
	}, nil
}
