package wall

import (
	"github.com/mrjoshuak/go-ledcal/calibrate"
	"github.com/mrjoshuak/go-ledcal/colorspace"
	"github.com/mrjoshuak/go-ledcal/validate"
)

// Samples pairs the measured and reference sample sets for one wall.
type Samples struct {
	Measured  *calibrate.SampleSet `json:"measured"`
	Reference *calibrate.SampleSet `json:"reference"`
}

// Results holds the outcome of one wall's processing: the analysis pass
// with correction disabled, its validation checks, and the full
// calibration pass.
type Results struct {
	Wall           string            `json:"wall"`
	PreCalibration *calibrate.Result `json:"pre_calibration"`
	Checks         []validate.Check  `json:"checks"`
	Calibration    *calibrate.Result `json:"calibration"`
	Err            error             `json:"-"`
}

// Processor runs walls in dependency order against a shared registry.
type Processor struct {
	set      *Set
	registry *colorspace.Registry
	results  map[string]*Results
}

// NewProcessor creates a processor over the given wall set.
func NewProcessor(set *Set, registry *colorspace.Registry) *Processor {
	return &Processor{
		set:      set,
		registry: registry,
		results:  make(map[string]*Results),
	}
}

// ProcessAll runs every wall that has samples, in dependency order. A
// failed wall records its error and does not abort sibling walls, but any
// wall depending on it fails with a DependencyError.
func (p *Processor) ProcessAll(samples map[string]Samples) ([]*Results, error) {
	order, err := p.set.ProcessOrder()
	if err != nil {
		return nil, err
	}

	var all []*Results
	for _, name := range order {
		in, ok := samples[name]
		if !ok {
			continue
		}
		res := p.process(name, in)
		p.results[name] = res
		all = append(all, res)
	}
	return all, nil
}

// Results returns the recorded outcome for a wall, if it has been
// processed.
func (p *Processor) Results(name string) (*Results, bool) {
	r, ok := p.results[name]
	return r, ok
}

// process runs both calibration passes for one wall. The analysis pass
// disables gamut compression and EOTF correction so the validation checks
// see the wall's raw behaviour; the calibration pass uses the wall's full
// configuration. Both passes share the reference wall's white balance
// matrix when one is configured.
func (p *Processor) process(name string, in Samples) *Results {
	res := &Results{Wall: name}

	settings, err := p.set.Settings(name)
	if err != nil {
		res.Err = err
		return res
	}

	cfg := calibrate.Config{
		Registry:                      p.registry,
		InputPlateGamut:               settings.InputPlateGamut,
		NativeCameraGamut:             settings.NativeCameraGamut,
		TargetGamut:                   settings.TargetGamut,
		TargetToScreenCAT:             settings.TargetToScreenCAT,
		ReferenceToTargetCAT:          settings.ReferenceToTargetCAT,
		TargetMaxLumNits:              settings.TargetMaxLumNits,
		TargetEOTF:                    settings.TargetEOTF,
		EnablePlateWhiteBalance:       settings.AutoWhiteBalance,
		GamutCompressionShadowRolloff: settings.ShadowRolloff,
		DecoupledLensWhite:            settings.ExternalWhitePoint,
		AvoidClipping:                 settings.AvoidClipping,
	}

	if settings.MatchReferenceWall != "" {
		ref, ok := p.results[settings.MatchReferenceWall]
		if !ok || ref.Err != nil || ref.PreCalibration == nil {
			res.Err = &DependencyError{
				Wall:      name,
				DependsOn: settings.MatchReferenceWall,
				Reason:    "reference wall has not been analysed",
			}
			return res
		}
		wb := ref.PreCalibration.WhiteBalanceMatrix
		cfg.ReferenceWallWhiteBalance = &wb
		cfg.EnablePlateWhiteBalance = false
	}

	// Analysis pass: correction off, fixed order.
	analysisCfg := cfg
	analysisCfg.EnableGamutCompression = false
	analysisCfg.EnableEOTFCorrection = false
	analysisCfg.CalculationOrder = calibrate.OrderCSEOTF

	res.PreCalibration, err = calibrate.Run(in.Measured, in.Reference, analysisCfg)
	if err != nil {
		res.Err = err
		return res
	}
	res.Checks = validate.Run(res.PreCalibration)

	// Calibration pass with the wall's full configuration, reusing the
	// calibration-pass white balance from the reference wall when
	// matching.
	calCfg := cfg
	calCfg.EnableGamutCompression = settings.EnableGamutCompression
	calCfg.EnableEOTFCorrection = settings.EnableEOTFCorrection
	calCfg.CalculationOrder = settings.CalculationOrder

	if settings.MatchReferenceWall != "" {
		if ref := p.results[settings.MatchReferenceWall]; ref != nil && ref.Calibration != nil {
			wb := ref.Calibration.WhiteBalanceMatrix
			calCfg.ReferenceWallWhiteBalance = &wb
		}
	}

	res.Calibration, err = calibrate.Run(in.Measured, in.Reference, calCfg)
	if err != nil {
		res.Err = err
	}
	return res
}
