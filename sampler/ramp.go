package sampler

// SampleRamp samples the grey ramp: NumGreyPatches steps from black to peak
// plus the black floor, each occupying one separation length after the
// ramp's first patch. Steps are sampled concurrently on a bounded pool; the
// result slice is index-addressed so completion order never reorders steps.
// Any step failure fails the whole ramp, partial ramps are not returned.
func (s *Sampler) SampleRamp(sep Separation) ([]SampleResult, error) {
	base, err := sep.Interval(PatchEOTFRamps)
	if err != nil {
		return nil, err
	}

	steps := sep.NumGreyPatches + 1
	results := make([]SampleResult, steps)

	p := newPool(s.workers)
	for i := 0; i < steps; i++ {
		i := i
		iv := Interval{
			First: base.First + i*sep.Frames,
			Last:  base.First + i*sep.Frames + sep.Frames - 1,
		}
		p.submit(func() error {
			res, err := s.sampleInterval(iv, PatchEOTFRamps)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := p.wait(); err != nil {
		return nil, err
	}
	return results, nil
}
