package sampler

import "fmt"

// SeparationQualityError reports that too few frame samples survived outlier
// rejection for a patch. It signals a capture problem on the recorded plate
// (genlock, multiplexing, motion); the sampler never retries, the operator
// has to re-record.
type SeparationQualityError struct {
	Patch  Patch
	Frames []int
}

func (e *SeparationQualityError) Error() string {
	return fmt.Sprintf("sampler: patch %q: insufficient consistent frame samples from candidate frames %v, check genlock and multiplexing on the recording",
		e.Patch, e.Frames)
}
