package selection

import (
	"errors"
	"math/rand"
)

// Policy turns percentile ranks into per-example keep/drop decisions.
type Policy struct {
	threshold float64
	rng       *rand.Rand
}

// NewPolicy configures the decision policy. threshold is an absolute-loss
// override: any example whose raw loss exceeds it is kept regardless of the
// probabilistic draw. Zero disables the override. A nil rng gets a seeded
// fallback.
func NewPolicy(threshold float64, rng *rand.Rand) (*Policy, error) {
	if threshold < 0 {
		return nil, errors.New("loss threshold must be positive, or zero to disable")
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &Policy{threshold: threshold, rng: rng}, nil
}

// Probabilities squares each percentile rank, suppressing low-percentile
// examples super-linearly while keeping high-percentile examples
// near-certain.
func Probabilities(ranks []float64) []float64 {
	probs := make([]float64, len(ranks))
	for i, r := range ranks {
		probs[i] = r * r
	}
	return probs
}

// Mask draws one independent uniform sample per example and keeps those
// whose probability beats the draw. The threshold override is OR'd on top:
// it never deselects an example the draw already kept.
func (p *Policy) Mask(probs, losses []float64) []bool {
	mask := make([]bool, len(probs))
	for i, prob := range probs {
		mask[i] = prob > p.rng.Float64()
		if p.threshold > 0 && losses[i] > p.threshold {
			mask[i] = true
		}
	}
	return mask
}
