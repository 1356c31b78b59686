package simulation

import (
	"math"
	"math/rand"
	"time"
)

// Sampler wraps a single seeded random stream. Every stochastic stage of the
// pipeline draws from one Sampler in a fixed order, so a fixed seed and
// population size reproduce the whole cohort. There is no package-level
// generator anywhere in this package.
type Sampler struct {
	rng *rand.Rand
}

// NewSampler returns a sampler seeded for reproducibility. If seed is 0 a
// time-based seed is chosen.
func NewSampler(seed int64) *Sampler {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Sampler{rng: rand.New(rand.NewSource(seed))}
}

// Float64 draws from U[0,1).
func (s *Sampler) Float64() float64 {
	return s.rng.Float64()
}

// Bernoulli draws a biased coin.
func (s *Sampler) Bernoulli(p float64) bool {
	return s.rng.Float64() < p
}

// Normal draws from N(mean, sd).
func (s *Sampler) Normal(mean, sd float64) float64 {
	return mean + sd*s.rng.NormFloat64()
}

// TruncNormal draws from N(mean, sd) clamped to b (truncation by clamping,
// not resampling, so one draw is consumed per call).
func (s *Sampler) TruncNormal(mean, sd float64, b Bounds) float64 {
	return b.Clamp(s.Normal(mean, sd))
}

// LogNormal draws exp(N(mu, sigma)).
func (s *Sampler) LogNormal(mu, sigma float64) float64 {
	return math.Exp(s.Normal(mu, sigma))
}

// Uniform draws from U[low, high).
func (s *Sampler) Uniform(low, high float64) float64 {
	return low + (high-low)*s.rng.Float64()
}

// IntBetween draws a uniform integer in [low, high] inclusive.
func (s *Sampler) IntBetween(low, high int) int {
	return low + s.rng.Intn(high-low+1)
}

// DoseLevel draws a categorical dose level 1..4 with the given weights.
// Weights are assumed to sum to 1 (enforced by SimulatorConfig.Validate);
// the last level absorbs rounding slack.
func (s *Sampler) DoseLevel(probs [4]float64) int {
	u := s.rng.Float64()
	var cum float64
	for i, p := range probs {
		cum += p
		if u < cum {
			return i + 1
		}
	}
	return len(probs)
}
