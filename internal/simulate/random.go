package simulate

import (
	"errors"
	"math/rand/v2"
)

// RandomSource draws monthly market returns.
type RandomSource interface {
	Normal(mean, stddev float64) (float64, error)
}

// NormalSource samples from a PCG generator.
type NormalSource struct {
	rng *rand.Rand
}

// NewNormalSource returns a source seeded with seed. Equal seeds produce
// equal sequences.
func NewNormalSource(seed uint64) *NormalSource {
	return &NormalSource{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// NewRandomSource returns a source with an unpredictable seed.
func NewRandomSource() *NormalSource {
	return NewNormalSource(rand.Uint64())
}

// Normal returns mean + stddev*Z for a standard normal Z.
func (s *NormalSource) Normal(mean, stddev float64) (float64, error) {
	return mean + stddev*s.rng.NormFloat64(), nil
}

// FixedSource returns the same rate on every draw, ignoring the distribution.
type FixedSource float64

// Normal returns the fixed rate.
func (f FixedSource) Normal(_, _ float64) (float64, error) {
	return float64(f), nil
}

// ErrSequenceExhausted is returned by SequenceSource after its last value.
var ErrSequenceExhausted = errors.New("random sequence exhausted")

// SequenceSource replays a fixed list of rates in order.
type SequenceSource struct {
	rates []float64
	next  int
}

// NewSequenceSource returns a source replaying rates.
func NewSequenceSource(rates ...float64) *SequenceSource {
	return &SequenceSource{rates: rates}
}

// Normal returns the next rate in the sequence.
func (s *SequenceSource) Normal(_, _ float64) (float64, error) {
	if s.next >= len(s.rates) {
		return 0, ErrSequenceExhausted
	}
	r := s.rates[s.next]
	s.next++
	return r, nil
}
