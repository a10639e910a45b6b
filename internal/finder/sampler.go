package finder

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/san-kum/fpfind/internal/rnn"
)

var (
	// ErrNegativeNoise indicates a negative Gaussian noise scale.
	ErrNegativeNoise = errors.New("finder: noise scale must be non-negative")

	// ErrEmptyPool indicates an activation pool with no states to draw from.
	ErrEmptyPool = errors.New("finder: empty activation pool")
)

// Sampler draws candidate initial conditions from a pool of recorded
// activations. It owns its random source: two Samplers constructed with the
// same seed produce identical draws, independently of each other and of any
// process-global randomness.
type Sampler struct {
	rng *rand.Rand
}

func NewSampler(seed int64) *Sampler {
	return &Sampler{rng: rand.New(rand.NewSource(seed))}
}

// FlattenEpisodes stacks time-major per-episode activation arrays into a
// single pool of state vectors.
func FlattenEpisodes(episodes [][][]float64) [][]float64 {
	total := 0
	for _, ep := range episodes {
		total += len(ep)
	}
	pool := make([][]float64, 0, total)
	for _, ep := range episodes {
		pool = append(pool, ep...)
	}
	return pool
}

// SampleStates draws nInits states uniformly at random with replacement
// from the pool, optionally perturbing each coordinate with i.i.d. zero-mean
// Gaussian noise of the given standard deviation.
func (s *Sampler) SampleStates(pool [][]float64, nInits int, noiseScale float64) ([]rnn.State, error) {
	if noiseScale < 0 {
		return nil, fmt.Errorf("%w, got %f", ErrNegativeNoise, noiseScale)
	}
	if len(pool) == 0 {
		return nil, ErrEmptyPool
	}

	states := make([]rnn.State, nInits)
	for i := 0; i < nInits; i++ {
		row := pool[s.rng.Intn(len(pool))]
		x := make(rnn.State, len(row))
		copy(x, row)
		if noiseScale > 0 {
			for j := range x {
				x[j] += noiseScale * s.rng.NormFloat64()
			}
		}
		states[i] = x
	}
	return states, nil
}
