package finder

import (
	"context"
	"errors"
	"fmt"

	"github.com/san-kum/fpfind/internal/optim"
	"github.com/san-kum/fpfind/internal/rnn"
)

// ErrUnknownAlgorithm indicates an optimization-method name outside the
// recognized set.
var ErrUnknownAlgorithm = errors.New("finder: unknown algorithm")

// ErrBatchMismatch indicates initial states and inputs of different counts.
var ErrBatchMismatch = errors.New("finder: initial states and inputs must have equal length")

// Algorithm selects the minimization strategy.
type Algorithm int

const (
	AlgoAdam Algorithm = iota
	AlgoNewton
)

func ParseAlgorithm(s string) (Algorithm, error) {
	switch s {
	case "adam":
		return AlgoAdam, nil
	case "newton":
		return AlgoNewton, nil
	default:
		return 0, fmt.Errorf("%w: %q (must be one of adam, newton)", ErrUnknownAlgorithm, s)
	}
}

func (a Algorithm) String() string {
	if a == AlgoNewton {
		return "newton"
	}
	return "adam"
}

// Options configure a Finder. Zero values fall back to the defaults of the
// 3-bit flip-flop task the toolkit was originally tuned on.
type Options struct {
	QThreshold float64
	UniqueTol  float64
	Algorithm  Algorithm
	Seed       int64
	Verbose    bool

	Adam   optim.AdamConfig
	Newton optim.NewtonConfig

	// Progress receives periodic optimizer diagnostics; may be nil.
	Progress optim.ProgressFunc
}

// DefaultOptions returns the stock hyperparameters: adam in joint mode,
// q threshold 1e-12, distance tolerance 1e-3.
func DefaultOptions() Options {
	return Options{
		QThreshold: 1e-12,
		UniqueTol:  1e-3,
		Algorithm:  AlgoAdam,
		Adam: optim.AdamConfig{
			LearningRate: 1e-3,
			LRDecay:      1e-4,
			NormClip:     1.0,
			ClipDecay:    1e-3,
			MaxIters:     5000,
			PrintEvery:   200,
			Mode:         optim.Joint,
		},
		Newton: optim.NewtonConfig{
			MaxIters: 500,
			GradTol:  1e-12,
		},
	}
}

// Finder locates approximate fixed points of a trained recurrent layer by
// minimizing the speed objective from many sampled initial conditions, then
// filtering, deduplicating and linearizing the survivors.
type Finder struct {
	weights *rnn.WeightSet
	opts    Options
	sampler *Sampler
}

func New(weights *rnn.WeightSet, opts Options) *Finder {
	if opts.QThreshold == 0 {
		opts.QThreshold = 1e-12
	}
	if opts.UniqueTol == 0 {
		opts.UniqueTol = 1e-3
	}
	f := &Finder{
		weights: weights,
		opts:    opts,
		sampler: NewSampler(opts.Seed),
	}
	if opts.Verbose {
		printBanner(weights, opts)
	}
	return f
}

func (f *Finder) Weights() *rnn.WeightSet { return f.weights }
func (f *Finder) Options() Options        { return f.opts }

// SampleStates draws initial conditions from recorded activations using the
// finder's seeded sampler.
func (f *Finder) SampleStates(pool [][]float64, nInits int, noiseScale float64) ([]rnn.State, error) {
	return f.sampler.SampleStates(pool, nInits, noiseScale)
}

// FindFixedPoints minimizes from every initial condition and returns the
// unique surviving fixed points with Jacobians attached. The optimization
// stage yields exactly one raw record per initial condition; filtering and
// deduplication only ever shrink that set.
func (f *Finder) FindFixedPoints(ctx context.Context, states []rnn.State, inputs [][]float64) ([]FixedPoint, error) {
	raw, err := f.optimize(ctx, states, inputs)
	if err != nil {
		return nil, err
	}

	good, bad := partition(raw, f.opts.QThreshold)
	if f.opts.Verbose {
		printPartition(len(raw), len(good), len(bad))
	}

	unique := dedupe(good, f.opts.UniqueTol)
	return attachJacobians(f.weights, unique)
}

// optimize runs the configured strategy and assembles the raw records in
// input order.
func (f *Finder) optimize(ctx context.Context, states []rnn.State, inputs [][]float64) ([]FixedPoint, error) {
	if len(states) != len(inputs) {
		return nil, fmt.Errorf("%w: %d states, %d inputs", ErrBatchMismatch, len(states), len(inputs))
	}

	systems, err := f.weights.BindBatch(inputs)
	if err != nil {
		return nil, err
	}

	var finals []rnn.State
	switch f.opts.Algorithm {
	case AlgoNewton:
		finals, err = optim.NewNewton(f.opts.Newton).Minimize(ctx, systems, states)
	default:
		finals, err = optim.NewAdam(f.opts.Adam).Minimize(ctx, systems, states, f.opts.Progress)
	}
	if err != nil {
		return nil, err
	}

	records := make([]FixedPoint, len(states))
	for i, x := range finals {
		records[i] = FixedPoint{
			Q:     systems[i].Speed(x),
			X:     x,
			X0:    states[i].Clone(),
			Input: append([]float64(nil), inputs[i]...),
		}
	}
	return records, nil
}

// Velocities evaluates the residual and its speed at every recorded
// activation, row i bound to inputs row i. Useful for locating slow regions
// of the recorded dynamics before any search.
func (f *Finder) Velocities(activations, inputs [][]float64) ([]rnn.State, []float64, error) {
	if len(activations) != len(inputs) {
		return nil, nil, fmt.Errorf("%w: %d activations, %d inputs", ErrBatchMismatch, len(activations), len(inputs))
	}

	vels := make([]rnn.State, len(activations))
	speeds := make([]float64, len(activations))
	for i, a := range activations {
		sys, err := f.weights.Bind(inputs[i])
		if err != nil {
			return nil, nil, err
		}
		vels[i] = sys.F(rnn.State(a))
		speeds[i] = sys.Speed(rnn.State(a))
	}
	return vels, speeds, nil
}
