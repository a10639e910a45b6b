package optim

import (
	"context"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/san-kum/fpfind/internal/rnn"
)

// NewtonConfig holds the options of the second-order strategy.
type NewtonConfig struct {
	MaxIters int
	GradTol  float64
	Workers  int
}

// Newton is the second-order strategy: one gonum modified-Newton
// minimization per initial condition, with the gradient supplied by the
// system and the Hessian approximated by central finite differences.
// Minimizations are independent and dispatched across a CPU-sized pool.
type Newton struct {
	cfg NewtonConfig
}

func NewNewton(cfg NewtonConfig) *Newton {
	if cfg.MaxIters <= 0 {
		cfg.MaxIters = 500
	}
	if cfg.GradTol <= 0 {
		cfg.GradTol = 1e-12
	}
	return &Newton{cfg: cfg}
}

// Minimize returns exactly one final state per initial condition, in input
// order. Per-point solver failures are absorbed: a run that does not
// converge contributes its best iterate (or the unmoved initial condition),
// whose high speed value is then filtered out downstream.
func (n *Newton) Minimize(ctx context.Context, systems []rnn.System, x0 []rnn.State) ([]rnn.State, error) {
	out := make([]rnn.State, len(x0))
	err := parallelFor(ctx, len(x0), n.cfg.Workers, func(i int) {
		out[i] = n.minimizeOne(systems[i], x0[i])
	})
	if err != nil {
		for i := range out {
			if out[i] == nil {
				out[i] = x0[i].Clone()
			}
		}
	}
	return out, err
}

func (n *Newton) minimizeOne(sys rnn.System, x0 rnn.State) rnn.State {
	speed := func(x []float64) float64 { return sys.Speed(rnn.State(x)) }

	problem := optimize.Problem{
		Func: speed,
		Grad: func(grad, x []float64) {
			copy(grad, sys.SpeedGrad(rnn.State(x)))
		},
		Hess: func(hess *mat.SymDense, x []float64) {
			fd.Hessian(hess, speed, x, nil)
		},
	}

	settings := &optimize.Settings{
		MajorIterations:   n.cfg.MaxIters,
		GradientThreshold: n.cfg.GradTol,
	}

	result, err := optimize.Minimize(problem, x0.Clone(), settings, &optimize.Newton{})
	if err != nil || result == nil || len(result.X) != len(x0) {
		if result != nil && len(result.X) == len(x0) {
			return rnn.State(result.X)
		}
		return x0.Clone()
	}
	return rnn.State(result.X)
}
