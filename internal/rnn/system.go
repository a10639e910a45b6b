package rnn

import (
	"fmt"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
)

// VectorField evaluates the one-step update residual F at a state. A fixed
// point of the recurrence satisfies F(x) = 0.
type VectorField func(x State) State

// JacobianField evaluates the Jacobian of F at a state, as a Dim x Dim
// matrix with row j holding the partials of F_j.
type JacobianField func(x State) *mat.Dense

// System is the dynamical system induced by a WeightSet with the layer input
// held constant. It bundles the residual F, its Jacobian and the gradient of
// the speed objective q(x) = 0.5*||F(x)||^2.
type System struct {
	Dim int
	F   VectorField
	J   JacobianField

	grad func(State) State
}

// Speed is the scalar objective minimized during the fixed-point search.
func (s System) Speed(x State) float64 {
	f := s.F(x)
	sum := 0.0
	for _, v := range f {
		sum += v * v
	}
	return 0.5 * sum
}

// SpeedGrad is the gradient of Speed at x. Architectures with a closed-form
// Jacobian use J(x)^T F(x); the gated cells fall back to deterministic
// central differences.
func (s System) SpeedGrad(x State) State {
	if s.grad != nil {
		return s.grad(x)
	}
	g := make([]float64, len(x))
	fd.Gradient(g, func(v []float64) float64 { return s.Speed(State(v)) }, x, centralSettings())
	return State(g)
}

func centralSettings() *fd.Settings {
	return &fd.Settings{Formula: fd.Central}
}

// fdJacobian builds a finite-difference JacobianField for architectures
// without a closed form. The central formula keeps results deterministic for
// a fixed input.
func fdJacobian(f VectorField, dim int) JacobianField {
	return func(x State) *mat.Dense {
		dst := mat.NewDense(dim, dim, nil)
		fd.Jacobian(dst, func(y, v []float64) {
			copy(y, f(State(v)))
		}, x, &fd.JacobianSettings{Formula: fd.Central})
		return dst
	}
}

// Bind constructs the dynamical system for one constant input vector.
func (w *WeightSet) Bind(input []float64) (System, error) {
	if len(input) != w.nInput {
		return System{}, fmt.Errorf("%w: input has length %d, layer expects %d",
			ErrDimensionMismatch, len(input), w.nInput)
	}
	switch w.arch {
	case GRU:
		return w.gruSystem(input), nil
	case LSTM:
		return w.lstmSystem(input), nil
	default:
		return w.vanillaSystem(input), nil
	}
}

// BindBatch binds one system per input row, for jointly optimizing a batch
// of initial conditions whose inputs may differ per point.
func (w *WeightSet) BindBatch(inputs [][]float64) ([]System, error) {
	systems := make([]System, len(inputs))
	for i, u := range inputs {
		sys, err := w.Bind(u)
		if err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
		systems[i] = sys
	}
	return systems, nil
}
