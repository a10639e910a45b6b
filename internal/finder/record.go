package finder

import (
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/fpfind/internal/rnn"
)

// FixedPoint is one candidate solution of the fixed-point search. Raw
// records carry the converged location, its speed and the provenance of the
// run (initial state and the constant input bound during minimization); the
// Jacobian is attached only to records that survive filtering and
// deduplication, by constructing a new fully-populated record.
type FixedPoint struct {
	// Q is the speed objective 0.5*||F(x)||^2 at X.
	Q float64
	// X is the state at convergence.
	X rnn.State
	// X0 is the initial condition the run started from.
	X0 rnn.State
	// Input is the layer input held constant during the run.
	Input []float64
	// Jacobian of F at X; nil until the post-processing stage.
	Jacobian *mat.Dense
}

// withJacobian returns a copy of the record with the Jacobian populated.
func (p FixedPoint) withJacobian(j *mat.Dense) FixedPoint {
	p.Jacobian = j
	return p
}
