package rnn

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// vanillaSystem builds the dynamics of a simple tanh cell:
//
//	F(h) = -h + tanh(h*W_rec + u*W_in + b)
//
// The Jacobian has the closed form -I + diag(1 - tanh^2(a)) * W_rec^T.
func (w *WeightSet) vanillaSystem(input []float64) System {
	h := w.nHidden
	inPre := rightMul(w.win, input)
	for j := range inPre {
		inPre[j] += w.bias[j]
	}

	preact := func(x State) []float64 {
		a := rightMul(w.wrec, x)
		for j := range a {
			a[j] += inPre[j]
		}
		return a
	}

	f := func(x State) State {
		a := preact(x)
		out := make(State, h)
		for j := 0; j < h; j++ {
			out[j] = -x[j] + math.Tanh(a[j])
		}
		return out
	}

	jac := func(x State) *mat.Dense {
		a := preact(x)
		dst := mat.NewDense(h, h, nil)
		for j := 0; j < h; j++ {
			t := math.Tanh(a[j])
			dt := 1 - t*t
			for i := 0; i < h; i++ {
				v := dt * w.wrec.At(i, j)
				if i == j {
					v -= 1
				}
				dst.Set(j, i, v)
			}
		}
		return dst
	}

	grad := func(x State) State {
		// grad q = J(x)^T F(x)
		j := jac(x)
		fv := f(x)
		g := mat.NewVecDense(h, nil)
		g.MulVec(j.T(), mat.NewVecDense(h, fv))
		return State(g.RawVector().Data)
	}

	return System{Dim: h, F: f, J: jac, grad: grad}
}
