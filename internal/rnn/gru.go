package rnn

import "math"

func sigmoid(x float64) float64 { return 1 / (1 + math.Exp(-x)) }

// gruSystem builds the dynamics of a GRU cell with gate blocks packed in
// Keras order (update z, reset r, candidate hh):
//
//	z  = sigmoid(h*U_z + u*W_z + b_z)
//	r  = sigmoid(h*U_r + u*W_r + b_r)
//	hh = tanh((r.h)*U_hh + u*W_hh + b_hh)
//	F  = (1 - z) . (hh - h)
//
// since the full update is h' = z.h + (1-z).hh.
func (w *WeightSet) gruSystem(input []float64) System {
	h := w.nHidden

	inPre := rightMul(w.win, input)
	for j := range inPre {
		inPre[j] += w.bias[j]
	}

	uz := w.wrec.Slice(0, h, 0, h)
	ur := w.wrec.Slice(0, h, h, 2*h)
	uh := w.wrec.Slice(0, h, 2*h, 3*h)

	f := func(x State) State {
		zPre := rightMul(uz, x)
		rPre := rightMul(ur, x)

		rh := make([]float64, h)
		for j := 0; j < h; j++ {
			r := sigmoid(rPre[j] + inPre[h+j])
			rh[j] = r * x[j]
		}
		hhPre := rightMul(uh, rh)

		out := make(State, h)
		for j := 0; j < h; j++ {
			z := sigmoid(zPre[j] + inPre[j])
			hh := math.Tanh(hhPre[j] + inPre[2*h+j])
			out[j] = (1 - z) * (hh - x[j])
		}
		return out
	}

	return System{Dim: h, F: f, J: fdJacobian(f, h)}
}
