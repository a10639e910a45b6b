package rnn

import "math"

// lstmSystem builds the dynamics of an LSTM cell over the concatenated
// (h, c) state, with gate blocks in Keras order (input i, forget f, cell g,
// output o):
//
//	i  = sigmoid(h*U_i + u*W_i + b_i)
//	f  = sigmoid(h*U_f + u*W_f + b_f)
//	g  = tanh(h*U_g + u*W_g + b_g)
//	o  = sigmoid(h*U_o + u*W_o + b_o)
//	c' = f.c + i.g
//	h' = o.tanh(c')
//	F  = (h' - h) ++ (c' - c)
func (w *WeightSet) lstmSystem(input []float64) System {
	h := w.nHidden
	dim := 2 * h

	inPre := rightMul(w.win, input)
	for j := range inPre {
		inPre[j] += w.bias[j]
	}

	f := func(x State) State {
		hs, cs := x[:h], x[h:]
		pre := rightMul(w.wrec, hs)
		for j := range pre {
			pre[j] += inPre[j]
		}

		out := make(State, dim)
		for j := 0; j < h; j++ {
			gi := sigmoid(pre[j])
			gf := sigmoid(pre[h+j])
			gg := math.Tanh(pre[2*h+j])
			go_ := sigmoid(pre[3*h+j])

			cNew := gf*cs[j] + gi*gg
			hNew := go_ * math.Tanh(cNew)

			out[j] = hNew - hs[j]
			out[h+j] = cNew - cs[j]
		}
		return out
	}

	return System{Dim: dim, F: f, J: fdJacobian(f, dim)}
}

// SplitState separates an LSTM state vector into hidden and cell halves.
// For other architectures the cell half is nil.
func (w *WeightSet) SplitState(x State) (hidden, cell State) {
	if w.arch != LSTM {
		return x, nil
	}
	return x[:w.nHidden], x[w.nHidden:]
}
