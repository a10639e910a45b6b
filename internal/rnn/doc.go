// Package rnn turns trained recurrent-layer weights into autonomous
// dynamical systems suitable for fixed-point analysis.
//
// A [WeightSet] validates the Keras-layout weight matrices of a vanilla,
// GRU or LSTM cell and derives the hidden width from the recurrent
// matrix's gate packing. Binding a constant input vector yields a
// [System]: the one-step update residual F, its Jacobian, and the
// gradient of the speed objective q(x) = 0.5*||F(x)||^2.
//
//	ws, _ := rnn.NewWeightSet(rnn.Vanilla, win, wrec, bias)
//	sys, _ := ws.Bind(make([]float64, ws.NInput()))
//	q := sys.Speed(x)
//
// The vanilla cell carries a closed-form Jacobian; GRU and LSTM use
// deterministic central finite differences.
package rnn
