// Package finder implements the fixed-point search pipeline for trained
// recurrent layers: sampling initial conditions from recorded activations,
// driving many independent or jointly-batched minimizations of the speed
// objective, and post-processing the candidates into a deduplicated set of
// fixed points with local linearizations attached.
//
//	ws, _ := rnn.NewWeightSet(rnn.GRU, win, wrec, bias)
//	f := finder.New(ws, finder.DefaultOptions())
//	states, _ := f.SampleStates(activations, 1000, 0.5)
//	fps, _ := f.FindFixedPoints(ctx, states, inputs)
//
// An empty result is a valid outcome: it means no sampled trajectory region
// settles below the speed threshold for this system.
package finder
