// Package optim provides the minimization strategies of the fixed-point
// search: a first-order adaptive-moment optimizer with decaying learning
// rate and gradient-norm clip ([Adam]), and a second-order modified-Newton
// strategy backed by gonum/optimize ([Newton]).
//
// Both strategies honor the same contract: given one bound dynamical system
// and one initial condition per batch entry, they return exactly one final
// state per entry, in dispatch order. Numerical non-convergence of an
// individual run is never an error; it surfaces only as a high residual
// speed at the returned state.
package optim
