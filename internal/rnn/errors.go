package rnn

import "errors"

// Domain errors for weight validation and dynamics construction.
var (
	// ErrUnknownArchitecture indicates an architecture tag outside
	// {vanilla, gru, lstm}.
	ErrUnknownArchitecture = errors.New("rnn: unknown architecture")

	// ErrShapeMismatch indicates weight matrices whose dimensions do not
	// agree with each other or with the architecture's gate layout.
	ErrShapeMismatch = errors.New("rnn: weight shape mismatch")

	// ErrDimensionMismatch indicates a state or input vector of the wrong
	// length for the bound dynamical system.
	ErrDimensionMismatch = errors.New("rnn: dimension mismatch")
)
