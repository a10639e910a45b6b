package analysis

import (
	"errors"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/fpfind/internal/finder"
)

// ErrEigenFailed indicates the eigen-decomposition of a Jacobian did not
// converge.
var ErrEigenFailed = errors.New("analysis: eigen decomposition failed")

// ErrNoJacobian indicates a record whose Jacobian was never attached.
var ErrNoJacobian = errors.New("analysis: fixed point has no jacobian")

// Stability labels the local behavior of the dynamics around a fixed point.
type Stability int

const (
	Stable Stability = iota
	Unstable
	Saddle
	Center
)

func (s Stability) String() string {
	switch s {
	case Stable:
		return "stable"
	case Unstable:
		return "unstable"
	case Saddle:
		return "saddle"
	case Center:
		return "center"
	}
	return "unknown"
}

// Classification is the spectral summary of one linearized fixed point.
type Classification struct {
	Stability   Stability
	Eigenvalues []complex128
	Trace       float64
	Det         float64
}

// realTol separates genuinely zero real parts from numerical noise.
const realTol = 1e-9

// Classify labels a fixed point from the eigenvalues of its Jacobian: all
// negative real parts mean the point attracts, all positive mean it repels,
// a mix is a saddle, and purely imaginary spectra indicate rotation.
func Classify(jac mat.Matrix) (Classification, error) {
	var eig mat.Eigen
	if ok := eig.Factorize(jac, mat.EigenNone); !ok {
		return Classification{}, ErrEigenFailed
	}
	vals := eig.Values(nil)

	nPos, nNeg, nRot := 0, 0, 0
	for _, v := range vals {
		switch {
		case real(v) > realTol:
			nPos++
		case real(v) < -realTol:
			nNeg++
		case imag(v) > realTol || imag(v) < -realTol:
			nRot++
		}
	}

	var label Stability
	switch {
	case nPos > 0 && nNeg > 0:
		label = Saddle
	case nPos > 0:
		label = Unstable
	case nNeg > 0:
		label = Stable
	case nRot > 0:
		label = Center
	default:
		label = Stable
	}

	return Classification{
		Stability:   label,
		Eigenvalues: vals,
		Trace:       mat.Trace(jac),
		Det:         mat.Det(jac),
	}, nil
}

// ClassifyAll classifies every record in order.
func ClassifyAll(fps []finder.FixedPoint) ([]Classification, error) {
	out := make([]Classification, len(fps))
	for i, fp := range fps {
		if fp.Jacobian == nil {
			return nil, ErrNoJacobian
		}
		c, err := Classify(fp.Jacobian)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}
