package rnn

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Architecture identifies the recurrent cell type. It is a closed set; any
// string-to-Architecture conversion happens once at the configuration
// boundary via ParseArchitecture.
type Architecture int

const (
	Vanilla Architecture = iota
	GRU
	LSTM
)

// ParseArchitecture converts a config/CLI tag into an Architecture.
func ParseArchitecture(s string) (Architecture, error) {
	switch s {
	case "vanilla":
		return Vanilla, nil
	case "gru":
		return GRU, nil
	case "lstm":
		return LSTM, nil
	default:
		return 0, fmt.Errorf("%w: %q (must be one of vanilla, gru, lstm)", ErrUnknownArchitecture, s)
	}
}

func (a Architecture) String() string {
	switch a {
	case Vanilla:
		return "vanilla"
	case GRU:
		return "gru"
	case LSTM:
		return "lstm"
	}
	return fmt.Sprintf("architecture(%d)", int(a))
}

// gates returns the number of gate blocks packed into the recurrent weight
// matrix: 1 for vanilla, 3 for GRU (update, reset, candidate), 4 for LSTM
// (input, forget, cell, output).
func (a Architecture) gates() int {
	switch a {
	case GRU:
		return 3
	case LSTM:
		return 4
	default:
		return 1
	}
}

// StateDim is the length of a state vector for a layer with nHidden units.
// LSTM states carry both hidden and cell components.
func (a Architecture) StateDim(nHidden int) int {
	if a == LSTM {
		return 2 * nHidden
	}
	return nHidden
}

// WeightSet holds the trained recurrent layer's parameters in Keras layout:
// states are row vectors, so the input weights are [nInput x gates*H], the
// recurrent weights [H x gates*H] and the bias [gates*H]. A WeightSet is
// immutable after construction.
type WeightSet struct {
	arch    Architecture
	win     *mat.Dense
	wrec    *mat.Dense
	bias    []float64
	nHidden int
	nInput  int
}

// NewWeightSet validates the weight shapes against the architecture's gate
// layout and derives the hidden width. The recurrent matrix's column count
// must divide exactly by the gate multiplier.
func NewWeightSet(arch Architecture, win, wrec [][]float64, bias []float64) (*WeightSet, error) {
	switch arch {
	case Vanilla, GRU, LSTM:
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownArchitecture, int(arch))
	}

	if len(win) == 0 || len(wrec) == 0 {
		return nil, fmt.Errorf("%w: empty weight matrix", ErrShapeMismatch)
	}

	cols := len(wrec[0])
	g := arch.gates()
	if cols%g != 0 {
		return nil, fmt.Errorf("%w: recurrent width %d not divisible by gate count %d for %s",
			ErrShapeMismatch, cols, g, arch)
	}
	nHidden := cols / g

	if len(wrec) != nHidden {
		return nil, fmt.Errorf("%w: recurrent matrix is %dx%d, want %dx%d",
			ErrShapeMismatch, len(wrec), cols, nHidden, cols)
	}
	if len(win[0]) != cols {
		return nil, fmt.Errorf("%w: input matrix has %d columns, recurrent has %d",
			ErrShapeMismatch, len(win[0]), cols)
	}
	if len(bias) != cols {
		return nil, fmt.Errorf("%w: bias has length %d, want %d", ErrShapeMismatch, len(bias), cols)
	}

	b := make([]float64, len(bias))
	copy(b, bias)

	return &WeightSet{
		arch:    arch,
		win:     denseFromRows(win),
		wrec:    denseFromRows(wrec),
		bias:    b,
		nHidden: nHidden,
		nInput:  len(win),
	}, nil
}

func (w *WeightSet) Architecture() Architecture { return w.arch }
func (w *WeightSet) NHidden() int               { return w.nHidden }
func (w *WeightSet) NInput() int                { return w.nInput }

// StateDim is the dimensionality of the system's state vectors.
func (w *WeightSet) StateDim() int { return w.arch.StateDim(w.nHidden) }

func denseFromRows(rows [][]float64) *mat.Dense {
	r, c := len(rows), len(rows[0])
	d := mat.NewDense(r, c, nil)
	for i, row := range rows {
		d.SetRow(i, row)
	}
	return d
}

// rightMul computes the row-vector product v*W.
func rightMul(w mat.Matrix, v []float64) []float64 {
	_, c := w.Dims()
	out := mat.NewVecDense(c, nil)
	out.MulVec(w.T(), mat.NewVecDense(len(v), v))
	return out.RawVector().Data
}
