package analysis

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/fpfind/internal/finder"
	"github.com/san-kum/fpfind/internal/rnn"
)

func TestClassifyLabels(t *testing.T) {
	tests := []struct {
		name string
		data []float64
		want Stability
	}{
		{"attractor", []float64{-1, 0, 0, -1}, Stable},
		{"repeller", []float64{1, 0, 0, 2}, Unstable},
		{"saddle", []float64{1, 0, 0, -1}, Saddle},
		{"rotation", []float64{0, -1, 1, 0}, Center},
		{"spiral sink", []float64{-0.1, -1, 1, -0.1}, Stable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Classify(mat.NewDense(2, 2, tt.data))
			if err != nil {
				t.Fatalf("classify failed: %v", err)
			}
			if c.Stability != tt.want {
				t.Errorf("expected %s, got %s", tt.want, c.Stability)
			}
			if len(c.Eigenvalues) != 2 {
				t.Errorf("expected 2 eigenvalues, got %d", len(c.Eigenvalues))
			}
		})
	}
}

func TestClassifyTraceAndDeterminant(t *testing.T) {
	c, err := Classify(mat.NewDense(2, 2, []float64{-1, 0, 0, -2}))
	if err != nil {
		t.Fatalf("classify failed: %v", err)
	}
	if math.Abs(c.Trace-(-3)) > 1e-12 {
		t.Errorf("expected trace -3, got %v", c.Trace)
	}
	if math.Abs(c.Det-2) > 1e-12 {
		t.Errorf("expected det 2, got %v", c.Det)
	}
}

func TestClassifyRotationEigenvalues(t *testing.T) {
	c, err := Classify(mat.NewDense(2, 2, []float64{0, -1, 1, 0}))
	if err != nil {
		t.Fatalf("classify failed: %v", err)
	}
	for _, v := range c.Eigenvalues {
		if math.Abs(real(v)) > 1e-9 {
			t.Errorf("expected purely imaginary eigenvalue, got %v", v)
		}
		if math.Abs(math.Abs(imag(v))-1) > 1e-9 {
			t.Errorf("expected eigenvalue magnitude 1, got %v", v)
		}
	}
}

func TestClassifyAllRequiresJacobians(t *testing.T) {
	fps := []finder.FixedPoint{{Q: 0, X: rnn.State{0}}}
	if _, err := ClassifyAll(fps); !errors.Is(err, ErrNoJacobian) {
		t.Errorf("expected ErrNoJacobian, got %v", err)
	}
}

func TestClassifyAllOrder(t *testing.T) {
	fps := []finder.FixedPoint{
		{Jacobian: mat.NewDense(2, 2, []float64{-1, 0, 0, -1})},
		{Jacobian: mat.NewDense(2, 2, []float64{1, 0, 0, -1})},
	}
	classes, err := ClassifyAll(fps)
	if err != nil {
		t.Fatalf("classify failed: %v", err)
	}
	if classes[0].Stability != Stable || classes[1].Stability != Saddle {
		t.Errorf("classification order does not match input order: %v %v",
			classes[0].Stability, classes[1].Stability)
	}
}
