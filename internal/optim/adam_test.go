package optim

import (
	"context"
	"math"
	"testing"

	"github.com/san-kum/fpfind/internal/rnn"
)

func zeros(r, c int) [][]float64 {
	m := make([][]float64, r)
	for i := range m {
		m[i] = make([]float64, c)
	}
	return m
}

// decaySystems builds n copies of the degenerate vanilla cell F(x) = -x,
// whose only fixed point is the origin.
func decaySystems(t *testing.T, dim, n int) []rnn.System {
	t.Helper()
	ws, err := rnn.NewWeightSet(rnn.Vanilla, zeros(1, dim), zeros(dim, dim), make([]float64, dim))
	if err != nil {
		t.Fatalf("weights: %v", err)
	}
	systems := make([]rnn.System, n)
	for i := range systems {
		sys, err := ws.Bind([]float64{0})
		if err != nil {
			t.Fatalf("bind: %v", err)
		}
		systems[i] = sys
	}
	return systems
}

func testAdamConfig(mode Mode) AdamConfig {
	return AdamConfig{
		LearningRate: 0.05,
		LRDecay:      0.02,
		NormClip:     1.0,
		ClipDecay:    1e-3,
		MaxIters:     500,
		Mode:         mode,
	}
}

func TestAdamJointConvergesToOrigin(t *testing.T) {
	systems := decaySystems(t, 2, 3)
	x0 := []rnn.State{{1.0, -0.5}, {0.3, 0.8}, {-0.9, -0.9}}

	finals, err := NewAdam(testAdamConfig(Joint)).Minimize(context.Background(), systems, x0, nil)
	if err != nil {
		t.Fatalf("minimize failed: %v", err)
	}
	if len(finals) != len(x0) {
		t.Fatalf("expected %d results, got %d", len(x0), len(finals))
	}

	for i, x := range finals {
		if x.Norm() > 1e-3 {
			t.Errorf("run %d ended at %v, expected near origin", i, x)
		}
	}
}

func TestAdamSequentialMatchesContract(t *testing.T) {
	n := 8
	systems := decaySystems(t, 3, n)
	x0 := make([]rnn.State, n)
	for i := range x0 {
		x0[i] = rnn.State{float64(i) * 0.1, -0.2, 0.3}
	}

	finals, err := NewAdam(testAdamConfig(Sequential)).Minimize(context.Background(), systems, x0, nil)
	if err != nil {
		t.Fatalf("minimize failed: %v", err)
	}
	if len(finals) != n {
		t.Fatalf("expected %d results, got %d", n, len(finals))
	}
	for i, x := range finals {
		if x == nil {
			t.Fatalf("result %d missing", i)
		}
		if x.Norm() > 1e-3 {
			t.Errorf("run %d ended at %v, expected near origin", i, x)
		}
	}
}

func TestAdamDoesNotMutateInitialConditions(t *testing.T) {
	systems := decaySystems(t, 2, 1)
	x0 := []rnn.State{{0.7, 0.7}}

	_, err := NewAdam(testAdamConfig(Joint)).Minimize(context.Background(), systems, x0, nil)
	if err != nil {
		t.Fatalf("minimize failed: %v", err)
	}
	if x0[0][0] != 0.7 || x0[0][1] != 0.7 {
		t.Errorf("initial condition mutated: %v", x0[0])
	}
}

func TestAdamProgressEmitted(t *testing.T) {
	systems := decaySystems(t, 2, 2)
	x0 := []rnn.State{{0.5, 0.5}, {-0.5, 0.5}}

	cfg := testAdamConfig(Joint)
	cfg.MaxIters = 100
	cfg.PrintEvery = 25

	var seen []Progress
	_, err := NewAdam(cfg).Minimize(context.Background(), systems, x0, func(p Progress) {
		seen = append(seen, p)
	})
	if err != nil {
		t.Fatalf("minimize failed: %v", err)
	}

	if len(seen) != 4 {
		t.Fatalf("expected 4 progress reports, got %d", len(seen))
	}
	if seen[0].Iter != 25 || seen[3].Iter != 100 {
		t.Errorf("unexpected iterations: first %d last %d", seen[0].Iter, seen[3].Iter)
	}
	if seen[3].Q > seen[0].Q {
		t.Errorf("mean q increased: %v -> %v", seen[0].Q, seen[3].Q)
	}
}

func TestAdamCanceledContextStillReturnsAllRecords(t *testing.T) {
	systems := decaySystems(t, 2, 4)
	x0 := []rnn.State{{1, 1}, {1, 1}, {1, 1}, {1, 1}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	finals, err := NewAdam(testAdamConfig(Sequential)).Minimize(ctx, systems, x0, nil)
	if err == nil {
		t.Fatal("expected context error")
	}
	if len(finals) != len(x0) {
		t.Fatalf("expected %d results even when canceled, got %d", len(x0), len(finals))
	}
	for i, x := range finals {
		if x == nil {
			t.Errorf("result %d missing", i)
		}
	}
}

func TestClipVec(t *testing.T) {
	g := rnn.State{3, 4} // norm 5
	clipVec(g, 1)
	if math.Abs(g.Norm()-1) > 1e-12 {
		t.Errorf("expected clipped norm 1, got %v", g.Norm())
	}

	h := rnn.State{0.3, 0.4}
	clipVec(h, 1)
	if h[0] != 0.3 || h[1] != 0.4 {
		t.Error("gradient below clip must pass through unchanged")
	}
}

func TestLearningRateDecaysGeometrically(t *testing.T) {
	a := NewAdam(AdamConfig{LearningRate: 0.1, LRDecay: 0.01, MaxIters: 10})
	lr1, lr2 := a.lrAt(1), a.lrAt(2)
	if math.Abs(lr2/lr1-0.99) > 1e-12 {
		t.Errorf("expected geometric ratio 0.99, got %v", lr2/lr1)
	}
}
