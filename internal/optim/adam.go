package optim

import (
	"context"
	"math"

	"github.com/san-kum/fpfind/internal/rnn"
)

const (
	beta1    = 0.9
	beta2    = 0.999
	adamFuzz = 1e-8
)

// Progress is emitted periodically during iterative minimization. It is a
// pure diagnostic; consuming or dropping it never changes results.
type Progress struct {
	Iter  int
	Total int
	Q     float64 // mean speed over the batch at this iteration
}

// ProgressFunc receives optimizer progress. May be nil.
type ProgressFunc func(Progress)

// AdamConfig holds the hyperparameters of the first-order strategy. The
// learning rate and the gradient-norm clip both decay geometrically with the
// iteration count, allowing large moves early and fine correction late.
type AdamConfig struct {
	LearningRate float64
	LRDecay      float64
	NormClip     float64
	ClipDecay    float64
	MaxIters     int
	PrintEvery   int
	Mode         Mode
}

// Mode selects between one shared vectorized iteration loop over the whole
// batch (joint) and fully independent per-point runs (sequential).
type Mode int

const (
	Joint Mode = iota
	Sequential
)

func (m Mode) String() string {
	if m == Sequential {
		return "sequential"
	}
	return "joint"
}

// Adam is the first-order iterative strategy: adaptive-moment gradient
// descent on the speed objective with global gradient-norm clipping.
type Adam struct {
	cfg AdamConfig
}

func NewAdam(cfg AdamConfig) *Adam {
	if cfg.MaxIters <= 0 {
		cfg.MaxIters = 5000
	}
	if cfg.LearningRate <= 0 {
		cfg.LearningRate = 1e-3
	}
	return &Adam{cfg: cfg}
}

// Minimize runs the configured mode over one system per initial condition.
// It always returns exactly len(x0) final states, in input order. The only
// error it can return is a canceled context.
func (a *Adam) Minimize(ctx context.Context, systems []rnn.System, x0 []rnn.State, progress ProgressFunc) ([]rnn.State, error) {
	if a.cfg.Mode == Sequential {
		return a.minimizeSequential(ctx, systems, x0, progress)
	}
	return a.minimizeJoint(ctx, systems, x0, progress)
}

// minimizeJoint advances every initial condition in lockstep for a fixed
// iteration budget. There is no per-member early stop: a vectorized batch
// cannot drop individual members without masking machinery, so the budget is
// the only terminator.
func (a *Adam) minimizeJoint(ctx context.Context, systems []rnn.System, x0 []rnn.State, progress ProgressFunc) ([]rnn.State, error) {
	n := len(x0)
	xs := make([]rnn.State, n)
	m := make([][]float64, n)
	v := make([][]float64, n)
	for i, x := range x0 {
		xs[i] = x.Clone()
		m[i] = make([]float64, len(x))
		v[i] = make([]float64, len(x))
	}

	grads := make([]rnn.State, n)
	for t := 1; t <= a.cfg.MaxIters; t++ {
		select {
		case <-ctx.Done():
			return xs, ctx.Err()
		default:
		}

		for i := range xs {
			grads[i] = systems[i].SpeedGrad(xs[i])
		}
		a.clipBatch(grads, a.clipAt(t))

		lr := a.lrAt(t)
		for i := range xs {
			adamStep(xs[i], grads[i], m[i], v[i], lr, t)
		}

		if progress != nil && a.cfg.PrintEvery > 0 && t%a.cfg.PrintEvery == 0 {
			progress(Progress{Iter: t, Total: a.cfg.MaxIters, Q: meanSpeed(systems, xs)})
		}
	}

	return xs, nil
}

// minimizeSequential runs one independent optimization per initial
// condition, fanned out over a CPU-sized worker pool. Each unit of work is a
// self-contained closure over its own system and state copy.
func (a *Adam) minimizeSequential(ctx context.Context, systems []rnn.System, x0 []rnn.State, progress ProgressFunc) ([]rnn.State, error) {
	out := make([]rnn.State, len(x0))
	err := parallelFor(ctx, len(x0), 0, func(i int) {
		out[i] = a.minimizeOne(systems[i], x0[i])
	})
	if err != nil {
		// Canceled mid-dispatch: unvisited entries keep their initial
		// condition so the 1:1 output contract still holds.
		for i := range out {
			if out[i] == nil {
				out[i] = x0[i].Clone()
			}
		}
	}
	return out, err
}

func (a *Adam) minimizeOne(sys rnn.System, x0 rnn.State) rnn.State {
	x := x0.Clone()
	m := make([]float64, len(x))
	v := make([]float64, len(x))

	for t := 1; t <= a.cfg.MaxIters; t++ {
		g := sys.SpeedGrad(x)
		clipVec(g, a.clipAt(t))
		adamStep(x, g, m, v, a.lrAt(t), t)
	}
	return x
}

func (a *Adam) lrAt(t int) float64 {
	if a.cfg.LRDecay <= 0 {
		return a.cfg.LearningRate
	}
	return a.cfg.LearningRate * math.Pow(1-a.cfg.LRDecay, float64(t))
}

func (a *Adam) clipAt(t int) float64 {
	if a.cfg.NormClip <= 0 {
		return 0
	}
	if a.cfg.ClipDecay <= 0 {
		return a.cfg.NormClip
	}
	return a.cfg.NormClip * math.Pow(1-a.cfg.ClipDecay, float64(t))
}

// clipBatch rescales the full batch gradient to the clip norm when it
// exceeds it. A non-positive clip disables clipping.
func (a *Adam) clipBatch(grads []rnn.State, clip float64) {
	if clip <= 0 {
		return
	}
	sum := 0.0
	for _, g := range grads {
		for _, v := range g {
			sum += v * v
		}
	}
	norm := math.Sqrt(sum)
	if norm <= clip {
		return
	}
	scale := clip / norm
	for _, g := range grads {
		for j := range g {
			g[j] *= scale
		}
	}
}

func clipVec(g rnn.State, clip float64) {
	if clip <= 0 {
		return
	}
	norm := g.Norm()
	if norm <= clip {
		return
	}
	scale := clip / norm
	for j := range g {
		g[j] *= scale
	}
}

// adamStep applies one bias-corrected adaptive-moment update in place.
func adamStep(x rnn.State, g rnn.State, m, v []float64, lr float64, t int) {
	bc1 := 1 - math.Pow(beta1, float64(t))
	bc2 := 1 - math.Pow(beta2, float64(t))
	for j := range x {
		m[j] = beta1*m[j] + (1-beta1)*g[j]
		v[j] = beta2*v[j] + (1-beta2)*g[j]*g[j]
		mHat := m[j] / bc1
		vHat := v[j] / bc2
		x[j] -= lr * mHat / (math.Sqrt(vHat) + adamFuzz)
	}
}

func meanSpeed(systems []rnn.System, xs []rnn.State) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for i, x := range xs {
		sum += systems[i].Speed(x)
	}
	return sum / float64(len(xs))
}
