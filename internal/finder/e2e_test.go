package finder_test

import (
	"context"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/fpfind/internal/analysis"
	"github.com/san-kum/fpfind/internal/finder"
	"github.com/san-kum/fpfind/internal/optim"
	"github.com/san-kum/fpfind/internal/rnn"
)

// contractionWeights builds a 3-unit vanilla cell whose recurrent matrix is
// a diagonal contraction, so the origin is its only fixed point under zero
// input.
func contractionWeights() *rnn.WeightSet {
	rng := rand.New(rand.NewSource(12345))
	win := make([][]float64, 2)
	for i := range win {
		win[i] = []float64{rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64()}
	}
	wrec := [][]float64{
		{0.5, 0, 0},
		{0, 0.4, 0},
		{0, 0, 0.3},
	}
	ws, err := rnn.NewWeightSet(rnn.Vanilla, win, wrec, make([]float64, 3))
	Expect(err).NotTo(HaveOccurred())
	return ws
}

func adamOptions() finder.Options {
	return finder.Options{
		QThreshold: 1e-10,
		UniqueTol:  1e-3,
		Algorithm:  finder.AlgoAdam,
		Seed:       7,
		Adam: optim.AdamConfig{
			LearningRate: 0.05,
			LRDecay:      0.02,
			NormClip:     1.0,
			ClipDecay:    1e-3,
			MaxIters:     500,
			Mode:         optim.Joint,
		},
	}
}

func zeroInputs(n int) [][]float64 {
	inputs := make([][]float64, n)
	for i := range inputs {
		inputs[i] = make([]float64, 2)
	}
	return inputs
}

var _ = Describe("FindFixedPoints", func() {
	var (
		f      *finder.Finder
		states []rnn.State
	)

	BeforeEach(func() {
		f = finder.New(contractionWeights(), adamOptions())

		pool := [][]float64{{0, 0, 0}}
		var err error
		states, err = f.SampleStates(pool, 50, 0.1)
		Expect(err).NotTo(HaveOccurred())
		Expect(states).To(HaveLen(50))
	})

	It("recovers the origin of a contracting vanilla cell", func() {
		fps, err := f.FindFixedPoints(context.Background(), states, zeroInputs(50))
		Expect(err).NotTo(HaveOccurred())
		Expect(fps).NotTo(BeEmpty())

		for _, fp := range fps {
			Expect(fp.Q).To(BeNumerically("<=", 1e-10))
			for _, coord := range fp.X {
				Expect(coord).To(BeNumerically("~", 0, 1e-3))
			}
		}
	})

	It("collapses all runs onto one unique fixed point", func() {
		fps, err := f.FindFixedPoints(context.Background(), states, zeroInputs(50))
		Expect(err).NotTo(HaveOccurred())
		Expect(fps).To(HaveLen(1))
	})

	It("attaches a square jacobian of the state dimension", func() {
		fps, err := f.FindFixedPoints(context.Background(), states, zeroInputs(50))
		Expect(err).NotTo(HaveOccurred())

		for _, fp := range fps {
			Expect(fp.Jacobian).NotTo(BeNil())
			r, c := fp.Jacobian.Dims()
			Expect(r).To(Equal(3))
			Expect(c).To(Equal(3))
		}
	})

	It("classifies the contraction's fixed point as stable", func() {
		fps, err := f.FindFixedPoints(context.Background(), states, zeroInputs(50))
		Expect(err).NotTo(HaveOccurred())
		Expect(fps).NotTo(BeEmpty())

		classes, err := analysis.ClassifyAll(fps)
		Expect(err).NotTo(HaveOccurred())
		Expect(classes[0].Stability).To(Equal(analysis.Stable))
	})

	It("preserves one raw record per initial condition before filtering", func() {
		// a permissive threshold and a very fine tolerance leave every
		// record distinct, exposing the raw count
		opts := adamOptions()
		opts.QThreshold = 1e9
		opts.UniqueTol = 1e-12
		opts.Adam.MaxIters = 5
		loose := finder.New(contractionWeights(), opts)

		pool := [][]float64{{0, 0, 0}}
		many, err := loose.SampleStates(pool, 23, 0.5)
		Expect(err).NotTo(HaveOccurred())

		fps, err := loose.FindFixedPoints(context.Background(), many, zeroInputs(23))
		Expect(err).NotTo(HaveOccurred())
		Expect(fps).To(HaveLen(23))

		// provenance survives in input order
		for i, fp := range fps {
			Expect(fp.X0).To(Equal(many[i]))
		}
	})

	It("returns an empty set when nothing qualifies", func() {
		opts := adamOptions()
		opts.Adam.MaxIters = 1 // no run can reach the threshold
		strict := finder.New(contractionWeights(), opts)

		pool := [][]float64{{2, 2, 2}}
		far, err := strict.SampleStates(pool, 10, 0)
		Expect(err).NotTo(HaveOccurred())

		fps, err := strict.FindFixedPoints(context.Background(), far, zeroInputs(10))
		Expect(err).NotTo(HaveOccurred())
		Expect(fps).To(BeEmpty())
	})

	It("rejects mismatched states and inputs", func() {
		_, err := f.FindFixedPoints(context.Background(), states, zeroInputs(3))
		Expect(err).To(MatchError(finder.ErrBatchMismatch))
	})
})

var _ = Describe("Algorithm parsing", func() {
	It("accepts the recognized strategies", func() {
		algo, err := finder.ParseAlgorithm("adam")
		Expect(err).NotTo(HaveOccurred())
		Expect(algo).To(Equal(finder.AlgoAdam))

		algo, err = finder.ParseAlgorithm("newton")
		Expect(err).NotTo(HaveOccurred())
		Expect(algo).To(Equal(finder.AlgoNewton))
	})

	It("rejects anything else", func() {
		_, err := finder.ParseAlgorithm("bfgs")
		Expect(err).To(MatchError(finder.ErrUnknownAlgorithm))
	})
})

var _ = Describe("Newton strategy end to end", func() {
	It("finds the origin as well", func() {
		opts := adamOptions()
		opts.Algorithm = finder.AlgoNewton
		opts.Newton = optim.NewtonConfig{MaxIters: 200, GradTol: 1e-12}
		f := finder.New(contractionWeights(), opts)

		pool := [][]float64{{0, 0, 0}}
		states, err := f.SampleStates(pool, 20, 0.1)
		Expect(err).NotTo(HaveOccurred())

		fps, err := f.FindFixedPoints(context.Background(), states, zeroInputs(20))
		Expect(err).NotTo(HaveOccurred())
		Expect(fps).NotTo(BeEmpty())
		for _, fp := range fps {
			for _, coord := range fp.X {
				Expect(coord).To(BeNumerically("~", 0, 1e-3))
			}
		}
	})
})
