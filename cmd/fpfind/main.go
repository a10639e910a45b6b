package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/fpfind/internal/analysis"
	"github.com/san-kum/fpfind/internal/config"
	"github.com/san-kum/fpfind/internal/finder"
	"github.com/san-kum/fpfind/internal/optim"
	"github.com/san-kum/fpfind/internal/storage"
	"github.com/san-kum/fpfind/internal/tui"
)

var (
	dataDir    string
	configFile string
	preset     string

	activationsFile string
	inputsFile      string

	algorithm  string
	method     string
	qThreshold float64
	uniqueTol  float64
	seed       int64
	nInits     int
	noiseScale float64
	maxIters   int
	learnRate  float64
	quiet      bool
	live       bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "fpfind",
		Short: "fixed-point analysis of trained recurrent networks",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".fpfind", "data directory")

	findCmd := &cobra.Command{
		Use:   "find [weights.json]",
		Short: "search for fixed points of a recurrent layer",
		Args:  cobra.ExactArgs(1),
		RunE:  runFind,
	}
	findCmd.Flags().StringVar(&activationsFile, "activations", "", "recorded activations (csv)")
	findCmd.Flags().StringVar(&inputsFile, "inputs", "", "layer inputs per activation row (csv, default zeros)")
	findCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	findCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	findCmd.Flags().StringVar(&algorithm, "algorithm", "adam", "minimization strategy (adam, newton)")
	findCmd.Flags().StringVar(&method, "method", "joint", "adam dispatch mode (joint, sequential)")
	findCmd.Flags().Float64Var(&qThreshold, "q-threshold", config.DefaultQThreshold, "speed threshold for accepting a fixed point")
	findCmd.Flags().Float64Var(&uniqueTol, "unique-tol", config.DefaultUniqueTol, "distance tolerance for deduplication")
	findCmd.Flags().Int64Var(&seed, "seed", 0, "sampler random seed")
	findCmd.Flags().IntVar(&nInits, "n-inits", config.DefaultNInits, "number of initial conditions to sample")
	findCmd.Flags().Float64Var(&noiseScale, "noise", config.DefaultNoiseScale, "gaussian noise added to sampled states")
	findCmd.Flags().IntVar(&maxIters, "max-iters", config.DefaultMaxIters, "iteration budget")
	findCmd.Flags().Float64Var(&learnRate, "lr", config.DefaultLearningRate, "adam learning rate")
	findCmd.Flags().BoolVar(&quiet, "quiet", false, "suppress diagnostics")
	findCmd.Flags().BoolVar(&live, "live", false, "show live convergence monitor")
	_ = findCmd.MarkFlagRequired("activations")

	velocitiesCmd := &cobra.Command{
		Use:   "velocities [weights.json]",
		Short: "evaluate speeds at recorded activations",
		Args:  cobra.ExactArgs(1),
		RunE:  runVelocities,
	}
	velocitiesCmd.Flags().StringVar(&activationsFile, "activations", "", "recorded activations (csv)")
	velocitiesCmd.Flags().StringVar(&inputsFile, "inputs", "", "layer inputs per activation row (csv, default zeros)")
	_ = velocitiesCmd.MarkFlagRequired("activations")

	classifyCmd := &cobra.Command{
		Use:   "classify [run_id]",
		Short: "classify the stability of a stored run's fixed points",
		Args:  cobra.ExactArgs(1),
		RunE:  runClassify,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "print a stored run's fixed points",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	rootCmd.AddCommand(findCmd, velocitiesCmd, classifyCmd, listCmd, exportCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// buildConfig resolves preset, config file and flags into one Config.
// CLI flags override the config file, which overrides the preset.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		p, ok := config.Presets[preset]
		if !ok {
			names := make([]string, 0, len(config.Presets))
			for name := range config.Presets {
				names = append(names, name)
			}
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, names)
		}
		*cfg = *p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("algorithm") {
		cfg.Algorithm = algorithm
	}
	if cmd.Flags().Changed("method") {
		cfg.Adam.Method = method
	}
	if cmd.Flags().Changed("q-threshold") {
		cfg.QThreshold = qThreshold
	}
	if cmd.Flags().Changed("unique-tol") {
		cfg.UniqueTol = uniqueTol
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = seed
	}
	if cmd.Flags().Changed("n-inits") {
		cfg.NInits = nInits
	}
	if cmd.Flags().Changed("noise") {
		cfg.NoiseScale = noiseScale
	}
	if cmd.Flags().Changed("max-iters") {
		cfg.Adam.MaxIters = maxIters
		cfg.Newton.MaxIters = maxIters
	}
	if cmd.Flags().Changed("lr") {
		cfg.Adam.LearningRate = learnRate
	}
	if quiet {
		cfg.Verbose = false
	}

	return cfg, nil
}

// toOptions translates the file-level configuration into finder options,
// validating the closed-set tags at this single boundary.
func toOptions(cfg *config.Config) (finder.Options, error) {
	algo, err := finder.ParseAlgorithm(cfg.Algorithm)
	if err != nil {
		return finder.Options{}, err
	}

	mode := optim.Joint
	if cfg.Adam.Method == "sequential" {
		mode = optim.Sequential
	} else if cfg.Adam.Method != "" && cfg.Adam.Method != "joint" {
		return finder.Options{}, fmt.Errorf("unknown adam method: %q (must be joint or sequential)", cfg.Adam.Method)
	}

	return finder.Options{
		QThreshold: cfg.QThreshold,
		UniqueTol:  cfg.UniqueTol,
		Algorithm:  algo,
		Seed:       cfg.Seed,
		Verbose:    cfg.Verbose,
		Adam: optim.AdamConfig{
			LearningRate: cfg.Adam.LearningRate,
			LRDecay:      cfg.Adam.LRDecay,
			NormClip:     cfg.Adam.NormClip,
			ClipDecay:    cfg.Adam.ClipDecay,
			MaxIters:     cfg.Adam.MaxIters,
			PrintEvery:   cfg.Adam.PrintEvery,
			Mode:         mode,
		},
		Newton: optim.NewtonConfig{
			MaxIters: cfg.Newton.MaxIters,
			GradTol:  cfg.Newton.GradTol,
		},
	}, nil
}

func runFind(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	opts, err := toOptions(cfg)
	if err != nil {
		return err
	}

	weights, err := storage.LoadWeights(args[0])
	if err != nil {
		return err
	}

	activations, err := storage.LoadMatrix(activationsFile)
	if err != nil {
		return err
	}
	inputs, err := loadOrZeroInputs(len(activations), weights.NInput())
	if err != nil {
		return err
	}

	var history []float64
	opts.Progress = func(p optim.Progress) {
		history = append(history, p.Q)
	}

	var monitor *tui.Monitor
	if live {
		monitor = tui.NewMonitor()
		collect := opts.Progress
		opts.Progress = func(p optim.Progress) {
			collect(p)
			monitor.Sink(p)
		}
	}

	f := finder.New(weights, opts)

	states, err := f.SampleStates(activations, cfg.NInits, cfg.NoiseScale)
	if err != nil {
		return err
	}

	// one input row per sampled state; reuse the recorded inputs cyclically
	// when fewer rows than inits were provided
	batchInputs := make([][]float64, len(states))
	for i := range states {
		batchInputs[i] = inputs[i%len(inputs)]
	}

	start := time.Now()

	var fps []finder.FixedPoint
	if live {
		done := make(chan error, 1)
		go func() {
			var ferr error
			fps, ferr = f.FindFixedPoints(context.Background(), states, batchInputs)
			monitor.Done()
			done <- ferr
		}()
		if err := monitor.Run(); err != nil {
			return err
		}
		if err := <-done; err != nil {
			return err
		}
	} else {
		fps, err = f.FindFixedPoints(context.Background(), states, batchInputs)
		if err != nil {
			return err
		}
	}

	elapsed := time.Since(start)

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(storage.RunMetadata{
		Architecture: weights.Architecture().String(),
		Algorithm:    cfg.Algorithm,
		Seed:         cfg.Seed,
		QThreshold:   cfg.QThreshold,
		UniqueTol:    cfg.UniqueTol,
		NInits:       cfg.NInits,
	}, fps)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("unique fixed points: %d\n", len(fps))

	if cfg.Verbose && len(history) >= 2 {
		logs := make([]float64, 0, len(history))
		for _, q := range history {
			if q > 0 {
				logs = append(logs, math.Log10(q))
			}
		}
		if len(logs) >= 2 {
			fmt.Println()
			fmt.Println(asciigraph.Plot(logs,
				asciigraph.Height(10),
				asciigraph.Caption("log10 mean q over iterations")))
		}
	}

	if len(fps) > 0 {
		fmt.Println()
		printFixedPoints(fps)
	}

	return nil
}

func loadOrZeroInputs(nRows, nInput int) ([][]float64, error) {
	if inputsFile == "" {
		inputs := make([][]float64, nRows)
		for i := range inputs {
			inputs[i] = make([]float64, nInput)
		}
		return inputs, nil
	}
	inputs, err := storage.LoadMatrix(inputsFile)
	if err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("inputs file %s is empty", inputsFile)
	}
	return inputs, nil
}

func printFixedPoints(fps []finder.FixedPoint) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tQ\tLOCATION")
	for i, fp := range fps {
		fmt.Fprintf(w, "%d\t%.3e\t%s\n", i, fp.Q, formatVec(fp.X, 6))
	}
	w.Flush()
}

func formatVec(v []float64, maxShow int) string {
	s := "["
	for i, x := range v {
		if i == maxShow {
			s += fmt.Sprintf("... +%d more", len(v)-maxShow)
			break
		}
		if i > 0 {
			s += " "
		}
		s += fmt.Sprintf("%.4f", x)
	}
	return s + "]"
}

func runVelocities(cmd *cobra.Command, args []string) error {
	weights, err := storage.LoadWeights(args[0])
	if err != nil {
		return err
	}
	activations, err := storage.LoadMatrix(activationsFile)
	if err != nil {
		return err
	}
	inputs, err := loadOrZeroInputs(len(activations), weights.NInput())
	if err != nil {
		return err
	}
	aligned := make([][]float64, len(activations))
	for i := range aligned {
		aligned[i] = inputs[i%len(inputs)]
	}

	f := finder.New(weights, finder.Options{Verbose: false})
	_, speeds, err := f.Velocities(activations, aligned)
	if err != nil {
		return err
	}

	min, max, mean := math.Inf(1), math.Inf(-1), 0.0
	for _, q := range speeds {
		min = math.Min(min, q)
		max = math.Max(max, q)
		mean += q
	}
	mean /= float64(len(speeds))

	fmt.Printf("activations: %d\n", len(speeds))
	fmt.Printf("speed q: min %.3e  mean %.3e  max %.3e\n", min, mean, max)

	// downsample for the terminal plot
	if len(speeds) >= 2 {
		step := len(speeds)/200 + 1
		plot := make([]float64, 0, len(speeds)/step+1)
		for i := 0; i < len(speeds); i += step {
			if speeds[i] > 0 {
				plot = append(plot, math.Log10(speeds[i]))
			}
		}
		if len(plot) >= 2 {
			fmt.Println()
			fmt.Println(asciigraph.Plot(plot,
				asciigraph.Height(10),
				asciigraph.Caption("log10 q along recording")))
		}
	}

	return nil
}

func runClassify(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	fps, err := st.LoadRecords(args[0])
	if err != nil {
		return err
	}
	if len(fps) == 0 {
		fmt.Println("run has no fixed points")
		return nil
	}

	classes, err := analysis.ClassifyAll(fps)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tQ\tSTABILITY\tTRACE\tDET\tLEADING EIG")
	for i, c := range classes {
		leading := c.Eigenvalues[0]
		for _, v := range c.Eigenvalues[1:] {
			if real(v) > real(leading) {
				leading = v
			}
		}
		fmt.Fprintf(w, "%d\t%.3e\t%s\t%.4f\t%.4f\t%.4f%+.4fi\n",
			i, fps[i].Q, c.Stability, c.Trace, c.Det, real(leading), imag(leading))
	}
	return w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tARCH\tALGO\tTIME\tINITS\tUNIQUE\tQ-THRESHOLD")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%g\n",
			run.ID,
			run.Architecture,
			run.Algorithm,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.NInits,
			run.NUnique,
			run.QThreshold,
		)
	}
	return w.Flush()
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	fps, err := st.LoadRecords(args[0])
	if err != nil {
		return err
	}
	printFixedPoints(fps)
	return nil
}
