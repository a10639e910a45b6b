package config

// Presets maps names to known-good finder configurations for common
// analysis setups.
var Presets = map[string]*Config{
	"flipflop": {
		Architecture: "vanilla", Algorithm: "adam",
		QThreshold: 1e-12, UniqueTol: 1e-3, Verbose: true,
		NInits: 1000, NoiseScale: 0.5,
		Adam: AdamConfig{
			LearningRate: 1e-3, LRDecay: 1e-4, NormClip: 1.0, ClipDecay: 1e-3,
			MaxIters: 5000, PrintEvery: 200, Method: "joint",
		},
	},
	"gru-sequential": {
		Architecture: "gru", Algorithm: "adam",
		QThreshold: 1e-7, UniqueTol: 1e-3, Verbose: true,
		NInits: 500, NoiseScale: 0.2,
		Adam: AdamConfig{
			LearningRate: 1e-2, LRDecay: 5e-4, NormClip: 1.0, ClipDecay: 1e-3,
			MaxIters: 2000, PrintEvery: 100, Method: "sequential",
		},
	},
	"lstm-newton": {
		Architecture: "lstm", Algorithm: "newton",
		QThreshold: 1e-9, UniqueTol: 1e-3, Verbose: true,
		NInits: 300, NoiseScale: 0.1,
		Newton: NewtonConfig{MaxIters: 500, GradTol: 1e-12},
	},
}
