package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultQThreshold   = 1e-12
	DefaultUniqueTol    = 1e-3
	DefaultNInits       = 1000
	DefaultNoiseScale   = 0.5
	DefaultLearningRate = 1e-3
	DefaultLRDecay      = 1e-4
	DefaultNormClip     = 1.0
	DefaultClipDecay    = 1e-3
	DefaultMaxIters     = 5000
	DefaultPrintEvery   = 200
	DefaultNewtonIters  = 500
	DefaultNewtonTol    = 1e-12
)

type Config struct {
	Architecture string  `yaml:"architecture"`
	Algorithm    string  `yaml:"algorithm"`
	QThreshold   float64 `yaml:"q_threshold"`
	UniqueTol    float64 `yaml:"unique_tol"`
	Seed         int64   `yaml:"seed"`
	Verbose      bool    `yaml:"verbose"`

	NInits     int     `yaml:"n_inits"`
	NoiseScale float64 `yaml:"noise_scale"`

	Adam   AdamConfig   `yaml:"adam"`
	Newton NewtonConfig `yaml:"newton"`
}

type AdamConfig struct {
	LearningRate float64 `yaml:"learning_rate"`
	LRDecay      float64 `yaml:"lr_decay"`
	NormClip     float64 `yaml:"norm_clip"`
	ClipDecay    float64 `yaml:"clip_decay"`
	MaxIters     int     `yaml:"max_iters"`
	PrintEvery   int     `yaml:"print_every"`
	Method       string  `yaml:"method"`
}

type NewtonConfig struct {
	MaxIters int     `yaml:"max_iters"`
	GradTol  float64 `yaml:"grad_tol"`
}

func DefaultConfig() *Config {
	return &Config{
		Architecture: "vanilla",
		Algorithm:    "adam",
		QThreshold:   DefaultQThreshold,
		UniqueTol:    DefaultUniqueTol,
		Verbose:      true,
		NInits:       DefaultNInits,
		NoiseScale:   DefaultNoiseScale,
		Adam: AdamConfig{
			LearningRate: DefaultLearningRate,
			LRDecay:      DefaultLRDecay,
			NormClip:     DefaultNormClip,
			ClipDecay:    DefaultClipDecay,
			MaxIters:     DefaultMaxIters,
			PrintEvery:   DefaultPrintEvery,
			Method:       "joint",
		},
		Newton: NewtonConfig{
			MaxIters: DefaultNewtonIters,
			GradTol:  DefaultNewtonTol,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
