package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Architecture != "vanilla" {
		t.Errorf("expected architecture vanilla, got %s", cfg.Architecture)
	}
	if cfg.Algorithm != "adam" {
		t.Errorf("expected algorithm adam, got %s", cfg.Algorithm)
	}
	if cfg.QThreshold != DefaultQThreshold {
		t.Errorf("expected q threshold %g, got %g", DefaultQThreshold, cfg.QThreshold)
	}
	if cfg.Adam.Method != "joint" {
		t.Errorf("expected joint method, got %s", cfg.Adam.Method)
	}
	if cfg.Adam.MaxIters != DefaultMaxIters {
		t.Errorf("expected %d max iters, got %d", DefaultMaxIters, cfg.Adam.MaxIters)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	cfg.Architecture = "gru"
	cfg.Algorithm = "newton"
	cfg.QThreshold = 1e-9
	cfg.NInits = 123
	cfg.Adam.Method = "sequential"

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if loaded.Architecture != "gru" || loaded.Algorithm != "newton" {
		t.Errorf("round trip lost fields: %+v", loaded)
	}
	if loaded.QThreshold != 1e-9 || loaded.NInits != 123 {
		t.Errorf("round trip lost numbers: %+v", loaded)
	}
	if loaded.Adam.Method != "sequential" {
		t.Errorf("round trip lost adam method: %+v", loaded.Adam)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestPartialConfigKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	if err := os.WriteFile(path, []byte("architecture: lstm\n"), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	// loading starts from defaults, so fields absent from the file keep them
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Architecture != "lstm" {
		t.Errorf("expected lstm, got %s", loaded.Architecture)
	}
	if loaded.QThreshold != DefaultQThreshold {
		t.Errorf("expected default q threshold, got %g", loaded.QThreshold)
	}
	if loaded.Adam.MaxIters != DefaultMaxIters {
		t.Errorf("expected default max iters, got %d", loaded.Adam.MaxIters)
	}
}

func TestPresets(t *testing.T) {
	for name, p := range Presets {
		if p.Architecture == "" || p.Algorithm == "" {
			t.Errorf("preset %s missing identity fields", name)
		}
		if p.QThreshold <= 0 || p.UniqueTol <= 0 {
			t.Errorf("preset %s has invalid thresholds", name)
		}
	}

	if _, ok := Presets["flipflop"]; !ok {
		t.Error("expected flipflop preset")
	}
}
