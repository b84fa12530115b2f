package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/viant/kvmem/memory"
)

const testConfig = `
memory:
  capacity: 64
  key_dim: 16
  top_k: 8
  age_noise: 0.001
  seed: 11
simulate:
  episodes: 2
  classes: 4
  shots: 3
  batch: 3
  spread: 0.05
  seed: 5
table: kv_test
log_level: warn
`

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kvmem.yaml")
	if err := os.WriteFile(path, []byte(testConfig), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Memory.Capacity != 64 || cfg.Memory.KeyDim != 16 || cfg.Memory.TopK != 8 || cfg.Memory.Seed != 11 {
		t.Fatalf("memory config = %+v", cfg.Memory)
	}
	if cfg.Memory.Margin != 0.1 || cfg.Memory.AgeNoise != 0.001 || cfg.Memory.InverseTemp != 40 {
		t.Fatalf("defaults not kept: %+v", cfg.Memory)
	}
	if cfg.Simulate.Episodes != 2 || cfg.Simulate.Spread != 0.05 || cfg.Table != "kv_test" || cfg.LogLevel != "warn" {
		t.Fatalf("config = %+v", cfg)
	}

	defaults, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig(\"\") failed: %v", err)
	}
	if defaults.Memory.Capacity != defaultCapacity || defaults.Table != defaultTable {
		t.Fatalf("defaults = %+v", defaults)
	}

	zeros := filepath.Join(t.TempDir(), "zeros.yaml")
	_ = os.WriteFile(zeros, []byte("memory:\n  margin: 0\n  age_noise: 0\n  top_k: 4\n"), 0644)
	explicit, err := LoadConfig(zeros)
	if err != nil {
		t.Fatalf("LoadConfig(zeros) failed: %v", err)
	}
	if explicit.Memory.Margin != 0 || explicit.Memory.AgeNoise != 0 || explicit.Memory.TopK != 4 {
		t.Fatalf("explicit zeros not applied: %+v", explicit.Memory)
	}
	if explicit.Memory.InverseTemp != 40 || explicit.Memory.Capacity != defaultCapacity {
		t.Fatalf("defaults not kept: %+v", explicit.Memory)
	}

	negative := filepath.Join(t.TempDir(), "negative.yaml")
	_ = os.WriteFile(negative, []byte("memory:\n  margin: -0.5\n"), 0644)
	if _, err := LoadConfig(negative); err == nil {
		t.Fatalf("LoadConfig(negative margin) succeeded")
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	_ = os.WriteFile(bad, []byte("memory: [1, 2"), 0644)
	if _, err := LoadConfig(bad); err == nil {
		t.Fatalf("LoadConfig(bad yaml) succeeded")
	}
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("LoadConfig(missing) succeeded")
	}
}

func TestNewLogger(t *testing.T) {
	for _, level := range []string{"debug", "INFO", "warn", "error"} {
		if _, err := newLogger(io.Discard, level); err != nil {
			t.Fatalf("newLogger(%q) failed: %v", level, err)
		}
	}
	if _, err := newLogger(io.Discard, "loud"); err == nil {
		t.Fatalf("newLogger(loud) succeeded")
	}
}

func TestSimulate(t *testing.T) {
	cfg := memory.DefaultConfig(64, 16)
	cfg.TopK = 8
	cfg.Seed = 3
	// oldest-first eviction keeps every class of the run resident
	cfg.AgeNoise = 0
	mem, err := memory.New(cfg)
	if err != nil {
		t.Fatalf("memory.New failed: %v", err)
	}
	logger, _ := newLogger(io.Discard, "error")
	sim := SimulateConfig{Episodes: 3, Classes: 4, Shots: 3, Batch: 3, Spread: 0.05, Seed: 9}
	stats, err := simulate(context.Background(), mem, sim, logger)
	if err != nil {
		t.Fatalf("simulate failed: %v", err)
	}
	if len(stats) != 3 {
		t.Fatalf("episodes = %d, want 3", len(stats))
	}
	for _, s := range stats {
		if s.Accuracy[0] != 0 {
			t.Fatalf("episode %d first-shot accuracy = %v, want 0", s.Episode, s.Accuracy[0])
		}
		for shot := 1; shot < len(s.Accuracy); shot++ {
			if s.Accuracy[shot] != 1 {
				t.Fatalf("episode %d shot %d accuracy = %v, want 1", s.Episode, shot+1, s.Accuracy[shot])
			}
		}
		if s.MeanLoss < 0 {
			t.Fatalf("episode %d loss = %v", s.Episode, s.MeanLoss)
		}
	}
}

func TestSimulateSnapshotInspect(t *testing.T) {
	configPath := writeConfig(t)
	dbPath := filepath.Join(t.TempDir(), "kvmem.sqlite")

	out, err := run(t, "--config", configPath, "simulate", "--snapshot", dbPath)
	if err != nil {
		t.Fatalf("simulate failed: %v", err)
	}
	if !strings.Contains(out, "episodes: 2") || !strings.Contains(out, "shot 2 accuracy: 1.000") || !strings.Contains(out, "snapshot ") {
		t.Fatalf("unexpected simulate output:\n%s", out)
	}

	out, err = run(t, "--config", configPath, "inspect", "--db", dbPath, "--sql", "SELECT count(*) AS n FROM slots")
	if err != nil {
		t.Fatalf("inspect failed: %v", err)
	}
	if out != "n\n64\n" {
		t.Fatalf("inspect output = %q, want %q", out, "n\n64\n")
	}

	out, err = run(t, "--config", configPath, "inspect", "--db", dbPath, "--sql", "SELECT count(*) AS n FROM slots WHERE value > 0")
	if err != nil {
		t.Fatalf("inspect failed: %v", err)
	}
	if out != "n\n8\n" {
		t.Fatalf("labelled slots output = %q, want 8 rows", out)
	}
}

func TestInspectRequiresDB(t *testing.T) {
	if _, err := run(t, "inspect"); err == nil {
		t.Fatalf("inspect without --db succeeded")
	}
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if out != "kvmem version "+version+"\n" {
		t.Fatalf("version output = %q", out)
	}
}
