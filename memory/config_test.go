package memory

import (
	"errors"
	"math"
	"testing"
)

func TestConfig_Validate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(c *Config)
		ok     bool
	}{
		{name: "defaults", mutate: func(c *Config) {}, ok: true},
		{name: "top_k above capacity", mutate: func(c *Config) { c.TopK = 1000 }, ok: true},
		{name: "zero capacity", mutate: func(c *Config) { c.Capacity = 0 }},
		{name: "zero dim", mutate: func(c *Config) { c.KeyDim = 0 }},
		{name: "zero top_k", mutate: func(c *Config) { c.TopK = 0 }},
		{name: "zero inverse temp", mutate: func(c *Config) { c.InverseTemp = 0 }},
		{name: "negative noise", mutate: func(c *Config) { c.AgeNoise = -1 }},
		{name: "negative margin", mutate: func(c *Config) { c.Margin = -0.1 }},
		{name: "unknown index", mutate: func(c *Config) { c.Index = "hnsw" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig(16, 4)
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.ok && err != nil {
				t.Fatalf("Validate() = %v, want nil", err)
			}
			if !tc.ok && !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("Validate() = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestConfig_Temperature(t *testing.T) {
	cfg := DefaultConfig(16, 4)
	if got := cfg.Temperature(); got != 1.0 {
		t.Fatalf("default Temperature = %v, want 1", got)
	}
	cfg.InverseTemp = 0.5
	want := math.Log(0.2*256) / 0.5
	if got := cfg.Temperature(); math.Abs(got-want) > 1e-12 {
		t.Fatalf("Temperature = %v, want %v", got, want)
	}
	cfg.TopK = 2
	if got := cfg.Temperature(); got != 1.0 {
		t.Fatalf("Temperature with ln(0.4) = %v, want 1", got)
	}
}

func TestConfig_EffectiveTopK(t *testing.T) {
	cfg := DefaultConfig(4, 2)
	if got := cfg.EffectiveTopK(); got != 4 {
		t.Fatalf("EffectiveTopK = %d, want 4", got)
	}
	cfg.TopK = 3
	if got := cfg.EffectiveTopK(); got != 3 {
		t.Fatalf("EffectiveTopK = %d, want 3", got)
	}
}

func TestConfig_Merge(t *testing.T) {
	cfg := DefaultConfig(0, 0)
	cfg.Merge(&Config{Capacity: 128, KeyDim: 32, Margin: 0.3, Index: "cover"})
	if cfg.Capacity != 128 || cfg.KeyDim != 32 || cfg.Margin != 0.3 || cfg.Index != "cover" {
		t.Fatalf("Merge produced %+v", cfg)
	}
	if cfg.TopK != defaultTopK || cfg.AgeNoise != defaultAgeNoise {
		t.Fatalf("Merge overwrote defaults: %+v", cfg)
	}
}
