package main

import (
	"fmt"
	"os"

	"github.com/viant/kvmem/memory"
	"gopkg.in/yaml.v3"
)

const (
	defaultCapacity = 1024
	defaultKeyDim   = 32
	defaultEpisodes = 10
	defaultClasses  = 5
	defaultShots    = 5
	defaultBatch    = 16
	defaultSpread   = 0.1
	defaultTable    = "kv_slots"
)

// SimulateConfig parameterises synthetic one-shot episodes.
type SimulateConfig struct {
	Episodes int     `yaml:"episodes"`
	Classes  int     `yaml:"classes"`
	Shots    int     `yaml:"shots"`
	Batch    int     `yaml:"batch"`
	Spread   float64 `yaml:"spread"`
	Seed     uint64  `yaml:"seed"`
}

func defaultSimulateConfig() SimulateConfig {
	return SimulateConfig{
		Episodes: defaultEpisodes,
		Classes:  defaultClasses,
		Shots:    defaultShots,
		Batch:    defaultBatch,
		Spread:   defaultSpread,
	}
}

// Merge applies non-zero values from source into c.
func (c *SimulateConfig) Merge(source *SimulateConfig) {
	if source.Episodes > 0 {
		c.Episodes = source.Episodes
	}
	if source.Classes > 0 {
		c.Classes = source.Classes
	}
	if source.Shots > 0 {
		c.Shots = source.Shots
	}
	if source.Batch > 0 {
		c.Batch = source.Batch
	}
	if source.Spread > 0 {
		c.Spread = source.Spread
	}
	if source.Seed != 0 {
		c.Seed = source.Seed
	}
}

// Config is the CLI configuration file.
type Config struct {
	Memory   memory.Config  `yaml:"memory"`
	Simulate SimulateConfig `yaml:"simulate"`
	Table    string         `yaml:"table"`
	LogLevel string         `yaml:"log_level"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Memory:   memory.DefaultConfig(defaultCapacity, defaultKeyDim),
		Simulate: defaultSimulateConfig(),
		Table:    defaultTable,
		LogLevel: "info",
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	c.Memory.Merge(&source.Memory)
	c.Simulate.Merge(&source.Simulate)
	if source.Table != "" {
		c.Table = source.Table
	}
	if source.LogLevel != "" {
		c.LogLevel = source.LogLevel
	}
}

// zeroableFields holds the memory settings for which zero is a valid value.
// Merge skips zeros, so these are read again as pointers.
type zeroableFields struct {
	Memory struct {
		AgeNoise *float64 `yaml:"age_noise"`
		Margin   *float64 `yaml:"margin"`
	} `yaml:"memory"`
}

func (z *zeroableFields) apply(cfg *Config) {
	if z.Memory.AgeNoise != nil {
		cfg.Memory.AgeNoise = *z.Memory.AgeNoise
	}
	if z.Memory.Margin != nil {
		cfg.Memory.Margin = *z.Memory.Margin
	}
}

// LoadConfig reads a YAML config file, merges it with defaults, and returns
// the resulting Config. An empty filename yields the defaults.
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()
	if filename == "" {
		return &cfg, nil
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	var loaded Config
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.Merge(&loaded)
	var explicit zeroableFields
	if err := yaml.Unmarshal(data, &explicit); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	explicit.apply(&cfg)
	if err := cfg.Memory.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
