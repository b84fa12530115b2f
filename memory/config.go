package memory

import (
	"fmt"
	"math"

	"github.com/viant/kvmem/index"
)

const (
	defaultTopK        = 256
	defaultInverseTemp = 40
	defaultAgeNoise    = 8.0
	defaultMargin      = 0.1
)

// Config holds construction parameters. It is immutable once the Memory is
// built.
type Config struct {
	Capacity    int     `yaml:"capacity" msgpack:"capacity"`
	KeyDim      int     `yaml:"key_dim" msgpack:"key_dim"`
	TopK        int     `yaml:"top_k" msgpack:"top_k"`
	InverseTemp float64 `yaml:"inverse_temp" msgpack:"inverse_temp"`
	AgeNoise    float64 `yaml:"age_noise" msgpack:"age_noise"`
	Margin      float64 `yaml:"margin" msgpack:"margin"`
	// Index selects the search engine: brute, cover or auto.
	Index string `yaml:"index" msgpack:"index"`
	// Seed seeds the default random source; zero picks a random seed.
	Seed uint64 `yaml:"seed" msgpack:"seed"`
}

// DefaultConfig returns a Config with the standard hyper-parameters for a
// store of the given shape.
func DefaultConfig(capacity, keyDim int) Config {
	return Config{
		Capacity:    capacity,
		KeyDim:      keyDim,
		TopK:        defaultTopK,
		InverseTemp: defaultInverseTemp,
		AgeNoise:    defaultAgeNoise,
		Margin:      defaultMargin,
		Index:       index.KindBrute,
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Capacity > 0 {
		c.Capacity = source.Capacity
	}
	if source.KeyDim > 0 {
		c.KeyDim = source.KeyDim
	}
	if source.TopK > 0 {
		c.TopK = source.TopK
	}
	if source.InverseTemp > 0 {
		c.InverseTemp = source.InverseTemp
	}
	if source.AgeNoise > 0 {
		c.AgeNoise = source.AgeNoise
	}
	if source.Margin > 0 {
		c.Margin = source.Margin
	}
	if source.Index != "" {
		c.Index = source.Index
	}
	if source.Seed != 0 {
		c.Seed = source.Seed
	}
}

// Validate reports configuration values the memory cannot work with. A TopK
// larger than Capacity is not an error; it is clamped.
func (c *Config) Validate() error {
	switch {
	case c.Capacity <= 0:
		return fmt.Errorf("%w: capacity must be positive, got %d", ErrInvalidConfig, c.Capacity)
	case c.KeyDim <= 0:
		return fmt.Errorf("%w: key_dim must be positive, got %d", ErrInvalidConfig, c.KeyDim)
	case c.TopK <= 0:
		return fmt.Errorf("%w: top_k must be positive, got %d", ErrInvalidConfig, c.TopK)
	case c.InverseTemp <= 0:
		return fmt.Errorf("%w: inverse_temp must be positive, got %v", ErrInvalidConfig, c.InverseTemp)
	case c.AgeNoise < 0:
		return fmt.Errorf("%w: age_noise must not be negative, got %v", ErrInvalidConfig, c.AgeNoise)
	case c.Margin < 0:
		return fmt.Errorf("%w: margin must not be negative, got %v", ErrInvalidConfig, c.Margin)
	}
	switch c.Index {
	case "", index.KindBrute, index.KindCover, index.KindAuto:
	default:
		return fmt.Errorf("%w: unknown index %q", ErrInvalidConfig, c.Index)
	}
	return nil
}

// EffectiveTopK is TopK clamped to Capacity.
func (c *Config) EffectiveTopK() int {
	return min(c.TopK, c.Capacity)
}

// Temperature is the fixed softmax scale. For K neighbours at similarity x
// and one at x+a, a temperature of ln(0.2K)/a gives the outlier 20% of the
// mass; the inverse temperature plays the role of a. It uses the requested
// TopK, before clamping, and never drops below 1.
func (c *Config) Temperature() float64 {
	return math.Max(1.0, math.Log(0.2*float64(c.TopK))/c.InverseTemp)
}
