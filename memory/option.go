package memory

import (
	"log/slog"

	"github.com/viant/kvmem/index"
	"github.com/viant/kvmem/vector"
)

// Option customises a Memory at construction.
type Option func(*Memory)

// WithSource injects the random source used for key initialisation and
// eviction noise. Tests pass a seeded *rand.Rand for reproducibility.
func WithSource(src vector.Source) Option {
	return func(m *Memory) {
		if src != nil {
			m.src = src
		}
	}
}

// WithLogger sets the logger; the default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Memory) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithIndex overrides the search engine chosen by Config.Index.
func WithIndex(idx index.Index) Option {
	return func(m *Memory) {
		if idx != nil {
			m.index = idx
		}
	}
}
