package memory

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/viant/kvmem/index"
	"github.com/viant/kvmem/index/bruteforce"
	"github.com/viant/kvmem/index/cover"
	"github.com/viant/kvmem/vector"
)

// Prediction is the read-only outcome of a lookup.
type Prediction struct {
	// Labels holds the label of the nearest slot per row.
	Labels []int64
	// Slots holds the nearest slot per row.
	Slots []int
	// Neighbors holds the top-k slots per row, best first.
	Neighbors [][]int
	// Scores holds the top-k cosine similarities per row.
	Scores [][]float32
	// Confidence holds the softmax over Scores per row.
	Confidence [][]float32
}

// Result extends a Prediction with the training signal of a Query.
type Result struct {
	Prediction
	Loss    float64
	HasLoss bool
	Stats   UpdateStats
}

// Memory is the key-value memory. See the package documentation.
type Memory struct {
	config   Config
	topK     int
	src      vector.Source
	logger   *slog.Logger
	index    index.Index
	store    *KeyStore
	search   *NeighborSearch
	scorer   ConfidenceScorer
	loss     LossEngine
	eviction *EvictionPolicy
}

// NewDefault builds a Memory with DefaultConfig.
func NewDefault(capacity, keyDim int, opts ...Option) (*Memory, error) {
	return New(DefaultConfig(capacity, keyDim), opts...)
}

// New builds a Memory whose slots hold random unit keys, zero labels and
// zero ages.
func New(cfg Config, opts ...Option) (*Memory, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	m := &Memory{
		config: cfg,
		topK:   cfg.EffectiveTopK(),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.src == nil {
		seed := cfg.Seed
		if seed == 0 {
			seed = rand.Uint64()
		}
		m.src = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
	if m.index == nil {
		switch index.ResolveKind(cfg.Index) {
		case index.KindCover:
			m.index = cover.New()
		default:
			m.index = bruteforce.New()
		}
	}
	m.store = NewKeyStore(cfg.Capacity, cfg.KeyDim, m.src)
	m.search = newNeighborSearch(m.store, m.index, m.topK)
	m.scorer = ConfidenceScorer{Temperature: cfg.Temperature()}
	m.loss = LossEngine{Margin: cfg.Margin}
	m.eviction = newEvictionPolicy(m.store, cfg.AgeNoise, m.src)
	m.logger.Debug("memory created",
		slog.Int("capacity", cfg.Capacity),
		slog.Int("key_dim", cfg.KeyDim),
		slog.Int("top_k", m.topK),
		slog.Float64("temperature", m.scorer.Temperature))
	return m, nil
}

// Config returns the construction config as supplied.
func (m *Memory) Config() Config { return m.config }

// TopK returns the effective number of neighbours per query.
func (m *Memory) TopK() int { return m.topK }

// Store exposes the slot arrays for inspection and checkpointing. Writes
// through it bypass the eviction policy.
func (m *Memory) Store() *KeyStore { return m.store }

// Predict looks up the nearest slots for x without changing the memory.
func (m *Memory) Predict(x [][]float32) (*Prediction, error) {
	queries, err := m.normalize(x)
	if err != nil {
		return nil, err
	}
	return m.lookup(queries)
}

// Query looks up x like Predict, computes the hinge loss against y when
// computeLoss is set, and then always updates the memory with (x, y).
func (m *Memory) Query(x [][]float32, y []int64, computeLoss bool) (*Result, error) {
	queries, err := m.normalize(x)
	if err != nil {
		return nil, err
	}
	if len(y) != len(queries) {
		return nil, fmt.Errorf("%w: %d labels for %d rows", ErrBatchSize, len(y), len(queries))
	}
	prediction, err := m.lookup(queries)
	if err != nil {
		return nil, err
	}
	result := &Result{Prediction: *prediction}
	if computeLoss {
		labels := make([][]int64, len(queries))
		for i, row := range prediction.Neighbors {
			labels[i] = make([]int64, len(row))
			for j, slot := range row {
				labels[i][j] = m.store.Value(slot)
			}
		}
		positive, negative := m.loss.Split(prediction.Scores, labels, y)
		result.Loss = m.loss.Loss(positive, negative)
		result.HasLoss = true
	}
	result.Stats = m.eviction.Update(queries, y, prediction.Labels, prediction.Slots)
	if m.logger.Enabled(context.Background(), slog.LevelDebug) {
		m.logger.Debug("memory updated",
			slog.Int("batch", len(queries)),
			slog.Int("reinforced", len(result.Stats.Reinforced)),
			slog.Int("evicted", len(result.Stats.Evicted)))
	}
	return result, nil
}

func (m *Memory) lookup(queries [][]float32) (*Prediction, error) {
	scores, neighbors, err := m.search.Search(queries)
	if err != nil {
		return nil, err
	}
	p := &Prediction{
		Labels:     make([]int64, len(queries)),
		Slots:      make([]int, len(queries)),
		Neighbors:  neighbors,
		Scores:     scores,
		Confidence: m.scorer.Score(scores),
	}
	for i, row := range neighbors {
		p.Slots[i] = row[0]
		p.Labels[i] = m.store.Value(row[0])
	}
	return p, nil
}

func (m *Memory) normalize(x [][]float32) ([][]float32, error) {
	if len(x) == 0 {
		return nil, fmt.Errorf("%w: empty batch", ErrDimension)
	}
	for i, row := range x {
		if len(row) != m.config.KeyDim {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrDimension, i, len(row), m.config.KeyDim)
		}
	}
	return vector.NormalizeRows(x), nil
}
