package recall

import (
	"context"
	"fmt"
	"sync"

	"github.com/viant/kvmem/memory"
)

// Recall pairs a Memory with an EmbedFunc.
type Recall struct {
	mu    sync.Mutex
	mem   *memory.Memory
	embed EmbedFunc
}

// New returns a Recall over mem.
func New(mem *memory.Memory, embed EmbedFunc) (*Recall, error) {
	if mem == nil {
		return nil, fmt.Errorf("recall: memory is nil")
	}
	if embed == nil {
		return nil, fmt.Errorf("recall: EmbedFunc is nil")
	}
	return &Recall{mem: mem, embed: embed}, nil
}

// Memory returns the wrapped memory.
func (r *Recall) Memory() *memory.Memory { return r.mem }

// Observe embeds texts and runs one Query step with labels, computing the
// loss.
func (r *Recall) Observe(ctx context.Context, texts []string, labels []int64) (*memory.Result, error) {
	if len(texts) != len(labels) {
		return nil, fmt.Errorf("recall: %w: %d labels for %d texts", memory.ErrBatchSize, len(labels), len(texts))
	}
	x, err := r.embedAll(ctx, texts)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mem.Query(x, labels, true)
}

// Classify embeds texts and predicts their labels without changing the
// memory.
func (r *Recall) Classify(ctx context.Context, texts []string) (*memory.Prediction, error) {
	x, err := r.embedAll(ctx, texts)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mem.Predict(x)
}

func (r *Recall) embedAll(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("recall: %w: no texts", memory.ErrDimension)
	}
	x := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := r.embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("recall: embed text %d: %w", i, err)
		}
		x[i] = v
	}
	return x, nil
}
