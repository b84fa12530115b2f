package engine

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strings"
	"sync"

	"github.com/viant/kvmem/vector"
	sqlite "modernc.org/sqlite"
)

var registerOnce sync.Once
var registerErr error

// RegisterVectorFunctions registers vec_cosine, vec_l2, vec_dot and
// vec_normalize with the driver so they are available on connections opened
// after this call. Existing open connections will not see them.
func RegisterVectorFunctions(_ *sql.DB) error {
	registerOnce.Do(func() {
		for name, fn := range map[string]func(*sqlite.FunctionContext, []driver.Value) (driver.Value, error){
			"vec_cosine": vecCosineImpl,
			"vec_l2":     vecL2Impl,
			"vec_dot":    vecDotImpl,
		} {
			if err := sqlite.RegisterDeterministicScalarFunction(name, 2, fn); err != nil && !isDuplicate(err) {
				registerErr = fmt.Errorf("engine: register %s: %w", name, err)
				return
			}
		}
		if err := sqlite.RegisterDeterministicScalarFunction("vec_normalize", 1, vecNormalizeImpl); err != nil && !isDuplicate(err) {
			registerErr = fmt.Errorf("engine: register vec_normalize: %w", err)
		}
	})
	return registerErr
}

func isDuplicate(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "already registered") || strings.Contains(msg, "already exists")
}

// asEmbedding accepts a BLOB from vector.EncodeEmbedding or any text form
// vector.ParseEmbedding understands.
func asEmbedding(arg driver.Value) ([]float32, error) {
	switch v := arg.(type) {
	case nil:
		return nil, nil
	case []byte:
		return vector.DecodeEmbedding(v)
	case string:
		return vector.ParseEmbedding(v)
	default:
		return nil, fmt.Errorf("engine: unsupported argument type %T for embedding; want BLOB or TEXT", arg)
	}
}

func pair(name string, args []driver.Value) ([]float32, []float32, error) {
	if len(args) != 2 {
		return nil, nil, fmt.Errorf("%s: expected 2 arguments, got %d", name, len(args))
	}
	a, err := asEmbedding(args[0])
	if err != nil {
		return nil, nil, err
	}
	b, err := asEmbedding(args[1])
	if err != nil {
		return nil, nil, err
	}
	return a, b, nil
}

func vecCosineImpl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	a, b, err := pair("vec_cosine", args)
	if err != nil || a == nil || b == nil {
		return nil, err
	}
	return vector.CosineSimilarity(a, b)
}

func vecL2Impl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	a, b, err := pair("vec_l2", args)
	if err != nil || a == nil || b == nil {
		return nil, err
	}
	return vector.L2Distance(a, b)
}

func vecDotImpl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	a, b, err := pair("vec_dot", args)
	if err != nil || a == nil || b == nil {
		return nil, err
	}
	if len(a) != len(b) {
		return nil, fmt.Errorf("vec_dot: dimension mismatch %d vs %d", len(a), len(b))
	}
	return float64(vector.Dot(a, b)), nil
}

func vecNormalizeImpl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("vec_normalize: expected 1 argument, got %d", len(args))
	}
	v, err := asEmbedding(args[0])
	if err != nil || v == nil {
		return nil, err
	}
	if vector.Magnitude(v) == 0 {
		return nil, fmt.Errorf("vec_normalize: zero-magnitude vector")
	}
	return vector.EncodeEmbedding(vector.Normalize(v))
}
