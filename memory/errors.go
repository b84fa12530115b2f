package memory

import "errors"

var (
	// ErrInvalidConfig is wrapped by construction errors.
	ErrInvalidConfig = errors.New("memory: invalid config")

	// ErrDimension reports an empty batch or a query row whose length differs
	// from the key dimension.
	ErrDimension = errors.New("memory: query dimension mismatch")

	// ErrBatchSize reports a label slice whose length differs from the batch.
	ErrBatchSize = errors.New("memory: label count does not match batch size")
)
