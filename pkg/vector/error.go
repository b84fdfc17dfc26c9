package vector

import "errors"

var (
	// ErrDimensionMismatch is returned when vectors of different lengths are
	// mixed in one index or a query does not match the index.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrEmptyIndex is returned when searching an index with no vectors.
	ErrEmptyIndex = errors.New("vector index is empty")

	// ErrInvalidK is returned when a search asks for a non-positive k.
	ErrInvalidK = errors.New("k must be positive")

	// ErrConnection is returned when a remote vector store is unreachable.
	ErrConnection = errors.New("vector store connection failed")
)
