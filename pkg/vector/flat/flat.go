// Package flat provides an exact, in-memory brute-force vector index.
package flat

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/papercomputeco/docqa/pkg/vector"
)

// Index holds vectors in slot order and scans all of them on every search.
type Index struct {
	mu      sync.RWMutex
	dims    int
	vectors [][]float32
	logger  *slog.Logger
}

var _ vector.Index = (*Index)(nil)

// Config holds configuration for the flat index.
type Config struct {
	// Dimensions fixes the vector length. Zero lets the first Add decide.
	Dimensions int
}

// NewIndex creates an empty flat index.
func NewIndex(c Config, logger *slog.Logger) *Index {
	return &Index{
		dims:   c.Dimensions,
		logger: logger,
	}
}

// Add appends vectors. Every vector must match the index dimensionality.
func (i *Index) Add(_ context.Context, vectors [][]float32) error {
	if len(vectors) == 0 {
		return nil
	}

	dims, err := vector.Dimensions(vectors)
	if err != nil {
		return err
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	if i.dims == 0 {
		i.dims = dims
	}
	if dims != i.dims {
		return fmt.Errorf("%w: got %d dimensions, index has %d",
			vector.ErrDimensionMismatch, dims, i.dims)
	}

	for _, v := range vectors {
		i.vectors = append(i.vectors, append([]float32(nil), v...))
	}

	i.logger.Debug("added vectors to flat index",
		"count", len(vectors),
		"total", len(i.vectors),
	)

	return nil
}

// Search computes the distance to every vector and returns the k closest.
func (i *Index) Search(ctx context.Context, query []float32, k int) ([]vector.Result, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if err := vector.CheckQuery(len(i.vectors), i.dims, query, k); err != nil {
		return nil, err
	}

	results := make([]vector.Result, len(i.vectors))
	for slot, v := range i.vectors {
		if slot%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		results[slot] = vector.Result{
			Slot:     slot,
			Distance: vector.SquaredL2(query, v),
		}
	}

	vector.SortResults(results)

	if k < len(results) {
		results = results[:k]
	}

	return results, nil
}

// Len returns the number of indexed vectors.
func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.vectors)
}

// Close is a no-op.
func (i *Index) Close() error {
	return nil
}
