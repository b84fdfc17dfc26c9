// Package vector provides exact nearest-neighbor indexes over embedding
// vectors. Vectors are addressed by slot: the i-th vector added to an index
// lives in slot i, which lets callers keep a parallel slice of payloads.
package vector

import (
	"cmp"
	"context"
	"fmt"
	"slices"
)

// Result is one search hit.
type Result struct {
	// Slot is the position of the vector in insertion order.
	Slot int

	// Distance is the squared Euclidean distance to the query.
	Distance float32
}

// Index is a nearest-neighbor index. After the build phase an index is
// read-only and Search must be safe for concurrent use.
type Index interface {
	// Add appends vectors in order. Slots are assigned sequentially from Len().
	Add(ctx context.Context, vectors [][]float32) error

	// Search returns up to k results ordered by ascending squared L2
	// distance, ties broken by the lower slot.
	Search(ctx context.Context, query []float32, k int) ([]Result, error)

	// Len returns the number of indexed vectors.
	Len() int

	// Close releases any resources held by the index.
	Close() error
}

// Build validates that every vector shares one dimensionality and then
// bulk-inserts them into idx.
func Build(ctx context.Context, idx Index, vectors [][]float32) error {
	if _, err := Dimensions(vectors); err != nil {
		return err
	}
	return idx.Add(ctx, vectors)
}

// Dimensions returns the common length of vectors, or ErrDimensionMismatch
// when they disagree. An empty input reports 0.
func Dimensions(vectors [][]float32) (int, error) {
	if len(vectors) == 0 {
		return 0, nil
	}

	dims := len(vectors[0])
	for i, v := range vectors {
		if len(v) != dims {
			return 0, fmt.Errorf("%w: vector %d has %d dimensions, expected %d",
				ErrDimensionMismatch, i, len(v), dims)
		}
	}

	return dims, nil
}

// CheckQuery applies the search preconditions shared by every backend.
func CheckQuery(size, dims int, query []float32, k int) error {
	if size == 0 {
		return ErrEmptyIndex
	}
	if k <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidK, k)
	}
	if len(query) != dims {
		return fmt.Errorf("%w: query has %d dimensions, index has %d",
			ErrDimensionMismatch, len(query), dims)
	}
	return nil
}

// SquaredL2 returns the squared Euclidean distance between a and b, which
// must have equal length.
func SquaredL2(a, b []float32) float32 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return float32(sum)
}

// SortResults orders results by ascending distance, then ascending slot.
func SortResults(results []Result) {
	slices.SortFunc(results, func(a, b Result) int {
		if c := cmp.Compare(a.Distance, b.Distance); c != 0 {
			return c
		}
		return cmp.Compare(a.Slot, b.Slot)
	})
}
