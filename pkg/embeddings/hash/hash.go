// Package hash implements an offline pkg/embeddings Embedder using feature
// hashing over word tokens. Vectors are deterministic and need no model, which
// makes it useful for air-gapped use and tests. Retrieval quality is lexical.
package hash

import (
	"context"
	"errors"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/papercomputeco/docqa/pkg/embeddings"
)

// DefaultDimensions matches the default all-minilm width so the offline
// preset can share an index configuration.
const DefaultDimensions = 384

// ErrInvalidDimensions is returned for a zero-width embedder.
var ErrInvalidDimensions = errors.New("hash embedder dimensions must be positive")

// Embedder maps each token to a signed bucket and L2-normalises the result.
type Embedder struct {
	dims int
}

var _ embeddings.Embedder = (*Embedder)(nil)

// NewEmbedder creates a hash embedder producing vectors of length dims.
// Zero means DefaultDimensions.
func NewEmbedder(dims uint) (*Embedder, error) {
	if dims == 0 {
		dims = DefaultDimensions
	}
	if dims > math.MaxInt32 {
		return nil, ErrInvalidDimensions
	}

	return &Embedder{dims: int(dims)}, nil
}

// Embed hashes every text. It only fails when ctx is already done.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vectors[i] = e.vector(text)
	}

	return vectors, nil
}

func (e *Embedder) vector(text string) []float32 {
	v := make([]float32, e.dims)
	for _, token := range Tokens(text) {
		h := fnv.New64a()
		_, _ = h.Write([]byte(token))
		sum := h.Sum64()

		bucket := int(sum % uint64(e.dims))
		if sum>>63 == 1 {
			v[bucket]--
		} else {
			v[bucket]++
		}
	}

	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		return v
	}

	inv := float32(1 / math.Sqrt(norm))
	for i := range v {
		v[i] *= inv
	}

	return v
}

// Tokens lower-cases text and splits it on anything that is not a letter or
// digit.
func Tokens(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Close releases resources held by the embedder.
func (e *Embedder) Close() error {
	return nil
}
