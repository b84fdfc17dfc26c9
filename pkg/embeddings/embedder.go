// Package embeddings turns text into fixed-length vectors.
package embeddings

import "context"

// Embedder provides batch text embedding.
type Embedder interface {
	// Embed converts texts into vectors, one per input in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Close releases any resources held by the embedder.
	Close() error
}
