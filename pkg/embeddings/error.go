package embeddings

import "errors"

var (
	// ErrEmbedding is returned when embedding generation fails.
	ErrEmbedding = errors.New("embedding failed")

	// ErrTimeout is returned when an embedding call exceeds its deadline.
	ErrTimeout = errors.New("embedding timed out")
)
