// Package retriever builds the vector index over a chunk list and resolves
// questions to the nearest chunks.
package retriever

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/papercomputeco/docqa/pkg/chunker"
	"github.com/papercomputeco/docqa/pkg/embeddings"
	"github.com/papercomputeco/docqa/pkg/vector"
)

// DefaultTopK is used when Retrieve is called with k <= 0.
const DefaultTopK = 3

var (
	// ErrEmptyCorpus is returned by Retrieve when nothing was indexed.
	ErrEmptyCorpus = errors.New("corpus produced no chunks")

	// ErrMisaligned is returned when the index and chunk list disagree.
	ErrMisaligned = errors.New("index and chunks are misaligned")
)

// Passage is a retrieved chunk with its squared distance to the question.
type Passage struct {
	Chunk    chunker.Chunk
	Distance float32
}

// Config holds the collaborators of a Retriever.
type Config struct {
	Embedder *embeddings.Adapter
	Index    vector.Index
	Chunks   []chunker.Chunk
	Logger   *slog.Logger
}

// Retriever pairs an index with the chunks it was built from. Slot i of the
// index is chunks[i]. It is read-only after New and safe for concurrent use.
type Retriever struct {
	embedder *embeddings.Adapter
	index    vector.Index
	chunks   []chunker.Chunk
	logger   *slog.Logger
}

// New embeds every chunk in one batch call and fills the index.
func New(ctx context.Context, c Config) (*Retriever, error) {
	if c.Embedder == nil {
		return nil, errors.New("retriever requires an embedder")
	}
	if c.Index == nil {
		return nil, errors.New("retriever requires an index")
	}

	logger := c.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	r := &Retriever{
		embedder: c.Embedder,
		index:    c.Index,
		chunks:   c.Chunks,
		logger:   logger,
	}

	if len(c.Chunks) == 0 {
		logger.Warn("no chunks to index")
		return r, nil
	}

	vectors, err := c.Embedder.Embed(ctx, chunker.Texts(c.Chunks))
	if err != nil {
		return nil, fmt.Errorf("embedding chunks: %w", err)
	}

	if err := vector.Build(ctx, c.Index, vectors); err != nil {
		return nil, fmt.Errorf("building index: %w", err)
	}

	if got := c.Index.Len(); got != len(c.Chunks) {
		return nil, fmt.Errorf("%w: index holds %d vectors for %d chunks", ErrMisaligned, got, len(c.Chunks))
	}

	logger.Info("index built",
		"chunks", len(c.Chunks),
		"dimensions", c.Embedder.Dimensions(),
	)

	return r, nil
}

// Retrieve returns up to k passages ordered by ascending distance.
func (r *Retriever) Retrieve(ctx context.Context, question string, k int) ([]Passage, error) {
	if len(r.chunks) == 0 {
		return nil, ErrEmptyCorpus
	}
	if k <= 0 {
		k = DefaultTopK
	}

	query, err := r.embedder.EmbedOne(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embedding question: %w", err)
	}

	results, err := r.index.Search(ctx, query, k)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}

	passages := make([]Passage, 0, len(results))
	for _, res := range results {
		if res.Slot < 0 || res.Slot >= len(r.chunks) {
			return nil, fmt.Errorf("%w: slot %d outside %d chunks", ErrMisaligned, res.Slot, len(r.chunks))
		}
		passages = append(passages, Passage{
			Chunk:    r.chunks[res.Slot],
			Distance: res.Distance,
		})
	}

	r.logger.Debug("retrieved passages",
		"k", k,
		"returned", len(passages),
	)

	return passages, nil
}

// Chunks returns the indexed chunk list.
func (r *Retriever) Chunks() []chunker.Chunk {
	return r.chunks
}

// Len returns the number of indexed chunks.
func (r *Retriever) Len() int {
	return len(r.chunks)
}

// Dimensions returns the embedding width, or 0 if nothing was embedded yet.
func (r *Retriever) Dimensions() int {
	return r.embedder.Dimensions()
}

// Close releases the index and the embedder.
func (r *Retriever) Close() error {
	return errors.Join(r.index.Close(), r.embedder.Close())
}

// Texts returns the chunk text of each passage in order.
func Texts(passages []Passage) []string {
	texts := make([]string, len(passages))
	for i, p := range passages {
		texts[i] = p.Chunk.Text
	}
	return texts
}
