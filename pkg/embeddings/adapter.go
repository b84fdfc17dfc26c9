package embeddings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/papercomputeco/docqa/pkg/vector"
)

// DefaultBatchSize is how many texts are sent to a provider per call.
const DefaultBatchSize = 64

// AdapterConfig configures an Adapter.
type AdapterConfig struct {
	// Dimensions is the expected vector length. Zero accepts whatever the
	// first call returns and enforces it afterwards.
	Dimensions uint

	// BatchSize caps texts per provider call. Defaults to DefaultBatchSize.
	BatchSize int

	// Timeout bounds each provider call. Zero means no per-call deadline.
	Timeout time.Duration
}

// Adapter wraps a provider Embedder and enforces the batch contract: empty
// input never reaches the provider, one vector comes back per text, and every
// vector shares one dimensionality.
type Adapter struct {
	embedder  Embedder
	batchSize int
	timeout   time.Duration
	logger    *slog.Logger

	mu   sync.Mutex
	dims int
}

var _ Embedder = (*Adapter)(nil)

// NewAdapter wraps e.
func NewAdapter(e Embedder, c AdapterConfig, logger *slog.Logger) *Adapter {
	batchSize := c.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &Adapter{
		embedder:  e,
		batchSize: batchSize,
		timeout:   c.Timeout,
		logger:    logger,
		dims:      int(c.Dimensions),
	}
}

// Embed returns one vector per text, in order.
func (a *Adapter) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += a.batchSize {
		end := min(start+a.batchSize, len(texts))

		vectors, err := a.call(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		if len(vectors) != end-start {
			return nil, fmt.Errorf("%w: provider returned %d vectors for %d texts",
				ErrEmbedding, len(vectors), end-start)
		}
		if err := a.checkDimensions(vectors); err != nil {
			return nil, err
		}

		out = append(out, vectors...)
	}

	a.logger.Debug("embedded texts",
		"count", len(texts),
		"dimensions", a.Dimensions(),
	)

	return out, nil
}

// EmbedOne embeds a single text as a batch of one.
func (a *Adapter) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vectors, err := a.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// Dimensions reports the enforced vector length, or 0 before the first call
// when none was configured.
func (a *Adapter) Dimensions() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dims
}

// Close closes the wrapped provider.
func (a *Adapter) Close() error {
	return a.embedder.Close()
}

func (a *Adapter) call(ctx context.Context, texts []string) ([][]float32, error) {
	callCtx := ctx
	if a.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	vectors, err := a.embedder.Embed(callCtx, texts)
	if err == nil {
		return vectors, nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("%w after %s: %w", ErrTimeout, a.timeout, err)
	}
	if errors.Is(err, ErrEmbedding) {
		return nil, err
	}
	return nil, fmt.Errorf("%w: %w", ErrEmbedding, err)
}

func (a *Adapter) checkDimensions(vectors [][]float32) error {
	dims, err := vector.Dimensions(vectors)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.dims == 0 {
		a.dims = dims
	}
	if dims != a.dims {
		return fmt.Errorf("%w: embedder returned %d dimensions, expected %d",
			vector.ErrDimensionMismatch, dims, a.dims)
	}

	return nil
}
