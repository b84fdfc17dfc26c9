// Package qdrantvec provides a vector index backed by an ephemeral Qdrant
// collection. The collection is created on construction and dropped on
// Close, so nothing outlives the process.
package qdrantvec

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/papercomputeco/docqa/pkg/vector"
)

const (
	defaultHost = "localhost"
	defaultPort = 6334

	upsertBatchSize = 256
	closeTimeout    = 10 * time.Second
)

// pointsClient is the subset of *qdrant.Client the index uses.
type pointsClient interface {
	CreateCollection(ctx context.Context, request *qdrant.CreateCollection) error
	Upsert(ctx context.Context, request *qdrant.UpsertPoints) (*qdrant.UpdateResult, error)
	Query(ctx context.Context, request *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error)
	DeleteCollection(ctx context.Context, collectionName string) error
	Close() error
}

// Index implements vector.Index on a Qdrant collection using Euclid
// distance. Slot i is stored as point id i.
type Index struct {
	client     pointsClient
	collection string
	dims       int
	logger     *slog.Logger

	mu   sync.RWMutex
	size int
}

var _ vector.Index = (*Index)(nil)

// Config holds configuration for the Qdrant index.
type Config struct {
	// Target is the gRPC host:port of the Qdrant server. Defaults to
	// localhost:6334.
	Target string

	// APIKey is sent with every request when set.
	APIKey string

	// UseTLS enables TLS on the gRPC connection.
	UseTLS bool

	// Dimensions is the number of dimensions for the embedding vectors.
	Dimensions uint

	// Collection overrides the generated docqa-<uuid> collection name.
	Collection string
}

// NewIndex connects to Qdrant and creates a fresh collection.
func NewIndex(ctx context.Context, c Config, logger *slog.Logger) (*Index, error) {
	host, port, err := ParseTarget(c.Target)
	if err != nil {
		return nil, err
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: c.APIKey,
		UseTLS: c.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", vector.ErrConnection, err)
	}

	idx, err := newIndex(ctx, client, c, logger)
	if err != nil {
		client.Close()
		return nil, err
	}

	return idx, nil
}

func newIndex(ctx context.Context, client pointsClient, c Config, logger *slog.Logger) (*Index, error) {
	if c.Dimensions == 0 {
		return nil, errors.New("qdrant embedding dimensions cannot be 0, must be configured")
	}

	collection := c.Collection
	if collection == "" {
		collection = "docqa-" + uuid.NewString()
	}

	err := client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(c.Dimensions),
			Distance: qdrant.Distance_Euclid,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: creating collection %s: %w", vector.ErrConnection, collection, err)
	}

	logger.Info("qdrant vector index initialized",
		"collection", collection,
		"dimensions", c.Dimensions,
	)

	return &Index{
		client:     client,
		collection: collection,
		dims:       int(c.Dimensions),
		logger:     logger,
	}, nil
}

// ParseTarget splits a host[:port] target, applying the gRPC defaults.
func ParseTarget(target string) (string, int, error) {
	if target == "" {
		return defaultHost, defaultPort, nil
	}

	host, portStr, err := net.SplitHostPort(target)
	if err != nil {
		// No port in target.
		return target, defaultPort, nil
	}

	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 {
		return "", 0, fmt.Errorf("invalid qdrant port in %q", target)
	}
	if host == "" {
		host = defaultHost
	}

	return host, port, nil
}

// Collection returns the name of the backing collection.
func (x *Index) Collection() string {
	return x.collection
}

// Add upserts vectors in batches, waiting for each batch to be applied.
func (x *Index) Add(ctx context.Context, vectors [][]float32) error {
	if len(vectors) == 0 {
		return nil
	}

	dims, err := vector.Dimensions(vectors)
	if err != nil {
		return err
	}
	if dims != x.dims {
		return fmt.Errorf("%w: got %d dimensions, index has %d",
			vector.ErrDimensionMismatch, dims, x.dims)
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	for start := 0; start < len(vectors); start += upsertBatchSize {
		end := min(start+upsertBatchSize, len(vectors))

		points := make([]*qdrant.PointStruct, 0, end-start)
		for i, v := range vectors[start:end] {
			slot := x.size + start + i
			points = append(points, &qdrant.PointStruct{
				Id:      qdrant.NewIDNum(uint64(slot)),
				Vectors: qdrant.NewVectors(v...),
			})
		}

		_, err := x.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: x.collection,
			Wait:           qdrant.PtrOf(true),
			Points:         points,
		})
		if err != nil {
			return fmt.Errorf("upserting points %d-%d: %w", start, end-1, err)
		}
	}

	x.size += len(vectors)

	x.logger.Debug("added vectors to qdrant",
		"collection", x.collection,
		"count", len(vectors),
		"total", x.size,
	)

	return nil
}

// Search queries the collection for the k nearest points.
func (x *Index) Search(ctx context.Context, query []float32, k int) ([]vector.Result, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if err := vector.CheckQuery(x.size, x.dims, query, k); err != nil {
		return nil, err
	}

	points, err := x.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: x.collection,
		Query:          qdrant.NewQuery(query...),
		Limit:          qdrant.PtrOf(uint64(min(k, x.size))),
	})
	if err != nil {
		return nil, fmt.Errorf("querying qdrant: %w", err)
	}

	results := make([]vector.Result, 0, len(points))
	for _, p := range points {
		// Euclid scores are plain L2 distances.
		score := float64(p.GetScore())
		results = append(results, vector.Result{
			Slot:     int(p.GetId().GetNum()),
			Distance: float32(score * score),
		})
	}

	vector.SortResults(results)

	x.logger.Debug("queried qdrant",
		"collection", x.collection,
		"results", len(results),
	)

	return results, nil
}

// Len returns the number of indexed vectors.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.size
}

// Close drops the collection and closes the connection.
func (x *Index) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	dropErr := x.client.DeleteCollection(ctx, x.collection)
	if dropErr != nil {
		dropErr = fmt.Errorf("dropping collection %s: %w", x.collection, dropErr)
	}

	return errors.Join(dropErr, x.client.Close())
}
