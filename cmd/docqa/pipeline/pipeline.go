// Package pipeline wires a resolved config into the components shared by the
// docqa commands: corpus, chunks, embedder, vector index, retriever and, for
// commands that answer questions, the orchestrator.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/papercomputeco/docqa/pkg/answer"
	"github.com/papercomputeco/docqa/pkg/chunker"
	"github.com/papercomputeco/docqa/pkg/config"
	"github.com/papercomputeco/docqa/pkg/corpus"
	"github.com/papercomputeco/docqa/pkg/credentials"
	"github.com/papercomputeco/docqa/pkg/embeddings"
	embeddingutils "github.com/papercomputeco/docqa/pkg/embeddings/utils"
	"github.com/papercomputeco/docqa/pkg/llm"
	"github.com/papercomputeco/docqa/pkg/logger"
	"github.com/papercomputeco/docqa/pkg/retriever"
	vectorutils "github.com/papercomputeco/docqa/pkg/vector/utils"
)

// Options configures Build.
type Options struct {
	Config *config.Config

	// ConfigDir overrides where credentials.toml is looked up.
	ConfigDir string

	// Embedder replaces the configured embedding provider when set.
	Embedder embeddings.Embedder

	Logger *slog.Logger
}

// Pipeline is a built retriever together with the material it indexed.
type Pipeline struct {
	Config    *config.Config
	Documents []corpus.Document
	Chunks    []chunker.Chunk
	Retriever *retriever.Retriever

	credMgr *credentials.Manager
	logger  *slog.Logger
}

// Build loads the corpus, chunks it, and indexes every chunk. Any failure is
// fatal to the caller: nothing useful can be answered without an index.
func Build(ctx context.Context, o Options) (*Pipeline, error) {
	if o.Config == nil {
		return nil, errors.New("pipeline requires a config")
	}
	cfg := o.Config

	if o.Logger == nil {
		o.Logger = logger.Nop()
	}

	credMgr, err := credentials.NewManager(o.ConfigDir)
	if err != nil {
		o.Logger.Debug("credentials unavailable", "error", err)
	}

	docs, err := corpus.Load(cfg.Corpus.Path)
	if err != nil {
		return nil, fmt.Errorf("loading corpus: %w", err)
	}

	scope, err := chunker.ParseScope(cfg.Chunker.Scope)
	if err != nil {
		return nil, err
	}

	chunks := chunker.ChunkDocuments(docs, chunker.Config{
		Size:  int(cfg.Chunker.Size),
		Scope: scope,
	})

	o.Logger.Debug("corpus chunked",
		"path", cfg.Corpus.Path,
		"documents", corpus.Len(docs),
		"chunks", len(chunks),
		"scope", scope,
	)

	embedder := o.Embedder
	if embedder == nil {
		embedder, err = embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
			ProviderType: cfg.Embedding.Provider,
			TargetURL:    cfg.Embedding.Target,
			Model:        cfg.Embedding.Model,
			Dimensions:   cfg.Embedding.Dimensions,
			CredMgr:      credMgr,
		})
		if err != nil {
			return nil, fmt.Errorf("creating embedder: %w", err)
		}
	}

	adapter := embeddings.NewAdapter(embedder, embeddings.AdapterConfig{
		Dimensions: cfg.Embedding.Dimensions,
		Timeout:    cfg.EmbeddingTimeout(),
	}, o.Logger)

	index, err := vectorutils.NewIndex(ctx, &vectorutils.NewIndexOpts{
		ProviderType: cfg.VectorStore.Provider,
		Target:       cfg.VectorStore.Target,
		Dimensions:   cfg.Embedding.Dimensions,
		Logger:       o.Logger,
	})
	if err != nil {
		_ = adapter.Close()
		return nil, fmt.Errorf("creating vector index: %w", err)
	}

	r, err := retriever.New(ctx, retriever.Config{
		Embedder: adapter,
		Index:    index,
		Chunks:   chunks,
		Logger:   o.Logger,
	})
	if err != nil {
		_ = index.Close()
		_ = adapter.Close()
		return nil, err
	}

	return &Pipeline{
		Config:    cfg,
		Documents: docs,
		Chunks:    chunks,
		Retriever: r,
		credMgr:   credMgr,
		logger:    o.Logger,
	}, nil
}

// Orchestrator builds an answer.Orchestrator over the pipeline's retriever.
// A nil generate is resolved from the configured LLM provider.
func (p *Pipeline) Orchestrator(generate llm.CallFunc) (*answer.Orchestrator, error) {
	if generate == nil {
		var err error
		generate, err = llm.NewCaller(llm.CallerConfig{
			Provider: p.Config.LLM.Provider,
			Model:    p.Config.LLM.Model,
			BaseURL:  p.Config.LLM.Target,
			CredMgr:  p.credMgr,
		})
		if err != nil {
			return nil, fmt.Errorf("creating generator: %w", err)
		}
	}

	return answer.New(answer.Config{
		Retriever: p.Retriever,
		Generate:  generate,
		TopK:      int(p.Config.Retrieval.TopK),
		Timeout:   p.Config.LLMTimeout(),
		Logger:    p.logger,
	})
}

// CheckGenerator fails when the configured LLM provider is unknown or has no
// resolvable API key. ask calls it before indexing.
func CheckGenerator(cfg *config.Config, configDir string) error {
	provider := strings.ToLower(cfg.LLM.Provider)
	if !slices.Contains(llm.Providers(), provider) {
		return fmt.Errorf("unsupported llm provider: %s (available: %s)",
			cfg.LLM.Provider, strings.Join(llm.Providers(), ", "))
	}

	credMgr, _ := credentials.NewManager(configDir)
	if !llm.HasCredentials(llm.CallerConfig{Provider: provider, CredMgr: credMgr}) {
		return fmt.Errorf("%w for %s: run 'docqa auth %s' or set %s",
			llm.ErrNoAPIKey, provider, provider, credentials.EnvVarForProvider(provider))
	}

	return nil
}

// Close releases the index and the embedder.
func (p *Pipeline) Close() error {
	return p.Retriever.Close()
}
