// Package embeddingutils is the embeddings utility package
package embeddingutils

import (
	"fmt"
	"strings"

	"github.com/papercomputeco/docqa/pkg/credentials"
	"github.com/papercomputeco/docqa/pkg/embeddings"
	"github.com/papercomputeco/docqa/pkg/embeddings/hash"
	"github.com/papercomputeco/docqa/pkg/embeddings/ollama"
	"github.com/papercomputeco/docqa/pkg/embeddings/openai"
)

const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
	ProviderHash   = "hash"
)

type NewEmbedderOpts struct {
	ProviderType string
	TargetURL    string
	Model        string
	Dimensions   uint

	// APIKey is used as-is when set. Otherwise keyed providers resolve one
	// from CredMgr and then the environment.
	APIKey  string
	CredMgr *credentials.Manager
}

func NewEmbedder(o *NewEmbedderOpts) (embeddings.Embedder, error) {
	switch o.ProviderType {
	case ProviderOllama:
		return ollama.NewEmbedder(ollama.EmbedderConfig{
			BaseURL: o.TargetURL,
			Model:   o.Model,
		})
	case ProviderOpenAI:
		key, err := credentials.Resolve(o.CredMgr, ProviderOpenAI, o.APIKey)
		if err != nil {
			return nil, err
		}
		return openai.NewEmbedder(openai.EmbedderConfig{
			APIKey:     key,
			BaseURL:    o.TargetURL,
			Model:      o.Model,
			Dimensions: o.Dimensions,
		})
	case ProviderHash:
		return hash.NewEmbedder(o.Dimensions)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s (available: %s)", o.ProviderType, strings.Join(Providers(), ", "))
	}
}

// DefaultModel returns the model a provider uses when none is configured.
// The hash provider has no model.
func DefaultModel(provider string) string {
	switch provider {
	case ProviderOllama:
		return ollama.DefaultEmbeddingModel
	case ProviderOpenAI:
		return openai.DefaultEmbeddingModel
	default:
		return ""
	}
}

// Providers lists the accepted embedding provider names.
func Providers() []string {
	return []string{ProviderHash, ProviderOllama, ProviderOpenAI}
}
