// Package llm produces answer text from a prompt through a hosted or local
// model. Every provider is reduced to a CallFunc.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/papercomputeco/docqa/pkg/credentials"
)

const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
)

// Default models per provider.
const (
	DefaultGeminiModel    = "gemini-2.5-flash"
	DefaultOpenAIModel    = "gpt-4o-mini"
	DefaultAnthropicModel = "claude-haiku-4-5-20251001"
	DefaultOllamaModel    = "llama3.2"
)

// Default API roots per provider.
const (
	DefaultGeminiURL    = "https://generativelanguage.googleapis.com"
	DefaultAnthropicURL = "https://api.anthropic.com"
	DefaultOllamaURL    = "http://localhost:11434"
)

var (
	// ErrNoAPIKey is returned when a keyed provider has no resolvable key.
	ErrNoAPIKey = errors.New("no API key configured")

	// ErrEmptyResponse is returned when a provider answers without text.
	ErrEmptyResponse = errors.New("provider returned no text")
)

// CallFunc sends one prompt and returns the model's full reply. Calls are
// synchronous and non-streaming; deadlines come from ctx.
type CallFunc func(ctx context.Context, prompt string) (string, error)

// CallerConfig holds configuration for creating a CallFunc.
type CallerConfig struct {
	Provider string               // "gemini", "openai", "anthropic", or "ollama"
	Model    string               // e.g. "gemini-2.5-flash", "gpt-4o-mini"
	APIKey   string               // explicit API key (highest priority)
	BaseURL  string               // override base URL
	CredMgr  *credentials.Manager // credentials from docqa auth

	HTTPClient *http.Client
}

// HasCredentials reports whether a key can be resolved for cfg without
// building a caller. Ollama needs none.
func HasCredentials(cfg CallerConfig) bool {
	provider := strings.ToLower(cfg.Provider)
	if provider == ProviderOllama {
		return true
	}

	key, err := credentials.Resolve(cfg.CredMgr, provider, cfg.APIKey)
	return err == nil && key != ""
}

// NewCaller creates a CallFunc for cfg.Provider. An empty provider means gemini.
// Resolution order for the API key:
//  1. Explicit APIKey in config
//  2. credentials.Manager (from docqa auth)
//  3. The provider's environment variable (GEMINI_API_KEY, ...)
func NewCaller(cfg CallerConfig) (CallFunc, error) {
	provider := strings.ToLower(cfg.Provider)
	if provider == "" {
		provider = ProviderGemini
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel(provider)
	}

	if provider == ProviderOllama {
		return newOllamaCaller(client, model, orDefault(cfg.BaseURL, DefaultOllamaURL)), nil
	}

	if !credentials.IsSupportedProvider(provider) {
		return nil, fmt.Errorf("unsupported provider: %s (available: %s)", provider, strings.Join(Providers(), ", "))
	}

	apiKey, err := credentials.Resolve(cfg.CredMgr, provider, cfg.APIKey)
	if err != nil {
		return nil, fmt.Errorf("resolving %s key: %w", provider, err)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w for %s: run 'docqa auth %s' or set %s",
			ErrNoAPIKey, provider, provider, credentials.EnvVarForProvider(provider))
	}

	switch provider {
	case ProviderGemini:
		return newGeminiCaller(client, apiKey, model, orDefault(cfg.BaseURL, DefaultGeminiURL)), nil
	case ProviderOpenAI:
		return newOpenAICaller(client, apiKey, model, cfg.BaseURL), nil
	default:
		return newAnthropicCaller(client, apiKey, model, orDefault(cfg.BaseURL, DefaultAnthropicURL)), nil
	}
}

// DefaultModel returns the model used for provider when none is configured.
func DefaultModel(provider string) string {
	switch strings.ToLower(provider) {
	case ProviderGemini, "":
		return DefaultGeminiModel
	case ProviderOpenAI:
		return DefaultOpenAIModel
	case ProviderAnthropic:
		return DefaultAnthropicModel
	case ProviderOllama:
		return DefaultOllamaModel
	default:
		return ""
	}
}

// Providers lists the accepted provider names.
func Providers() []string {
	return []string{ProviderAnthropic, ProviderGemini, ProviderOllama, ProviderOpenAI}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return strings.TrimRight(v, "/")
}
