package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/papercomputeco/docqa/pkg/dotdir"
)

// EnvPrefix prefixes every environment variable viper reads.
const EnvPrefix = "DOCQA"

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the DOCQA_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (DOCQA_LLM_PROVIDER, DOCQA_CHUNKER_SIZE, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	v.SetDefault("corpus.path", d.Corpus.Path)

	v.SetDefault("chunker.size", d.Chunker.Size)
	v.SetDefault("chunker.scope", d.Chunker.Scope)

	v.SetDefault("retrieval.top_k", d.Retrieval.TopK)

	v.SetDefault("embedding.provider", d.Embedding.Provider)
	v.SetDefault("embedding.target", d.Embedding.Target)
	v.SetDefault("embedding.model", d.Embedding.Model)
	v.SetDefault("embedding.dimensions", d.Embedding.Dimensions)
	v.SetDefault("embedding.timeout", d.Embedding.Timeout)

	v.SetDefault("vector_store.provider", d.VectorStore.Provider)
	v.SetDefault("vector_store.target", d.VectorStore.Target)

	v.SetDefault("llm.provider", d.LLM.Provider)
	v.SetDefault("llm.model", d.LLM.Model)
	v.SetDefault("llm.target", d.LLM.Target)
	v.SetDefault("llm.timeout", d.LLM.Timeout)

	v.SetDefault("extract.output", d.Extract.Output)
	v.SetDefault("extract.ocr_lang", d.Extract.OCRLang)
}

// FromViper materializes the effective configuration after flags, env and
// config.toml have been layered by v.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Version: v.GetInt("version"),
		Corpus: CorpusConfig{
			Path: v.GetString("corpus.path"),
		},
		Chunker: ChunkerConfig{
			Size:  v.GetUint("chunker.size"),
			Scope: v.GetString("chunker.scope"),
		},
		Retrieval: RetrievalConfig{
			TopK: v.GetUint("retrieval.top_k"),
		},
		Embedding: EmbeddingConfig{
			Provider:   v.GetString("embedding.provider"),
			Target:     v.GetString("embedding.target"),
			Model:      v.GetString("embedding.model"),
			Dimensions: v.GetUint("embedding.dimensions"),
			Timeout:    v.GetString("embedding.timeout"),
		},
		VectorStore: VectorStoreConfig{
			Provider: v.GetString("vector_store.provider"),
			Target:   v.GetString("vector_store.target"),
		},
		LLM: LLMConfig{
			Provider: v.GetString("llm.provider"),
			Model:    v.GetString("llm.model"),
			Target:   v.GetString("llm.target"),
			Timeout:  v.GetString("llm.timeout"),
		},
		Extract: ExtractConfig{
			Output:  v.GetString("extract.output"),
			OCRLang: v.GetString("extract.ocr_lang"),
		},
	}

	if cfg.Version != 0 && cfg.Version != CurrentV {
		return nil, fmt.Errorf("unsupported config version %d (expected %d)", cfg.Version, CurrentV)
	}

	for key, raw := range map[string]string{
		"embedding.timeout": cfg.Embedding.Timeout,
		"llm.timeout":       cfg.LLM.Timeout,
	} {
		if raw == "" {
			continue
		}
		if _, err := time.ParseDuration(raw); err != nil {
			return nil, fmt.Errorf("invalid value for %s: %w", key, err)
		}
	}

	applyDefaults(cfg)

	return cfg, nil
}

// EmbeddingTimeout returns embedding.timeout as a duration.
func (c *Config) EmbeddingTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Embedding.Timeout)
	return d
}

// LLMTimeout returns llm.timeout as a duration.
func (c *Config) LLMTimeout() time.Duration {
	d, _ := time.ParseDuration(c.LLM.Timeout)
	return d
}
