package config

import (
	"fmt"
	"strconv"
	"time"
)

// Config represents the persistent docqa configuration stored as config.toml
// in the .docqa/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	Corpus      CorpusConfig      `toml:"corpus"`
	Chunker     ChunkerConfig     `toml:"chunker"`
	Retrieval   RetrievalConfig   `toml:"retrieval"`
	Embedding   EmbeddingConfig   `toml:"embedding"`
	VectorStore VectorStoreConfig `toml:"vector_store"`
	LLM         LLMConfig         `toml:"llm"`
	Extract     ExtractConfig     `toml:"extract"`
}

// CorpusConfig points at the extracted text file the index is built from.
type CorpusConfig struct {
	Path string `toml:"path,omitempty"`
}

// ChunkerConfig holds word-window chunking settings.
type ChunkerConfig struct {
	Size  uint   `toml:"size,omitempty"`
	Scope string `toml:"scope,omitempty"`
}

// RetrievalConfig holds nearest-neighbor retrieval settings.
type RetrievalConfig struct {
	TopK uint `toml:"top_k,omitempty"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Model      string `toml:"model,omitempty"`
	Dimensions uint   `toml:"dimensions,omitempty"`
	Timeout    string `toml:"timeout,omitempty"`
}

// VectorStoreConfig holds vector index backend settings.
type VectorStoreConfig struct {
	Provider string `toml:"provider,omitempty"`
	Target   string `toml:"target,omitempty"`
}

// LLMConfig holds answer generation settings.
type LLMConfig struct {
	Provider string `toml:"provider,omitempty"`
	Model    string `toml:"model,omitempty"`
	Target   string `toml:"target,omitempty"`
	Timeout  string `toml:"timeout,omitempty"`
}

// ExtractConfig holds document extraction settings.
type ExtractConfig struct {
	Output  string `toml:"output,omitempty"`
	OCRLang string `toml:"ocr_lang,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func stringKey(get func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *get(c) },
		set: func(c *Config, v string) error { *get(c) = v; return nil },
	}
}

func uintKey(name string, get func(c *Config) *uint) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if *get(c) == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(*get(c)), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*get(c) = uint(n)
			return nil
		},
	}
}

func durationKey(name string, get func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *get(c) },
		set: func(c *Config, v string) error {
			if _, err := time.ParseDuration(v); err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*get(c) = v
			return nil
		},
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"corpus.path": stringKey(func(c *Config) *string { return &c.Corpus.Path }),

	"chunker.size": uintKey("chunker.size", func(c *Config) *uint { return &c.Chunker.Size }),
	"chunker.scope": {
		get: func(c *Config) string { return c.Chunker.Scope },
		set: func(c *Config, v string) error {
			if v != "document" && v != "corpus" {
				return fmt.Errorf("invalid value for chunker.scope: %q (expected document or corpus)", v)
			}
			c.Chunker.Scope = v
			return nil
		},
	},

	"retrieval.top_k": uintKey("retrieval.top_k", func(c *Config) *uint { return &c.Retrieval.TopK }),

	"embedding.provider":   stringKey(func(c *Config) *string { return &c.Embedding.Provider }),
	"embedding.target":     stringKey(func(c *Config) *string { return &c.Embedding.Target }),
	"embedding.model":      stringKey(func(c *Config) *string { return &c.Embedding.Model }),
	"embedding.dimensions": uintKey("embedding.dimensions", func(c *Config) *uint { return &c.Embedding.Dimensions }),
	"embedding.timeout":    durationKey("embedding.timeout", func(c *Config) *string { return &c.Embedding.Timeout }),

	"vector_store.provider": stringKey(func(c *Config) *string { return &c.VectorStore.Provider }),
	"vector_store.target":   stringKey(func(c *Config) *string { return &c.VectorStore.Target }),

	"llm.provider": stringKey(func(c *Config) *string { return &c.LLM.Provider }),
	"llm.model":    stringKey(func(c *Config) *string { return &c.LLM.Model }),
	"llm.target":   stringKey(func(c *Config) *string { return &c.LLM.Target }),
	"llm.timeout":  durationKey("llm.timeout", func(c *Config) *string { return &c.LLM.Timeout }),

	"extract.output":   stringKey(func(c *Config) *string { return &c.Extract.Output }),
	"extract.ocr_lang": stringKey(func(c *Config) *string { return &c.Extract.OCRLang }),
}
