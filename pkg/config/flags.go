package config

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline, so the same logical flag
// (e.g. --top-k on "docqa ask" and "docqa search") cannot drift.
type Flag struct {
	// Name is the long flag name (e.g. "top-k").
	Name string

	// Shorthand is the one-letter short flag (e.g. "k"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "retrieval.top_k").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
// Use these constants when calling AddStringFlag, AddUintFlag,
// and BindRegisteredFlags to avoid typos or drift from one command to another.
const (
	FlagCorpus           = "corpus"
	FlagChunkSize        = "chunk-size"
	FlagChunkScope       = "chunk-scope"
	FlagTopK             = "top-k"
	FlagEmbeddingProv    = "embedding-provider"
	FlagEmbeddingTgt     = "embedding-target"
	FlagEmbeddingModel   = "embedding-model"
	FlagEmbeddingDims    = "embedding-dimensions"
	FlagEmbeddingTimeout = "embedding-timeout"
	FlagVectorStoreProv  = "vector-store-provider"
	FlagVectorStoreTgt   = "vector-store-target"
	FlagLLMProvider      = "llm-provider"
	FlagLLMModel         = "llm-model"
	FlagLLMTarget        = "llm-target"
	FlagLLMTimeout       = "llm-timeout"
	FlagExtractOutput    = "output"
	FlagOCRLang          = "ocr-lang"
)

// Flags is the registry shared by every docqa command.
var Flags = FlagSet{
	FlagCorpus:           {Name: "corpus", Shorthand: "c", ViperKey: "corpus.path", Description: "Extracted text file to index"},
	FlagChunkSize:        {Name: "chunk-size", ViperKey: "chunker.size", Description: "Words per chunk"},
	FlagChunkScope:       {Name: "chunk-scope", ViperKey: "chunker.scope", Description: "Chunking scope: document or corpus"},
	FlagTopK:             {Name: "top-k", Shorthand: "k", ViperKey: "retrieval.top_k", Description: "Number of passages to retrieve"},
	FlagEmbeddingProv:    {Name: "embedding-provider", ViperKey: "embedding.provider", Description: "Embedding provider (ollama, openai, hash)"},
	FlagEmbeddingTgt:     {Name: "embedding-target", ViperKey: "embedding.target", Description: "Embedding provider URL"},
	FlagEmbeddingModel:   {Name: "embedding-model", ViperKey: "embedding.model", Description: "Embedding model name"},
	FlagEmbeddingDims:    {Name: "embedding-dimensions", ViperKey: "embedding.dimensions", Description: "Embedding dimensionality"},
	FlagEmbeddingTimeout: {Name: "embedding-timeout", ViperKey: "embedding.timeout", Description: "Timeout for a single embedding call"},
	FlagVectorStoreProv:  {Name: "vector-store-provider", ViperKey: "vector_store.provider", Description: "Vector index backend (flat, sqlite, qdrant)"},
	FlagVectorStoreTgt:   {Name: "vector-store-target", ViperKey: "vector_store.target", Description: "Vector index target (sqlite path or qdrant host:port)"},
	FlagLLMProvider:      {Name: "llm-provider", ViperKey: "llm.provider", Description: "Answer generation provider (gemini, openai, anthropic, ollama)"},
	FlagLLMModel:         {Name: "llm-model", ViperKey: "llm.model", Description: "Answer generation model"},
	FlagLLMTarget:        {Name: "llm-target", ViperKey: "llm.target", Description: "Answer generation base URL override"},
	FlagLLMTimeout:       {Name: "llm-timeout", ViperKey: "llm.timeout", Description: "Timeout for a single generation call"},
	FlagExtractOutput:    {Name: "output", Shorthand: "o", ViperKey: "extract.output", Description: "File the extracted text is written to"},
	FlagOCRLang:          {Name: "ocr-lang", ViperKey: "extract.ocr_lang", Description: "Tesseract language for OCR"},
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddUintFlag registers a uint flag on cmd from the given FlagSet.
func AddUintFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *uint) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultUint(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().UintVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().UintVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddDurationFlag registers a time.Duration flag on cmd from the given FlagSet.
func AddDurationFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *time.Duration) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultDuration(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().DurationVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().DurationVar(target, def.Name, defaultVal, def.Description)
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

func defaultsViper() *viper.Viper {
	v := viper.New()
	setViperDefaults(v)
	return v
}

// defaultString returns the default string value for a viper key from NewDefaultConfig.
func defaultString(viperKey string) string {
	return defaultsViper().GetString(viperKey)
}

// defaultUint returns the default uint value for a viper key from NewDefaultConfig.
func defaultUint(viperKey string) uint {
	return defaultsViper().GetUint(viperKey)
}

// defaultDuration returns the default duration for a viper key from NewDefaultConfig.
func defaultDuration(viperKey string) time.Duration {
	return defaultsViper().GetDuration(viperKey)
}
