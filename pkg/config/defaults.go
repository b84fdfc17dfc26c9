package config

const (
	defaultCorpusPath = "extracted_text.txt"

	defaultChunkSize  = 500
	defaultChunkScope = "document"

	defaultTopK = 3

	defaultEmbeddingProvider   = "ollama"
	defaultEmbeddingDimensions = 384
	defaultEmbeddingTimeout    = "60s"

	defaultVectorProvider = "flat"

	defaultLLMProvider = "gemini"
	defaultLLMTimeout  = "120s"

	defaultOllamaTarget = "http://localhost:11434"

	defaultExtractOutput = "extracted_text.txt"
	defaultOCRLang       = "por"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
//
// Model and target stay empty: they depend on the provider, so the
// embedder and caller factories pick them once the provider is known.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Corpus: CorpusConfig{
			Path: defaultCorpusPath,
		},
		Chunker: ChunkerConfig{
			Size:  defaultChunkSize,
			Scope: defaultChunkScope,
		},
		Retrieval: RetrievalConfig{
			TopK: defaultTopK,
		},
		Embedding: EmbeddingConfig{
			Provider:   defaultEmbeddingProvider,
			Dimensions: defaultEmbeddingDimensions,
			Timeout:    defaultEmbeddingTimeout,
		},
		VectorStore: VectorStoreConfig{
			Provider: defaultVectorProvider,
		},
		LLM: LLMConfig{
			Provider: defaultLLMProvider,
			Timeout:  defaultLLMTimeout,
		},
		Extract: ExtractConfig{
			Output:  defaultExtractOutput,
			OCRLang: defaultOCRLang,
		},
	}
}
