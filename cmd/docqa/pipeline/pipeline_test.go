package pipeline_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/docqa/cmd/docqa/pipeline"
	"github.com/papercomputeco/docqa/pkg/config"
	"github.com/papercomputeco/docqa/pkg/llm"
	testutils "github.com/papercomputeco/docqa/pkg/utils/test"
)

var _ = Describe("Build", func() {
	var (
		ctx      context.Context
		tmpDir   string
		cfg      *config.Config
		embedder *testutils.MockEmbedder
	)

	BeforeEach(func() {
		ctx = context.Background()
		tmpDir = GinkgoT().TempDir()

		corpusPath := filepath.Join(tmpDir, "extracted_text.txt")
		text := "--- a.txt ---\none two three\n--- b.txt ---\nfour five\n"
		Expect(os.WriteFile(corpusPath, []byte(text), 0o600)).To(Succeed())

		cfg = config.NewDefaultConfig()
		cfg.Corpus.Path = corpusPath
		cfg.Chunker.Size = 2
		cfg.Embedding.Dimensions = 3

		embedder = testutils.NewMockEmbedder()
	})

	build := func() (*pipeline.Pipeline, error) {
		return pipeline.Build(ctx, pipeline.Options{
			Config:    cfg,
			ConfigDir: filepath.Join(tmpDir, ".docqa"),
			Embedder:  embedder,
		})
	}

	It("indexes every chunk of the corpus", func() {
		p, err := build()
		Expect(err).NotTo(HaveOccurred())

		Expect(p.Documents).To(HaveLen(2))
		Expect(p.Chunks).To(HaveLen(3))
		Expect(p.Retriever.Len()).To(Equal(3))
		Expect(embedder.Batches()).To(Equal([][]string{{"one two", "three", "four five"}}))

		Expect(p.Close()).To(Succeed())
		Expect(embedder.Closed()).To(Equal(1))
	})

	It("requires a config", func() {
		_, err := pipeline.Build(ctx, pipeline.Options{})
		Expect(err).To(HaveOccurred())
	})

	It("closes the embedder when the vector store cannot be created", func() {
		cfg.VectorStore.Provider = "pinecone"

		_, err := build()
		Expect(err).To(MatchError(ContainSubstring("creating vector index")))
		Expect(embedder.Closed()).To(Equal(1))
	})

	It("closes the embedder when the chunks cannot be embedded", func() {
		embedder.FailOn = "three"

		_, err := build()
		Expect(err).To(MatchError(ContainSubstring("embedding chunks")))
		Expect(embedder.Closed()).To(Equal(1))
	})

	It("fails before creating anything when the corpus is missing", func() {
		cfg.Corpus.Path = filepath.Join(tmpDir, "missing.txt")

		_, err := build()
		Expect(err).To(MatchError(ContainSubstring("loading corpus")))
		Expect(embedder.Calls()).To(Equal(0))
	})

	It("answers through the orchestrator with the given generator", func() {
		p, err := build()
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(p.Close)

		caller := testutils.NewMockCaller("Cinco.")
		o, err := p.Orchestrator(caller.Call)
		Expect(err).NotTo(HaveOccurred())

		answer, err := o.Answer(ctx, "quantos?")
		Expect(err).NotTo(HaveOccurred())
		Expect(answer).To(Equal("Cinco."))
		Expect(caller.Prompts()).To(HaveLen(1))
	})
})

var _ = Describe("CheckGenerator", func() {
	var (
		cfg       *config.Config
		configDir string
	)

	BeforeEach(func() {
		cfg = config.NewDefaultConfig()
		configDir = filepath.Join(GinkgoT().TempDir(), ".docqa")
	})

	It("accepts ollama without a key", func() {
		cfg.LLM.Provider = "ollama"
		Expect(pipeline.CheckGenerator(cfg, configDir)).To(Succeed())
	})

	It("accepts a keyed provider with its environment variable", func() {
		GinkgoT().Setenv("GEMINI_API_KEY", "test-key")
		Expect(pipeline.CheckGenerator(cfg, configDir)).To(Succeed())
	})

	It("rejects a keyed provider without a key", func() {
		GinkgoT().Setenv("OPENAI_API_KEY", "")
		cfg.LLM.Provider = "openai"

		err := pipeline.CheckGenerator(cfg, configDir)
		Expect(err).To(MatchError(llm.ErrNoAPIKey))
		Expect(err.Error()).To(ContainSubstring("OPENAI_API_KEY"))
	})

	It("rejects unknown providers", func() {
		cfg.LLM.Provider = "bard"
		Expect(pipeline.CheckGenerator(cfg, configDir)).To(MatchError(ContainSubstring("unsupported llm provider: bard")))
	})
})

var _ = Describe("NewLogger", func() {
	newCmd := func(args ...string) *cobra.Command {
		cmd := &cobra.Command{Use: "test", RunE: func(*cobra.Command, []string) error { return nil }}
		cmd.Flags().Bool("debug", false, "")
		cmd.Flags().String("log-file", "", "")
		Expect(cmd.ParseFlags(args)).To(Succeed())
		return cmd
	}

	It("needs no file by default", func() {
		l, closeLog, err := pipeline.NewLogger(newCmd())
		Expect(err).NotTo(HaveOccurred())
		Expect(l).NotTo(BeNil())
		Expect(closeLog()).To(Succeed())
	})

	It("appends JSON debug records to --log-file", func() {
		path := filepath.Join(GinkgoT().TempDir(), "docqa.log")

		l, closeLog, err := pipeline.NewLogger(newCmd("--log-file", path))
		Expect(err).NotTo(HaveOccurred())
		l.Debug("chunked", "chunks", 3)
		Expect(closeLog()).To(Succeed())

		data, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())

		var record map[string]any
		Expect(json.Unmarshal([]byte(strings.TrimSpace(string(data))), &record)).To(Succeed())
		Expect(record["msg"]).To(Equal("chunked"))
		Expect(record["level"]).To(Equal("DEBUG"))
		Expect(record["chunks"]).To(BeNumerically("==", 3))
	})

	It("fails when the log file cannot be opened", func() {
		path := filepath.Join(GinkgoT().TempDir(), "missing", "docqa.log")
		_, _, err := pipeline.NewLogger(newCmd("--log-file", path))
		Expect(err).To(MatchError(ContainSubstring("opening log file")))
	})
})
