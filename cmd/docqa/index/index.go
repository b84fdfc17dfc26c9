// Package indexcmder provides the index command, which builds the vector
// index over the corpus and reports what went into it.
package indexcmder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/docqa/cmd/docqa/pipeline"
	"github.com/papercomputeco/docqa/pkg/cliui"
	"github.com/papercomputeco/docqa/pkg/config"
	"github.com/papercomputeco/docqa/pkg/corpus"
	embeddingutils "github.com/papercomputeco/docqa/pkg/embeddings/utils"
)

type indexCommander struct {
	flags pipeline.Flags

	configDir string
	cfg       *config.Config
	logger    *slog.Logger
}

const indexLongDesc string = `Build the vector index over the corpus and report on it.

Loads the corpus file, splits it into word windows, embeds every window
and adds it to the configured vector store. Useful to check the embedding
provider and vector store before starting "docqa ask".

The index lives only for the run. The sqlite store writes its table to
--vector-store-target when it is a file path; the qdrant store creates a
temporary collection and drops it when the command exits.

Examples:
  docqa index
  docqa index --corpus extracted_text.txt --chunk-size 300
  docqa index --vector-store-provider sqlite --vector-store-target index.sqlite`

const indexShortDesc string = "Build the vector index over the corpus"

func NewIndexCmd() *cobra.Command {
	cmder := &indexCommander{}

	cmd := &cobra.Command{
		Use:   "index",
		Short: indexShortDesc,
		Long:  indexLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")
			cmder.cfg, err = pipeline.LoadConfig(cmd, pipeline.IndexFlags)
			return err
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, closeLog, err := pipeline.NewLogger(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = closeLog() }()

			cmder.logger = logger
			return cmder.run(cmd.Context(), cmd.OutOrStdout())
		},
	}

	cmder.flags.AddIndexFlags(cmd)

	return cmd
}

func (c *indexCommander) run(ctx context.Context, out io.Writer) error {
	var p *pipeline.Pipeline
	err := cliui.Step(out, fmt.Sprintf("Indexing %s", c.cfg.Corpus.Path), func() error {
		var err error
		p, err = pipeline.Build(ctx, pipeline.Options{
			Config:    c.cfg,
			ConfigDir: c.configDir,
			Logger:    c.logger,
		})
		return err
	})
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	rows := []struct {
		key   string
		value string
	}{
		{"Documents:", strconv.Itoa(corpus.Len(p.Documents))},
		{"Chunks:", strconv.Itoa(len(p.Chunks))},
		{"Vectors:", strconv.Itoa(p.Retriever.Len())},
		{"Dimensions:", strconv.Itoa(p.Retriever.Dimensions())},
		{"Chunk size:", fmt.Sprintf("%d words (%s scope)", c.cfg.Chunker.Size, c.cfg.Chunker.Scope)},
		{"Embedding:", embeddingName(c.cfg.Embedding)},
		{"Vector store:", c.cfg.VectorStore.Provider},
	}

	fmt.Fprintln(out)
	for _, row := range rows {
		fmt.Fprintf(out, "  %-14s %s\n", cliui.KeyStyle.Render(row.key), cliui.ValueStyle.Render(row.value))
	}
	fmt.Fprintf(out, "\n  %s Indexing completed!\n\n", cliui.SuccessMark)

	return nil
}

// embeddingName is provider/model, with the provider's default model filled in.
func embeddingName(e config.EmbeddingConfig) string {
	model := e.Model
	if model == "" {
		model = embeddingutils.DefaultModel(e.Provider)
	}
	if model == "" {
		return e.Provider
	}
	return e.Provider + "/" + model
}
