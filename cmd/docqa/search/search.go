// Package searchcmder provides the search command for retrieval-only queries
// against the indexed corpus.
package searchcmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/docqa/cmd/docqa/pipeline"
	"github.com/papercomputeco/docqa/pkg/config"
	"github.com/papercomputeco/docqa/pkg/retriever"
	"github.com/papercomputeco/docqa/pkg/utils"
)

var (
	rankStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	scoreStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	sourceStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	previewStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true)
)

const previewLen = 120

type searchCommander struct {
	flags pipeline.Flags
	topK  uint
	quiet bool

	query     string
	configDir string
	cfg       *config.Config
	logger    *slog.Logger
}

const searchLongDesc string = `Search the indexed corpus without generating an answer.

Builds the index over the corpus file and prints the passages closest to
the query, nearest first, with their squared L2 distance. This is the
context "docqa ask" would hand to the model.

Use --quiet to print only chunk slots, one per line.

Examples:
  docqa search "prazo de entrega"
  docqa search "forma de pagamento" -k 5
  docqa search "multa" --quiet`

const searchShortDesc string = "Search the indexed corpus"

func NewSearchCmd() *cobra.Command {
	cmder := &searchCommander{}

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: searchShortDesc,
		Long:  searchLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")
			cmder.cfg, err = pipeline.LoadConfig(cmd, pipeline.IndexFlags, []string{config.FlagTopK})
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.query = args[0]
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
	config.AddUintFlag(cmd, config.Flags, config.FlagTopK, &cmder.flags.TopK)
	cmd.Flags().BoolVarP(&cmder.quiet, "quiet", "q", false, "Output only chunk slots, one per line")

	return cmd
}

func (c *searchCommander) run(ctx context.Context, out io.Writer) error {
	p, err := pipeline.Build(ctx, pipeline.Options{
		Config:    c.cfg,
		ConfigDir: c.configDir,
		Logger:    c.logger,
	})
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	passages, err := p.Retriever.Retrieve(ctx, c.query, int(c.cfg.Retrieval.TopK))
	if err != nil {
		if errors.Is(err, retriever.ErrEmptyCorpus) && !c.quiet {
			fmt.Fprintln(out, "No results found.")
			return nil
		}
		return err
	}

	if c.quiet {
		for _, passage := range passages {
			fmt.Fprintln(out, passage.Chunk.Index)
		}
		return nil
	}

	fmt.Fprintf(out, "\n%s %s\n\n",
		headerStyle.Render("Search Results for:"),
		sourceStyle.Render(fmt.Sprintf("%q", c.query)),
	)

	for i, passage := range passages {
		printResult(out, i+1, passage)
	}

	return nil
}

func printResult(out io.Writer, rank int, passage retriever.Passage) {
	fmt.Fprintf(out, "  %s  %s  %s\n",
		rankStyle.Render(fmt.Sprintf("#%d", rank)),
		sourceStyle.Render(fmt.Sprintf("%s [%d]", passage.Chunk.Source, passage.Chunk.Index)),
		scoreStyle.Render(fmt.Sprintf("distance: %.4f", passage.Distance)),
	)
	fmt.Fprintf(out, "      %s\n\n", previewStyle.Render(utils.Preview(passage.Chunk.Text, previewLen)))
}
