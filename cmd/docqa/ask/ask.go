// Package askcmder provides the ask command: build the index over the
// extracted corpus, then answer questions about it.
package askcmder

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/docqa/cmd/docqa/pipeline"
	"github.com/papercomputeco/docqa/pkg/batch"
	"github.com/papercomputeco/docqa/pkg/cliui"
	"github.com/papercomputeco/docqa/pkg/config"
	"github.com/papercomputeco/docqa/pkg/llm"
)

type askCommander struct {
	flags pipeline.Flags

	batchFile   string
	workers     uint
	render      bool
	showSources bool

	configDir string
	cfg       *config.Config
	logger    *slog.Logger

	// generate replaces the configured LLM provider in tests.
	generate llm.CallFunc
}

const askLongDesc string = `Ask questions about the extracted documents.

The corpus file (see "docqa extract") is split into word windows, every
window is embedded and indexed, and then each question is answered by the
configured model using the closest windows as context.

Without --batch an interactive session starts. Type a question and press
Enter. Type sair, exit or quit (or press Ctrl+D) to end the session.

With --batch each non-blank line of FILE is answered concurrently and the
answers are printed in input order.

Examples:
  docqa ask
  docqa ask --corpus extracted_text.txt --top-k 5
  docqa ask --llm-provider ollama --llm-model llama3.2
  docqa ask --batch questions.txt --workers 4
  docqa ask --render --show-sources`

const askShortDesc string = "Ask questions about the extracted documents"

func NewAskCmd() *cobra.Command {
	return newAskCmd(&askCommander{})
}

func newAskCmd(cmder *askCommander) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask",
		Short: askShortDesc,
		Long:  askLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")
			cmder.cfg, err = pipeline.LoadConfig(cmd, pipeline.IndexFlags, pipeline.AnswerFlags)
			return err
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, closeLog, err := pipeline.NewLogger(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = closeLog() }()

			cmder.logger = logger
			return cmder.run(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmder.flags.AddIndexFlags(cmd)
	cmder.flags.AddAnswerFlags(cmd)
	cmd.Flags().StringVar(&cmder.batchFile, "batch", "", "Answer every line of FILE instead of starting a session")
	cmd.Flags().UintVar(&cmder.workers, "workers", 3, "Concurrent questions in --batch mode")
	cmd.Flags().BoolVar(&cmder.render, "render", false, "Render answers as markdown")
	cmd.Flags().BoolVar(&cmder.showSources, "show-sources", false, "Print the passages each answer was grounded on")

	return cmd
}

func (c *askCommander) run(ctx context.Context, in io.Reader, out io.Writer) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var questions []string
	if c.batchFile != "" {
		var err error
		questions, err = readQuestions(c.batchFile)
		if err != nil {
			return err
		}
	}

	if c.generate == nil {
		if err := pipeline.CheckGenerator(c.cfg, c.configDir); err != nil {
			return err
		}
	}

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

	fmt.Fprintf(out, "  %s %s  %s %s\n\n",
		cliui.KeyStyle.Render("Chunks:"),
		cliui.ValueStyle.Render(strconv.Itoa(len(p.Chunks))),
		cliui.KeyStyle.Render("Dimensions:"),
		cliui.ValueStyle.Render(strconv.Itoa(p.Retriever.Dimensions())),
	)

	orchestrator, err := p.Orchestrator(c.generate)
	if err != nil {
		return err
	}

	if c.batchFile != "" {
		return c.runBatch(ctx, orchestrator, questions, out)
	}

	session := &Session{
		Answerer:    orchestrator,
		Render:      c.render,
		ShowSources: c.showSources,
		Logger:      c.logger,
	}
	return session.Run(ctx, in, out)
}

func (c *askCommander) runBatch(ctx context.Context, answerer batch.Answerer, questions []string, out io.Writer) error {
	outcomes, err := batch.Run(ctx, questions, answerer, batch.Config{
		NumWorkers: c.workers,
		Logger:     c.logger,
	})
	if err != nil {
		return err
	}

	session := &Session{Render: c.render}
	for _, o := range outcomes {
		fmt.Fprintf(out, "%s%s\n", Prompt, o.Question)
		if o.Err != nil {
			fmt.Fprintf(out, "%s %s\n\n", cliui.FailMark, cliui.ErrorStyle.Render(o.Err.Error()))
			continue
		}
		fmt.Fprintf(out, "Resposta:\n%s\n%s\n\n",
			session.format(c.logger, o.Answer),
			cliui.DimStyle.Render(cliui.FormatDuration(o.Duration)),
		)
	}

	if failed := batch.Failed(outcomes); failed > 0 {
		return fmt.Errorf("%d of %d questions failed", failed, len(outcomes))
	}
	return nil
}

// readQuestions returns the trimmed non-blank lines of path.
func readQuestions(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening questions: %w", err)
	}
	defer f.Close()

	var questions []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if q := strings.TrimSpace(scanner.Text()); q != "" {
			questions = append(questions, q)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading questions: %w", err)
	}

	return questions, nil
}
