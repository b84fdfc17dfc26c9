package askcmder

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/docqa/pkg/answer"
	"github.com/papercomputeco/docqa/pkg/cliui"
	"github.com/papercomputeco/docqa/pkg/retriever"
	"github.com/papercomputeco/docqa/pkg/utils"
)

const (
	Banner   = "Faça perguntas com base nos documentos (digite 'sair' para encerrar)"
	Prompt   = "Pergunta: "
	Farewell = "Sessão encerrada."
)

const sourcePreviewLen = 100

// Answerer answers one question and reports the passages it was grounded on.
type Answerer interface {
	AnswerWithSources(ctx context.Context, question string) (*answer.Turn, error)
}

// Session is the interactive question loop.
type Session struct {
	Answerer Answerer

	// Render formats answers as terminal markdown.
	Render bool

	// ShowSources prints the retrieved passages under each answer.
	ShowSources bool

	Logger *slog.Logger
}

// IsExit reports whether line is one of the words that end a session.
func IsExit(line string) bool {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "sair", "exit", "quit":
		return true
	}
	return false
}

// Run reads questions from in until an exit word, EOF, or ctx ends, writing
// answers to out. A failed turn is reported and the loop continues.
func (s *Session) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	lines := make(chan string)
	readErr := make(chan error, 1)

	go func() {
		defer close(lines)

		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				readErr <- nil
				return
			}
		}
		readErr <- scanner.Err()
	}()

	fmt.Fprintln(out, Banner)

	for {
		fmt.Fprint(out, Prompt)

		var (
			line string
			ok   bool
		)
		select {
		case <-ctx.Done():
			fmt.Fprintf(out, "\n%s\n", Farewell)
			return nil
		case line, ok = <-lines:
		}

		if !ok {
			fmt.Fprintln(out)
			if err := <-readErr; err != nil {
				return fmt.Errorf("reading input: %w", err)
			}
			return nil
		}

		question := strings.TrimSpace(line)
		if question == "" {
			continue
		}
		if IsExit(question) {
			fmt.Fprintln(out, Farewell)
			return nil
		}

		s.turn(ctx, logger.With("turn_id", uuid.NewString()), out, question)
	}
}

func (s *Session) turn(ctx context.Context, logger *slog.Logger, out io.Writer, question string) {
	logger.Debug("question received", "question", utils.Truncate(question, 80))

	start := time.Now()
	turn, err := s.Answerer.AnswerWithSources(ctx, question)
	if err != nil {
		logger.Warn("turn failed", "error", err)
		fmt.Fprintf(out, "%s %s\n\n", cliui.FailMark, cliui.ErrorStyle.Render(err.Error()))
		return
	}

	logger.Debug("turn answered",
		"duration", time.Since(start),
		"passages", len(turn.Passages),
	)

	fmt.Fprintf(out, "Resposta:\n%s\n\n", s.format(logger, turn.Answer))

	if s.ShowSources {
		printSources(out, turn.Passages)
	}
}

func (s *Session) format(logger *slog.Logger, text string) string {
	if !s.Render {
		return text
	}

	rendered, err := cliui.RenderMarkdown(text)
	if err != nil {
		logger.Debug("markdown render failed", "error", err)
	}
	return strings.TrimRight(rendered, "\n")
}

func printSources(out io.Writer, passages []retriever.Passage) {
	if len(passages) == 0 {
		return
	}

	fmt.Fprintf(out, "%s\n", cliui.HeaderStyle.Render("Fontes:"))
	for i, p := range passages {
		fmt.Fprintf(out, "  %s %s %s\n      %s\n",
			cliui.KeyStyle.Render(fmt.Sprintf("[%d]", i+1)),
			cliui.ValueStyle.Render(p.Chunk.Source),
			cliui.DimStyle.Render(fmt.Sprintf("chunk %d, distance %.4f", p.Chunk.Index, p.Distance)),
			cliui.DimStyle.Render(utils.Preview(p.Chunk.Text, sourcePreviewLen)),
		)
	}
	fmt.Fprintln(out)
}
