// Package answer turns a question into a grounded answer: retrieve passages,
// assemble a prompt around them, and ask the model.
package answer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/papercomputeco/docqa/pkg/embeddings"
	"github.com/papercomputeco/docqa/pkg/llm"
	"github.com/papercomputeco/docqa/pkg/retriever"
)

// DefaultTimeout bounds one generation call.
const DefaultTimeout = 120 * time.Second

// PromptTemplate is filled with the retrieved context and the question.
const PromptTemplate = "Com base no conteúdo abaixo, responda à pergunta:\n\n%s\n\nPergunta: %s"

const contextSeparator = "\n\n"

var (
	// ErrGeneration is returned when the model fails or answers with blank text.
	ErrGeneration = errors.New("answer generation failed")

	// ErrTimeout is returned when embedding or generation exceeds its deadline.
	ErrTimeout = errors.New("answer timed out")
)

// Retriever finds passages for a question.
type Retriever interface {
	Retrieve(ctx context.Context, question string, k int) ([]retriever.Passage, error)
}

// Config holds the collaborators of an Orchestrator.
type Config struct {
	Retriever Retriever
	Generate  llm.CallFunc

	// TopK is passed to the retriever; zero uses its default.
	TopK int

	// Timeout bounds each generation call. Defaults to DefaultTimeout.
	Timeout time.Duration

	Logger *slog.Logger
}

// Turn is one answered question with the passages it was grounded on.
type Turn struct {
	Question string
	Answer   string
	Passages []retriever.Passage
}

// Orchestrator answers questions. It holds no per-question state and is safe
// for concurrent use when its collaborators are.
type Orchestrator struct {
	retriever Retriever
	generate  llm.CallFunc
	topK      int
	timeout   time.Duration
	logger    *slog.Logger
}

// New creates an Orchestrator.
func New(c Config) (*Orchestrator, error) {
	if c.Retriever == nil {
		return nil, errors.New("orchestrator requires a retriever")
	}
	if c.Generate == nil {
		return nil, errors.New("orchestrator requires a generator")
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	logger := c.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Orchestrator{
		retriever: c.Retriever,
		generate:  c.Generate,
		topK:      c.TopK,
		timeout:   timeout,
		logger:    logger,
	}, nil
}

// Answer returns the model's reply to question, verbatim.
func (o *Orchestrator) Answer(ctx context.Context, question string) (string, error) {
	turn, err := o.AnswerWithSources(ctx, question)
	if err != nil {
		return "", err
	}
	return turn.Answer, nil
}

// AnswerWithSources is Answer that also returns the retrieved passages.
func (o *Orchestrator) AnswerWithSources(ctx context.Context, question string) (*Turn, error) {
	passages, err := o.retriever.Retrieve(ctx, question, o.topK)
	if err != nil {
		if errors.Is(err, embeddings.ErrTimeout) {
			return nil, fmt.Errorf("%w: %w", ErrTimeout, err)
		}
		return nil, err
	}

	prompt := BuildPrompt(BuildContext(retriever.Texts(passages)), question)

	o.logger.Debug("generating answer",
		"passages", len(passages),
		"prompt_chars", len(prompt),
	)

	genCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	start := time.Now()
	text, err := o.generate(genCtx, prompt)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(genCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s: %w", ErrTimeout, o.timeout, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrGeneration, err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: model returned an empty answer", ErrGeneration)
	}

	o.logger.Debug("answer generated",
		"duration", time.Since(start),
		"answer_chars", len(text),
	)

	return &Turn{
		Question: question,
		Answer:   text,
		Passages: passages,
	}, nil
}

// BuildContext joins passage texts with blank lines, keeping retrieval order.
func BuildContext(texts []string) string {
	return strings.Join(texts, contextSeparator)
}

// BuildPrompt fills PromptTemplate.
func BuildPrompt(contextText, question string) string {
	return fmt.Sprintf(PromptTemplate, contextText, question)
}
