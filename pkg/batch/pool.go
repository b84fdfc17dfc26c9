// Package batch answers many independent questions concurrently over a shared,
// read-only retriever. Each question succeeds or fails on its own.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sync"
	"time"
)

var (
	defaultNumWorkers   uint = 3
	defaultJobQueueSize uint = 64
)

// Answerer answers a single question.
type Answerer interface {
	Answer(ctx context.Context, question string) (string, error)
}

// Outcome is the result of one question. Exactly one of Answer and Err is set.
type Outcome struct {
	Index    int
	Question string
	Answer   string
	Err      error
	Duration time.Duration
}

// Config is the configuration options for the worker pool.
type Config struct {
	// NumWorkers is the number of concurrent workers (defaults to 3).
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 64).
	QueueSize uint

	Logger *slog.Logger
}

type job struct {
	index    int
	question string
}

// Pool runs questions through an Answerer on a fixed set of workers.
type Pool struct {
	answerer Answerer
	queue    chan job
	wg       sync.WaitGroup
	logger   *slog.Logger

	mu       sync.Mutex
	outcomes []Outcome
}

// NewPool creates a pool and starts its workers. Workers answer under ctx.
func NewPool(ctx context.Context, answerer Answerer, c Config) (*Pool, error) {
	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}
	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}
	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	logger := c.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	p := &Pool{
		answerer: answerer,
		queue:    make(chan job, c.QueueSize),
		logger:   logger,
	}

	p.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go p.worker(ctx, i)
	}

	return p, nil
}

// Submit queues a question, blocking while the queue is full. It returns
// ctx.Err() if ctx ends first.
func (p *Pool) Submit(ctx context.Context, index int, question string) error {
	select {
	case p.queue <- job{index: index, question: question}:
		p.logger.Debug("question queued", "index", index)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting questions, waits for in-flight ones to finish, and
// returns every outcome ordered by index.
func (p *Pool) Close() []Outcome {
	close(p.queue)
	p.wg.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()

	slices.SortFunc(p.outcomes, func(a, b Outcome) int {
		return a.Index - b.Index
	})
	return p.outcomes
}

func (p *Pool) worker(ctx context.Context, id uint) {
	defer p.wg.Done()
	p.logger.Debug("worker started", "worker_id", id)

	for j := range p.queue {
		p.record(p.process(ctx, j))
	}

	p.logger.Debug("worker stopped", "worker_id", id)
}

func (p *Pool) process(ctx context.Context, j job) Outcome {
	out := Outcome{Index: j.index, Question: j.question}

	if err := ctx.Err(); err != nil {
		out.Err = err
		return out
	}

	start := time.Now()
	out.Answer, out.Err = p.answerer.Answer(ctx, j.question)
	out.Duration = time.Since(start)

	if out.Err != nil {
		p.logger.Warn("question failed",
			"index", j.index,
			"error", out.Err,
		)
	}

	return out
}

func (p *Pool) record(o Outcome) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.outcomes = append(p.outcomes, o)
}

// Run answers questions concurrently and returns one Outcome per question in
// input order. Questions not yet started when ctx ends carry ctx.Err().
func Run(ctx context.Context, questions []string, answerer Answerer, c Config) ([]Outcome, error) {
	pool, err := NewPool(ctx, answerer, c)
	if err != nil {
		return nil, err
	}

	submitted := len(questions)
	for i, q := range questions {
		if err := pool.Submit(ctx, i, q); err != nil {
			submitted = i
			break
		}
	}

	outcomes := pool.Close()
	for i := submitted; i < len(questions); i++ {
		outcomes = append(outcomes, Outcome{Index: i, Question: questions[i], Err: ctx.Err()})
	}

	return outcomes, nil
}

// Failed counts outcomes with an error.
func Failed(outcomes []Outcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}
