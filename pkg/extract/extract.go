// Package extract turns source files into plain text. Each format has an
// Extractor, and ExtractAll runs them in parallel with one Result per file.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/papercomputeco/docqa/pkg/corpus"
)

// DefaultOCRLang is the tesseract language used when none is configured.
const DefaultOCRLang = "por"

// DefaultConcurrency caps parallel extractions in ExtractAll.
const DefaultConcurrency = 4

// ErrUnsupported is returned by ForFile for extensions with no extractor.
var ErrUnsupported = errors.New("unsupported file type")

// Extractor returns the text of the file at path.
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// Options configures extraction.
type Options struct {
	// OCRLang is passed to tesseract with -l. Defaults to DefaultOCRLang.
	OCRLang string

	// Concurrency caps parallel files in ExtractAll. Defaults to DefaultConcurrency.
	Concurrency int

	// Run executes external tools. Defaults to running them with os/exec.
	Run CommandFunc

	// LookPath reports whether an external tool is installed. Defaults to
	// exec.LookPath.
	LookPath func(name string) error

	Logger *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.OCRLang == "" {
		o.OCRLang = DefaultOCRLang
	}
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.Run == nil {
		o.Run = runCommand
	}
	if o.LookPath == nil {
		o.LookPath = lookPath
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	return o
}

// Result is the outcome for one file. A failed extraction keeps its Source
// with empty Text and Err set.
type Result struct {
	Source string
	Path   string
	Text   string
	Err    error
}

// ForFile returns the extractor for path's extension.
func ForFile(path string, opts Options) (Extractor, error) {
	opts = opts.withDefaults()
	ocr := &ocrEngine{lang: opts.OCRLang, run: opts.Run, lookPath: opts.LookPath, logger: opts.Logger}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".pdf":
		return &PDFExtractor{ocr: ocr, logger: opts.Logger}, nil
	case ".png", ".jpg", ".jpeg", ".webp":
		return &ImageExtractor{ocr: ocr}, nil
	case ".docx":
		return &DOCXExtractor{}, nil
	case ".html", ".htm":
		return &HTMLExtractor{}, nil
	case ".md", ".markdown":
		return &MarkdownExtractor{}, nil
	case ".txt":
		return &TextExtractor{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, ext)
	}
}

// IsSupported reports whether ForFile has an extractor for path.
func IsSupported(path string) bool {
	_, err := ForFile(path, Options{})
	return err == nil
}

// ExtractAll extracts every supported path, at most opts.Concurrency at a
// time. Results keep input order. Unsupported paths are skipped.
func ExtractAll(ctx context.Context, paths []string, opts Options) []Result {
	opts = opts.withDefaults()

	var supported []string
	for _, p := range paths {
		if IsSupported(p) {
			supported = append(supported, p)
			continue
		}
		opts.Logger.Debug("skipping unsupported file", "path", p)
	}

	results := make([]Result, len(supported))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)

	for i, path := range supported {
		g.Go(func() error {
			results[i] = extractOne(gctx, path, opts)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func extractOne(ctx context.Context, path string, opts Options) Result {
	res := Result{Source: filepath.Base(path), Path: path}

	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	ex, err := ForFile(path, opts)
	if err != nil {
		res.Err = err
		return res
	}

	text, err := ex.Extract(ctx, path)
	if err != nil {
		opts.Logger.Warn("extraction failed",
			"path", path,
			"error", err,
		)
		res.Err = fmt.Errorf("extracting %s: %w", res.Source, err)
		return res
	}

	opts.Logger.Debug("extracted file",
		"path", path,
		"chars", len(text),
	)

	res.Text = text
	return res
}

// Documents converts results into corpus documents. Failures become empty
// documents so their source is still recorded.
func Documents(results []Result) []corpus.Document {
	docs := make([]corpus.Document, len(results))
	for i, r := range results {
		docs[i] = corpus.Document{ID: r.Source, Text: r.Text}
	}
	return docs
}

// Failed returns the results that carry an error.
func Failed(results []Result) []Result {
	return slices.DeleteFunc(slices.Clone(results), func(r Result) bool {
		return r.Err == nil
	})
}

// Expand resolves glob patterns into a sorted, de-duplicated file list.
// Patterns without glob characters are kept as literal paths.
func Expand(patterns []string) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string

	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
		}
		if matches == nil && !strings.ContainsAny(pattern, "*?[") {
			matches = []string{pattern}
		}

		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			out = append(out, m)
		}
	}

	slices.Sort(out)
	return out, nil
}
