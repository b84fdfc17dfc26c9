// Package extractcmder provides the extract command, which turns source
// documents into the corpus file the other commands index.
package extractcmder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/docqa/cmd/docqa/pipeline"
	"github.com/papercomputeco/docqa/pkg/cliui"
	"github.com/papercomputeco/docqa/pkg/config"
	"github.com/papercomputeco/docqa/pkg/corpus"
	"github.com/papercomputeco/docqa/pkg/extract"
)

// DefaultPattern is extracted when no files are given.
const DefaultPattern = "data/*"

type extractCommander struct {
	output      string
	ocrLang     string
	concurrency int

	patterns []string
	cfg      *config.Config
	logger   *slog.Logger

	// run and lookPath replace the external tool hooks in tests.
	run      extract.CommandFunc
	lookPath func(name string) error
}

const extractLongDesc string = `Extract text from documents into a corpus file.

Reads PDF, DOCX, HTML, Markdown, plain text and image files (PNG, JPEG,
WebP) and writes their text to a single file, each document introduced by a
"--- <file name> ---" line. That file is what "docqa ask", "docqa search"
and "docqa index" read.

PDF pages with little or no text layer and all images are run through
tesseract OCR. This needs tesseract and pdftoppm (poppler-utils) on the
PATH. A file that fails to extract is reported and kept as an empty
document.

With no arguments every file matching data/* is extracted.

Examples:
  docqa extract
  docqa extract "docs/*.pdf" notes.md -o corpus.txt
  docqa extract scans/*.png --ocr-lang por+eng`

const extractShortDesc string = "Extract text from documents into a corpus file"

func NewExtractCmd() *cobra.Command {
	return newExtractCmd(&extractCommander{})
}

func newExtractCmd(cmder *extractCommander) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract [files or globs...]",
		Short: extractShortDesc,
		Long:  extractLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.cfg, err = pipeline.LoadConfig(cmd, []string{config.FlagExtractOutput, config.FlagOCRLang})
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.patterns = args
			if len(cmder.patterns) == 0 {
				cmder.patterns = []string{DefaultPattern}
			}
			logger, closeLog, err := pipeline.NewLogger(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = closeLog() }()

			cmder.logger = logger
			return cmder.extract(cmd.Context(), cmd.OutOrStdout())
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagExtractOutput, &cmder.output)
	config.AddStringFlag(cmd, config.Flags, config.FlagOCRLang, &cmder.ocrLang)
	cmd.Flags().IntVarP(&cmder.concurrency, "concurrency", "j", extract.DefaultConcurrency, "Files extracted in parallel")

	return cmd
}

func (c *extractCommander) extract(ctx context.Context, out io.Writer) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	paths, err := extract.Expand(c.patterns)
	if err != nil {
		return err
	}

	var supported []string
	for _, p := range paths {
		if extract.IsSupported(p) {
			supported = append(supported, p)
		}
	}
	if len(supported) == 0 {
		return fmt.Errorf("no supported files match %v", c.patterns)
	}

	fmt.Fprintf(out, "\n  %s %d files\n\n", cliui.HeaderStyle.Render("Extracting"), len(supported))

	start := time.Now()
	results := extract.ExtractAll(ctx, supported, extract.Options{
		OCRLang:     c.cfg.Extract.OCRLang,
		Concurrency: c.concurrency,
		Run:         c.run,
		LookPath:    c.lookPath,
		Logger:      c.logger,
	})

	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(out, "  %s %s %s\n",
				cliui.FailMark,
				cliui.ValueStyle.Render(r.Source),
				cliui.ErrorStyle.Render(r.Err.Error()),
			)
			continue
		}
		fmt.Fprintf(out, "  %s %s %s\n",
			cliui.SuccessMark,
			cliui.ValueStyle.Render(r.Source),
			cliui.DimStyle.Render(fmt.Sprintf("(%d chars)", len(r.Text))),
		)
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("extraction interrupted: %w", err)
	}

	target := c.cfg.Extract.Output
	if dir := filepath.Dir(target); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	if err := os.WriteFile(target, []byte(corpus.Join(extract.Documents(results))), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", target, err)
	}

	failed := extract.Failed(results)
	mark := cliui.SuccessMark
	if len(failed) > 0 {
		mark = cliui.FailMark
	}
	fmt.Fprintf(out, "\n  %s Text extraction completed! %s\n",
		mark,
		cliui.DimStyle.Render(fmt.Sprintf("(%d ok, %d failed, %s)",
			len(results)-len(failed), len(failed), cliui.FormatDuration(time.Since(start)))),
	)
	fmt.Fprintf(out, "  %s %s\n\n", cliui.KeyStyle.Render("Output:"), cliui.ValueStyle.Render(target))

	return nil
}
