package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrToolMissing is returned when a required external program is not installed.
var ErrToolMissing = errors.New("required tool not found on PATH")

// CommandFunc runs an external program and returns its stdout.
type CommandFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

func lookPath(name string) error {
	_, err := exec.LookPath(name)
	return err
}

// ocrEngine wraps the tesseract and pdftoppm command line tools.
type ocrEngine struct {
	lang     string
	run      CommandFunc
	lookPath func(string) error
	logger   *slog.Logger
}

func (o *ocrEngine) require(tools ...string) error {
	for _, t := range tools {
		if err := o.lookPath(t); err != nil {
			return fmt.Errorf("%w: %s", ErrToolMissing, t)
		}
	}
	return nil
}

// recognize runs tesseract on an image file and returns the recognized text.
func (o *ocrEngine) recognize(ctx context.Context, imagePath string) (string, error) {
	if err := o.require("tesseract"); err != nil {
		return "", err
	}

	out, err := o.run(ctx, "tesseract", imagePath, "stdout", "-l", o.lang)
	if err != nil {
		return "", fmt.Errorf("ocr: %w", err)
	}
	return string(out), nil
}

// recognizePDFPage rasterizes one page at 300 dpi and runs OCR on it.
func (o *ocrEngine) recognizePDFPage(ctx context.Context, pdfPath string, page int) (string, error) {
	if err := o.require("pdftoppm", "tesseract"); err != nil {
		return "", err
	}

	dir, err := os.MkdirTemp("", "docqa-ocr-*")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	prefix := filepath.Join(dir, "page")
	n := strconv.Itoa(page)
	if _, err := o.run(ctx, "pdftoppm", "-f", n, "-l", n, "-r", "300", "-png", "-singlefile", pdfPath, prefix); err != nil {
		return "", fmt.Errorf("rasterize page %d: %w", page, err)
	}

	return o.recognize(ctx, prefix+".png")
}
