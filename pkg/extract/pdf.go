package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
)

// weakPageChars is the trimmed length below which a page is treated as a
// scan and sent to OCR.
const weakPageChars = 30

// PDFExtractor reads the text layer page by page. Pages with little or no
// text are OCR'd when pdftoppm and tesseract are installed. If the PDF cannot
// be parsed at all, pdftotext is tried for the whole file.
type PDFExtractor struct {
	ocr    *ocrEngine
	logger *slog.Logger
}

func (p *PDFExtractor) Extract(ctx context.Context, path string) (string, error) {
	pages, err := readPDFPages(path)
	if err != nil {
		p.logger.Debug("pdf parser failed, trying pdftotext", "path", path, "error", err)

		out, ferr := p.pdftotext(ctx, path)
		if ferr != nil {
			return "", fmt.Errorf("extract pdf text: %w", err)
		}
		return out, nil
	}

	texts := make([]string, len(pages))
	for i, text := range pages {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		texts[i] = text
		if len(strings.TrimSpace(text)) >= weakPageChars {
			continue
		}

		p.logger.Info("weak page, applying OCR", "path", path, "page", i+1)
		ocrText, err := p.ocr.recognizePDFPage(ctx, path, i+1)
		if err != nil {
			p.logger.Warn("page OCR failed, keeping text layer",
				"path", path,
				"page", i+1,
				"error", err,
			)
			continue
		}
		texts[i] = ocrText
	}

	return strings.Join(texts, "\n"), nil
}

func (p *PDFExtractor) pdftotext(ctx context.Context, path string) (string, error) {
	if err := p.ocr.require("pdftotext"); err != nil {
		return "", err
	}
	out, err := p.ocr.run(ctx, "pdftotext", "-layout", path, "-")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func readPDFPages(path string) (pages []string, err error) {
	// The parser panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf parser panic: %v", r)
		}
	}()

	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	numPages := reader.NumPage()
	pages = make([]string, numPages)
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		pages[i-1] = text
	}

	return pages, nil
}
