// Package corpus reads and writes the extracted-text file that feeds the
// chunker. Each document is introduced by a "--- <name> ---" line.
package corpus

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

const (
	markerPrefix = "--- "
	markerSuffix = " ---"

	maxLineSize = 16 * 1024 * 1024
)

// Document is one extracted source. Text may be empty when extraction failed.
type Document struct {
	ID   string
	Text string
}

// Parse splits the extracted-text format into documents. Text before the
// first marker, or a file with no markers at all, becomes a document named
// fallbackID.
//
// A marker names a file, so its name must end in an extension with at least
// one letter ("--- a.pdf ---"). Lines such as "--- page 2 ---" that OCR or
// PDF text sometimes carries stay in the document body. A document whose own
// text contains a line shaped exactly like a file marker is still split there.
func Parse(r io.Reader, fallbackID string) ([]Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var (
		docs    []Document
		current *Document
		body    strings.Builder
	)

	flush := func() {
		text := strings.TrimRight(body.String(), "\r\n")
		body.Reset()

		if current == nil {
			if strings.TrimSpace(text) != "" {
				docs = append(docs, Document{ID: fallbackID, Text: text})
			}
			return
		}

		current.Text = text
		docs = append(docs, *current)
	}

	for scanner.Scan() {
		line := scanner.Text()
		if name, ok := markerName(line); ok {
			flush()
			current = &Document{ID: name}
			continue
		}

		body.WriteString(line)
		body.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading corpus: %w", err)
	}

	flush()

	if docs == nil {
		docs = []Document{}
	}

	return docs, nil
}

// Load reads path once and parses it. The base name is the fallback id.
func Load(path string) ([]Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening corpus: %w", err)
	}
	defer f.Close()

	return Parse(f, filepath.Base(path))
}

// Join renders docs in the extracted-text format.
func Join(docs []Document) string {
	var b strings.Builder
	for _, d := range docs {
		b.WriteString("\n")
		b.WriteString(markerPrefix)
		b.WriteString(d.ID)
		b.WriteString(markerSuffix)
		b.WriteString("\n")
		b.WriteString(d.Text)
		b.WriteString("\n")
	}

	return b.String()
}

// Len counts the documents that carry any text.
func Len(docs []Document) int {
	n := 0
	for _, d := range docs {
		if strings.TrimSpace(d.Text) != "" {
			n++
		}
	}
	return n
}

func markerName(line string) (string, bool) {
	line = strings.TrimRight(line, "\r")
	if !strings.HasPrefix(line, markerPrefix) || !strings.HasSuffix(line, markerSuffix) {
		return "", false
	}
	if len(line) < len(markerPrefix)+len(markerSuffix) {
		return "", false
	}

	name := strings.TrimSpace(line[len(markerPrefix) : len(line)-len(markerSuffix)])
	if !hasFileExt(name) {
		return "", false
	}

	return name, true
}

// hasFileExt reports whether name ends in an extension such as ".pdf". Purely
// numeric suffixes like "1.5" do not count.
func hasFileExt(name string) bool {
	ext := filepath.Ext(name)
	if len(ext) < 2 || strings.ContainsAny(ext, " \t") {
		return false
	}
	return strings.IndexFunc(ext[1:], unicode.IsLetter) >= 0
}
