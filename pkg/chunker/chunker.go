// Package chunker splits document text into fixed-size word windows. Each
// chunk's Index is its slot in the vector index.
package chunker

import (
	"fmt"
	"strings"

	"github.com/papercomputeco/docqa/pkg/corpus"
)

// DefaultSize is the window length in words.
const DefaultSize = 500

// DefaultCorpusID is the Source of chunks produced under ScopeCorpus.
const DefaultCorpusID = "corpus"

// Scope decides whether windows may cross document boundaries.
type Scope string

const (
	// ScopeDocument splits each document on its own.
	ScopeDocument Scope = "document"

	// ScopeCorpus joins all documents into one stream before splitting, so a
	// window can carry the tail of one document and the head of the next.
	ScopeCorpus Scope = "corpus"
)

// Chunk is one window of text.
type Chunk struct {
	Index  int
	Text   string
	Source string
}

// Config controls ChunkDocuments.
type Config struct {
	Size  int
	Scope Scope

	// CorpusID names the Source under ScopeCorpus. Defaults to DefaultCorpusID.
	CorpusID string
}

// ParseScope validates a scope name. Empty means ScopeDocument.
func ParseScope(s string) (Scope, error) {
	switch Scope(strings.ToLower(strings.TrimSpace(s))) {
	case "", ScopeDocument:
		return ScopeDocument, nil
	case ScopeCorpus:
		return ScopeCorpus, nil
	default:
		return "", fmt.Errorf("invalid chunk scope %q (want %s or %s)", s, ScopeDocument, ScopeCorpus)
	}
}

// Split groups the whitespace-separated tokens of text into windows of size
// words joined by a single space. The last window may be shorter.
func Split(text string, size int) []string {
	if size <= 0 {
		size = DefaultSize
	}

	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return nil
	}

	windows := make([]string, 0, (len(tokens)+size-1)/size)
	for start := 0; start < len(tokens); start += size {
		end := min(start+size, len(tokens))
		windows = append(windows, strings.Join(tokens[start:end], " "))
	}

	return windows
}

// ChunkDocuments splits docs under cfg and numbers the result 0..N-1 in order.
func ChunkDocuments(docs []corpus.Document, cfg Config) []Chunk {
	var chunks []Chunk
	appendAll := func(source string, windows []string) {
		for _, w := range windows {
			chunks = append(chunks, Chunk{Index: len(chunks), Text: w, Source: source})
		}
	}

	if cfg.Scope == ScopeCorpus {
		id := cfg.CorpusID
		if id == "" {
			id = DefaultCorpusID
		}
		appendAll(id, Split(corpus.Join(docs), cfg.Size))
		return chunks
	}

	for _, d := range docs {
		appendAll(d.ID, Split(d.Text, cfg.Size))
	}

	return chunks
}

// Texts returns the text of each chunk in order.
func Texts(chunks []Chunk) []string {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	return texts
}
