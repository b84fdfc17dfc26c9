package extract

import (
	"context"
	"os"
)

// TextExtractor returns plain text files verbatim.
type TextExtractor struct{}

func (e *TextExtractor) Extract(_ context.Context, path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
