package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

type TextIngester struct{}

func (t *TextIngester) Ingest(ctx context.Context, source string) (*Content, error) {
	if err := validateFile(source); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(source)
	if err != nil {
		return nil, fmt.Errorf("could not read file %s: %w", source, err)
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("file %s is empty", source)
	}
	return newContent(string(data), "", filepath.Base(source)), nil
}

// FromText wraps raw text already in memory, as submitted to the API.
func FromText(text, title string) *Content {
	return newContent(text, title, "inline text")
}
