package ingest

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

type PDFIngester struct{}

func (p *PDFIngester) Ingest(ctx context.Context, source string) (*Content, error) {
	if err := validateFile(source); err != nil {
		return nil, err
	}

	f, r, err := pdf.Open(source)
	if err != nil {
		return nil, fmt.Errorf("could not read PDF %s: %w", source, err)
	}
	defer f.Close()

	text, err := extractPages(r, source)
	if err != nil {
		return nil, err
	}
	return newContent(text, "", filepath.Base(source)), nil
}

// FromPDFBytes extracts text from an in-memory PDF, as received by the
// upload endpoint. name is used for error messages and the Source field.
func FromPDFBytes(data []byte, name string) (*Content, error) {
	if len(data) > maxInputSize {
		return nil, fmt.Errorf("%s is too large (%d MB, max %d MB)", name, len(data)/(1024*1024), maxInputSize/(1024*1024))
	}
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("could not read PDF %s: %w", name, err)
	}
	text, err := extractPages(r, name)
	if err != nil {
		return nil, err
	}
	return newContent(text, "", name), nil
}

func extractPages(r *pdf.Reader, name string) (string, error) {
	var sb strings.Builder
	numPages := r.NumPage()

	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue // Skip pages that fail to extract
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	text := strings.TrimSpace(sb.String())
	if len(text) == 0 {
		return "", fmt.Errorf("could not extract text from PDF %s — it may be scanned or image-based", name)
	}
	return text, nil
}
