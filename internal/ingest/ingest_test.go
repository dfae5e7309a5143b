package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDetectSource(t *testing.T) {
	tests := []struct {
		input string
		want  SourceType
	}{
		{"https://example.com/article", SourceURL},
		{"http://example.com", SourceURL},
		{"paper.pdf", SourcePDF},
		{"Paper.PDF", SourcePDF},
		{"notes.txt", SourceText},
		{"notes.md", SourceText},
	}
	for _, tt := range tests {
		if got := DetectSource(tt.input); got != tt.want {
			t.Errorf("DetectSource(%q) = %s, want %s", tt.input, got, tt.want)
		}
	}
}

func TestTextIngester(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	body := "Ocean Survey Notes\n\nThe vessel logged forty transects across the ridge."
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	content, err := NewIngester(path).Ingest(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if content.Title != "Ocean Survey Notes" {
		t.Errorf("title = %q", content.Title)
	}
	if content.Source != "notes.txt" {
		t.Errorf("source = %q", content.Source)
	}
	if content.WordCount != 11 {
		t.Errorf("word count = %d, want 11", content.WordCount)
	}
}

func TestTextIngesterEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := (&TextIngester{}).Ingest(context.Background(), path); err == nil {
		t.Error("expected error for empty file")
	}
}

func TestValidateFileRejectsDirectory(t *testing.T) {
	if err := validateFile(t.TempDir()); err == nil {
		t.Error("expected error for directory input")
	}
}

func TestTitleFromText(t *testing.T) {
	long := strings.Repeat("x", 100)
	tests := []struct {
		text string
		want string
	}{
		{"Short Title\nbody follows", "Short Title"},
		{"  padded title  \nbody", "padded title"},
		{"", "Untitled"},
		{long + "\nbody", long[:80] + "..."},
	}
	for _, tt := range tests {
		if got := titleFromText(tt.text, 80); got != tt.want {
			t.Errorf("titleFromText(%q) = %q, want %q", tt.text[:min(len(tt.text), 20)], got, tt.want)
		}
	}
}

func TestFromPDFBytesRejectsGarbage(t *testing.T) {
	if _, err := FromPDFBytes([]byte("not a pdf"), "bad.pdf"); err == nil {
		t.Error("expected error for non-PDF bytes")
	}
}
