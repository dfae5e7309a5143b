package chunk

import (
	"strings"
	"testing"
)

func TestSplitShortTextIsSingleChunk(t *testing.T) {
	chunks, err := Split("hello world", 100, 10)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	c := chunks[0]
	if c.Text != "hello world" || !c.IsFirst || !c.IsLast || c.Total != 1 {
		t.Fatalf("unexpected chunk: %+v", c)
	}
}

func TestSplitReconstruction(t *testing.T) {
	texts := []string{
		strings.Repeat("The quick brown fox jumps over the lazy dog. ", 200),
		strings.Repeat("First paragraph here.\n\nSecond one follows.\n", 150),
		strings.Repeat("nowhitespaceatall", 500),
	}
	for _, text := range texts {
		chunks, err := Split(text, 1000, 20)
		if err != nil {
			t.Fatalf("Split: %v", err)
		}
		var sb strings.Builder
		for i, c := range chunks {
			if c.Index != i {
				t.Fatalf("chunk %d has index %d", i, c.Index)
			}
			if c.Total != len(chunks) {
				t.Fatalf("chunk %d has total %d, want %d", i, c.Total, len(chunks))
			}
			sb.WriteString(c.Text)
		}
		if sb.String() != text {
			t.Fatal("concatenated chunks do not reconstruct the original text")
		}
	}
}

func TestSplitRespectsMaxChunks(t *testing.T) {
	text := strings.Repeat("word after word keeps coming. ", 1000)
	chunks, err := Split(text, 500, 5)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(chunks) > 5 {
		t.Fatalf("got %d chunks, max is 5", len(chunks))
	}
	// The safety valve folds the remainder into the final chunk.
	last := chunks[len(chunks)-1]
	if !last.IsLast {
		t.Fatal("final chunk not marked IsLast")
	}
}

func TestSplitPrefersParagraphBoundary(t *testing.T) {
	para := strings.Repeat("x", 850) + "\n\n"
	text := para + strings.Repeat("y", 900)
	chunks, err := Split(text, 1000, 10)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if !strings.HasSuffix(chunks[0].Text, "\n\n") {
		t.Fatalf("first chunk should end at the paragraph break, ends with %q", chunks[0].Text[len(chunks[0].Text)-5:])
	}
}

func TestSplitDoesNotCutMidWord(t *testing.T) {
	text := strings.Repeat("alpha beta gamma delta ", 300)
	chunks, err := Split(text, 500, 20)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	for i, c := range chunks[:len(chunks)-1] {
		if !strings.HasSuffix(c.Text, " ") && !strings.HasSuffix(c.Text, "\n") {
			t.Fatalf("chunk %d ends mid-word: %q", i, c.Text[len(c.Text)-10:])
		}
	}
}

func TestSplitHardCutWithoutBoundary(t *testing.T) {
	text := strings.Repeat("z", 3000)
	chunks, err := Split(text, 1000, 10)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(chunks) < 3 {
		t.Fatalf("expected at least 3 chunks, got %d", len(chunks))
	}
	var sb strings.Builder
	for _, c := range chunks {
		sb.WriteString(c.Text)
	}
	if sb.String() != text {
		t.Fatal("hard-cut chunks do not reconstruct original")
	}
}

func TestSplitRejectsOversizeChunk(t *testing.T) {
	// A single final-slot chunk above the ceiling must be rejected, not
	// silently passed through to the provider.
	text := strings.Repeat("a ", HardCeilingChars)
	_, err := Split(text, HardCeilingChars, 1)
	if err == nil {
		t.Fatal("expected error for chunk exceeding the request ceiling")
	}
}

func TestSplitInvalidArgs(t *testing.T) {
	if _, err := Split("text", 0, 5); err == nil {
		t.Fatal("expected error for maxChars=0")
	}
	if _, err := Split("text", 100, 0); err == nil {
		t.Fatal("expected error for maxChunks=0")
	}
	if _, err := Split("", 100, 5); err == nil {
		t.Fatal("expected error for empty text")
	}
}
