// Package chunk splits extracted document text into bounded, boundary-aware
// segments that fit within the generation provider's per-request size limit.
package chunk

import (
	"fmt"
	"strings"
)

// HardCeilingChars is the largest text payload a single generation request
// may carry, regardless of how the chunk plan was computed. Requests above
// this size are rejected by the provider rather than truncated.
const HardCeilingChars = 60000

// Chunk is a contiguous slice of the source text. Concatenating all chunks
// in index order reproduces the source exactly.
type Chunk struct {
	Index   int
	Total   int
	Text    string
	IsFirst bool
	IsLast  bool
}

// Split divides text into at most maxChunks chunks of at most maxChars
// characters each. Boundaries are chosen at, in priority order: paragraph
// break, line break, sentence-ending punctuation, whitespace, hard cut.
// The search window for a boundary is the last 20% of each chunk.
func Split(text string, maxChars, maxChunks int) ([]Chunk, error) {
	if maxChars <= 0 {
		return nil, fmt.Errorf("maxChars must be positive, got %d", maxChars)
	}
	if maxChunks <= 0 {
		return nil, fmt.Errorf("maxChunks must be positive, got %d", maxChunks)
	}
	if text == "" {
		return nil, fmt.Errorf("cannot chunk empty text")
	}

	if len(text) < maxChars {
		return finalize([]string{text})
	}

	targetChunks := (len(text) + maxChars - 1) / maxChars
	if targetChunks > maxChunks {
		targetChunks = maxChunks
	}
	targetSize := (len(text) + targetChunks - 1) / targetChunks
	if targetSize > HardCeilingChars {
		targetSize = HardCeilingChars
	}

	var texts []string
	pos := 0
	for pos < len(text) {
		// Safety valve: when the next chunk would be the last slot allowed,
		// take everything that remains instead of splitting further.
		if len(texts) == maxChunks-1 {
			texts = append(texts, text[pos:])
			break
		}

		end := pos + targetSize
		if end >= len(text) {
			texts = append(texts, text[pos:])
			break
		}

		end = findBoundary(text, pos, end)
		texts = append(texts, text[pos:end])
		pos = end
	}

	return finalize(texts)
}

func finalize(texts []string) ([]Chunk, error) {
	chunks := make([]Chunk, len(texts))
	for i, t := range texts {
		if len(t) > HardCeilingChars {
			return nil, fmt.Errorf("chunk %d is %d chars, exceeds the %d char request ceiling — input must be truncated", i, len(t), HardCeilingChars)
		}
		chunks[i] = Chunk{
			Index:   i,
			Total:   len(texts),
			Text:    t,
			IsFirst: i == 0,
			IsLast:  i == len(texts)-1,
		}
	}
	return chunks, nil
}

// findBoundary searches backward from the ideal end offset for the best
// available break point within the last 20% of the chunk window. It returns
// the exclusive end index; the hard cut at end is the fallback.
func findBoundary(text string, start, end int) int {
	window := end - start
	floor := end - window/5
	if floor <= start {
		floor = start + 1
	}

	// Paragraph break: cut after the blank line.
	if idx := strings.LastIndex(text[floor:end], "\n\n"); idx >= 0 {
		return floor + idx + 2
	}

	// Line break.
	if idx := strings.LastIndexByte(text[floor:end], '\n'); idx >= 0 {
		return floor + idx + 1
	}

	// Sentence end: terminal punctuation followed by whitespace.
	for i := end - 1; i >= floor; i-- {
		c := text[i]
		if (c == '.' || c == '?' || c == '!') && i+1 < len(text) && isSpace(text[i+1]) {
			return i + 1
		}
	}

	// Any whitespace, so a word is never cut in half when avoidable.
	for i := end - 1; i >= floor; i-- {
		if isSpace(text[i]) {
			return i + 1
		}
	}

	return end
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
