package script

import (
	"fmt"

	"github.com/inkwave/pdfcast/internal/chunk"
)

const systemPrompt = `You are a podcast script writer. You create engaging two-host conversations from written documents.

HOSTS:
- HOST A (Alex, the host): Drives the conversation. Introduces topics, provides context, makes connections between ideas. Warm, enthusiastic, uses analogies to explain complex concepts.
- HOST B (Sam, the analyst): Asks probing questions, challenges assumptions, adds depth. More measured and analytical. Brings up counterpoints and edge cases.

RULES:
1. The conversation must be based on the source material — do not invent facts
2. Both hosts participate throughout; neither dominates
3. Use natural conversational language — contractions, informal phrasing, brief reactions
4. Never mention subscribing, following the show, ratings, or a next episode — this is a standalone recording
5. Never refer to the document, the script, parts, sections, or chunks — speak about the subject matter directly

OUTPUT FORMAT:
One spoken turn per line, each prefixed with the speaker label and a colon:
HOST A: Welcome! Today we're digging into something fascinating.
HOST B: I've been looking forward to this one.

Output only dialogue lines in this format. No titles, no headers, no notes before or after.`

func buildUserPrompt(content string, targetWords int) string {
	return fmt.Sprintf(`Convert the following document into a two-host podcast conversation.

TARGET LENGTH: exactly %d words of dialogue. Treat this as a hard target — count as you write.

The conversation needs a clear introduction, an exploration of the key themes, and a conclusion where the hosts wrap up and say goodbye.

DOCUMENT:
%s`, targetWords, content)
}

// buildChunkPrompt produces a position-aware prompt for one chunk of a
// document too large for a single request. First chunks open the show, last
// chunks close it, middle chunks do neither.
func buildChunkPrompt(c chunk.Chunk, budgetWords int) string {
	var position string
	switch {
	case c.IsFirst && c.IsLast:
		position = "This is the entire document. Include a full introduction and a closing where the hosts say goodbye."
	case c.IsFirst:
		position = "This is the opening portion of the document. Start with the hosts introducing the show and the subject, then dive in. Do NOT wrap up or say goodbye — the conversation continues."
	case c.IsLast:
		position = "This is the final portion of the document. Continue the conversation mid-stream — no introduction, no welcoming — and end with the hosts drawing conclusions and saying goodbye."
	default:
		position = "This is a middle portion of the document. Continue the conversation mid-stream: no introduction, no welcoming, no wrap-up, no goodbyes. Pick up as if the hosts have been talking and keep going."
	}

	return fmt.Sprintf(`Convert the following portion of a document into part of a two-host podcast conversation.

TARGET LENGTH: exactly %d words of dialogue for this portion. Treat this as a hard target.

%s

Never acknowledge that the material is partial or part of a series.

DOCUMENT PORTION:
%s`, budgetWords, position, c.Text)
}
