package script

import (
	"regexp"
	"strings"
	"time"
)

// PauseKind classifies a synthesis pause hint. Markers are annotations for
// the synthesizer, never spoken text, and are always stripped before any
// text reaches a voice provider.
type PauseKind string

const (
	PauseLong  PauseKind = "long"  // after ! and ?
	PauseMed   PauseKind = "med"   // after .
	PauseShort PauseKind = "short" // after , and ;
	PauseBeat  PauseKind = "beat"  // hesitation after filler words
)

// Duration returns the silence length for a pause kind.
func (k PauseKind) Duration() time.Duration {
	switch k {
	case PauseLong:
		return 700 * time.Millisecond
	case PauseMed:
		return 450 * time.Millisecond
	case PauseShort:
		return 250 * time.Millisecond
	case PauseBeat:
		return 150 * time.Millisecond
	default:
		return 0
	}
}

func (k PauseKind) marker() string {
	return "[[pause:" + string(k) + "]]"
}

var (
	pauseMarkerRe = regexp.MustCompile(`\s*\[\[pause:(long|med|short|beat)\]\]`)

	// Sentence boundaries: terminal punctuation followed by whitespace or
	// end of line. A period preceded by a digit is left alone so decimals
	// and version numbers are not annotated.
	strongStopRe = regexp.MustCompile(`([!?])(\s|$)`)
	periodStopRe = regexp.MustCompile(`([^\s\d])\.(\s|$)`)
	softStopRe   = regexp.MustCompile(`([,;])(\s)`)
	fillerRe     = regexp.MustCompile(`(?i)\b(well|you know|I mean|hmm|uh|um)\b(,?)(\s)`)
)

// AnnotatePauses inserts pause markers after punctuation and filler words in
// every dialogue line: a long pause after ! and ?, a medium pause after ., a
// short one after commas and semicolons, and a brief beat after fillers.
func AnnotatePauses(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		m := speakerLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		lines[i] = line[:len(line)-len(m[2])] + annotateLine(m[2])
	}
	return strings.Join(lines, "\n")
}

func annotateLine(s string) string {
	// Fillers first: their trailing comma must not already carry a short
	// pause when the beat is inserted. The comma is re-emitted as matched;
	// markers must never change the spoken text.
	s = fillerRe.ReplaceAllString(s, "$1$2"+PauseBeat.marker()+"$3")
	s = strongStopRe.ReplaceAllString(s, "$1"+PauseLong.marker()+"$2")
	s = periodStopRe.ReplaceAllString(s, "$1."+PauseMed.marker()+"$2")
	s = softStopRe.ReplaceAllString(s, "$1"+PauseShort.marker()+"$2")
	return s
}

// StripPauses removes all pause markers.
func StripPauses(text string) string {
	return pauseMarkerRe.ReplaceAllString(text, "")
}

var trailingMarkerRe = regexp.MustCompile(`\[\[pause:(long|med|short|beat)\]\]$`)

// TrailingPause returns the pause kind a line should be followed by in the
// assembled audio: the line's trailing pause marker if it carries one,
// otherwise a kind derived from its terminal punctuation.
func TrailingPause(lineText string) (PauseKind, bool) {
	trimmed := strings.TrimSpace(lineText)
	if m := trailingMarkerRe.FindStringSubmatch(trimmed); m != nil {
		return PauseKind(m[1]), true
	}
	stripped := strings.TrimSpace(StripPauses(trimmed))
	if stripped == "" {
		return "", false
	}
	switch stripped[len(stripped)-1] {
	case '!', '?':
		return PauseLong, true
	case '.':
		return PauseMed, true
	}
	return "", false
}
