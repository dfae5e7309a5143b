package script

import (
	"regexp"
	"strings"
)

// thinkingRe matches delimited reasoning blocks some models interleave with
// their output. Stripped before any other processing.
var thinkingRe = regexp.MustCompile(`(?s)<(thinking|scratchpad)>.*?</(thinking|scratchpad)>`)

// StripThinking removes model reasoning blocks from generated text. The
// result is trimmed so a stripped leading block does not leave the script
// starting with a blank line.
func StripThinking(text string) string {
	return strings.TrimSpace(thinkingRe.ReplaceAllString(text, ""))
}

// Clean runs the post-processing transforms that do not depend on duration
// targets, in order: speaker normalization, leading-metadata stripping, and
// promotional-line filtering.
func Clean(text string) string {
	text = NormalizeSpeakers(text)
	text = StripLeadingMetadata(text)
	text = FilterPromotional(text)
	return text
}

// NormalizeSpeakers rewrites every recognized speaker label to its canonical
// form, so downstream stages only ever see "HOST A:" and "HOST B:".
func NormalizeSpeakers(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		m := speakerLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		role, ok := ResolveRole(m[1])
		if !ok {
			continue
		}
		lines[i] = role.Label() + ": " + strings.TrimSpace(m[2])
	}
	return strings.Join(lines, "\n")
}

// StripLeadingMetadata discards everything before the first speaker-labeled
// line: generated titles, section headers, word-count notes.
func StripLeadingMetadata(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if speakerLineRe.MatchString(line) {
			return strings.Join(lines[i:], "\n")
		}
	}
	return text
}

// promoLineRes match lines whose whole intent is promotional or
// self-referential. Matching operates on the spoken text after the label and
// is anchored, so a substantive sentence that merely contains a keyword
// somewhere is kept.
var promoLineRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(please\s+)?(and\s+)?(don'?t forget( to)?|be sure to|remember to|make sure( to)?)?\s*(like,?\s*)?(share,?\s*(and\s*)?)?(subscribe|follow (us|the show|our (show|podcast)))\b`),
	regexp.MustCompile(`(?i)^(hit|smash)( that)? (subscribe|like|follow)\b`),
	regexp.MustCompile(`(?i)^(see you|catch (you|us)|join us|tune in).{0,40}\b(next (episode|week|time))\b`),
	regexp.MustCompile(`(?i)^(on|in) (the|our) next episode\b`),
	regexp.MustCompile(`(?i)^leave (us )?a (review|rating|comment)\b`),
}

// FilterPromotional removes whole lines that are purely subscribe/follow/
// next-episode promotion.
func FilterPromotional(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if isPromotional(line) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

func isPromotional(line string) bool {
	content := strings.TrimSpace(line)
	if m := speakerLineRe.FindStringSubmatch(content); m != nil {
		content = strings.TrimSpace(m[2])
	}
	for _, re := range promoLineRes {
		if re.MatchString(content) {
			return true
		}
	}
	return false
}
