package script

import (
	"regexp"
	"strings"
)

const (
	// DefaultWordsPerMinute is the assumed spoken delivery rate.
	DefaultWordsPerMinute = 214

	// DefaultVarianceMinutes is how far an episode may drift from its
	// target duration before it is flagged out of range.
	DefaultVarianceMinutes = 5.0

	// maxEdgeLines caps how many lines the intro and conclusion sections
	// may claim during trimming.
	maxEdgeLines = 12
)

// EstimateMinutes estimates the spoken duration of a script. Stage
// directions and pause markers are not spoken and do not count.
func EstimateMinutes(text string, wordsPerMinute int) float64 {
	if wordsPerMinute <= 0 {
		wordsPerMinute = DefaultWordsPerMinute
	}
	total := 0
	for _, line := range Lines(StripPauses(text)) {
		total += WordCount(line.Text)
	}
	return float64(total) / float64(wordsPerMinute)
}

// DurationInRange reports whether the script's estimated duration is within
// varianceMinutes of the target.
func DurationInRange(text string, targetMinutes int, wordsPerMinute int, varianceMinutes float64) bool {
	est := EstimateMinutes(text, wordsPerMinute)
	diff := est - float64(targetMinutes)
	if diff < 0 {
		diff = -diff
	}
	return diff <= varianceMinutes
}

var closingPhraseRe = regexp.MustCompile(`(?i)\b(wrap(ping)? up|that's (all|it) for|thanks for (listening|joining)|until next time|good ?bye|that about covers|leave it (t)?here|final thought)`)

// TrimToTarget reduces an over-long script to at most maxWords while
// preserving its structure: the intro and conclusion sections are kept
// verbatim and only body lines are dropped. A script already within budget
// is returned byte-for-byte unchanged.
func TrimToTarget(text string, maxWords int) string {
	lines := Lines(text)
	total := 0
	for _, l := range lines {
		total += WordCount(l.Text)
	}
	if total <= maxWords || len(lines) == 0 {
		return text
	}

	edge := len(lines) * 15 / 100
	if edge < 1 {
		edge = 1
	}
	if edge > maxEdgeLines {
		edge = maxEdgeLines
	}
	if 2*edge >= len(lines) {
		// Too short to partition; nothing sensible to cut.
		return text
	}

	intro := lines[:edge]
	body := lines[edge : len(lines)-edge]
	conclusion := lines[len(lines)-edge:]

	bodyBudget := maxWords * 70 / 100
	var kept []Line
	used := 0
	for _, l := range body {
		w := WordCount(l.Text)
		if used+w > bodyBudget {
			break
		}
		kept = append(kept, l)
		used += w
	}

	out := make([]Line, 0, len(intro)+len(kept)+len(conclusion)+3)
	out = append(out, intro...)
	out = append(out, kept...)
	out = append(out, conclusion...)

	if !hasClosingPhrasing(conclusion) {
		out = append(out,
			Line{Role: RoleHostA, Text: "We've covered a lot of ground today, and I think that's a good place to leave it."},
			Line{Role: RoleHostB, Text: "Agreed. There's plenty here worth sitting with. Thanks for spending this time with us."},
			Line{Role: RoleHostA, Text: "Thanks, everyone. Goodbye!"},
		)
	}

	return Render(out)
}

func hasClosingPhrasing(tail []Line) bool {
	for _, l := range tail {
		if closingPhraseRe.MatchString(l.Text) {
			return true
		}
	}
	return false
}

// Render writes lines back out in canonical script form.
func Render(lines []Line) string {
	var sb strings.Builder
	for i, l := range lines {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(l.Role.Label())
		sb.WriteString(": ")
		sb.WriteString(l.Text)
	}
	return sb.String()
}
