package script

import (
	"fmt"
	"strings"
	"testing"
)

// dialogue builds a script of n alternating turns of wordsPerTurn words each.
func dialogue(n, wordsPerTurn int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		role := RoleHostA
		if i%2 == 1 {
			role = RoleHostB
		}
		b.WriteString(role.Label())
		b.WriteString(": ")
		for w := 0; w < wordsPerTurn; w++ {
			if w > 0 {
				b.WriteByte(' ')
			}
			fmt.Fprintf(&b, "word%d", w)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func scriptWords(text string) int {
	total := 0
	for _, l := range Lines(text) {
		total += WordCount(l.Text)
	}
	return total
}

func TestEstimateMinutes(t *testing.T) {
	text := dialogue(2, DefaultWordsPerMinute/2) // exactly one minute of speech
	got := EstimateMinutes(text, DefaultWordsPerMinute)
	if got != 1.0 {
		t.Errorf("EstimateMinutes = %v, want 1.0", got)
	}
}

func TestEstimateMinutesIgnoresPauseMarkers(t *testing.T) {
	plain := "HOST A: One two three four."
	marked := "HOST A: One two three [[pause:med]] four. [[pause:long]]"
	if EstimateMinutes(plain, 100) != EstimateMinutes(marked, 100) {
		t.Errorf("pause markers changed the duration estimate")
	}
}

func TestDurationInRange(t *testing.T) {
	tests := []struct {
		minutes float64
		target  int
		want    bool
	}{
		{10, 12, true},
		{16.9, 12, true},
		{7.1, 12, true},
		{17.5, 12, false},
		{6.5, 12, false},
	}
	for _, tt := range tests {
		wordsPerTurn := int(tt.minutes * DefaultWordsPerMinute / 10)
		text := dialogue(10, wordsPerTurn)
		got := DurationInRange(text, tt.target, DefaultWordsPerMinute, DefaultVarianceMinutes)
		if got != tt.want {
			t.Errorf("DurationInRange(~%vmin, target %d) = %v, want %v",
				tt.minutes, tt.target, got, tt.want)
		}
	}
}

func TestTrimToTargetUnderBudgetUnchanged(t *testing.T) {
	text := dialogue(10, 20)
	if got := TrimToTarget(text, 1000); got != text {
		t.Errorf("script under budget was modified")
	}
}

func TestTrimToTargetShrinks(t *testing.T) {
	text := dialogue(200, 40) // 8000 words
	maxWords := 4000
	out := TrimToTarget(text, maxWords)

	total := scriptWords(out)
	if total > maxWords {
		t.Errorf("trimmed script has %d words, budget %d", total, maxWords)
	}
	if total == 0 {
		t.Fatal("trim removed everything")
	}
}

func TestTrimToTargetPreservesOpeningAndClosing(t *testing.T) {
	var b strings.Builder
	b.WriteString("HOST A: Welcome to the show, today we cover the ocean survey results.\n")
	b.WriteString("HOST B: A genuinely surprising dataset.\n")
	b.WriteString(dialogue(50, 40))
	b.WriteString("HOST A: So that's the full picture of the survey.\n")
	b.WriteString("HOST B: Thanks for listening, see you next time.\n")

	out := TrimToTarget(b.String(), 600)
	if !strings.Contains(out, "Welcome to the show") {
		t.Errorf("opening line lost in trim:\n%s", out)
	}
	if !strings.Contains(out, "Thanks for listening") {
		t.Errorf("closing line lost in trim:\n%s", out)
	}
}

func TestTrimToTargetSynthesizesClosing(t *testing.T) {
	// No closing phrasing anywhere in the source, so the trimmed script
	// should still end with a recognizable sign-off exchange.
	out := TrimToTarget(dialogue(60, 40), 600)
	lines := Lines(out)
	if len(lines) < 3 {
		t.Fatalf("too few lines after trim: %d", len(lines))
	}
	tail := Render(lines[len(lines)-3:])
	if !closingPhraseRe.MatchString(tail) {
		t.Errorf("no closing phrasing in trimmed tail:\n%s", tail)
	}
}
