package script

import (
	"strings"
	"testing"
)

func TestStripThinking(t *testing.T) {
	in := "<thinking>planning the episode</thinking>\nHOST A: Hello.\n<scratchpad>\nnotes\n</scratchpad>\nHOST B: Hi."
	out := StripThinking(in)
	if strings.Contains(out, "planning") || strings.Contains(out, "notes") {
		t.Errorf("reasoning blocks survived: %q", out)
	}
	if !strings.Contains(out, "HOST A: Hello.") || !strings.Contains(out, "HOST B: Hi.") {
		t.Errorf("dialogue lost: %q", out)
	}
	// A stripped leading block must not leave a blank line at the top.
	if !strings.HasPrefix(out, "HOST A: Hello.") {
		t.Errorf("output does not start at first dialogue line: %q", out)
	}
}

func TestNormalizeSpeakers(t *testing.T) {
	in := strings.Join([]string{
		"Host 1: First line.",
		"**Speaker B:** Second line.",
		"alex: Third line.",
		"Sam: Fourth line.",
	}, "\n")
	out := NormalizeSpeakers(in)
	want := strings.Join([]string{
		"HOST A: First line.",
		"HOST B: Second line.",
		"HOST A: Third line.",
		"HOST B: Fourth line.",
	}, "\n")
	if out != want {
		t.Errorf("NormalizeSpeakers:\ngot:\n%s\nwant:\n%s", out, want)
	}
}

func TestStripLeadingMetadata(t *testing.T) {
	in := strings.Join([]string{
		"Here's a podcast script based on the document:",
		"",
		"# Episode 12",
		"HOST A: Welcome back.",
		"HOST B: Good to be here.",
	}, "\n")
	out := StripLeadingMetadata(in)
	if strings.Contains(out, "based on the document") || strings.Contains(out, "Episode 12") {
		t.Errorf("preamble survived: %q", out)
	}
	if !strings.HasPrefix(out, "HOST A: Welcome back.") {
		t.Errorf("script should start at first dialogue line: %q", out)
	}
}

func TestFilterPromotional(t *testing.T) {
	in := strings.Join([]string{
		"HOST A: That wraps up the main argument.",
		"HOST B: Don't forget to subscribe to our channel!",
		"HOST A: Join us next episode for more.",
		"HOST B: Thanks for listening, everyone.",
	}, "\n")
	out := FilterPromotional(in)
	if strings.Contains(out, "subscribe") || strings.Contains(out, "next episode") {
		t.Errorf("promotional lines survived: %q", out)
	}
	if !strings.Contains(out, "main argument") || !strings.Contains(out, "Thanks for listening") {
		t.Errorf("legitimate dialogue removed: %q", out)
	}
}

func TestFilterPromotionalKeepsTopicalMentions(t *testing.T) {
	in := "HOST A: The paper's authors subscribe to a different theory entirely."
	out := FilterPromotional(in)
	if !strings.Contains(out, "different theory") {
		t.Errorf("topical use of 'subscribe' was removed: %q", out)
	}
}

func TestClean(t *testing.T) {
	in := strings.Join([]string{
		"Sure! Here's your script:",
		"",
		"Host 1: Welcome to today's discussion.",
		"Host 2: Glad to be here.",
		"Host 1: Smash that like button and subscribe!",
		"Host 2: See you soon.",
	}, "\n")
	out := Clean(in)
	lines := Lines(out)
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), out)
	}
	if lines[0].Role != RoleHostA || lines[1].Role != RoleHostB {
		t.Errorf("roles not normalized: %+v", lines)
	}
	if strings.Contains(out, "subscribe") {
		t.Errorf("promo line survived Clean: %q", out)
	}
}
