package script

import (
	"strings"
	"testing"
)

func TestResolveRole(t *testing.T) {
	tests := []struct {
		label string
		want  Role
		ok    bool
	}{
		{"HOST A", RoleHostA, true},
		{"host a", RoleHostA, true},
		{"Host 1", RoleHostA, true},
		{"Speaker A", RoleHostA, true},
		{"Alex", RoleHostA, true},
		{"HOST B", RoleHostB, true},
		{"host2", RoleHostB, true},
		{"Speaker B", RoleHostB, true},
		{"Sam", RoleHostB, true},
		{"HOST  A", RoleHostA, true},
		{"speaker  2", RoleHostB, true},
		{"Narrator", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := ResolveRole(tt.label)
		if ok != tt.ok {
			t.Errorf("ResolveRole(%q) ok = %v, want %v", tt.label, ok, tt.ok)
			continue
		}
		if ok && got != tt.want {
			t.Errorf("ResolveRole(%q) = %v, want %v", tt.label, got, tt.want)
		}
	}
}

func TestLines(t *testing.T) {
	text := strings.Join([]string{
		"HOST A: Welcome to the show.",
		"",
		"HOST B: Thanks, glad to be here.",
		"[both laugh]",
		"HOST A: Let's dig in.",
		"It really is fascinating stuff.",
	}, "\n")

	lines := Lines(text)
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3: %+v", len(lines), lines)
	}
	if lines[0].Role != RoleHostA || lines[1].Role != RoleHostB || lines[2].Role != RoleHostA {
		t.Errorf("unexpected role sequence: %+v", lines)
	}
	if !strings.Contains(lines[2].Text, "fascinating") {
		t.Errorf("continuation line not appended to previous turn: %q", lines[2].Text)
	}
	for _, l := range lines {
		if strings.Contains(l.Text, "laugh") {
			t.Errorf("stage direction survived parsing: %q", l.Text)
		}
	}
}

func TestLinesMarkdownLabels(t *testing.T) {
	lines := Lines("**Host A:** Hello there.\n**Host B:** Hi!")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[0].Role != RoleHostA {
		t.Errorf("first line role = %v, want RoleHostA", lines[0].Role)
	}
	if lines[0].Text != "Hello there." {
		t.Errorf("markdown bold not stripped from label: %q", lines[0].Text)
	}
}

func TestLinesDoubledSpaceLabel(t *testing.T) {
	lines := Lines("HOST  B: Extra space in the label.")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	if lines[0].Role != RoleHostB {
		t.Errorf("role = %v, want RoleHostB", lines[0].Role)
	}
}

func TestWordCount(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"   ", 0},
		{"one", 1},
		{"one two three", 3},
		{"  spaced   out\twords\nhere  ", 4},
	}
	for _, tt := range tests {
		if got := WordCount(tt.text); got != tt.want {
			t.Errorf("WordCount(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}
