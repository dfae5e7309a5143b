// Package script turns extracted document text into a cleaned two-host
// dialogue ready for synthesis. Generation goes through a Completer (the
// language-model capability); post-processing is pure text transforms.
package script

import (
	"regexp"
	"strings"
)

// Role identifies one of the two conversational hosts. Scripts are parsed
// into roles at ingestion; nothing downstream branches on raw speaker names.
type Role int

const (
	RoleUnknown Role = iota
	RoleHostA
	RoleHostB
)

// Label returns the canonical speaker label used in script text.
func (r Role) Label() string {
	switch r {
	case RoleHostA:
		return "HOST A"
	case RoleHostB:
		return "HOST B"
	default:
		return ""
	}
}

// DisplayName returns the presentation name for a role. Display names are
// prompt/UI concerns only; identity is always the Role value.
func (r Role) DisplayName() string {
	switch r {
	case RoleHostA:
		return "Alex"
	case RoleHostB:
		return "Sam"
	default:
		return ""
	}
}

// roleAliases maps accepted speaker spellings (two naming schemes have been
// in circulation: positional labels and display names) to roles.
var roleAliases = map[string]Role{
	"host a":    RoleHostA,
	"hosta":     RoleHostA,
	"host 1":    RoleHostA,
	"host1":     RoleHostA,
	"speaker a": RoleHostA,
	"speaker 1": RoleHostA,
	"alex":      RoleHostA,
	"host b":    RoleHostB,
	"hostb":     RoleHostB,
	"host 2":    RoleHostB,
	"host2":     RoleHostB,
	"speaker b": RoleHostB,
	"speaker 2": RoleHostB,
	"sam":       RoleHostB,
}

// ResolveRole maps any accepted alias spelling to its role. Internal runs
// of whitespace are collapsed so "HOST  A" resolves the same as "Host A".
// The second return reports whether the name matched a known alias.
func ResolveRole(name string) (Role, bool) {
	key := strings.Join(strings.Fields(strings.ToLower(name)), " ")
	role, ok := roleAliases[key]
	return role, ok
}

// Line is one spoken turn of the dialogue.
type Line struct {
	Role Role
	Text string
}

// speakerLineRe matches a speaker-labeled line: optional markdown bold
// around the label (closing either before or after the colon, models emit
// both), an alias, then a colon. Group 1 is the alias, group 2 the spoken
// text.
var speakerLineRe = regexp.MustCompile(`(?i)^\s*(?:\*\*)?\s*(host\s*[ab12]|speaker\s*[ab12]|alex|sam)\s*(?:\*\*)?\s*:\s*(?:\*\*)?\s*(.*)$`)

// stageDirectionRe matches lines that are only a bracketed stage direction,
// e.g. "[intro music]" or "(both laugh)".
var stageDirectionRe = regexp.MustCompile(`^\s*(\[[^\]]*\]|\([^)]*\))\s*$`)

// Lines parses cleaned script text into ordered speaker turns. Blank lines
// and stage-direction-only lines are dropped. Unlabeled continuation lines
// are attached to the preceding turn (wrapped dialogue).
func Lines(text string) []Line {
	var lines []Line
	for _, raw := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" || stageDirectionRe.MatchString(trimmed) {
			continue
		}
		if m := speakerLineRe.FindStringSubmatch(trimmed); m != nil {
			role, _ := ResolveRole(m[1])
			body := strings.TrimSpace(m[2])
			if body == "" || stageDirectionRe.MatchString(body) {
				continue
			}
			lines = append(lines, Line{Role: role, Text: body})
			continue
		}
		if len(lines) > 0 {
			lines[len(lines)-1].Text += " " + trimmed
		}
	}
	return lines
}

// WordCount counts whitespace-delimited words.
func WordCount(s string) int {
	count := 0
	inWord := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			inWord = false
		} else if !inWord {
			inWord = true
			count++
		}
	}
	return count
}
