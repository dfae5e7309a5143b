package assembly

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/inkwave/pdfcast/internal/tts"
)

func TestWriteConcatListOrder(t *testing.T) {
	dir := t.TempDir()
	segments := []tts.Segment{
		{Order: 0, Kind: tts.SegmentSpeech, Path: "/tmp/a.mp3"},
		{Order: 1, Kind: tts.SegmentPause, Duration: 450 * time.Millisecond},
		{Order: 2, Kind: tts.SegmentSpeech, Path: "/tmp/b.mp3"},
		{Order: 3, Kind: tts.SegmentPause, Duration: 700 * time.Millisecond},
		{Order: 4, Kind: tts.SegmentSpeech, Path: "/tmp/c.mp3"},
	}
	silences := map[time.Duration]string{
		450 * time.Millisecond: "/tmp/silence-450ms.mp3",
		700 * time.Millisecond: "/tmp/silence-700ms.mp3",
	}

	listPath := filepath.Join(dir, "concat.txt")
	if err := writeConcatList(segments, silences, listPath); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(listPath)
	if err != nil {
		t.Fatal(err)
	}
	want := strings.Join([]string{
		"file '/tmp/a.mp3'",
		"file '/tmp/silence-450ms.mp3'",
		"file '/tmp/b.mp3'",
		"file '/tmp/silence-700ms.mp3'",
		"file '/tmp/c.mp3'",
	}, "\n") + "\n"
	if string(data) != want {
		t.Errorf("concat list:\ngot:\n%s\nwant:\n%s", data, want)
	}
}

func TestWriteConcatListEmpty(t *testing.T) {
	listPath := filepath.Join(t.TempDir(), "concat.txt")
	err := writeConcatList(nil, nil, listPath)
	if err == nil {
		t.Error("expected error for empty segment list")
	}
}

func TestConvertToMP3RejectsUnknownFormat(t *testing.T) {
	err := ConvertToMP3(t.Context(), "in.ogg", tts.AudioFormat("ogg"), "out.mp3")
	if err == nil || !strings.Contains(err.Error(), "unsupported audio format") {
		t.Errorf("want unsupported-format error, got %v", err)
	}
}

func TestValidateOutput(t *testing.T) {
	dir := t.TempDir()

	missing := filepath.Join(dir, "missing.mp3")
	if err := validateOutput(missing); err == nil {
		t.Error("expected error for missing output")
	}

	small := filepath.Join(dir, "small.mp3")
	if err := os.WriteFile(small, []byte("tiny"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := validateOutput(small); err == nil {
		t.Error("expected error for undersized output")
	}

	ok := filepath.Join(dir, "ok.mp3")
	if err := os.WriteFile(ok, make([]byte, 4096), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := validateOutput(ok); err != nil {
		t.Errorf("valid output rejected: %v", err)
	}
}

func TestCleanupRemovesSegments(t *testing.T) {
	dir := t.TempDir()
	seg := filepath.Join(dir, "seg.mp3")
	scratchFile := filepath.Join(dir, "list.txt")
	for _, p := range []string{seg, scratchFile} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	cleanup([]tts.Segment{{Kind: tts.SegmentSpeech, Path: seg}}, []string{scratchFile})

	for _, p := range []string{seg, scratchFile} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Errorf("%s not removed", p)
		}
	}
}
