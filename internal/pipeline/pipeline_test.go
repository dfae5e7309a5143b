package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/inkwave/pdfcast/internal/script"
	"github.com/inkwave/pdfcast/internal/tts"
)

const sampleScript = `HOST A: Welcome to the show, today we're looking at deep-sea surveying.
HOST B: It's a genuinely surprising body of work.
HOST A: Let's start with the methods!
HOST B: That's all for today, thanks for listening.`

type stubCompleter struct {
	err error
}

func (s *stubCompleter) Name() string { return "stub" }

func (s *stubCompleter) Complete(ctx context.Context, system, user string, maxTokens int64, temperature float64) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return sampleScript, nil
}

type stubProvider struct{}

func (stubProvider) Name() string { return "stub" }

func (stubProvider) Synthesize(ctx context.Context, text string, voice tts.Voice) (tts.AudioResult, error) {
	return tts.AudioResult{Data: []byte("mp3"), Format: tts.FormatMP3}, nil
}

func (stubProvider) DefaultVoices() tts.VoiceMap {
	return tts.VoiceMap{
		HostA: tts.Voice{ID: "a"},
		HostB: tts.Voice{ID: "b"},
	}
}

func (stubProvider) MaxChars() int { return 4000 }

func (stubProvider) Close() error { return nil }

type stubAssembler struct {
	segments []tts.Segment
}

func (a *stubAssembler) Assemble(ctx context.Context, segments []tts.Segment, tmpDir, output string) error {
	a.segments = segments
	return os.WriteFile(output, make([]byte, 4096), 0o644)
}

func testPipeline(t *testing.T, c script.Completer) (*Pipeline, *stubAssembler) {
	t.Helper()
	gen, err := script.NewGenerator(c, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatal(err)
	}
	asm := &stubAssembler{}
	return &Pipeline{
		Generator: gen,
		Provider:  stubProvider{},
		Assembler: asm,
		Log:       slog.New(slog.DiscardHandler),
	}, asm
}

func inputText() string {
	return strings.Repeat("The survey vessel logged another transect across the ridge. ", 30)
}

func TestRunProducesPodcast(t *testing.T) {
	p, asm := testPipeline(t, &stubCompleter{})
	out := filepath.Join(t.TempDir(), "episode.mp3")

	podcast, err := p.Run(context.Background(), inputText(), Options{
		Title:         "survey.pdf",
		TargetMinutes: 12,
		Output:        out,
	})
	if err != nil {
		t.Fatal(err)
	}
	if podcast.AudioPath != out {
		t.Errorf("audio path = %q, want %q", podcast.AudioPath, out)
	}
	if !strings.Contains(podcast.ScriptText, "HOST A:") || !strings.Contains(podcast.ScriptText, "HOST B:") {
		t.Errorf("script missing host lines:\n%s", podcast.ScriptText)
	}
	if strings.Contains(podcast.ScriptText, "[[pause:") {
		t.Errorf("pause markers leaked into returned script")
	}

	var speech int
	for i, seg := range asm.segments {
		if seg.Order != i {
			t.Errorf("segment %d has order %d", i, seg.Order)
		}
		if seg.Kind == tts.SegmentSpeech {
			speech++
		}
	}
	if speech != 4 {
		t.Errorf("assembled %d speech segments, want 4", speech)
	}
}

func TestRunRejectsShortInput(t *testing.T) {
	p, _ := testPipeline(t, &stubCompleter{})

	_, err := p.Run(context.Background(), "a handful of words only", Options{TargetMinutes: 12, Output: "x.mp3"})
	var perr *PipelineError
	if !errors.As(err, &perr) {
		t.Fatalf("want PipelineError, got %v", err)
	}
	if perr.Category != CategoryExtraction {
		t.Errorf("category = %s, want %s", perr.Category, CategoryExtraction)
	}
}

func TestRunBudgetExhaustedCategory(t *testing.T) {
	p, _ := testPipeline(t, &stubCompleter{err: &script.QuotaError{Body: "credit balance too low"}})

	_, err := p.Run(context.Background(), inputText(), Options{TargetMinutes: 12, Output: "x.mp3"})
	var perr *PipelineError
	if !errors.As(err, &perr) {
		t.Fatalf("want PipelineError, got %v", err)
	}
	if perr.Category != CategoryBudget {
		t.Errorf("category = %s, want %s", perr.Category, CategoryBudget)
	}
	var quota *script.QuotaError
	if !errors.As(err, &quota) {
		t.Errorf("quota error not preserved in chain: %v", err)
	}
}

func TestGenerateScriptOnly(t *testing.T) {
	p, asm := testPipeline(t, &stubCompleter{})

	text, err := p.GenerateScript(context.Background(), inputText(), Options{Title: "doc", TargetMinutes: 12})
	if err != nil {
		t.Fatal(err)
	}
	if len(script.Lines(text)) != 4 {
		t.Errorf("got %d lines, want 4:\n%s", len(script.Lines(text)), text)
	}
	if asm.segments != nil {
		t.Error("script-only path touched the assembler")
	}
}
