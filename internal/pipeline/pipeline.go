package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/inkwave/pdfcast/internal/assembly"
	"github.com/inkwave/pdfcast/internal/script"
	"github.com/inkwave/pdfcast/internal/tts"
)

// minInputWords rejects inputs too thin to carry a conversation.
const minInputWords = 100

// Category classifies a terminal pipeline failure for the caller. Retry and
// backoff detail stays internal; the caller only sees the terminal outcome.
type Category string

const (
	CategoryExtraction Category = "extraction"
	CategoryGeneration Category = "generation"
	CategoryBudget     Category = "budget"
	CategoryAssembly   Category = "assembly"
)

type PipelineError struct {
	Stage    string
	Category Category
	Message  string
	Err      error
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Stage, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Stage, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Options bounds one podcast-generation request.
type Options struct {
	Title          string // identifier for logging only
	TargetMinutes  int
	WordsPerMinute int
	Voices         tts.VoiceMap
	Output         string
	WorkDir        string // empty means a fresh temp directory
}

// Podcast is the final artifact: the cleaned script text and a playable
// audio file. Immutable once returned.
type Podcast struct {
	ScriptText string
	AudioPath  string
}

// Pipeline runs document text through script generation, synthesis, and
// assembly. One Pipeline may serve many requests; per-request state lives in
// Run's locals.
type Pipeline struct {
	Generator *script.Generator
	Provider  tts.Provider
	Assembler assembly.Assembler
	Log       *slog.Logger

	// Progress, when set, receives coarse stage transitions for UI display.
	Progress func(stage, message string)
}

func (p *Pipeline) progress(stage, format string, args ...any) {
	if p.Progress != nil {
		p.Progress(stage, fmt.Sprintf(format, args...))
	}
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Log != nil {
		return p.Log
	}
	return slog.Default()
}

// GenerateScript produces the cleaned dialogue script without synthesizing
// audio.
func (p *Pipeline) GenerateScript(ctx context.Context, text string, opts Options) (string, error) {
	if script.WordCount(text) < minInputWords {
		return "", &PipelineError{
			Stage:    "extract",
			Category: CategoryExtraction,
			Message:  fmt.Sprintf("input too short (%d words), need at least %d for a meaningful conversation", script.WordCount(text), minInputWords),
		}
	}

	p.progress("script", "generating script for %q", opts.Title)
	start := time.Now()
	raw, err := p.Generator.Generate(ctx, text, script.GenerateOptions{
		TargetMinutes:  opts.TargetMinutes,
		WordsPerMinute: opts.WordsPerMinute,
	})
	if err != nil {
		return "", classifyGeneration(err)
	}

	cleaned := script.Clean(raw)
	if len(script.Lines(cleaned)) == 0 {
		return "", &PipelineError{
			Stage:    "script",
			Category: CategoryGeneration,
			Message:  "generated text contains no usable dialogue",
		}
	}

	est := script.EstimateMinutes(cleaned, opts.WordsPerMinute)
	if !script.DurationInRange(cleaned, opts.TargetMinutes, opts.WordsPerMinute, script.DefaultVarianceMinutes) {
		p.logger().WarnContext(ctx, "script duration out of range",
			"estimated_minutes", est, "target_minutes", opts.TargetMinutes)
	}
	p.logger().InfoContext(ctx, "script generated",
		"title", opts.Title,
		"lines", len(script.Lines(cleaned)),
		"estimated_minutes", est,
		"elapsed", time.Since(start).Round(time.Millisecond))

	return cleaned, nil
}

// Run produces a finished podcast from extracted document text.
func (p *Pipeline) Run(ctx context.Context, text string, opts Options) (*Podcast, error) {
	cleaned, err := p.GenerateScript(ctx, text, opts)
	if err != nil {
		return nil, err
	}

	workDir := opts.WorkDir
	if workDir == "" {
		tmp, err := os.MkdirTemp("", "pdfcast-*")
		if err != nil {
			return nil, &PipelineError{Stage: "tts", Category: CategoryAssembly, Message: "create temp directory", Err: err}
		}
		defer os.RemoveAll(tmp)
		workDir = tmp
	}

	p.progress("tts", "synthesizing %d lines", len(script.Lines(cleaned)))
	annotated := script.AnnotatePauses(cleaned)
	synth := tts.NewSynthesizer(p.Provider, opts.Voices, workDir, p.Log)
	segments, err := synth.SynthesizeScript(ctx, annotated)
	if err != nil {
		return nil, classifySynthesis(err)
	}

	p.progress("assembly", "assembling %d segments", len(segments))
	if err := p.Assembler.Assemble(ctx, segments, workDir, opts.Output); err != nil {
		return nil, &PipelineError{Stage: "assembly", Category: CategoryAssembly, Message: "failed to assemble episode", Err: err}
	}

	p.logger().InfoContext(ctx, "episode assembled",
		"title", opts.Title, "output", opts.Output, "duration", ProbeDuration(opts.Output))

	return &Podcast{ScriptText: cleaned, AudioPath: opts.Output}, nil
}

func classifyGeneration(err error) error {
	var quota *script.QuotaError
	if errors.As(err, &quota) {
		return &PipelineError{Stage: "script", Category: CategoryBudget, Message: "generation budget exhausted", Err: err}
	}
	return &PipelineError{Stage: "script", Category: CategoryGeneration, Message: "failed to generate script", Err: err}
}

func classifySynthesis(err error) error {
	var quota *tts.QuotaExhaustedError
	if errors.As(err, &quota) {
		return &PipelineError{Stage: "tts", Category: CategoryBudget, Message: "synthesis budget exhausted", Err: err}
	}
	return &PipelineError{Stage: "tts", Category: CategoryAssembly, Message: "failed to synthesize audio", Err: err}
}

// ProbeDuration returns the mm:ss duration of an audio file via ffprobe, or
// "" if it cannot be determined.
func ProbeDuration(path string) string {
	out, err := exec.Command("ffprobe",
		"-v", "quiet",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	).Output()
	if err != nil {
		return ""
	}
	s := strings.TrimSpace(string(out))
	var secs float64
	if _, err := fmt.Sscanf(s, "%f", &secs); err != nil {
		return ""
	}
	return fmt.Sprintf("%d:%02d", int(secs)/60, int(secs)%60)
}
