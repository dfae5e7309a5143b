package tts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/inkwave/pdfcast/internal/chunk"
	"github.com/inkwave/pdfcast/internal/script"
)

// synthesisTimeout bounds one provider call. Synthesis is much faster than
// generation, so the ceiling is short.
const synthesisTimeout = 90 * time.Second

// SegmentKind distinguishes spoken audio from inserted silence.
type SegmentKind string

const (
	SegmentSpeech SegmentKind = "speech"
	SegmentPause  SegmentKind = "pause"
)

// Segment is one ordered piece of the episode: either a synthesized audio
// file or a silence of a given duration. Segments are temporary and are
// deleted by the assembler after combination.
type Segment struct {
	Order    int
	Kind     SegmentKind
	Path     string        // speech only
	Format   AudioFormat   // speech only
	Duration time.Duration // pause only
}

// Synthesizer turns a cleaned script into ordered audio segments, one
// provider call per dialogue line. Lines are processed sequentially: output
// order is part of the contract and provider rate limits apply per caller.
type Synthesizer struct {
	provider Provider
	voices   VoiceMap
	workDir  string
	log      *slog.Logger
}

// NewSynthesizer creates a Synthesizer writing segment files under workDir.
// An empty voice map falls back to the provider's defaults.
func NewSynthesizer(provider Provider, voices VoiceMap, workDir string, logger *slog.Logger) *Synthesizer {
	if voices.HostA.ID == "" {
		voices.HostA = provider.DefaultVoices().HostA
	}
	if voices.HostB.ID == "" {
		voices.HostB = provider.DefaultVoices().HostB
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Synthesizer{
		provider: provider,
		voices:   voices,
		workDir:  workDir,
		log:      logger,
	}
}

// SynthesizeScript synthesizes every dialogue line of the script and returns
// the ordered segments, silence included. A quota-exhaustion error from the
// provider stops synthesis immediately and is returned; any other per-line
// failure is logged and the line skipped.
func (s *Synthesizer) SynthesizeScript(ctx context.Context, scriptText string) ([]Segment, error) {
	lines := script.Lines(scriptText)
	if len(lines) == 0 {
		return nil, errors.New("script has no dialogue lines")
	}

	// Segment files carry the request start stamp so concurrent requests
	// on one host never collide.
	stamp := time.Now().UnixNano()

	var segments []Segment
	order := 0
	for i, line := range lines {
		spoken := strings.TrimSpace(script.StripPauses(line.Text))
		if spoken == "" {
			continue
		}

		voice := s.voiceFor(line.Role)

		res, err := s.synthesizeLine(ctx, spoken, voice)
		if err != nil {
			var quota *QuotaExhaustedError
			if errors.As(err, &quota) {
				return nil, fmt.Errorf("line %d: %w", i+1, err)
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.log.WarnContext(ctx, "skipping line after synthesis failure",
				"line", i+1, "speaker", line.Role.Label(), "error", err)
			continue
		}

		path := filepath.Join(s.workDir, fmt.Sprintf("seg-%d-%04d.%s", stamp, i, res.Format))
		if err := os.WriteFile(path, res.Data, 0o644); err != nil {
			return nil, fmt.Errorf("write segment file: %w", err)
		}

		segments = append(segments, Segment{Order: order, Kind: SegmentSpeech, Path: path, Format: res.Format})
		order++

		if kind, ok := script.TrailingPause(line.Text); ok {
			segments = append(segments, Segment{Order: order, Kind: SegmentPause, Duration: kind.Duration()})
			order++
		}
	}

	if len(segments) == 0 {
		return nil, errors.New("no lines synthesized successfully")
	}
	return segments, nil
}

// synthesizeLine produces one line's audio. Text over the provider's
// per-call ceiling is split at paragraph/sentence boundaries and the
// sub-call audio joined in order: MP3 frames and raw PCM concatenate
// byte-for-byte, WAV clips are merged with a rewritten header.
func (s *Synthesizer) synthesizeLine(ctx context.Context, text string, voice Voice) (AudioResult, error) {
	parts := []string{text}
	if max := s.provider.MaxChars(); len(text) > max {
		chunks, err := chunk.Split(text, max, len(text)/max+2)
		if err != nil {
			return AudioResult{}, fmt.Errorf("split oversize line: %w", err)
		}
		parts = parts[:0]
		for _, c := range chunks {
			parts = append(parts, c.Text)
		}
	}

	var clips [][]byte
	format := FormatMP3
	for _, part := range parts {
		var res AudioResult
		err := WithRetry(ctx, func() error {
			cctx, cancel := context.WithTimeout(ctx, synthesisTimeout)
			defer cancel()
			var err error
			res, err = s.provider.Synthesize(cctx, part, voice)
			return err
		})
		if err != nil {
			return AudioResult{}, err
		}
		clips = append(clips, res.Data)
		format = res.Format
	}

	if len(clips) == 1 {
		return AudioResult{Data: clips[0], Format: format}, nil
	}
	if format == FormatWAV {
		merged, err := mergeWAV(clips)
		if err != nil {
			return AudioResult{}, fmt.Errorf("join wav clips: %w", err)
		}
		return AudioResult{Data: merged, Format: format}, nil
	}
	var data []byte
	for _, clip := range clips {
		data = append(data, clip...)
	}
	return AudioResult{Data: data, Format: format}, nil
}

func (s *Synthesizer) voiceFor(role script.Role) Voice {
	if role == script.RoleHostB {
		return s.voices.HostB
	}
	return s.voices.HostA
}
