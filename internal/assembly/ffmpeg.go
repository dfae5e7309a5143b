package assembly

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/inkwave/pdfcast/internal/tts"
)

// Audio quality constants for consistent output across all FFmpeg operations.
const (
	AudioBitrate    = "192k"
	AudioSampleRate = "44100"
	AudioChannels   = "2"
	AudioCodec      = "libmp3lame"
	AudioQuality    = "0" // LAME quality (0 = best)
	AudioResampler  = "aresample=resampler=soxr"

	// minOutputBytes rejects obviously corrupt results. A few seconds of
	// 192k MP3 is already well past this.
	minOutputBytes = 1024
)

// Assembler combines ordered audio segments into one playable file.
type Assembler interface {
	Assemble(ctx context.Context, segments []tts.Segment, tmpDir string, output string) error
}

// FFmpegAssembler implements Assembler by shelling out to ffmpeg. The main
// pass re-encodes at fixed bitrate/sample-rate/channels so the result has
// clean frame structure for range-request streaming; if that fails, a
// stream-copy concatenation is used as a degraded but playable fallback.
type FFmpegAssembler struct {
	log *slog.Logger
}

func NewFFmpegAssembler(logger *slog.Logger) *FFmpegAssembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &FFmpegAssembler{log: logger}
}

func (a *FFmpegAssembler) Assemble(ctx context.Context, segments []tts.Segment, tmpDir string, output string) error {
	if len(segments) == 0 {
		return fmt.Errorf("no audio segments to assemble")
	}

	var scratch []string
	defer func() {
		// Segment and scratch files are request-scoped; remove them whether
		// or not assembly succeeded.
		cleanup(segments, scratch)
	}()

	// Providers that return PCM or WAV need a per-segment conversion pass
	// first; the concat demuxer wants uniform MP3 inputs.
	for i := range segments {
		seg := &segments[i]
		if seg.Kind != tts.SegmentSpeech || seg.Format == tts.FormatMP3 || seg.Format == "" {
			continue
		}
		converted := seg.Path + ".mp3"
		if err := ConvertToMP3(ctx, seg.Path, seg.Format, converted); err != nil {
			return fmt.Errorf("convert segment %d: %w", seg.Order, err)
		}
		scratch = append(scratch, seg.Path)
		seg.Path = converted
		seg.Format = tts.FormatMP3
	}

	silences, err := generateSilences(ctx, segments, tmpDir)
	if err != nil {
		return fmt.Errorf("generate silence: %w", err)
	}
	for _, p := range silences {
		scratch = append(scratch, p)
	}

	listPath := filepath.Join(tmpDir, fmt.Sprintf("concat-%d.txt", time.Now().UnixNano()))
	scratch = append(scratch, listPath)
	if err := writeConcatList(segments, silences, listPath); err != nil {
		return fmt.Errorf("build concat list: %w", err)
	}

	if err := concatReencode(ctx, listPath, output); err != nil {
		a.log.WarnContext(ctx, "re-encoding concat failed, falling back to stream copy", "error", err)
		if err := concatCopy(ctx, listPath, output); err != nil {
			return fmt.Errorf("ffmpeg concat: %w", err)
		}
	}

	return validateOutput(output)
}

// generateSilences creates one silence file per distinct pause duration and
// returns them keyed by duration.
func generateSilences(ctx context.Context, segments []tts.Segment, tmpDir string) (map[time.Duration]string, error) {
	silences := make(map[time.Duration]string)
	for _, seg := range segments {
		if seg.Kind != tts.SegmentPause {
			continue
		}
		if _, ok := silences[seg.Duration]; ok {
			continue
		}
		path := filepath.Join(tmpDir, fmt.Sprintf("silence-%dms.mp3", seg.Duration.Milliseconds()))
		cmd := exec.CommandContext(ctx, "ffmpeg",
			"-f", "lavfi",
			"-i", fmt.Sprintf("anullsrc=r=%s:cl=stereo", AudioSampleRate),
			"-t", fmt.Sprintf("%.3f", seg.Duration.Seconds()),
			"-c:a", AudioCodec,
			"-b:a", AudioBitrate,
			"-y",
			path,
		)
		var stderr strings.Builder
		cmd.Stderr = &stderr
		cmd.Stdout = nil
		if err := cmd.Run(); err != nil {
			return nil, fmt.Errorf("ffmpeg silence generation failed: %w\n%s", err, stderr.String())
		}
		silences[seg.Duration] = path
	}
	return silences, nil
}

// writeConcatList emits ffmpeg concat-demuxer input, one file per line, in
// segment order.
func writeConcatList(segments []tts.Segment, silences map[time.Duration]string, listPath string) error {
	var lines []string
	for _, seg := range segments {
		switch seg.Kind {
		case tts.SegmentSpeech:
			lines = append(lines, fmt.Sprintf("file '%s'", seg.Path))
		case tts.SegmentPause:
			if path, ok := silences[seg.Duration]; ok {
				lines = append(lines, fmt.Sprintf("file '%s'", path))
			}
		}
	}
	if len(lines) == 0 {
		return fmt.Errorf("no playable segments in list")
	}

	content := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(listPath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write concat list: %w", err)
	}
	return nil
}

func concatReencode(ctx context.Context, listPath, output string) error {
	return runFFmpeg(ctx,
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-af", AudioResampler,
		"-c:a", AudioCodec,
		"-b:a", AudioBitrate,
		"-q:a", AudioQuality,
		"-ar", AudioSampleRate,
		"-ac", AudioChannels,
		"-y",
		output,
	)
}

func concatCopy(ctx context.Context, listPath, output string) error {
	return runFFmpeg(ctx,
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		"-y",
		output,
	)
}

func runFFmpeg(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	cmd.Stdout = nil
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg failed: %w\n%s", err, stderr.String())
	}
	return nil
}

func validateOutput(output string) error {
	info, err := os.Stat(output)
	if err != nil {
		return fmt.Errorf("output file not created: %w", err)
	}
	if info.Size() < minOutputBytes {
		return fmt.Errorf("output file suspiciously small (%d bytes)", info.Size())
	}
	return nil
}

func cleanup(segments []tts.Segment, scratch []string) {
	for _, seg := range segments {
		if seg.Kind == tts.SegmentSpeech && seg.Path != "" {
			os.Remove(seg.Path)
		}
	}
	for _, p := range scratch {
		os.Remove(p)
	}
}

// ConvertToMP3 converts raw audio (PCM/WAV) to MP3 via FFmpeg.
// The format parameter determines the input interpretation:
//   - "pcm":  raw 16kHz 16-bit signed little-endian mono (Polly)
//   - "wav":  standard WAV header (auto-detected by FFmpeg)
func ConvertToMP3(ctx context.Context, input string, format tts.AudioFormat, output string) error {
	var args []string
	switch format {
	case tts.FormatPCM:
		args = []string{
			"-f", "s16le",
			"-ar", "16000",
			"-ac", "1",
			"-i", input,
		}
	case tts.FormatWAV:
		args = []string{"-i", input}
	default:
		return fmt.Errorf("unsupported audio format for conversion: %s", format)
	}
	args = append(args,
		"-af", AudioResampler,
		"-c:a", AudioCodec,
		"-b:a", AudioBitrate,
		"-q:a", AudioQuality,
		"-ar", AudioSampleRate,
		"-ac", AudioChannels,
		"-y",
		output,
	)
	if err := runFFmpeg(ctx, args...); err != nil {
		return fmt.Errorf("convert %s to mp3: %w", format, err)
	}
	return nil
}
