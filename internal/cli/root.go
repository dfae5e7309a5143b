package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/inkwave/pdfcast/internal/assembly"
	"github.com/inkwave/pdfcast/internal/config"
	"github.com/inkwave/pdfcast/internal/ingest"
	"github.com/inkwave/pdfcast/internal/observability"
	"github.com/inkwave/pdfcast/internal/pipeline"
	"github.com/inkwave/pdfcast/internal/progress"
	"github.com/inkwave/pdfcast/internal/script"
	"github.com/inkwave/pdfcast/internal/tts"
)

var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "pdfcast",
	Short: "Convert PDFs, articles, and text into two-host podcast audio",
	RunE: func(cmd *cobra.Command, args []string) error {
		flagTUI = true
		return runGenerate(cmd, args)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("pdfcast %s\n", Version)
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a podcast episode from a document",
	RunE:  runGenerate,
}

var listVoicesCmd = &cobra.Command{
	Use:   "list-voices",
	Short: "List available voices for all TTS providers",
	RunE:  runListVoices,
}

var (
	flagConfig     string
	flagInput      string
	flagOutput     string
	flagTitle      string
	flagMinutes    int
	flagModel      string
	flagTTS        string
	flagEngine     string
	flagVoiceA     string
	flagVoiceB     string
	flagScriptOnly bool
	flagVerbose    bool
	flagTUI        bool
)

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(listVoicesCmd)
	generateCmd.Flags().StringVarP(&flagConfig, "config", "c", "", "Config file path (YAML)")
	generateCmd.Flags().StringVarP(&flagInput, "input", "i", "", "Source content (URL, PDF path, or text file path)")
	generateCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Output file path (MP3)")
	generateCmd.Flags().StringVar(&flagTitle, "title", "", "Episode title (defaults to a title from the source)")
	generateCmd.Flags().IntVarP(&flagMinutes, "minutes", "d", 0, "Target episode length in minutes")
	generateCmd.Flags().StringVarP(&flagModel, "model", "m", "", "Script generation model: haiku, sonnet, or nova-lite")
	generateCmd.Flags().StringVarP(&flagTTS, "tts", "T", "", "TTS provider: elevenlabs, polly, or google")
	generateCmd.Flags().StringVarP(&flagEngine, "engine", "e", "", "Polly engine tier: standard, neural, or generative")
	generateCmd.Flags().StringVarP(&flagVoiceA, "voice-a", "1", "", "Voice ID for host A (Alex)")
	generateCmd.Flags().StringVarP(&flagVoiceB, "voice-b", "2", "", "Voice ID for host B (Sam)")
	generateCmd.Flags().BoolVarP(&flagScriptOnly, "script-only", "S", false, "Output the dialogue script only, skip TTS and assembly")
	generateCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable detailed logging")
	generateCmd.Flags().BoolVarP(&flagTUI, "tui", "t", false, "Interactive setup wizard for generation options")
}

func Execute() error {
	return rootCmd.Execute()
}

// modelProvider maps a model alias to its completer backend.
func modelProvider(model string) string {
	if strings.HasPrefix(model, "nova") {
		return "nova"
	}
	return "claude"
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if flagTUI {
		if err := runInteractiveSetup(); err != nil {
			return err
		}
	}

	if flagInput == "" {
		return fmt.Errorf("--input (-i) is required")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyFlags(cfg)

	if err := checkAPIKeys(cfg); err != nil {
		return err
	}
	if !flagScriptOnly {
		if err := checkFFmpeg(); err != nil {
			return err
		}
	}

	level := slog.LevelWarn
	if flagVerbose {
		level = slog.LevelDebug
	}
	log := observability.InitLogger(level)

	ctx := cmd.Context()

	completer, err := newCompleter(ctx, cfg)
	if err != nil {
		return err
	}
	generator, err := script.NewGeneratorWithLimits(completer, log, generatorLimits(cfg))
	if err != nil {
		return err
	}

	p := pipeline.Pipeline{
		Generator: generator,
		Log:       log,
	}

	start := time.Now()
	var renderer *progress.BarRenderer
	if !flagVerbose {
		renderer = progress.NewBarRenderer(os.Stdout)
		defer renderer.Finish()
		p.Progress = func(stage, message string) {
			renderer.Handle(progress.NewEvent(progress.Stage(stage), message, start))
		}
	}

	if renderer != nil {
		renderer.Handle(progress.NewEvent(progress.StageExtract, "extracting content from "+flagInput, start))
	}
	content, err := ingest.NewIngester(flagInput).Ingest(ctx, flagInput)
	if err != nil {
		return err
	}

	opts := pipeline.Options{
		Title:          flagTitle,
		TargetMinutes:  cfg.Generation.TargetMinutes,
		WordsPerMinute: cfg.Generation.WordsPerMinute,
		Voices: tts.VoiceMap{
			HostA: tts.Voice{ID: cfg.TTS.VoiceHostA},
			HostB: tts.Voice{ID: cfg.TTS.VoiceHostB},
		},
		Output: outputPath(flagOutput, flagScriptOnly),
	}
	if opts.Title == "" {
		opts.Title = content.Title
	}

	if flagScriptOnly {
		text, err := p.GenerateScript(ctx, content.Text, opts)
		if err != nil {
			return err
		}
		return writeScript(opts.Output, text)
	}

	provider, err := tts.NewProvider(cfg.TTS.Provider, tts.ProviderConfig{
		VoiceHostA: cfg.TTS.VoiceHostA,
		VoiceHostB: cfg.TTS.VoiceHostB,
		Engine:     tts.Engine(cfg.TTS.Engine),
	})
	if err != nil {
		return err
	}
	defer provider.Close()
	p.Provider = provider
	p.Assembler = assembly.NewFFmpegAssembler(log)

	pod, err := p.Run(ctx, content.Text, opts)
	if err != nil {
		return err
	}

	if renderer != nil {
		e := progress.NewEvent(progress.StageComplete, "podcast ready", start)
		e.OutputFile = pod.AudioPath
		e.Duration = pipeline.ProbeDuration(pod.AudioPath)
		if info, err := os.Stat(pod.AudioPath); err == nil {
			e.SizeMB = float64(info.Size()) / (1024 * 1024)
		}
		renderer.Handle(e)
	} else {
		fmt.Printf("Podcast written to %s\n", pod.AudioPath)
	}
	return nil
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyFlags layers explicit CLI flags over the loaded config.
func applyFlags(cfg *config.Config) {
	if flagMinutes > 0 {
		cfg.Generation.TargetMinutes = flagMinutes
	}
	if flagModel != "" {
		cfg.Generation.Model = flagModel
		cfg.Generation.Provider = modelProvider(flagModel)
	}
	if flagTTS != "" {
		cfg.TTS.Provider = flagTTS
	}
	if flagEngine != "" {
		cfg.TTS.Engine = flagEngine
	}
	if flagVoiceA != "" {
		cfg.TTS.VoiceHostA = flagVoiceA
	}
	if flagVoiceB != "" {
		cfg.TTS.VoiceHostB = flagVoiceB
	}
}

func generatorLimits(cfg *config.Config) script.GeneratorLimits {
	return script.GeneratorLimits{
		MaxChunkChars: cfg.Generation.MaxChunkChars,
		MaxChunks:     cfg.Generation.MaxChunks,
		MaxConcurrent: cfg.Throttle.MaxConcurrent,
		MinInterval:   time.Duration(cfg.Throttle.MinIntervalMS) * time.Millisecond,
	}
}

func newCompleter(ctx context.Context, cfg *config.Config) (script.Completer, error) {
	switch cfg.Generation.Provider {
	case "nova":
		return script.NewNovaCompleter(ctx, cfg.Generation.Model)
	default:
		return script.NewClaudeCompleter(cfg.Generation.Model), nil
	}
}

// outputPath resolves the output flag to a concrete path, defaulting to a
// timestamped name in the working directory.
func outputPath(flag string, scriptOnly bool) string {
	ext := ".mp3"
	if scriptOnly {
		ext = ".txt"
	}
	if flag == "" {
		return time.Now().Format("podcast-20060102-1504") + ext
	}
	if filepath.Ext(flag) == "" {
		return flag + ext
	}
	return flag
}

func writeScript(path, text string) error {
	if err := os.WriteFile(path, []byte(text+"\n"), 0o644); err != nil {
		return fmt.Errorf("write script: %w", err)
	}
	fmt.Printf("Script written to %s\n", path)
	return nil
}

func checkAPIKeys(cfg *config.Config) error {
	var missing []string

	if cfg.Generation.Provider == "claude" && os.Getenv("ANTHROPIC_API_KEY") == "" {
		missing = append(missing, "ANTHROPIC_API_KEY")
	}
	if !flagScriptOnly && cfg.TTS.Provider == "elevenlabs" && os.Getenv("ELEVENLABS_API_KEY") == "" {
		missing = append(missing, "ELEVENLABS_API_KEY")
	}
	// Nova, Polly, and Google Cloud TTS authenticate via their SDKs'
	// default credential chains.

	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variable(s): %s", strings.Join(missing, ", "))
	}
	return nil
}

func checkFFmpeg() error {
	_, err := exec.LookPath("ffmpeg")
	if err != nil {
		return fmt.Errorf("FFmpeg not found — install with: brew install ffmpeg")
	}
	return nil
}

func runListVoices(cmd *cobra.Command, args []string) error {
	providers := []struct {
		name  string
		label string
	}{
		{"elevenlabs", "ELEVENLABS"},
		{"polly", "AMAZON POLLY"},
		{"google", "GOOGLE CLOUD TTS"},
	}

	fmt.Println("\nAvailable voices:")

	for _, p := range providers {
		voices, err := tts.AvailableVoices(p.name)
		if err != nil {
			return err
		}

		fmt.Printf("\n  %s\n", p.label)
		fmt.Printf("  %s\n", strings.Repeat("─", 50))
		fmt.Printf("  %-28s %-12s %-8s %s\n", "ID", "NAME", "GENDER", "DESCRIPTION")
		for _, v := range voices {
			def := ""
			if v.DefaultFor != "" {
				def = fmt.Sprintf(" (default %s)", v.DefaultFor)
			}
			fmt.Printf("  %-28s %-12s %-8s %s%s\n", v.ID, v.Name, v.Gender, v.Description, def)
		}
	}
	fmt.Println()
	return nil
}
