package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-sdk-go-v2/otelaws"

	"github.com/inkwave/pdfcast/internal/assembly"
	"github.com/inkwave/pdfcast/internal/config"
	"github.com/inkwave/pdfcast/internal/observability"
	"github.com/inkwave/pdfcast/internal/pipeline"
	"github.com/inkwave/pdfcast/internal/script"
	"github.com/inkwave/pdfcast/internal/server"
	"github.com/inkwave/pdfcast/internal/tts"
)

const version = "1.0.0"

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("PDFCAST_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := observability.InitLogger(logLevel(cfg.Telemetry.LogLevel))
	logger.Info("pdfcastd starting", "version", version, "port", cfg.Server.Port)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	tp, err := observability.InitTracer(ctx, "pdfcastd", version)
	if err != nil {
		logger.Warn("failed to init tracer, continuing without tracing", "error", err)
	} else if tp != nil {
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				logger.Error("tracer shutdown error", "error", err)
			}
		}()
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}
	otelaws.AppendMiddlewares(&awsCfg.APIOptions)

	sm := secretsmanager.NewFromConfig(awsCfg)
	if err := server.LoadSecrets(ctx, sm, cfg.Server.APIKeysSecret, logger); err != nil {
		logger.Error("failed to load secrets", "error", err)
		os.Exit(1)
	}

	pipe, err := buildPipeline(ctx, &cfg, logger)
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}
	defer pipe.Provider.Close()

	store := server.NewStore(dynamodb.NewFromConfig(awsCfg), cfg.Server.PodcastTable)
	audio := server.NewAudioStore(s3.NewFromConfig(awsCfg), cfg.Server.AudioBucket, cfg.Server.CDNBaseURL, audioDir())
	tasks := server.NewTaskManager(logger, store, audio, pipe, 4)
	srv := server.New(logger, &cfg, store, audio, tasks)

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Bind, cfg.Server.Port),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logger.Info("shutdown signal received, draining")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown error", "error", err)
		}
		tasks.Shutdown(shutdownCtx)
	}()

	logger.Info("listening", "addr", httpSrv.Addr)
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

func buildPipeline(ctx context.Context, cfg *config.Config, logger *slog.Logger) (pipeline.Pipeline, error) {
	var completer script.Completer
	var err error
	switch cfg.Generation.Provider {
	case "nova":
		completer, err = script.NewNovaCompleter(ctx, cfg.Generation.Model)
	default:
		completer = script.NewClaudeCompleter(cfg.Generation.Model)
	}
	if err != nil {
		return pipeline.Pipeline{}, err
	}

	generator, err := script.NewGeneratorWithLimits(completer, logger, script.GeneratorLimits{
		MaxChunkChars: cfg.Generation.MaxChunkChars,
		MaxChunks:     cfg.Generation.MaxChunks,
		MaxConcurrent: cfg.Throttle.MaxConcurrent,
		MinInterval:   time.Duration(cfg.Throttle.MinIntervalMS) * time.Millisecond,
	})
	if err != nil {
		return pipeline.Pipeline{}, err
	}

	provider, err := tts.NewProvider(cfg.TTS.Provider, tts.ProviderConfig{
		VoiceHostA: cfg.TTS.VoiceHostA,
		VoiceHostB: cfg.TTS.VoiceHostB,
		Engine:     tts.Engine(cfg.TTS.Engine),
	})
	if err != nil {
		return pipeline.Pipeline{}, err
	}

	return pipeline.Pipeline{
		Generator: generator,
		Provider:  provider,
		Assembler: assembly.NewFFmpegAssembler(logger),
		Log:       logger,
	}, nil
}

func logLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// audioDir is where finished episodes land when no S3 bucket is configured.
func audioDir() string {
	if dir := os.Getenv("PDFCAST_AUDIO_DIR"); dir != "" {
		return dir
	}
	return "audio"
}
