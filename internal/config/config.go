package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type GenerationConfig struct {
	Provider       string `yaml:"provider"` // claude or nova
	Model          string `yaml:"model"`    // alias, e.g. sonnet, haiku, nova-lite
	TargetMinutes  int    `yaml:"target_minutes"`
	WordsPerMinute int    `yaml:"words_per_minute"`
	MaxChunkChars  int    `yaml:"max_chunk_chars"`
	MaxChunks      int    `yaml:"max_chunks"`
}

type ThrottleConfig struct {
	MaxConcurrent int `yaml:"max_concurrent"`
	MinIntervalMS int `yaml:"min_interval_ms"`
}

type TTSConfig struct {
	Provider   string `yaml:"provider"` // elevenlabs, polly, or google
	Engine     string `yaml:"engine"`   // standard, neural, or generative
	VoiceHostA string `yaml:"voice_host_a"`
	VoiceHostB string `yaml:"voice_host_b"`
}

type ServerConfig struct {
	Bind          string `yaml:"bind"`
	Port          int    `yaml:"port"`
	PodcastTable  string `yaml:"podcast_table"`
	AudioBucket   string `yaml:"audio_bucket"`
	CDNBaseURL    string `yaml:"cdn_base_url"`
	APIKeysSecret string `yaml:"api_keys_secret"`
}

type TelemetryConfig struct {
	LogLevel string `yaml:"log_level"`
}

type Config struct {
	Generation GenerationConfig `yaml:"generation"`
	Throttle   ThrottleConfig   `yaml:"throttle"`
	TTS        TTSConfig        `yaml:"tts"`
	Server     ServerConfig     `yaml:"server"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
}

func Default() Config {
	return Config{
		Generation: GenerationConfig{
			Provider:       "claude",
			Model:          "sonnet",
			TargetMinutes:  12,
			WordsPerMinute: 214,
			MaxChunkChars:  24000,
			MaxChunks:      12,
		},
		Throttle: ThrottleConfig{
			MaxConcurrent: 3,
			MinIntervalMS: 1000,
		},
		TTS: TTSConfig{
			Provider: "polly",
			Engine:   "generative",
		},
		Server: ServerConfig{
			Bind:         "0.0.0.0",
			Port:         8080,
			PodcastTable: "pdfcast-podcasts",
		},
		Telemetry: TelemetryConfig{
			LogLevel: "info",
		},
	}
}

// Load reads an optional YAML file over the defaults, then applies
// PDFCAST_* environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.Generation.Provider, "PDFCAST_GENERATION_PROVIDER")
	overrideString(&cfg.Generation.Model, "PDFCAST_GENERATION_MODEL")
	overrideInt(&cfg.Generation.TargetMinutes, "PDFCAST_GENERATION_TARGET_MINUTES")
	overrideInt(&cfg.Generation.WordsPerMinute, "PDFCAST_GENERATION_WORDS_PER_MINUTE")
	overrideInt(&cfg.Generation.MaxChunkChars, "PDFCAST_GENERATION_MAX_CHUNK_CHARS")
	overrideInt(&cfg.Generation.MaxChunks, "PDFCAST_GENERATION_MAX_CHUNKS")
	overrideInt(&cfg.Throttle.MaxConcurrent, "PDFCAST_THROTTLE_MAX_CONCURRENT")
	overrideInt(&cfg.Throttle.MinIntervalMS, "PDFCAST_THROTTLE_MIN_INTERVAL_MS")
	overrideString(&cfg.TTS.Provider, "PDFCAST_TTS_PROVIDER")
	overrideString(&cfg.TTS.Engine, "PDFCAST_TTS_ENGINE")
	overrideString(&cfg.TTS.VoiceHostA, "PDFCAST_TTS_VOICE_HOST_A")
	overrideString(&cfg.TTS.VoiceHostB, "PDFCAST_TTS_VOICE_HOST_B")
	overrideString(&cfg.Server.Bind, "PDFCAST_SERVER_BIND")
	overrideInt(&cfg.Server.Port, "PDFCAST_SERVER_PORT")
	overrideString(&cfg.Server.PodcastTable, "PDFCAST_SERVER_PODCAST_TABLE")
	overrideString(&cfg.Server.AudioBucket, "PDFCAST_SERVER_AUDIO_BUCKET")
	overrideString(&cfg.Server.CDNBaseURL, "PDFCAST_SERVER_CDN_BASE_URL")
	overrideString(&cfg.Server.APIKeysSecret, "PDFCAST_SERVER_API_KEYS_SECRET")
	overrideString(&cfg.Telemetry.LogLevel, "PDFCAST_LOG_LEVEL")
}

func overrideString(target *string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		*target = value
	}
}

func overrideInt(target *int, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			*target = parsed
		}
	}
}

func validate(cfg Config) error {
	switch cfg.Generation.Provider {
	case "claude", "nova":
	default:
		return errors.New("generation.provider must be one of claude|nova")
	}
	if cfg.Generation.TargetMinutes <= 0 {
		return errors.New("generation.target_minutes must be positive")
	}
	if cfg.Generation.WordsPerMinute <= 0 {
		return errors.New("generation.words_per_minute must be positive")
	}
	if cfg.Generation.MaxChunkChars <= 0 || cfg.Generation.MaxChunks <= 0 {
		return errors.New("generation.max_chunk_chars and max_chunks must be positive")
	}
	if cfg.Throttle.MaxConcurrent <= 0 {
		return errors.New("throttle.max_concurrent must be >= 1")
	}
	if cfg.Throttle.MinIntervalMS < 0 {
		return errors.New("throttle.min_interval_ms must be >= 0")
	}
	switch cfg.TTS.Provider {
	case "elevenlabs", "polly", "google":
	default:
		return errors.New("tts.provider must be one of elevenlabs|polly|google")
	}
	switch cfg.TTS.Engine {
	case "", "standard", "neural", "generative":
	default:
		return errors.New("tts.engine must be one of standard|neural|generative")
	}
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return errors.New("server.port must be between 1 and 65535")
	}
	switch cfg.Telemetry.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return errors.New("telemetry.log_level must be one of debug|info|warn|error")
	}
	return nil
}
