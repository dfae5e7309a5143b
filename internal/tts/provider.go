package tts

import (
	"context"
	"fmt"
	"time"
)

// AudioFormat is the audio encoding returned by a provider. The assembler
// converts anything that is not MP3 before concatenation.
type AudioFormat string

const (
	FormatMP3 AudioFormat = "mp3"
	FormatPCM AudioFormat = "pcm" // raw 16kHz 16-bit signed little-endian mono (Polly)
	FormatWAV AudioFormat = "wav" // RIFF container (Google LINEAR16)
)

// Engine selects a provider's synthesis quality tier. Providers that have a
// single tier ignore it.
type Engine string

const (
	EngineStandard   Engine = "standard"
	EngineNeural     Engine = "neural"
	EngineGenerative Engine = "generative"
)

// Voice holds a provider-specific voice identifier.
type Voice struct {
	ID   string
	Name string
}

// VoiceMap maps host roles to voices.
type VoiceMap struct {
	HostA Voice
	HostB Voice
}

// AudioResult is the output of a synthesis call.
type AudioResult struct {
	Data   []byte
	Format AudioFormat
}

// Provider synthesizes speech from text. MaxChars is the provider's per-call
// text ceiling; callers split longer text before synthesis.
type Provider interface {
	Name() string
	Synthesize(ctx context.Context, text string, voice Voice) (AudioResult, error)
	DefaultVoices() VoiceMap
	MaxChars() int
	Close() error
}

// VoiceInfo describes an available voice for display in the registry.
type VoiceInfo struct {
	ID          string
	Name        string
	Gender      string // "male" or "female"
	Description string
	DefaultFor  string // "Host A", "Host B", or ""
}

// AvailableVoices returns the voice catalog for the named provider.
func AvailableVoices(providerName string) ([]VoiceInfo, error) {
	switch providerName {
	case "elevenlabs":
		return elevenLabsAvailableVoices(), nil
	case "polly":
		return pollyAvailableVoices(), nil
	case "google":
		return googleAvailableVoices(), nil
	default:
		return nil, fmt.Errorf("unknown TTS provider %q", providerName)
	}
}

// Retry constants shared by all providers.
const (
	defaultMaxAttempts    = 3
	defaultInitialBackoff = 1 * time.Second
	defaultBackoffMulti   = 2
	defaultMaxBackoff     = 10 * time.Second
)

// RetryableError signals that the operation can be retried.
type RetryableError struct {
	StatusCode int
	Body       string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Body)
}

// QuotaExhaustedError signals the provider's usage budget is spent. Terminal
// for the whole synthesis request: retrying cannot help until the budget
// resets.
type QuotaExhaustedError struct {
	Provider string
	Body     string
}

func (e *QuotaExhaustedError) Error() string {
	return fmt.Sprintf("%s quota exhausted: %s", e.Provider, e.Body)
}

// WithRetry executes fn with exponential backoff on RetryableError. Any
// other error, quota exhaustion included, is returned immediately.
func WithRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	backoff := defaultInitialBackoff

	for attempt := 1; attempt <= defaultMaxAttempts; attempt++ {
		if err := fn(); err == nil {
			return nil
		} else if _, ok := err.(*RetryableError); !ok {
			return err
		} else {
			lastErr = err
		}

		if attempt < defaultMaxAttempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= time.Duration(defaultBackoffMulti)
			if backoff > defaultMaxBackoff {
				backoff = defaultMaxBackoff
			}
		}
	}

	return lastErr
}

// ProviderConfig carries voice overrides and the engine tier. Empty voice
// IDs fall back to the provider's defaults for that tier.
type ProviderConfig struct {
	VoiceHostA string
	VoiceHostB string
	Engine     Engine
}

// NewProvider creates a TTS provider by name.
func NewProvider(name string, cfg ProviderConfig) (Provider, error) {
	switch name {
	case "elevenlabs":
		return NewElevenLabsProvider(cfg), nil
	case "polly":
		return NewPollyProvider(cfg)
	case "google":
		return NewGoogleProvider(cfg)
	default:
		return nil, fmt.Errorf("unknown TTS provider %q: choose elevenlabs, polly, or google", name)
	}
}
