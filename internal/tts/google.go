package tts

import (
	"context"
	"fmt"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	texttospeechpb "cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	googleDefaultVoiceA = "en-US-Chirp3-HD-Charon"
	googleDefaultVoiceB = "en-US-Chirp3-HD-Leda"

	googleMaxChars = 4500
)

// GoogleProvider implements Provider using Google Cloud TTS (Chirp 3 HD).
type GoogleProvider struct {
	voices VoiceMap
	client *texttospeech.Client
}

func NewGoogleProvider(cfg ProviderConfig) (*GoogleProvider, error) {
	aID := googleDefaultVoiceA
	bID := googleDefaultVoiceB
	if cfg.VoiceHostA != "" {
		aID = cfg.VoiceHostA
	}
	if cfg.VoiceHostB != "" {
		bID = cfg.VoiceHostB
	}

	client, err := texttospeech.NewClient(context.Background())
	if err != nil {
		return nil, fmt.Errorf("create Google TTS client: %w", err)
	}

	return &GoogleProvider{
		voices: VoiceMap{
			HostA: Voice{ID: aID, Name: "Charon"},
			HostB: Voice{ID: bID, Name: "Leda"},
		},
		client: client,
	}, nil
}

func (p *GoogleProvider) Name() string { return "google" }

func (p *GoogleProvider) MaxChars() int { return googleMaxChars }

func (p *GoogleProvider) DefaultVoices() VoiceMap {
	return VoiceMap{
		HostA: Voice{ID: googleDefaultVoiceA, Name: "Charon"},
		HostB: Voice{ID: googleDefaultVoiceB, Name: "Leda"},
	}
}

func (p *GoogleProvider) Synthesize(ctx context.Context, text string, voice Voice) (AudioResult, error) {
	req := &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: "en-US",
			Name:         voice.ID,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			// LINEAR16 is lossless and comes back with a WAV header;
			// the assembler re-encodes it to MP3 once, at assembly time.
			AudioEncoding: texttospeechpb.AudioEncoding_LINEAR16,
		},
	}

	resp, err := p.client.SynthesizeSpeech(ctx, req)
	if err != nil {
		return AudioResult{}, classifyGoogleError(err)
	}

	return AudioResult{Data: resp.AudioContent, Format: FormatWAV}, nil
}

func classifyGoogleError(err error) error {
	switch status.Code(err) {
	case codes.ResourceExhausted:
		return &QuotaExhaustedError{Provider: "google", Body: err.Error()}
	case codes.Unavailable, codes.DeadlineExceeded, codes.Internal:
		return &RetryableError{StatusCode: 503, Body: err.Error()}
	}
	return fmt.Errorf("Google TTS synthesize: %w", err)
}

func (p *GoogleProvider) Close() error { return p.client.Close() }

func googleAvailableVoices() []VoiceInfo {
	return []VoiceInfo{
		{ID: "en-US-Chirp3-HD-Charon", Name: "Charon", Gender: "male", Description: "Informative, clear male narrator", DefaultFor: "Host A"},
		{ID: "en-US-Chirp3-HD-Leda", Name: "Leda", Gender: "female", Description: "Youthful, bright female voice", DefaultFor: "Host B"},
		{ID: "en-US-Chirp3-HD-Kore", Name: "Kore", Gender: "female", Description: "Firm, confident female voice"},
		{ID: "en-US-Chirp3-HD-Puck", Name: "Puck", Gender: "male", Description: "Upbeat, energetic male voice"},
		{ID: "en-US-Chirp3-HD-Orus", Name: "Orus", Gender: "male", Description: "Warm, steady male narrator"},
		{ID: "en-US-Chirp3-HD-Zephyr", Name: "Zephyr", Gender: "female", Description: "Breezy, relaxed female voice"},
	}
}
