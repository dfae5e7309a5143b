package tts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	"github.com/aws/aws-sdk-go-v2/service/polly/types"
	"github.com/aws/smithy-go"
)

const pollyMaxChars = 2900

// pollyEngineVoices holds the default voice pair per engine tier. Not every
// Polly voice supports every engine, so the pair changes with the tier.
var pollyEngineVoices = map[Engine]VoiceMap{
	EngineStandard: {
		HostA: Voice{ID: "Matthew", Name: "Matthew"},
		HostB: Voice{ID: "Joanna", Name: "Joanna"},
	},
	EngineNeural: {
		HostA: Voice{ID: "Matthew", Name: "Matthew"},
		HostB: Voice{ID: "Ruth", Name: "Ruth"},
	},
	EngineGenerative: {
		HostA: Voice{ID: "Matthew", Name: "Matthew"},
		HostB: Voice{ID: "Ruth", Name: "Ruth"},
	},
}

// pollyVoiceLang maps voice IDs to their language codes.
var pollyVoiceLang = map[string]types.LanguageCode{
	"Matthew":  types.LanguageCodeEnUs,
	"Joanna":   types.LanguageCodeEnUs,
	"Ruth":     types.LanguageCodeEnUs,
	"Stephen":  types.LanguageCodeEnUs,
	"Danielle": types.LanguageCodeEnUs,
	"Amy":      types.LanguageCodeEnGb,
	"Olivia":   types.LanguageCodeEnAu,
	"Kajal":    types.LanguageCodeEnIn,
}

// PollyProvider implements Provider using AWS Polly. The engine tier is
// fixed at construction; swapping tiers swaps the default voice pair without
// any change to calling code.
type PollyProvider struct {
	voices VoiceMap
	engine types.Engine
	client *polly.Client
}

func NewPollyProvider(cfg ProviderConfig) (*PollyProvider, error) {
	engine := cfg.Engine
	if engine == "" {
		engine = EngineGenerative
	}
	defaults, ok := pollyEngineVoices[engine]
	if !ok {
		return nil, fmt.Errorf("unknown Polly engine tier %q", engine)
	}

	voices := defaults
	if cfg.VoiceHostA != "" {
		voices.HostA = Voice{ID: cfg.VoiceHostA, Name: cfg.VoiceHostA}
	}
	if cfg.VoiceHostB != "" {
		voices.HostB = Voice{ID: cfg.VoiceHostB, Name: cfg.VoiceHostB}
	}

	awsCfg, err := config.LoadDefaultConfig(context.Background())
	if err != nil {
		return nil, fmt.Errorf("load AWS config for Polly: %w", err)
	}

	return &PollyProvider{
		voices: voices,
		engine: types.Engine(engine),
		client: polly.NewFromConfig(awsCfg),
	}, nil
}

func (p *PollyProvider) Name() string { return "polly" }

func (p *PollyProvider) MaxChars() int { return pollyMaxChars }

func (p *PollyProvider) DefaultVoices() VoiceMap { return p.voices }

func (p *PollyProvider) Synthesize(ctx context.Context, text string, voice Voice) (AudioResult, error) {
	lang, ok := pollyVoiceLang[voice.ID]
	if !ok {
		lang = types.LanguageCodeEnUs
	}

	// Raw PCM concatenates byte-for-byte when an oversize line is split
	// into multiple calls; the assembler converts it to MP3. Polly caps
	// PCM output at 16kHz.
	input := &polly.SynthesizeSpeechInput{
		Engine:       p.engine,
		OutputFormat: types.OutputFormatPcm,
		SampleRate:   strPtr("16000"),
		Text:         &text,
		TextType:     types.TextTypeText,
		VoiceId:      types.VoiceId(voice.ID),
		LanguageCode: lang,
	}

	resp, err := p.client.SynthesizeSpeech(ctx, input)
	if err != nil {
		return AudioResult{}, classifyPollyError(err)
	}
	defer resp.AudioStream.Close()

	data, err := io.ReadAll(resp.AudioStream)
	if err != nil {
		return AudioResult{}, fmt.Errorf("Polly read audio: %w", err)
	}

	return AudioResult{Data: data, Format: FormatPCM}, nil
}

func classifyPollyError(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		msg := strings.ToLower(apiErr.ErrorMessage())
		switch {
		case code == "ThrottlingException" || code == "ServiceFailureException":
			return &RetryableError{StatusCode: 429, Body: apiErr.ErrorMessage()}
		case code == "LimitExceededException" || strings.Contains(msg, "quota"):
			return &QuotaExhaustedError{Provider: "polly", Body: apiErr.ErrorMessage()}
		}
	}
	return fmt.Errorf("Polly synthesize: %w", err)
}

func (p *PollyProvider) Close() error { return nil }

func strPtr(s string) *string { return &s }

func pollyAvailableVoices() []VoiceInfo {
	return []VoiceInfo{
		{ID: "Matthew", Name: "Matthew", Gender: "male", Description: "en-US, all engines", DefaultFor: "Host A"},
		{ID: "Ruth", Name: "Ruth", Gender: "female", Description: "en-US, neural and generative", DefaultFor: "Host B"},
		{ID: "Joanna", Name: "Joanna", Gender: "female", Description: "en-US, standard and neural"},
		{ID: "Stephen", Name: "Stephen", Gender: "male", Description: "en-US, neural"},
		{ID: "Danielle", Name: "Danielle", Gender: "female", Description: "en-US, generative"},
		{ID: "Amy", Name: "Amy", Gender: "female", Description: "en-GB, generative"},
		{ID: "Olivia", Name: "Olivia", Gender: "female", Description: "en-AU, generative"},
		{ID: "Kajal", Name: "Kajal", Gender: "female", Description: "en-IN, generative"},
	}
}
