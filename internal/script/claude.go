package script

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
)

var claudeModels = map[string]string{
	"haiku":  "claude-haiku-4-5-20251001",
	"sonnet": "claude-sonnet-4-5-20250929",
}

// ClaudeCompleter implements Completer using the Anthropic Messages API.
type ClaudeCompleter struct {
	model  string
	client anthropic.Client
}

// NewClaudeCompleter creates a completer for the named model tier
// ("haiku" or "sonnet"). The API key comes from ANTHROPIC_API_KEY.
func NewClaudeCompleter(model string) *ClaudeCompleter {
	return &ClaudeCompleter{
		model:  model,
		client: anthropic.NewClient(),
	}
}

func (c *ClaudeCompleter) Name() string { return "claude" }

func (c *ClaudeCompleter) Complete(ctx context.Context, system, user string, maxTokens int64, temperature float64) (string, error) {
	modelID := claudeModels[c.model]
	if modelID == "" {
		modelID = claudeModels["haiku"]
	}

	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(modelID),
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(temperature),
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	})
	if err != nil {
		return "", classifyClaudeError(err)
	}

	var parts []string
	for _, block := range message.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			parts = append(parts, tb.Text)
		}
	}
	text := strings.Join(parts, "")
	if text == "" {
		return "", errors.New("empty response from Claude")
	}
	return text, nil
}

// classifyClaudeError maps Anthropic API errors onto the generator's error
// taxonomy so retry and fallback decisions stay provider-agnostic.
func classifyClaudeError(err error) error {
	var apierr *anthropic.Error
	if !errors.As(err, &apierr) {
		return err
	}

	body := apierr.Error()
	lower := strings.ToLower(body)

	switch {
	case apierr.StatusCode == http.StatusTooManyRequests:
		if strings.Contains(lower, "credit balance") || strings.Contains(lower, "billing") {
			return &QuotaError{Body: body}
		}
		return &RateLimitError{RetryAfter: claudeRetryAfter(apierr), Body: body}
	case apierr.StatusCode == http.StatusRequestEntityTooLarge:
		return &OversizeError{Body: body}
	case apierr.StatusCode == http.StatusBadRequest && strings.Contains(lower, "prompt is too long"):
		return &OversizeError{Body: body}
	case strings.Contains(lower, "credit balance is too low"):
		return &QuotaError{Body: body}
	default:
		return err
	}
}

func claudeRetryAfter(apierr *anthropic.Error) time.Duration {
	if apierr.Response == nil {
		return 0
	}
	if ra := apierr.Response.Header.Get("Retry-After"); ra != "" {
		if secs, err := strconv.Atoi(ra); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return 0
}
