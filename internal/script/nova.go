package script

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

var novaModels = map[string]string{
	"nova-lite": "us.amazon.nova-2-lite-v1:0",
}

// NovaCompleter implements Completer using Amazon Nova via the Bedrock
// Converse API.
type NovaCompleter struct {
	model  string
	client *bedrockruntime.Client
}

func NewNovaCompleter(ctx context.Context, model string) (*NovaCompleter, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return &NovaCompleter{
		model:  model,
		client: bedrockruntime.NewFromConfig(cfg),
	}, nil
}

func (c *NovaCompleter) Name() string { return "nova" }

func (c *NovaCompleter) Complete(ctx context.Context, system, user string, maxTokens int64, temperature float64) (string, error) {
	modelID := novaModels[c.model]
	if modelID == "" {
		modelID = novaModels["nova-lite"]
	}

	resp, err := c.client.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId: aws.String(modelID),
		System: []types.SystemContentBlock{
			&types.SystemContentBlockMemberText{Value: system},
		},
		Messages: []types.Message{
			{
				Role: types.ConversationRoleUser,
				Content: []types.ContentBlock{
					&types.ContentBlockMemberText{Value: user},
				},
			},
		},
		InferenceConfig: &types.InferenceConfiguration{
			MaxTokens:   aws.Int32(int32(maxTokens)),
			Temperature: aws.Float32(float32(temperature)),
		},
	})
	if err != nil {
		return "", classifyNovaError(err)
	}

	text := extractNovaText(resp)
	if text == "" {
		return "", errors.New("empty response from Bedrock")
	}
	return text, nil
}

func classifyNovaError(err error) error {
	var throttled *types.ThrottlingException
	if errors.As(err, &throttled) {
		return &RateLimitError{Body: aws.ToString(throttled.Message)}
	}

	var quota *types.ServiceQuotaExceededException
	if errors.As(err, &quota) {
		return &QuotaError{Body: aws.ToString(quota.Message)}
	}

	var validation *types.ValidationException
	if errors.As(err, &validation) {
		msg := strings.ToLower(aws.ToString(validation.Message))
		if strings.Contains(msg, "too long") || strings.Contains(msg, "too many input tokens") {
			return &OversizeError{Body: aws.ToString(validation.Message)}
		}
	}

	return err
}

func extractNovaText(resp *bedrockruntime.ConverseOutput) string {
	if resp.Output == nil {
		return ""
	}
	msg, ok := resp.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return ""
	}
	for _, block := range msg.Value.Content {
		if tb, ok := block.(*types.ContentBlockMemberText); ok {
			return tb.Value
		}
	}
	return ""
}
