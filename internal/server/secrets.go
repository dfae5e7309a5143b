package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// apiKeyNames are the provider credentials the server can hydrate from
// Secrets Manager. Environment variables always win.
var apiKeyNames = []string{"ANTHROPIC_API_KEY", "ELEVENLABS_API_KEY"}

// LoadSecrets fetches provider API keys from a Secrets Manager secret
// holding a JSON object and exports any that are not already set in the
// environment. A missing secret is not fatal: the keys may arrive via env.
func LoadSecrets(ctx context.Context, client *secretsmanager.Client, secretID string, log *slog.Logger) error {
	if secretID == "" {
		return nil
	}

	out, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: &secretID,
	})
	if err != nil {
		log.WarnContext(ctx, "could not fetch API key secret, relying on environment",
			"secret_id", secretID, "error", err)
		return nil
	}
	if out.SecretString == nil {
		return fmt.Errorf("secret %s has no string value", secretID)
	}

	var keys map[string]string
	if err := json.Unmarshal([]byte(*out.SecretString), &keys); err != nil {
		return fmt.Errorf("parse secret %s: %w", secretID, err)
	}

	for _, name := range apiKeyNames {
		if os.Getenv(name) != "" {
			continue
		}
		if v, ok := keys[name]; ok && v != "" {
			os.Setenv(name, v)
			log.InfoContext(ctx, "loaded API key from secrets manager", "key", name)
		}
	}
	return nil
}
