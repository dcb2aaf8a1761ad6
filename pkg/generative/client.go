// Package generative wraps the external generative-model backend behind a
// single Client interface. The backend is treated as unreliable and
// rate-limited: every call is bounded by a timeout and every failure is an
// ordinary error the orchestrator downgrades to its static apology.
package generative

import (
	"context"
	"fmt"
	"os"

	"github.com/Omarrvv/final-bot-sub003/pkg/config"
	"github.com/Omarrvv/final-bot-sub003/pkg/observability/logging"
)

// Client produces free text for a prompt. Implementations must be safe for
// concurrent use.
type Client interface {
	// Generate returns the model's text for prompt, spending at most
	// maxTokens. An empty string with a nil error never happens; failures
	// are always errors.
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)

	// Provider names the backend for logging and metrics.
	Provider() string
}

// New builds the configured generative client. An empty provider disables
// the generative layer entirely and returns a nil Client; callers treat nil
// as "service absent" and fall through to their static fallback.
func New(cfg config.GenerativeConfig) (Client, error) {
	switch cfg.Provider {
	case "":
		logging.Infof("No generative provider configured, fallback responses will use static messages")
		return nil, nil
	case "anthropic":
		return NewAnthropicClient(cfg), nil
	case "openai":
		return NewOpenAIClient(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported generative provider: %s (supported: anthropic, openai)", cfg.Provider)
	}
}

// apiKeyFromEnv reads the key named by api_key_env. Local OpenAI-compatible
// servers typically accept any key, so an empty result is not an error here;
// the backend rejects the call if it actually needs one.
func apiKeyFromEnv(envName string) string {
	if envName == "" {
		return ""
	}
	return os.Getenv(envName)
}
