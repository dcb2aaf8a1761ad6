package generative

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/Omarrvv/final-bot-sub003/pkg/config"
	"github.com/Omarrvv/final-bot-sub003/pkg/observability/metrics"
)

// AnthropicClient calls the Anthropic messages API.
type AnthropicClient struct {
	client    anthropic.Client
	model     string
	maxTokens int
	timeout   time.Duration
}

// NewAnthropicClient builds the client from config. The API key comes from
// the environment variable named by api_key_env.
func NewAnthropicClient(cfg config.GenerativeConfig) *AnthropicClient {
	var opts []option.RequestOption
	if key := apiKeyFromEnv(cfg.APIKeyEnv); key != "" {
		opts = append(opts, option.WithAPIKey(key))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &AnthropicClient{
		client:    anthropic.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		timeout:   cfg.Timeout(),
	}
}

// Generate sends one user message and concatenates the text blocks of the
// reply.
func (c *AnthropicClient) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if maxTokens <= 0 {
		maxTokens = c.maxTokens
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		metrics.RecordGenerativeRequest("anthropic", outcomeFor(ctx, err))
		return "", fmt.Errorf("anthropic message request failed: %w", err)
	}

	var b strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		metrics.RecordGenerativeRequest("anthropic", "empty")
		return "", fmt.Errorf("anthropic reply contained no text blocks")
	}

	metrics.RecordGenerativeRequest("anthropic", "ok")
	return text, nil
}

func (c *AnthropicClient) Provider() string { return "anthropic" }

// outcomeFor distinguishes timeouts from other failures in metrics.
func outcomeFor(ctx context.Context, err error) string {
	if ctx.Err() == context.DeadlineExceeded {
		return "timeout"
	}
	if err != nil {
		return "error"
	}
	return "ok"
}
