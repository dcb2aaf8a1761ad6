package generative

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/Omarrvv/final-bot-sub003/pkg/config"
	"github.com/Omarrvv/final-bot-sub003/pkg/observability/metrics"
)

// OpenAIClient calls an OpenAI-compatible chat completions endpoint. With a
// base_url this also covers local vLLM-style servers.
type OpenAIClient struct {
	client    openai.Client
	model     string
	maxTokens int
	timeout   time.Duration
}

// NewOpenAIClient builds the client from config.
func NewOpenAIClient(cfg config.GenerativeConfig) *OpenAIClient {
	var opts []option.RequestOption
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if key := apiKeyFromEnv(cfg.APIKeyEnv); key != "" {
		opts = append(opts, option.WithAPIKey(key))
	}
	return &OpenAIClient{
		client:    openai.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		timeout:   cfg.Timeout(),
	}
}

// Generate sends one user message through chat completions.
func (c *OpenAIClient) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if maxTokens <= 0 {
		maxTokens = c.maxTokens
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		MaxCompletionTokens: openai.Int(int64(maxTokens)),
	})
	if err != nil {
		metrics.RecordGenerativeRequest("openai", outcomeFor(ctx, err))
		return "", fmt.Errorf("chat completion request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		metrics.RecordGenerativeRequest("openai", "empty")
		return "", fmt.Errorf("chat completion returned no choices")
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		metrics.RecordGenerativeRequest("openai", "empty")
		return "", fmt.Errorf("chat completion returned empty content")
	}

	metrics.RecordGenerativeRequest("openai", "ok")
	return text, nil
}

func (c *OpenAIClient) Provider() string { return "openai" }
