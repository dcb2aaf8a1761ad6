package nlu

import (
	"context"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/Omarrvv/final-bot-sub003/pkg/config"
)

// Embedder produces fixed-size embedding vectors for text. Implementations
// must be safe for concurrent use.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// OpenAIEmbedder calls an OpenAI-compatible embeddings endpoint. The
// pretrained model behind it is a black box; only the vector comes back.
type OpenAIEmbedder struct {
	client  openai.EmbeddingService
	model   string
	timeout time.Duration
}

// NewOpenAIEmbedder builds an embedder from the embedding config. The API
// key is read from the environment variable named by api_key_env; local
// OpenAI-compatible servers typically accept any key.
func NewOpenAIEmbedder(cfg config.EmbeddingConfig) *OpenAIEmbedder {
	var opts []option.RequestOption
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithBaseURL(cfg.Endpoint))
	}
	if cfg.APIKeyEnv != "" {
		if key := os.Getenv(cfg.APIKeyEnv); key != "" {
			opts = append(opts, option.WithAPIKey(key))
		}
	}
	return &OpenAIEmbedder{
		client:  openai.NewEmbeddingService(opts...),
		model:   cfg.Model,
		timeout: cfg.Timeout(),
	}
}

// Embed returns the unit-normalized embedding for text.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	res, err := e.client.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: []string{text}},
		Model: e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if len(res.Data) == 0 {
		return nil, fmt.Errorf("embedding response contained no vectors")
	}

	vec := make([]float32, len(res.Data[0].Embedding))
	for i, v := range res.Data[0].Embedding {
		vec[i] = float32(v)
	}
	normalize(vec)
	return vec, nil
}

// normalize scales vec to unit length in place so cosine similarity reduces
// to a dot product. A zero vector is left untouched.
func normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}
}

// cosineSimilarity computes cosine similarity between two vectors.
// Assumes vectors are normalized.
func cosineSimilarity(a, b []float32) float32 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}

	var dotProduct float32
	for i := 0; i < minLen; i++ {
		dotProduct += a[i] * b[i]
	}

	return dotProduct
}
