package similarity

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino-ext/components/embedding/dashscope"
	openaiembed "github.com/cloudwego/eino-ext/components/embedding/openai"
	"github.com/cloudwego/eino/components/embedding"

	"github.com/ashwinyue/llm-drift/internal/config"
)

// NewEmbedder 根据配置创建向量化模型
func NewEmbedder(ctx context.Context, cfg config.EmbeddingConfig) (embedding.Embedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: embedding api_key is empty", ErrNoEmbedder)
	}

	var timeout time.Duration
	if cfg.Timeout > 0 {
		timeout = time.Duration(cfg.Timeout) * time.Second
	}

	var dimensions *int
	if cfg.Dimensions > 0 {
		dimensions = &cfg.Dimensions
	}

	switch cfg.Provider {
	case "alibaba", "qwen", "dashscope", "":
		model := cfg.Model
		if model == "" {
			model = "text-embedding-v3"
		}
		return dashscope.NewEmbedder(ctx, &dashscope.EmbeddingConfig{
			APIKey:     cfg.APIKey,
			Model:      model,
			Timeout:    timeout,
			Dimensions: dimensions,
		})
	case "openai":
		model := cfg.Model
		if model == "" {
			model = "text-embedding-3-small"
		}
		return openaiembed.NewEmbedder(ctx, &openaiembed.EmbeddingConfig{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      model,
			Timeout:    timeout,
			Dimensions: dimensions,
		})
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}
