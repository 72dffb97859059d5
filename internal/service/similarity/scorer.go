// Package similarity 计算两段回答之间的语义相似度
package similarity

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/components/embedding"

	"github.com/ashwinyue/llm-drift/internal/logger"
)

var (
	// ErrNoEmbedder 未配置向量化模型
	ErrNoEmbedder = errors.New("embedder not configured")

	// ErrEmptyEmbedding 向量化结果数量或维度不符合预期
	ErrEmptyEmbedding = errors.New("invalid embedding result")

	// ErrZeroVector 零向量无法计算余弦相似度
	ErrZeroVector = errors.New("zero-norm embedding")
)

// Scorer 基于向量余弦的相似度计算器
type Scorer struct {
	embedder embedding.Embedder
}

// NewScorer 创建相似度计算器，embedder 为 nil 时所有计算都会失败并降级
func NewScorer(embedder embedding.Embedder) *Scorer {
	return &Scorer{embedder: embedder}
}

// Score 返回 [-1, 1] 之间的相似度
// 任一文本为空时直接返回 0；向量化失败时记录日志并返回 0，不向上抛出错误
func (s *Scorer) Score(ctx context.Context, a, b string) float64 {
	score, err := s.Compare(ctx, a, b)
	if err != nil {
		logger.Error("failed to calculate similarity", "error", err)
		return 0
	}
	return score
}

// Compare 与 Score 相同，但把失败原因返回给调用方
// 失败时分数为 0
func (s *Scorer) Compare(ctx context.Context, a, b string) (float64, error) {
	if a == "" || b == "" {
		return 0, nil
	}
	if s.embedder == nil {
		return 0, ErrNoEmbedder
	}

	ctx = callbacks.InitCallbacks(ctx, &callbacks.RunInfo{
		Name:      "similarity",
		Component: components.ComponentOfEmbedding,
	})
	vectors, err := s.embedder.EmbedStrings(ctx, []string{a, b})
	if err != nil {
		return 0, fmt.Errorf("embed texts: %w", err)
	}
	if len(vectors) != 2 {
		return 0, fmt.Errorf("%w: got %d vectors, want 2", ErrEmptyEmbedding, len(vectors))
	}

	return Cosine(vectors[0], vectors[1])
}

// Cosine 计算余弦相似度，结果截断到 [-1, 1]
func Cosine(a, b []float64) (float64, error) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, fmt.Errorf("%w: dimensions %d and %d", ErrEmptyEmbedding, len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0, ErrZeroVector
	}

	cos := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return math.Max(-1, math.Min(1, cos)), nil
}
