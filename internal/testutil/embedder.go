package testutil

import (
	"context"
	"hash/fnv"
	"strings"
	"sync/atomic"

	"github.com/cloudwego/eino/components/embedding"
)

const fakeEmbeddingDims = 256

// FakeEmbedder 确定性的向量化模型，按字符三元组哈希计数
// 相同文本得到相同向量，不同文本通常得到不同向量
type FakeEmbedder struct {
	Err   error
	calls atomic.Int64
}

// Calls 返回 EmbedStrings 的调用次数
func (e *FakeEmbedder) Calls() int {
	return int(e.calls.Load())
}

// EmbedStrings 实现 embedding.Embedder 接口
func (e *FakeEmbedder) EmbedStrings(_ context.Context, texts []string, _ ...embedding.Option) ([][]float64, error) {
	e.calls.Add(1)
	if e.Err != nil {
		return nil, e.Err
	}

	out := make([][]float64, len(texts))
	for i, text := range texts {
		out[i] = trigramVector(text)
	}
	return out, nil
}

func trigramVector(text string) []float64 {
	vec := make([]float64, fakeEmbeddingDims)
	padded := []rune("  " + strings.ToLower(text) + "  ")
	for i := 0; i+3 <= len(padded); i++ {
		h := fnv.New32a()
		_, _ = h.Write([]byte(string(padded[i : i+3])))
		vec[h.Sum32()%fakeEmbeddingDims]++
	}
	return vec
}
