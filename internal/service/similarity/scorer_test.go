package similarity

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashwinyue/llm-drift/internal/config"
	"github.com/ashwinyue/llm-drift/internal/testutil"
)

func TestScore_EmptyInput(t *testing.T) {
	emb := &testutil.FakeEmbedder{}
	s := NewScorer(emb)
	ctx := context.Background()

	assert.Equal(t, 0.0, s.Score(ctx, "", "hello"))
	assert.Equal(t, 0.0, s.Score(ctx, "hello", ""))
	assert.Equal(t, 0.0, s.Score(ctx, "", ""))
	assert.Equal(t, 0, emb.Calls(), "empty input must not reach the embedder")
}

func TestScore_IdenticalAndSymmetric(t *testing.T) {
	s := NewScorer(&testutil.FakeEmbedder{})
	ctx := context.Background()

	same := s.Score(ctx, "The sky is blue.", "The sky is blue.")
	assert.InDelta(t, 1.0, same, 1e-9)

	ab := s.Score(ctx, "The sky is blue.", "Grass grows in spring.")
	ba := s.Score(ctx, "Grass grows in spring.", "The sky is blue.")
	assert.InDelta(t, ab, ba, 1e-12)
	assert.Less(t, ab, 1.0)
	assert.GreaterOrEqual(t, ab, -1.0)
}

func TestScore_EmbedderFailure(t *testing.T) {
	boom := errors.New("quota exceeded")
	s := NewScorer(&testutil.FakeEmbedder{Err: boom})
	ctx := context.Background()

	assert.Equal(t, 0.0, s.Score(ctx, "a", "b"))

	score, err := s.Compare(ctx, "a", "b")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0.0, score)
}

func TestCompare_NoEmbedder(t *testing.T) {
	s := NewScorer(nil)

	score, err := s.Compare(context.Background(), "a", "b")
	assert.ErrorIs(t, err, ErrNoEmbedder)
	assert.Equal(t, 0.0, score)

	// 空输入规则优先于配置检查
	score, err = s.Compare(context.Background(), "", "b")
	assert.NoError(t, err)
	assert.Equal(t, 0.0, score)
}

func TestCosine(t *testing.T) {
	tests := []struct {
		name    string
		a, b    []float64
		want    float64
		wantErr error
	}{
		{name: "identical", a: []float64{1, 2, 3}, b: []float64{1, 2, 3}, want: 1},
		{name: "scaled", a: []float64{1, 2, 3}, b: []float64{2, 4, 6}, want: 1},
		{name: "orthogonal", a: []float64{1, 0}, b: []float64{0, 1}, want: 0},
		{name: "opposite", a: []float64{1, 1}, b: []float64{-1, -1}, want: -1},
		{name: "dimension mismatch", a: []float64{1, 2}, b: []float64{1}, wantErr: ErrEmptyEmbedding},
		{name: "empty", a: nil, b: nil, wantErr: ErrEmptyEmbedding},
		{name: "zero vector", a: []float64{0, 0}, b: []float64{1, 0}, wantErr: ErrZeroVector},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Cosine(tt.a, tt.b)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestNewEmbedder_Validation(t *testing.T) {
	ctx := context.Background()

	_, err := NewEmbedder(ctx, config.EmbeddingConfig{Provider: "dashscope"})
	assert.ErrorIs(t, err, ErrNoEmbedder)

	_, err = NewEmbedder(ctx, config.EmbeddingConfig{Provider: "word2vec", APIKey: "k"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported embedding provider")
}
