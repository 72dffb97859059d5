package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/ashwinyue/llm-drift/internal/model"
)

// GeminiOptions Gemini 请求参数
type GeminiOptions struct {
	APIKey       string
	MaxTokens    int
	SystemPrompt string
	HTTPClient   *http.Client // 为空时使用默认客户端
}

// NewGeminiClient 创建 Gemini 提供商
func NewGeminiClient(ctx context.Context, info Info, opts GeminiOptions) (Client, error) {
	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     opts.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	temperature := float32(info.Temperature)
	genConfig := &genai.GenerateContentConfig{
		Temperature: &temperature,
	}
	if opts.MaxTokens > 0 {
		genConfig.MaxOutputTokens = int32(opts.MaxTokens)
	}
	if opts.SystemPrompt != "" {
		genConfig.SystemInstruction = genai.NewContentFromText(opts.SystemPrompt, genai.RoleUser)
	}

	return newClient(info, func(ctx context.Context, question string) (*Response, error) {
		contents := []*genai.Content{
			genai.NewContentFromText(question, genai.RoleUser),
		}

		resp, err := genaiClient.Models.GenerateContent(ctx, info.Model, contents, genConfig)
		if err != nil {
			return nil, fmt.Errorf("Gemini request failed: %w", err)
		}
		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
			return nil, ErrEmptyResponse
		}

		var sb strings.Builder
		for _, part := range resp.Candidates[0].Content.Parts {
			if part != nil && part.Text != "" {
				sb.WriteString(part.Text)
			}
		}

		out := &Response{Text: sb.String(), Model: resp.ModelVersion}
		if u := resp.UsageMetadata; u != nil {
			prompt := int(u.PromptTokenCount)
			completion := int(u.CandidatesTokenCount)
			out.Usage = model.TokenUsage{
				PromptTokens:     intPtr(prompt),
				CompletionTokens: intPtr(completion),
				TotalTokens:      totalTokens(prompt, completion, int(u.TotalTokenCount)),
			}
		}
		return out, nil
	}), nil
}
