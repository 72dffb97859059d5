package provider

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"

	"github.com/ashwinyue/llm-drift/internal/model"
)

// anthropicDefaultMaxTokens Anthropic 要求必须指定 max_tokens
const anthropicDefaultMaxTokens = 1024

// AnthropicOptions Claude 请求参数
type AnthropicOptions struct {
	APIKey       string
	BaseURL      string
	MaxTokens    int
	SystemPrompt string
}

// NewAnthropicClient 创建 Claude 提供商
func NewAnthropicClient(info Info, opts AnthropicOptions) (Client, error) {
	llmOpts := []anthropic.Option{
		anthropic.WithToken(opts.APIKey),
		anthropic.WithModel(info.Model),
	}
	if opts.BaseURL != "" {
		llmOpts = append(llmOpts, anthropic.WithBaseURL(opts.BaseURL))
	}

	llm, err := anthropic.New(llmOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Anthropic client: %w", err)
	}

	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = anthropicDefaultMaxTokens
	}

	return newClient(info, func(ctx context.Context, question string) (*Response, error) {
		messages := []llms.MessageContent{}
		if opts.SystemPrompt != "" {
			messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, opts.SystemPrompt))
		}
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, question))

		resp, err := llm.GenerateContent(ctx, messages,
			llms.WithTemperature(info.Temperature),
			llms.WithMaxTokens(maxTokens),
		)
		if err != nil {
			return nil, fmt.Errorf("Anthropic request failed: %w", err)
		}
		if len(resp.Choices) == 0 {
			return nil, ErrEmptyResponse
		}

		choice := resp.Choices[0]
		out := &Response{Text: choice.Content}

		// token 用量在 GenerationInfo 中
		if info := choice.GenerationInfo; info != nil {
			in, okIn := info["InputTokens"].(int)
			outTokens, okOut := info["OutputTokens"].(int)
			if okIn || okOut {
				out.Usage = model.TokenUsage{
					PromptTokens:     intPtr(in),
					CompletionTokens: intPtr(outTokens),
					TotalTokens:      intPtr(in + outTokens),
				}
			}
			if m, ok := info["Model"].(string); ok {
				out.Model = m
			}
		}
		return out, nil
	}), nil
}
