package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/ashwinyue/llm-drift/internal/model"
)

const grokBaseURL = "https://api.x.ai/v1/"

// GrokOptions Grok 请求参数
type GrokOptions struct {
	APIKey       string
	BaseURL      string
	MaxTokens    int
	SystemPrompt string
	HTTPClient   *http.Client
}

// NewGrokClient 创建 Grok 提供商，直接调用 xAI 的 chat/completions 接口
func NewGrokClient(info Info, opts GrokOptions) Client {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = grokBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithBaseURL(baseURL),
		// 重试由调用方决定
		option.WithMaxRetries(0),
	}
	if opts.HTTPClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(opts.HTTPClient))
	}
	oaClient := openai.NewClient(reqOpts...)

	return newClient(info, func(ctx context.Context, question string) (*Response, error) {
		var messages []openai.ChatCompletionMessageParamUnion
		if opts.SystemPrompt != "" {
			messages = append(messages, openai.SystemMessage(opts.SystemPrompt))
		}
		messages = append(messages, openai.UserMessage(question))

		params := openai.ChatCompletionNewParams{
			Model:       shared.ChatModel(info.Model),
			Messages:    messages,
			Temperature: openai.Float(info.Temperature),
		}
		if opts.MaxTokens > 0 {
			params.MaxTokens = openai.Int(int64(opts.MaxTokens))
		}

		resp, err := oaClient.Chat.Completions.New(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("Grok request failed: %w", err)
		}
		if len(resp.Choices) == 0 {
			return nil, ErrEmptyResponse
		}

		prompt := int(resp.Usage.PromptTokens)
		completion := int(resp.Usage.CompletionTokens)
		return &Response{
			Text:  resp.Choices[0].Message.Content,
			Model: resp.Model,
			Usage: model.TokenUsage{
				PromptTokens:     intPtr(prompt),
				CompletionTokens: intPtr(completion),
				TotalTokens:      totalTokens(prompt, completion, int(resp.Usage.TotalTokens)),
			},
		}, nil
	})
}
