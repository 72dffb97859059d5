package provider

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	ecomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/ashwinyue/llm-drift/internal/model"
)

// OpenAI 兼容接口的默认地址
const (
	deepSeekBaseURL = "https://api.deepseek.com"
	mistralBaseURL  = "https://api.mistral.ai/v1"
)

// ChatModelOptions OpenAI 兼容提供商的请求参数
type ChatModelOptions struct {
	APIKey       string
	BaseURL      string
	MaxTokens    int
	SystemPrompt string
}

// NewChatModelClient 基于 eino ChatModel 创建提供商（OpenAI / DeepSeek / Mistral）
func NewChatModelClient(ctx context.Context, info Info, opts ChatModelOptions) (Client, error) {
	baseURL := opts.BaseURL
	if baseURL == "" {
		switch info.Family {
		case model.ProviderFamilyDeepSeek:
			baseURL = deepSeekBaseURL
		case model.ProviderFamilyMistral:
			baseURL = mistralBaseURL
		}
	}

	temperature := float32(info.Temperature)
	chatCfg := &openai.ChatModelConfig{
		APIKey:      opts.APIKey,
		BaseURL:     baseURL,
		Model:       info.Model,
		Temperature: &temperature,
	}
	if opts.MaxTokens > 0 {
		chatCfg.MaxTokens = intPtr(opts.MaxTokens)
	}

	chatModel, err := openai.NewChatModel(ctx, chatCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model for %s: %w", info.Name, err)
	}

	return newChatModelClient(info, chatModel, opts.SystemPrompt), nil
}

// newChatModelClient 包装任意 eino ChatModel
func newChatModelClient(info Info, chatModel ecomodel.BaseChatModel, systemPrompt string) Client {
	return newClient(info, func(ctx context.Context, question string) (*Response, error) {
		messages := make([]*schema.Message, 0, 2)
		if systemPrompt != "" {
			messages = append(messages, schema.SystemMessage(systemPrompt))
		}
		messages = append(messages, schema.UserMessage(question))

		ctx = callbacks.InitCallbacks(ctx, &callbacks.RunInfo{
			Name:      info.Name,
			Type:      string(info.Family),
			Component: components.ComponentOfChatModel,
		})
		msg, err := chatModel.Generate(ctx, messages)
		if err != nil {
			return nil, fmt.Errorf("chat completion failed: %w", err)
		}
		if msg == nil {
			return nil, ErrEmptyResponse
		}

		resp := &Response{Text: msg.Content}
		if msg.ResponseMeta != nil && msg.ResponseMeta.Usage != nil {
			u := msg.ResponseMeta.Usage
			resp.Usage = model.TokenUsage{
				PromptTokens:     intPtr(u.PromptTokens),
				CompletionTokens: intPtr(u.CompletionTokens),
				TotalTokens:      totalTokens(u.PromptTokens, u.CompletionTokens, u.TotalTokens),
			}
		}
		return resp, nil
	})
}
