package provider

import (
	"context"
	"fmt"

	"github.com/ashwinyue/llm-drift/internal/config"
	"github.com/ashwinyue/llm-drift/internal/logger"
	"github.com/ashwinyue/llm-drift/internal/model"
)

// NewRegistryFromConfig 按配置顺序创建全部提供商
// 缺少 API Key 或显式禁用的提供商以禁用状态注册，不影响其他提供商
func NewRegistryFromConfig(ctx context.Context, cfg *config.Config) (*Registry, error) {
	registry, err := NewRegistry()
	if err != nil {
		return nil, err
	}

	for _, p := range cfg.Providers {
		c, err := NewFromConfig(ctx, p, cfg.APIKeyFor(p))
		if err != nil {
			return nil, err
		}
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// NewFromConfig 根据单个提供商配置创建客户端
func NewFromConfig(ctx context.Context, p config.ProviderConfig, apiKey string) (Client, error) {
	family, err := model.ParseProviderFamily(p.Family)
	if err != nil {
		return nil, err
	}

	info := Info{
		Name:        p.Name,
		Family:      family,
		Model:       p.Model,
		Version:     p.Version,
		Temperature: p.Temperature,
	}

	if p.Disabled {
		logger.Info("provider disabled by config", "provider", p.Name)
		return NewDisabled(info), nil
	}
	if apiKey == "" {
		logger.Warn("provider API key not configured, provider disabled", "provider", p.Name, "family", family)
		return NewDisabled(info), nil
	}

	var c Client
	switch family {
	case model.ProviderFamilyOpenAI, model.ProviderFamilyDeepSeek, model.ProviderFamilyMistral:
		c, err = NewChatModelClient(ctx, info, ChatModelOptions{
			APIKey:       apiKey,
			BaseURL:      p.BaseURL,
			MaxTokens:    p.MaxTokens,
			SystemPrompt: p.SystemPrompt,
		})
	case model.ProviderFamilyAnthropic:
		c, err = NewAnthropicClient(info, AnthropicOptions{
			APIKey:       apiKey,
			BaseURL:      p.BaseURL,
			MaxTokens:    p.MaxTokens,
			SystemPrompt: p.SystemPrompt,
		})
	case model.ProviderFamilyGoogle:
		c, err = NewGeminiClient(ctx, info, GeminiOptions{
			APIKey:       apiKey,
			MaxTokens:    p.MaxTokens,
			SystemPrompt: p.SystemPrompt,
		})
	case model.ProviderFamilyXAI:
		c = NewGrokClient(info, GrokOptions{
			APIKey:       apiKey,
			BaseURL:      p.BaseURL,
			MaxTokens:    p.MaxTokens,
			SystemPrompt: p.SystemPrompt,
		})
	default:
		return nil, fmt.Errorf("unsupported provider family: %s", family)
	}
	if err != nil {
		// 客户端初始化失败与缺少凭证同样处理
		logger.Error("failed to initialize provider, provider disabled", "provider", p.Name, "error", err)
		return NewDisabled(info), nil
	}
	return c, nil
}
