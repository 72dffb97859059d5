// Package provider 定义统一的模型查询能力，每个外部提供商一个实现
package provider

import (
	"context"
	"strings"

	"github.com/ashwinyue/llm-drift/internal/model"
)

// Info 提供商的静态描述
type Info struct {
	Name        string               // 注册名，同时是模型记录的唯一键
	Family      model.ProviderFamily // 提供商
	Model       string               // 请求使用的模型标识
	Version     string               // 记录到模型表的版本，默认与 Model 相同
	Temperature float64
	Disabled    bool // 缺少凭据，查询直接返回 ErrNotConfigured
}

// Response 模型回答
type Response struct {
	Text  string
	Model string // 提供商实际返回的模型名，可能为空
	Usage model.TokenUsage
}

// Client 一个提供商的查询能力
//
// 每次 Query 最多发出一次网络请求，不做重试；重试策略属于调用方。
// 返回的错误都是 *Error，可以通过 KindOf 区分配置错误和临时错误。
type Client interface {
	Info() Info
	Query(ctx context.Context, question string) (*Response, error)
}

// queryFunc 具体提供商的请求实现
type queryFunc func(ctx context.Context, question string) (*Response, error)

// client 所有提供商共享的外壳：参数检查和错误分类
type client struct {
	info  Info
	query queryFunc
}

func newClient(info Info, query queryFunc) *client {
	if info.Version == "" {
		info.Version = info.Model
	}
	return &client{info: info, query: query}
}

// Info 实现 Client 接口
func (c *client) Info() Info {
	return c.info
}

// Query 实现 Client 接口
func (c *client) Query(ctx context.Context, question string) (*Response, error) {
	if strings.TrimSpace(question) == "" {
		return nil, wrapError(c.info.Name, ErrEmptyQuestion)
	}
	resp, err := c.query(ctx, question)
	if err != nil {
		return nil, wrapError(c.info.Name, err)
	}
	return resp, nil
}

// NewDisabled 创建被禁用的提供商，每次调用都返回相同的配置错误
func NewDisabled(info Info) Client {
	info.Disabled = true
	return newClient(info, func(ctx context.Context, question string) (*Response, error) {
		return nil, ErrNotConfigured
	})
}

// NewFunc 由函数创建提供商，用于测试和自定义接入
func NewFunc(info Info, fn func(ctx context.Context, question string) (string, error)) Client {
	return newClient(info, func(ctx context.Context, question string) (*Response, error) {
		text, err := fn(ctx, question)
		if err != nil {
			return nil, err
		}
		return &Response{Text: text}, nil
	})
}

func intPtr(v int) *int {
	return &v
}

// totalTokens 提供商未返回总量时由输入输出相加
func totalTokens(prompt, completion, total int) *int {
	if total > 0 {
		return intPtr(total)
	}
	return intPtr(prompt + completion)
}
