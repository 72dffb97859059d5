// Package callback 提供 Eino Callback 日志支持
package callback

import (
	"context"
	"log/slog"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/ashwinyue/llm-drift/internal/logger"
)

// Logger 日志回调处理器
// 实现 callbacks.Handler 接口，记录 ChatModel 和 Embedding 组件的执行事件
type Logger struct {
	EnableDebug bool // 是否记录开始和结束事件
}

// NewLogger 创建日志回调处理器
func NewLogger(enableDebug bool) *Logger {
	return &Logger{EnableDebug: enableDebug}
}

func attrs(info *callbacks.RunInfo) []any {
	if info == nil {
		return nil
	}
	return []any{"name", info.Name, "type", info.Type, "component", string(info.Component)}
}

// OnStart 组件执行开始时调用
func (l *Logger) OnStart(ctx context.Context, info *callbacks.RunInfo, input callbacks.CallbackInput) context.Context {
	if l.EnableDebug {
		logger.Debug("[Eino] start", attrs(info)...)
	}
	return ctx
}

// OnEnd 组件执行成功结束时调用，记录 token 用量
func (l *Logger) OnEnd(ctx context.Context, info *callbacks.RunInfo, output callbacks.CallbackOutput) context.Context {
	if !l.EnableDebug {
		return ctx
	}

	args := attrs(info)
	if out := model.ConvCallbackOutput(output); out != nil && out.TokenUsage != nil {
		args = append(args,
			"prompt_tokens", out.TokenUsage.PromptTokens,
			"completion_tokens", out.TokenUsage.CompletionTokens)
	} else if out := embedding.ConvCallbackOutput(output); out != nil {
		args = append(args, "vectors", len(out.Embeddings))
	}
	logger.Debug("[Eino] end", args...)
	return ctx
}

// OnError 组件执行出错时调用
func (l *Logger) OnError(ctx context.Context, info *callbacks.RunInfo, err error) context.Context {
	logger.Error("[Eino] error", append(attrs(info), "error", err)...)
	return ctx
}

// OnStartWithStreamInput 流式输入开始时调用
func (l *Logger) OnStartWithStreamInput(ctx context.Context, info *callbacks.RunInfo, input *schema.StreamReader[callbacks.CallbackInput]) context.Context {
	input.Close()
	return ctx
}

// OnEndWithStreamOutput 流式输出结束时调用
func (l *Logger) OnEndWithStreamOutput(ctx context.Context, info *callbacks.RunInfo, output *schema.StreamReader[callbacks.CallbackOutput]) context.Context {
	output.Close()
	return ctx
}

// SetupGlobalCallbacks 设置全局回调
func SetupGlobalCallbacks(enableDebug bool) {
	callbacks.AppendGlobalHandlers(NewLogger(enableDebug))
	logger.Info("eino global callbacks registered", slog.Bool("debug", enableDebug))
}
