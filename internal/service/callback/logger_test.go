package callback

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"

	"github.com/ashwinyue/llm-drift/internal/logger"
)

func captureLogs(t *testing.T, level string) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	logger.Setup(&buf, "text", level)
	t.Cleanup(func() { logger.Setup(os.Stderr, "text", "info") })
	return &buf
}

func TestLogger_OnError(t *testing.T) {
	buf := captureLogs(t, "info")
	info := &callbacks.RunInfo{Name: "chatgpt", Type: "openai", Component: components.ComponentOfChatModel}

	NewLogger(false).OnError(context.Background(), info, errors.New("rate limited"))

	out := buf.String()
	assert.Contains(t, out, "[Eino] error")
	assert.Contains(t, out, "name=chatgpt")
	assert.Contains(t, out, "rate limited")
}

func TestLogger_OnEndTokenUsage(t *testing.T) {
	buf := captureLogs(t, "debug")
	info := &callbacks.RunInfo{Name: "deepseek", Component: components.ComponentOfChatModel}

	out := &model.CallbackOutput{
		Message:    schema.AssistantMessage("hi", nil),
		TokenUsage: &model.TokenUsage{PromptTokens: 7, CompletionTokens: 3, TotalTokens: 10},
	}
	NewLogger(true).OnEnd(context.Background(), info, out)

	assert.Contains(t, buf.String(), "prompt_tokens=7")
	assert.Contains(t, buf.String(), "completion_tokens=3")
}

func TestLogger_DebugDisabled(t *testing.T) {
	buf := captureLogs(t, "debug")
	info := &callbacks.RunInfo{Name: "claude"}

	l := NewLogger(false)
	l.OnStart(context.Background(), info, nil)
	l.OnEnd(context.Background(), info, nil)

	assert.Empty(t, buf.String())
}
