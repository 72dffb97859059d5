// Package testutil 提供测试辅助工具
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"
)

// HTTPRoundTripper 重写 HTTP 请求到测试服务器
// 用于将真实 API 请求重定向到 mock 服务器
type HTTPRoundTripper struct {
	base *url.URL          // 测试服务器 URL
	next http.RoundTripper // 下一个 Transport
}

// NewHTTPRoundTripper 创建 HTTP 请求重定向器
func NewHTTPRoundTripper(baseURL string) *HTTPRoundTripper {
	u, _ := url.Parse(baseURL)
	return &HTTPRoundTripper{
		base: u,
		next: http.DefaultTransport,
	}
}

// RoundTrip 实现 http.RoundTripper 接口
func (t *HTTPRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	cloned := req.Clone(req.Context())
	cloned.URL.Scheme = t.base.Scheme
	cloned.URL.Host = t.base.Host
	cloned.Host = t.base.Host
	return t.next.RoundTrip(cloned)
}

// NewTestClient 创建测试用 HTTP 客户端
// 自动将请求重定向到测试服务器
func NewTestClient(ts *httptest.Server) *http.Client {
	return &http.Client{
		Timeout:   5 * time.Second,
		Transport: NewHTTPRoundTripper(ts.URL),
	}
}

// ChatRequest OpenAI 兼容接口收到的请求体（只解析测试关心的字段）
type ChatRequest struct {
	Path        string
	Auth        string
	Model       string   `json:"model"`
	Temperature *float64 `json:"temperature"`
	MaxTokens   *int     `json:"max_tokens"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

// ChatServer OpenAI 兼容的 mock 聊天服务
type ChatServer struct {
	*httptest.Server

	mu       sync.Mutex
	requests []ChatRequest
}

// Requests 返回收到的请求副本
func (s *ChatServer) Requests() []ChatRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ChatRequest, len(s.requests))
	copy(out, s.requests)
	return out
}

// NewChatServer 创建 OpenAI 兼容的 mock 服务
// reply 返回状态码和回答内容，状态码非 200 时内容作为错误信息
func NewChatServer(t *testing.T, reply func(req ChatRequest) (int, string)) *ChatServer {
	t.Helper()

	s := &ChatServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		req.Path = r.URL.Path
		req.Auth = r.Header.Get("Authorization")

		s.mu.Lock()
		s.requests = append(s.requests, req)
		s.mu.Unlock()

		status, content := reply(req)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"message": content, "type": "server_error"},
			})
			return
		}
		_, _ = w.Write(ChatCompletionBody(req.Model, content, 12, 34))
	}))
	t.Cleanup(s.Close)
	return s
}

// ChatCompletionBody 构造 OpenAI chat.completion 响应体
func ChatCompletionBody(model, content string, promptTokens, completionTokens int) []byte {
	body, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": time.Now().Unix(),
		"model":   model,
		"choices": []map[string]any{
			{
				"index":         0,
				"finish_reason": "stop",
				"message": map[string]any{
					"role":    "assistant",
					"content": content,
				},
			},
		},
		"usage": map[string]any{
			"prompt_tokens":     promptTokens,
			"completion_tokens": completionTokens,
			"total_tokens":      promptTokens + completionTokens,
		},
	})
	return body
}
