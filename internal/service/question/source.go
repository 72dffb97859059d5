// Package question 加载需要监控的问题列表
package question

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ashwinyue/llm-drift/internal/logger"
)

// Item 一个监控问题
type Item struct {
	Text     string
	Category *string
}

// Source 问题来源，每轮采集都会重新加载
type Source interface {
	Load(ctx context.Context) []Item
}

// FileSource 从 YAML 文件加载问题
//
// 文件格式：
//
//	questions:
//	  - "plain question"
//	  - text: "question with category"
//	    category: ethics
//
// 文件缺失、解析失败或为空时返回内置默认问题。
type FileSource struct {
	path     string
	fallback Item
}

// NewFileSource 创建文件问题来源
func NewFileSource(path, defaultQuestion string) *FileSource {
	return &FileSource{
		path:     path,
		fallback: Item{Text: defaultQuestion},
	}
}

// Load 实现 Source 接口
func (s *FileSource) Load(ctx context.Context) []Item {
	items, err := s.read()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Warn("questions file not found, using default question", "path", s.path)
		} else {
			logger.Error("failed to load questions, using default question", "path", s.path, "error", err)
		}
		return []Item{s.fallback}
	}
	if len(items) == 0 {
		logger.Warn("questions file is empty, using default question", "path", s.path)
		return []Item{s.fallback}
	}
	return items
}

func (s *FileSource) read() ([]Item, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// questionsFile YAML 文件结构
type questionsFile struct {
	Questions []entry `yaml:"questions"`
}

// entry 既可以是字符串，也可以是 {text, category}
type entry struct {
	Text     string  `yaml:"text"`
	Category *string `yaml:"category"`
}

// UnmarshalYAML 兼容纯字符串写法
func (e *entry) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		return node.Decode(&e.Text)
	}
	type plain entry
	return node.Decode((*plain)(e))
}

// Parse 解析问题 YAML，去除空白问题和重复问题，保持文件顺序
func Parse(data []byte) ([]Item, error) {
	var f questionsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse questions: %w", err)
	}

	seen := make(map[string]bool, len(f.Questions))
	items := make([]Item, 0, len(f.Questions))
	for _, e := range f.Questions {
		text := strings.TrimSpace(e.Text)
		if text == "" || seen[text] {
			continue
		}
		seen[text] = true

		var category *string
		if e.Category != nil && strings.TrimSpace(*e.Category) != "" {
			c := strings.TrimSpace(*e.Category)
			category = &c
		}
		items = append(items, Item{Text: text, Category: category})
	}
	return items, nil
}

// StaticSource 固定的问题列表，用于 CLI 参数和测试
type StaticSource []Item

// Load 实现 Source 接口
func (s StaticSource) Load(ctx context.Context) []Item {
	out := make([]Item, len(s))
	copy(out, s)
	return out
}

// Texts 由问题文本构造 StaticSource
func Texts(texts ...string) StaticSource {
	s := make(StaticSource, 0, len(texts))
	for _, t := range texts {
		s = append(s, Item{Text: t})
	}
	return s
}
