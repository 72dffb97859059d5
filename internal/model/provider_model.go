// Package model 提供漂移监控的数据模型
package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProviderFamily 模型提供商
type ProviderFamily string

const (
	ProviderFamilyOpenAI    ProviderFamily = "openai"    // OpenAI
	ProviderFamilyAnthropic ProviderFamily = "anthropic" // Anthropic Claude
	ProviderFamilyMistral   ProviderFamily = "mistral"   // Mistral AI
	ProviderFamilyGoogle    ProviderFamily = "google"    // Google Gemini
	ProviderFamilyXAI       ProviderFamily = "xai"       // xAI Grok
	ProviderFamilyDeepSeek  ProviderFamily = "deepseek"  // DeepSeek
)

// ProviderFamilies 全部受支持的提供商，按固定顺序
var ProviderFamilies = []ProviderFamily{
	ProviderFamilyOpenAI,
	ProviderFamilyAnthropic,
	ProviderFamilyMistral,
	ProviderFamilyGoogle,
	ProviderFamilyXAI,
	ProviderFamilyDeepSeek,
}

// ParseProviderFamily 解析提供商名称（不区分大小写）
func ParseProviderFamily(s string) (ProviderFamily, error) {
	f := ProviderFamily(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range ProviderFamilies {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown provider family: %q", s)
}

// ProviderModel 被监控的模型，name 唯一
type ProviderModel struct {
	ID        string         `json:"id" gorm:"type:varchar(36);primaryKey"`
	Name      string         `json:"name" gorm:"type:varchar(255);not null;uniqueIndex"`
	Family    ProviderFamily `json:"family" gorm:"type:varchar(50);not null"`
	Version   *string        `json:"version,omitempty" gorm:"type:varchar(255)"`
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
}

// BeforeCreate GORM 钩子，创建前生成 UUID
func (m *ProviderModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}

// TableName 指定表名
func (ProviderModel) TableName() string {
	return "llm_models"
}
