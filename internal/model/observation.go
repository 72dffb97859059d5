package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TokenUsage token 用量，提供商未返回时为 nil
type TokenUsage struct {
	PromptTokens     *int `json:"prompt_tokens,omitempty"`
	CompletionTokens *int `json:"completion_tokens,omitempty"`
	TotalTokens      *int `json:"total_tokens,omitempty"`
}

// Observation 一次模型回答的观测记录，只追加不修改
//
// SimilarityScore 为空当且仅当该 (模型, 问题) 之前没有观测。
// 相似度计算失败时 SimilarityScore 为 0，SimilarityError 记录失败原因。
type Observation struct {
	ID              string     `json:"id" gorm:"type:varchar(36);primaryKey"`
	ProviderModelID string     `json:"llm_id" gorm:"column:llm_id;type:varchar(36);not null;index:idx_responses_llm_question,priority:1"`
	QuestionID      string     `json:"question_id" gorm:"type:varchar(36);not null;index:idx_responses_llm_question,priority:2"`
	ResponseText    string     `json:"response_text" gorm:"type:text;not null"`
	Usage           TokenUsage `json:"usage" gorm:"embedded"`
	Temperature     float64    `json:"temperature" gorm:"default:0.7"`
	SimilarityScore *float64   `json:"similarity_score"`
	SimilarityError *string    `json:"similarity_error,omitempty" gorm:"type:text"`
	CreatedAt       time.Time  `json:"created_at" gorm:"autoCreateTime;index:idx_responses_llm_question,priority:3"`

	ProviderModel *ProviderModel `json:"llm,omitempty" gorm:"foreignKey:ProviderModelID"`
	Question      *Question      `json:"question,omitempty" gorm:"foreignKey:QuestionID"`
}

// BeforeCreate GORM 钩子，创建前生成 UUID
func (o *Observation) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	return nil
}

// TableName 指定表名
func (Observation) TableName() string {
	return "responses"
}
