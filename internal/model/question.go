package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Question 监控问题，问题文本唯一
type Question struct {
	ID        string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	Text      string    `json:"text" gorm:"column:question_text;type:text;not null;uniqueIndex"`
	Category  *string   `json:"category,omitempty" gorm:"type:varchar(100)"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// BeforeCreate GORM 钩子，创建前生成 UUID
func (q *Question) BeforeCreate(tx *gorm.DB) error {
	if q.ID == "" {
		q.ID = uuid.New().String()
	}
	return nil
}

// TableName 指定表名
func (Question) TableName() string {
	return "questions"
}
