package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ashwinyue/llm-drift/internal/model"
)

// QuestionRepository 问题数据访问
type QuestionRepository struct {
	db *gorm.DB
}

// NewQuestionRepository 创建问题仓库
func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{db: db}
}

// Ensure 按问题文本获取或创建问题，返回记录 ID
func (r *QuestionRepository) Ensure(ctx context.Context, text string, category *string) (string, error) {
	q := &model.Question{
		Text:     text,
		Category: category,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "question_text"}}, DoNothing: true}).
		Create(q).Error
	if err != nil {
		return "", fmt.Errorf("insert question: %w", err)
	}

	var existing model.Question
	if err := r.db.WithContext(ctx).Where("question_text = ?", text).First(&existing).Error; err != nil {
		return "", fmt.Errorf("load question: %w", err)
	}
	return existing.ID, nil
}

// List 列出问题
func (r *QuestionRepository) List(ctx context.Context, offset, limit int) ([]*model.Question, int64, error) {
	var questions []*model.Question
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Question{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at ASC").Offset(offset).Limit(limit).Find(&questions).Error
	return questions, total, err
}
