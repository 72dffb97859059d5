package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ashwinyue/llm-drift/internal/model"
)

// ObservationFilter 观测列表筛选条件
type ObservationFilter struct {
	ProviderName string
	QuestionID   string
	Offset       int
	Limit        int
}

// ObservationRepository 观测记录数据访问，只追加
type ObservationRepository struct {
	db *gorm.DB
}

// NewObservationRepository 创建观测仓库
func NewObservationRepository(db *gorm.DB) *ObservationRepository {
	return &ObservationRepository{db: db}
}

// Create 插入一条观测
func (r *ObservationRepository) Create(ctx context.Context, obs *model.Observation) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(obs).Error
}

// Latest 获取 (模型, 问题) 最近一条观测，不存在时返回 nil
func (r *ObservationRepository) Latest(ctx context.Context, providerModelID, questionID string) (*model.Observation, error) {
	var list []*model.Observation
	err := r.db.WithContext(ctx).
		Where("llm_id = ? AND question_id = ?", providerModelID, questionID).
		Order("created_at DESC").
		Limit(1).
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// List 按创建时间升序分页列出观测
func (r *ObservationRepository) List(ctx context.Context, filter ObservationFilter) ([]*model.Observation, int64, error) {
	var observations []*model.Observation
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Observation{})
	if filter.ProviderName != "" {
		query = query.Where("llm_id IN (?)",
			r.db.Model(&model.ProviderModel{}).Select("id").Where("name = ?", filter.ProviderName))
	}
	if filter.QuestionID != "" {
		query = query.Where("question_id = ?", filter.QuestionID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("ProviderModel").
		Preload("Question").
		Order("created_at ASC").
		Order("id ASC").
		Offset(filter.Offset).
		Limit(filter.Limit).
		Find(&observations).Error
	return observations, total, err
}

// Count 观测总数
func (r *ObservationRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.Observation{}).Count(&total).Error
	return total, err
}
