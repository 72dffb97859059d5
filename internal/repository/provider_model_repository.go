// Package repository 提供模型数据访问层
package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ashwinyue/llm-drift/internal/model"
)

// ProviderModelRepository 被监控模型数据访问
type ProviderModelRepository struct {
	db *gorm.DB
}

// NewProviderModelRepository 创建模型仓库
func NewProviderModelRepository(db *gorm.DB) *ProviderModelRepository {
	return &ProviderModelRepository{db: db}
}

// Ensure 按名称获取或创建模型记录，返回记录 ID
// 已存在时不修改 family 与 version
func (r *ProviderModelRepository) Ensure(ctx context.Context, name string, family model.ProviderFamily, version *string) (string, error) {
	m := &model.ProviderModel{
		Name:    name,
		Family:  family,
		Version: version,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(m).Error
	if err != nil {
		return "", fmt.Errorf("insert llm model %q: %w", name, err)
	}

	existing, err := r.GetByName(ctx, name)
	if err != nil {
		return "", fmt.Errorf("load llm model %q: %w", name, err)
	}
	return existing.ID, nil
}

// GetByName 根据名称获取模型
func (r *ProviderModelRepository) GetByName(ctx context.Context, name string) (*model.ProviderModel, error) {
	var m model.ProviderModel
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// List 列出全部模型
func (r *ProviderModelRepository) List(ctx context.Context) ([]*model.ProviderModel, error) {
	var models []*model.ProviderModel
	err := r.db.WithContext(ctx).Order("name ASC").Find(&models).Error
	return models, err
}
