package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/ashwinyue/llm-drift/internal/model"
)

// Repositories 仓库集合，用于统一管理所有仓库
type Repositories struct {
	DB            *gorm.DB // 直接访问数据库
	ProviderModel *ProviderModelRepository
	Question      *QuestionRepository
	Observation   *ObservationRepository
}

// NewRepositories 创建所有仓库
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		DB:            db,
		ProviderModel: NewProviderModelRepository(db),
		Question:      NewQuestionRepository(db),
		Observation:   NewObservationRepository(db),
	}
}

// EnsureProviderModel 获取或创建模型
func (r *Repositories) EnsureProviderModel(ctx context.Context, name string, family model.ProviderFamily, version *string) (string, error) {
	return r.ProviderModel.Ensure(ctx, name, family, version)
}

// EnsureQuestion 获取或创建问题
func (r *Repositories) EnsureQuestion(ctx context.Context, text string, category *string) (string, error) {
	return r.Question.Ensure(ctx, text, category)
}

// LatestObservation 最近一条观测
func (r *Repositories) LatestObservation(ctx context.Context, providerModelID, questionID string) (*model.Observation, error) {
	return r.Observation.Latest(ctx, providerModelID, questionID)
}

// AppendObservation 追加观测
func (r *Repositories) AppendObservation(ctx context.Context, obs *model.Observation) error {
	return r.Observation.Create(ctx, obs)
}

// ListObservations 分页列出观测
func (r *Repositories) ListObservations(ctx context.Context, filter ObservationFilter) ([]*model.Observation, int64, error) {
	return r.Observation.List(ctx, filter)
}

// ListProviderModels 列出模型
func (r *Repositories) ListProviderModels(ctx context.Context) ([]*model.ProviderModel, error) {
	return r.ProviderModel.List(ctx)
}

// ListQuestions 列出问题
func (r *Repositories) ListQuestions(ctx context.Context, offset, limit int) ([]*model.Question, int64, error) {
	return r.Question.List(ctx, offset, limit)
}
