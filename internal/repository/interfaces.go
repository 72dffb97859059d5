// Package repository 定义数据访问接口
// 接口抽象使依赖注入和单元测试成为可能
package repository

import (
	"context"

	"github.com/ashwinyue/llm-drift/internal/model"
)

// ResponseStore 漂移监控使用的存储接口
//
// 所有写操作在返回前同步提交，同一轮采集中后续的 LatestObservation
// 一定能看到之前写入的记录。
type ResponseStore interface {
	EnsureProviderModel(ctx context.Context, name string, family model.ProviderFamily, version *string) (string, error)
	EnsureQuestion(ctx context.Context, text string, category *string) (string, error)
	LatestObservation(ctx context.Context, providerModelID, questionID string) (*model.Observation, error)
	AppendObservation(ctx context.Context, obs *model.Observation) error
}

// ObservationReader 读接口使用的只读查询
type ObservationReader interface {
	ListObservations(ctx context.Context, filter ObservationFilter) ([]*model.Observation, int64, error)
	ListProviderModels(ctx context.Context) ([]*model.ProviderModel, error)
	ListQuestions(ctx context.Context, offset, limit int) ([]*model.Question, int64, error)
}

// 确保 Repositories 实现了接口
var (
	_ ResponseStore     = (*Repositories)(nil)
	_ ObservationReader = (*Repositories)(nil)
)
