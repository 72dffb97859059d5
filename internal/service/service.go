package service

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/redis/go-redis/v9"

	"github.com/ashwinyue/llm-drift/internal/config"
	"github.com/ashwinyue/llm-drift/internal/logger"
	"github.com/ashwinyue/llm-drift/internal/repository"
	"github.com/ashwinyue/llm-drift/internal/service/callback"
	"github.com/ashwinyue/llm-drift/internal/service/drift"
	"github.com/ashwinyue/llm-drift/internal/service/provider"
	"github.com/ashwinyue/llm-drift/internal/service/question"
	"github.com/ashwinyue/llm-drift/internal/service/scheduler"
	"github.com/ashwinyue/llm-drift/internal/service/similarity"
)

// Services 服务集合
type Services struct {
	Config *config.Config
	Repos  *repository.Repositories

	Providers *provider.Registry
	Embedder  embedding.Embedder // 未配置时为 nil，相似度降级为 0
	Scorer    *similarity.Scorer
	Questions question.Source

	Orchestrator *drift.Orchestrator
	Scheduler    *scheduler.Scheduler
}

// NewServices 创建所有服务
// redisClient 为 nil 时调度器只在进程内防重入
func NewServices(ctx context.Context, repos *repository.Repositories, cfg *config.Config, redisClient redis.UniversalClient) (*Services, error) {
	callback.SetupGlobalCallbacks(cfg.App.Debug)

	registry, err := provider.NewRegistryFromConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create providers: %w", err)
	}
	logger.Info("providers registered", "providers", registry.Names())

	embedder, err := similarity.NewEmbedder(ctx, cfg.Embedding)
	if err != nil {
		logger.Warn("embedder unavailable, similarity scores will degrade to 0", "error", err)
		embedder = nil
	}
	scorer := similarity.NewScorer(embedder)

	questions := question.NewFileSource(cfg.Monitor.QuestionsFile, cfg.Monitor.DefaultQuestion)

	orchestrator := drift.NewOrchestrator(repos, registry, scorer, questions, drift.Options{
		RequestTimeout: cfg.Monitor.RequestTimeout,
		Concurrency:    cfg.Monitor.Concurrency,
		RateLimit:      cfg.Monitor.RateLimit,
	})

	var locker scheduler.Locker
	if redisClient != nil {
		locker = scheduler.NewRedisLocker(redisClient, "")
	}

	sched := scheduler.New(scheduler.Options{
		Name:       cfg.Monitor.JobName,
		Interval:   cfg.Monitor.Interval,
		RunOnStart: cfg.Monitor.RunOnStart,
		Locker:     locker,
		LockTTL:    cfg.Monitor.LockTTL,
	}, func(ctx context.Context) error {
		_, err := orchestrator.RunTick(ctx)
		return err
	})

	return &Services{
		Config:       cfg,
		Repos:        repos,
		Providers:    registry,
		Embedder:     embedder,
		Scorer:       scorer,
		Questions:    questions,
		Orchestrator: orchestrator,
		Scheduler:    sched,
	}, nil
}
