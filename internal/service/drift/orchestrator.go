// Package drift 一轮采集：对每个问题依次查询所有提供商，存储回答并计算与上一次回答的相似度
package drift

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/ashwinyue/llm-drift/internal/logger"
	"github.com/ashwinyue/llm-drift/internal/model"
	"github.com/ashwinyue/llm-drift/internal/repository"
	"github.com/ashwinyue/llm-drift/internal/service/provider"
	"github.com/ashwinyue/llm-drift/internal/service/question"
)

// ErrStorage 存储失败，本轮采集中止
var ErrStorage = errors.New("storage error")

// Comparer 相似度计算，失败时返回 0 和错误
type Comparer interface {
	Compare(ctx context.Context, a, b string) (float64, error)
}

// Options 采集参数
type Options struct {
	RequestTimeout time.Duration // 单次提供商调用超时，0 不限制
	Concurrency    int           // 同一问题下并发查询的提供商数，<=1 顺序执行
	RateLimit      time.Duration // 两次提供商调用之间的最小间隔，0 不限制
}

// TickResult 一轮采集的统计
type TickResult struct {
	ID            string
	StartedAt     time.Time
	Duration      time.Duration
	Questions     int
	Attempts      int // 发起的提供商调用次数
	Stored        int // 写入的观测数
	Failed        int // 失败并被跳过的 (问题, 提供商)
	ScoreFailures int // 相似度降级为 0 的次数
}

// Orchestrator 漂移采集编排
type Orchestrator struct {
	store     repository.ResponseStore
	providers *provider.Registry
	scorer    Comparer
	questions question.Source
	opts      Options
	limiter   *rate.Limiter
}

// NewOrchestrator 创建编排器
func NewOrchestrator(store repository.ResponseStore, providers *provider.Registry, scorer Comparer, questions question.Source, opts Options) *Orchestrator {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Every(opts.RateLimit), 1)
	}

	return &Orchestrator{
		store:     store,
		providers: providers,
		scorer:    scorer,
		questions: questions,
		opts:      opts,
		limiter:   limiter,
	}
}

// tick 一轮采集的可变状态
type tick struct {
	mu     sync.Mutex
	result TickResult
}

func (t *tick) add(fn func(r *TickResult)) {
	t.mu.Lock()
	fn(&t.result)
	t.mu.Unlock()
}

// RunTick 执行一轮采集
//
// 单个提供商失败只跳过该 (问题, 提供商)；存储失败或 ctx 取消时中止本轮并返回错误，
// 已写入的观测保留。
func (o *Orchestrator) RunTick(ctx context.Context) (TickResult, error) {
	t := &tick{result: TickResult{
		ID:        uuid.New().String(),
		StartedAt: time.Now(),
	}}
	log := logger.With("tick_id", t.result.ID)

	items := o.questions.Load(ctx)
	t.result.Questions = len(items)
	log.Info("tick started", "questions", len(items), "providers", o.providers.Len())

	err := o.run(ctx, t, items)

	t.result.Duration = time.Since(t.result.StartedAt)
	tickDuration.Observe(t.result.Duration.Seconds())

	res := t.result
	if err != nil {
		ticksTotal.WithLabelValues("error").Inc()
		log.Error("tick aborted", "error", err, "stored", res.Stored, "failed", res.Failed)
		return res, err
	}

	ticksTotal.WithLabelValues("ok").Inc()
	log.Info("tick finished",
		"stored", res.Stored,
		"failed", res.Failed,
		"score_failures", res.ScoreFailures,
		"duration", res.Duration)
	return res, nil
}

func (o *Orchestrator) run(ctx context.Context, t *tick, items []question.Item) error {
	clients := o.providers.Clients()

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}

		questionID, err := o.store.EnsureQuestion(ctx, item.Text, item.Category)
		if err != nil {
			return fmt.Errorf("%w: ensure question: %w", ErrStorage, err)
		}

		if o.opts.Concurrency == 1 {
			for _, c := range clients {
				if err := o.collect(ctx, t, c, item.Text, questionID); err != nil {
					return err
				}
			}
			continue
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(o.opts.Concurrency)
		for _, c := range clients {
			g.Go(func() error {
				return o.collect(gctx, t, c, item.Text, questionID)
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}
	return nil
}

// collect 处理一个 (问题, 提供商)
// 只有存储失败和 ctx 取消会返回错误
func (o *Orchestrator) collect(ctx context.Context, t *tick, c provider.Client, text, questionID string) error {
	info := c.Info()
	log := logger.With("provider", info.Name, "question_id", questionID)

	// 未配置的提供商不会发出请求，不占用限速配额
	if o.limiter != nil && !info.Disabled {
		if err := o.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	t.add(func(r *TickResult) { r.Attempts++ })
	resp, err := o.query(ctx, c, text)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		kind := provider.KindOf(err)
		providerFailures.WithLabelValues(info.Name, string(kind)).Inc()
		t.add(func(r *TickResult) { r.Failed++ })
		log.Warn("provider query failed, skipping", "kind", kind, "error", err)
		return nil
	}

	var version *string
	if info.Version != "" {
		version = &info.Version
	}
	providerModelID, err := o.store.EnsureProviderModel(ctx, info.Name, info.Family, version)
	if err != nil {
		return fmt.Errorf("%w: ensure provider model %s: %w", ErrStorage, info.Name, err)
	}

	prev, err := o.store.LatestObservation(ctx, providerModelID, questionID)
	if err != nil {
		return fmt.Errorf("%w: latest observation for %s: %w", ErrStorage, info.Name, err)
	}

	obs := &model.Observation{
		ProviderModelID: providerModelID,
		QuestionID:      questionID,
		ResponseText:    resp.Text,
		Usage:           resp.Usage,
		Temperature:     info.Temperature,
	}

	if prev != nil {
		score, err := o.scorer.Compare(ctx, prev.ResponseText, resp.Text)
		if err != nil {
			msg := err.Error()
			obs.SimilarityError = &msg
			score = 0
			scoreFailures.WithLabelValues(info.Name).Inc()
			t.add(func(r *TickResult) { r.ScoreFailures++ })
			log.Error("failed to calculate similarity, storing 0", "error", err)
		}
		obs.SimilarityScore = &score
		lastSimilarity.WithLabelValues(info.Name, questionID).Set(score)
	}

	if err := o.store.AppendObservation(ctx, obs); err != nil {
		return fmt.Errorf("%w: append observation for %s: %w", ErrStorage, info.Name, err)
	}

	observationsStored.WithLabelValues(info.Name).Inc()
	t.add(func(r *TickResult) { r.Stored++ })

	attrs := []any{"observation_id", obs.ID}
	if obs.SimilarityScore != nil {
		attrs = append(attrs, "similarity", *obs.SimilarityScore)
	}
	log.Info("observation stored", attrs...)
	return nil
}

func (o *Orchestrator) query(ctx context.Context, c provider.Client, text string) (*provider.Response, error) {
	if o.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.opts.RequestTimeout)
		defer cancel()
	}
	return c.Query(ctx, text)
}
