// Package scheduler 周期性触发采集任务
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ashwinyue/llm-drift/internal/logger"
)

// Job 一次采集任务
type Job func(ctx context.Context) error

// Options 调度参数
type Options struct {
	Name       string        // 任务名，同时作为分布式锁的 key
	Interval   time.Duration // 两次触发之间的间隔
	RunOnStart bool          // 启动后立即执行一次
	Locker     Locker        // 跨进程锁，nil 表示只在进程内防重入
	LockTTL    time.Duration
}

// Status 调度器状态
type Status struct {
	Running     bool      `json:"running"`
	Busy        bool      `json:"busy"`
	Runs        int64     `json:"runs"`
	Skipped     int64     `json:"skipped"`
	LastStarted time.Time `json:"last_started,omitempty"`
	LastError   string    `json:"last_error,omitempty"`
}

// Scheduler 固定间隔的任务调度器
//
// 同一时刻最多执行一次任务：触发时上一次仍在执行则跳过本次，不排队。
type Scheduler struct {
	opts Options
	job  Job

	busy    atomic.Bool
	runs    atomic.Int64
	skipped atomic.Int64

	mu          sync.Mutex
	running     bool
	stopped     bool
	stopCh      chan struct{}
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	lastStarted time.Time
	lastErr     error
}

// New 创建调度器
func New(opts Options, job Job) *Scheduler {
	if opts.Name == "" {
		opts.Name = "drift-collect"
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 2 * opts.Interval
	}
	return &Scheduler{opts: opts, job: job, stopCh: make(chan struct{})}
}

// Start 启动调度循环，阻塞直到 Stop 被调用或 ctx 结束
// Stop 之后调度器不能再次启动，Start 立即返回
func (s *Scheduler) Start(ctx context.Context) error {
	if s.opts.Interval <= 0 {
		return errors.New("scheduler interval must be positive")
	}

	s.mu.Lock()
	if s.stopped || s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.wg.Add(1)
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		cancel()
		s.wg.Done()
	}()

	logger.Info("scheduler started", "job", s.opts.Name, "interval", s.opts.Interval, "run_on_start", s.opts.RunOnStart)

	if s.opts.RunOnStart {
		s.RunOnce(ctx)
	}

	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("scheduler stopped", "job", s.opts.Name, "reason", ctx.Err())
			return nil
		case <-s.stopCh:
			logger.Info("scheduler stopped", "job", s.opts.Name)
			return nil
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// Stop 停止调度并取消正在执行的任务，等待其返回
// 在 Start 之前调用同样有效
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	close(s.stopCh)
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	s.wg.Wait()
}

// RunOnce 立即执行一次任务
// 上一次仍在执行或锁被其他实例持有时跳过，返回 false
func (s *Scheduler) RunOnce(ctx context.Context) bool {
	if !s.busy.CompareAndSwap(false, true) {
		s.skipped.Add(1)
		logger.Warn("previous run still in progress, skipping", "job", s.opts.Name)
		return false
	}
	defer s.busy.Store(false)

	if s.opts.Locker != nil {
		lock, err := s.opts.Locker.Acquire(ctx, s.opts.Name, s.opts.LockTTL)
		if err != nil {
			s.skipped.Add(1)
			if errors.Is(err, ErrLockHeld) {
				logger.Warn("job locked by another instance, skipping", "job", s.opts.Name)
			} else {
				logger.Error("failed to acquire job lock, skipping", "job", s.opts.Name, "error", err)
			}
			return false
		}

		var cancel context.CancelFunc
		ctx, cancel = context.WithCancel(ctx)
		stopRefresh := s.keepLock(ctx, lock, cancel)
		defer func() {
			stopRefresh()
			cancel()
			// ctx 可能已被取消，释放锁使用独立的超时
			releaseCtx, releaseCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer releaseCancel()
			if err := lock.Release(releaseCtx); err != nil {
				logger.Error("failed to release job lock", "job", s.opts.Name, "error", err)
			}
		}()
	}

	s.runs.Add(1)
	started := time.Now()
	s.mu.Lock()
	s.lastStarted = started
	s.mu.Unlock()

	err := s.safeRun(ctx)

	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()

	if err != nil {
		logger.Error("job failed", "job", s.opts.Name, "error", err, "duration", time.Since(started))
	}
	return true
}

// keepLock 任务执行期间每隔 LockTTL/3 续期一次锁
// 锁丢失时取消任务，避免与其他实例同时执行
func (s *Scheduler) keepLock(ctx context.Context, lock Lock, cancelJob context.CancelFunc) (stop func()) {
	interval := s.opts.LockTTL / 3
	if interval <= 0 {
		interval = time.Millisecond
	}

	done := make(chan struct{})
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				err := lock.Refresh(ctx, s.opts.LockTTL)
				if err == nil {
					continue
				}
				if errors.Is(err, ErrLockLost) {
					logger.Error("job lock lost, canceling run", "job", s.opts.Name)
					cancelJob()
					return
				}
				logger.Warn("failed to refresh job lock", "job", s.opts.Name, "error", err)
			}
		}
	}()

	return func() {
		close(done)
		<-exited
	}
}

// safeRun 执行任务，panic 视为失败
func (s *Scheduler) safeRun(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return s.job(ctx)
}

// Status 返回调度器状态
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		Running:     s.running,
		Busy:        s.busy.Load(),
		Runs:        s.runs.Load(),
		Skipped:     s.skipped.Load(),
		LastStarted: s.lastStarted,
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	return st
}
