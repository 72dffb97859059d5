package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ashwinyue/llm-drift/internal/handler"
	"github.com/ashwinyue/llm-drift/internal/logger"
	"github.com/ashwinyue/llm-drift/internal/router"
)

var noScheduler bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scheduler and the read API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&noScheduler, "no-scheduler", false, "only serve the read API")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	// 调度器
	sched := a.services.Scheduler
	schedDone := make(chan struct{})
	if noScheduler {
		close(schedDone)
	} else {
		go func() {
			defer close(schedDone)
			if err := sched.Start(ctx); err != nil {
				logger.Error("scheduler exited", "error", err)
			}
		}()
	}

	// 创建 HTTP 服务器
	handlers := handler.NewHandlers(a.services, a.db)
	srv := &http.Server{
		Addr:         a.cfg.Server.GetAddr(),
		Handler:      router.SetupRouter(handlers),
		ReadTimeout:  time.Duration(a.cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(a.cfg.Server.WriteTimeout) * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// 等待中断信号或服务器异常退出
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			logger.Error("server failed", "error", err)
			stop()
		}
	}

	logger.Info("shutting down")

	// 优雅关闭
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	sched.Stop()
	<-schedDone

	logger.Info("server exited")
	return nil
}
