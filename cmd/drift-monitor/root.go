package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/ashwinyue/llm-drift/internal/config"
	"github.com/ashwinyue/llm-drift/internal/database"
	"github.com/ashwinyue/llm-drift/internal/logger"
	"github.com/ashwinyue/llm-drift/internal/repository"
	"github.com/ashwinyue/llm-drift/internal/service"
)

const defaultConfigPath = "./configs/config.yaml"

var configPath string

var rootCmd = &cobra.Command{
	Use:           "drift-monitor",
	Short:         "Track how LLM answers change over time",
	Long:          `Periodically asks a fixed set of questions to several LLM providers, stores every answer and scores it against the previous answer from the same provider.`,
	SilenceUsage:  true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default $CONFIG_PATH or "+defaultConfigPath+")")
}

// resolveConfigPath 命令行参数优先，其次 CONFIG_PATH，默认文件不存在时只使用默认值和环境变量
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	if _, err := os.Stat(defaultConfigPath); err == nil {
		return defaultConfigPath
	}
	return ""
}

// app 命令共享的运行时依赖
type app struct {
	cfg      *config.Config
	db       *database.DB
	redis    *redis.Client
	services *service.Services
}

func (a *app) Close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}

// bootstrap 加载配置并初始化各层
func bootstrap(ctx context.Context) (*app, error) {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return nil, err
	}

	logger.Setup(os.Stdout, cfg.Log.Format, cfg.Log.Level)
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	a := &app{cfg: cfg}

	a.db, err = database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to init database: %w", err)
	}

	var redisClient redis.UniversalClient
	if cfg.Redis.Enabled {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.GetAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := a.redis.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to connect redis: %w", err)
		}
		redisClient = a.redis
	}

	repos := repository.NewRepositories(a.db.DB)
	a.services, err = service.NewServices(ctx, repos, cfg, redisClient)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	if a.services.Providers.Len() == 0 {
		a.Close()
		return nil, errors.New("no providers configured")
	}
	return a, nil
}
