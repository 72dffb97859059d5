package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ashwinyue/llm-drift/internal/handler"
	"github.com/ashwinyue/llm-drift/internal/middleware"
)

// SetupRouter 设置路由
func SetupRouter(h *handler.Handlers) *gin.Engine {
	r := gin.New()

	// 中间件
	r.Use(middleware.RecoveryMiddleware())
	r.Use(middleware.LoggingMiddleware())
	r.Use(middleware.CORSMiddleware())

	// 健康检查
	r.GET("/health", h.System.Health)

	// Prometheus 指标
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 兼容旧接口
	r.GET("/api/responses", h.Observation.ListResponses)
	r.GET("/api/responses/", h.Observation.ListResponses)

	// API v1
	v1 := r.Group("/api/v1")
	{
		v1.GET("/observations", h.Observation.ListObservations)
		v1.GET("/providers", h.Catalog.ListProviders)
		v1.GET("/questions", h.Catalog.ListQuestions)
	}

	return r
}
