package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ashwinyue/llm-drift/internal/service/scheduler"
)

// Pinger 数据库连通性检查
type Pinger interface {
	Ping(ctx context.Context) error
}

// StatusProvider 调度器状态
type StatusProvider interface {
	Status() scheduler.Status
}

// SystemHandler 系统处理器
type SystemHandler struct {
	db        Pinger
	scheduler StatusProvider
}

// NewSystemHandler 创建系统处理器，参数均可为 nil
func NewSystemHandler(db Pinger, sched StatusProvider) *SystemHandler {
	return &SystemHandler{db: db, scheduler: sched}
}

// Health 存活探针
// GET /health
func (h *SystemHandler) Health(c *gin.Context) {
	body := gin.H{"status": "ok"}
	status := http.StatusOK

	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			body["status"] = "degraded"
			body["database"] = err.Error()
			status = http.StatusServiceUnavailable
		} else {
			body["database"] = "ok"
		}
	}
	if h.scheduler != nil {
		body["scheduler"] = h.scheduler.Status()
	}

	c.JSON(status, body)
}
