package handler

import (
	"github.com/ashwinyue/llm-drift/internal/service"
)

// Handlers 处理器集合
type Handlers struct {
	Observation *ObservationHandler
	Catalog     *CatalogHandler
	System      *SystemHandler
}

// NewHandlers 创建所有处理器
func NewHandlers(svc *service.Services, db Pinger) *Handlers {
	return &Handlers{
		Observation: NewObservationHandler(svc.Repos),
		Catalog:     NewCatalogHandler(svc.Repos, svc.Providers),
		System:      NewSystemHandler(db, svc.Scheduler),
	}
}
