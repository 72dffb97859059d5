package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ashwinyue/llm-drift/internal/repository"
	"github.com/ashwinyue/llm-drift/internal/service/provider"
)

// CatalogHandler 提供商与问题列表处理器
type CatalogHandler struct {
	reader    repository.ObservationReader
	providers *provider.Registry
}

// NewCatalogHandler 创建处理器
func NewCatalogHandler(reader repository.ObservationReader, providers *provider.Registry) *CatalogHandler {
	return &CatalogHandler{reader: reader, providers: providers}
}

// ProviderItem 提供商信息
type ProviderItem struct {
	Name       string  `json:"name"`
	Family     string  `json:"family"`
	Model      string  `json:"model,omitempty"`
	Version    *string `json:"version,omitempty"`
	Registered bool    `json:"registered"` // 当前配置中存在
	Recorded   bool    `json:"recorded"`   // 已有观测记录
}

// ListProviders 列出已配置和已记录的提供商
// GET /api/v1/providers
func (h *CatalogHandler) ListProviders(c *gin.Context) {
	stored, err := h.reader.ListProviderModels(c.Request.Context())
	if err != nil {
		Error(c, err)
		return
	}

	items := make([]ProviderItem, 0, len(stored))
	index := make(map[string]int, len(stored))

	if h.providers != nil {
		for _, client := range h.providers.Clients() {
			info := client.Info()
			index[info.Name] = len(items)
			version := info.Version
			items = append(items, ProviderItem{
				Name:       info.Name,
				Family:     string(info.Family),
				Model:      info.Model,
				Version:    &version,
				Registered: true,
			})
		}
	}

	for _, m := range stored {
		if i, ok := index[m.Name]; ok {
			items[i].Recorded = true
			continue
		}
		items = append(items, ProviderItem{
			Name:     m.Name,
			Family:   string(m.Family),
			Version:  m.Version,
			Recorded: true,
		})
	}

	Success(c, items)
}

// ListQuestions 分页列出问题
// GET /api/v1/questions?skip=0&limit=100
func (h *CatalogHandler) ListQuestions(c *gin.Context) {
	page, err := parsePage(c)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	questions, total, err := h.reader.ListQuestions(c.Request.Context(), page.Skip, page.Limit)
	if err != nil {
		Error(c, err)
		return
	}
	SuccessWithPage(c, questions, total, page)
}
