package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ashwinyue/llm-drift/internal/model"
	"github.com/ashwinyue/llm-drift/internal/repository"
)

// ObservationHandler 观测记录处理器
type ObservationHandler struct {
	reader repository.ObservationReader
}

// NewObservationHandler 创建观测记录处理器
func NewObservationHandler(reader repository.ObservationReader) *ObservationHandler {
	return &ObservationHandler{reader: reader}
}

// ObservationItem 观测记录的对外格式
type ObservationItem struct {
	ID              string           `json:"id"`
	LLMName         string           `json:"llm_name"`
	QuestionID      string           `json:"question_id"`
	Question        string           `json:"question"`
	Response        string           `json:"response"`
	SimilarityScore *float64         `json:"similarity_score"`
	SimilarityError *string          `json:"similarity_error,omitempty"`
	Temperature     float64          `json:"temperature"`
	Usage           model.TokenUsage `json:"usage"`
	Timestamp       time.Time        `json:"timestamp"`
}

func toObservationItem(o *model.Observation) ObservationItem {
	item := ObservationItem{
		ID:              o.ID,
		QuestionID:      o.QuestionID,
		Response:        o.ResponseText,
		SimilarityScore: o.SimilarityScore,
		SimilarityError: o.SimilarityError,
		Temperature:     o.Temperature,
		Usage:           o.Usage,
		Timestamp:       o.CreatedAt,
	}
	if o.ProviderModel != nil {
		item.LLMName = o.ProviderModel.Name
	}
	if o.Question != nil {
		item.Question = o.Question.Text
	}
	return item
}

func (h *ObservationHandler) list(c *gin.Context) ([]ObservationItem, int64, Page, bool) {
	page, err := parsePage(c)
	if err != nil {
		BadRequest(c, err.Error())
		return nil, 0, page, false
	}

	observations, total, err := h.reader.ListObservations(c.Request.Context(), repository.ObservationFilter{
		ProviderName: c.Query("llm_name"),
		QuestionID:   c.Query("question_id"),
		Offset:       page.Skip,
		Limit:        page.Limit,
	})
	if err != nil {
		Error(c, err)
		return nil, 0, page, false
	}

	items := make([]ObservationItem, 0, len(observations))
	for _, o := range observations {
		items = append(items, toObservationItem(o))
	}
	return items, total, page, true
}

// ListResponses 按时间顺序列出观测，直接返回数组
// GET /api/responses?skip=0&limit=100
func (h *ObservationHandler) ListResponses(c *gin.Context) {
	items, _, _, ok := h.list(c)
	if !ok {
		return
	}
	c.JSON(200, items)
}

// ListObservations 分页列出观测
// GET /api/v1/observations?skip=0&limit=100&llm_name=&question_id=
func (h *ObservationHandler) ListObservations(c *gin.Context) {
	items, total, page, ok := h.list(c)
	if !ok {
		return
	}
	SuccessWithPage(c, items, total, page)
}
