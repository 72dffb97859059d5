package handler

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
)

// Page skip/limit 分页参数
type Page struct {
	Skip  int
	Limit int
}

// parsePage 解析 skip/limit 查询参数
func parsePage(c *gin.Context) (Page, error) {
	p := Page{Limit: defaultLimit}

	if v := c.Query("skip"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return p, fmt.Errorf("skip must be a non-negative integer")
		}
		p.Skip = n
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxLimit {
			return p, fmt.Errorf("limit must be between 1 and %d", maxLimit)
		}
		p.Limit = n
	}
	return p, nil
}
