package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Kot-Pawel/squashLeague/internal/service"
	"github.com/Kot-Pawel/squashLeague/pkg/response"
)

// StatsHandler 球员统计 HTTP 处理器
type StatsHandler struct {
	statsSvc service.StatsService
}

// NewStatsHandler 创建 StatsHandler
func NewStatsHandler(statsSvc service.StatsService) *StatsHandler {
	return &StatsHandler{statsSvc: statsSvc}
}

// PlayerStats 球员场次统计
// GET /api/v1/stats/players
func (h *StatsHandler) PlayerStats(c *gin.Context) {
	result, err := h.statsSvc.PlayerStats(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}
