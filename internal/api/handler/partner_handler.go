package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/Kot-Pawel/squashLeague/internal/dto"
	"github.com/Kot-Pawel/squashLeague/internal/service"
	"github.com/Kot-Pawel/squashLeague/pkg/response"
)

// PartnerHandler 对手匹配 HTTP 处理器
type PartnerHandler struct {
	partnerSvc service.PartnerService
}

// NewPartnerHandler 创建 PartnerHandler
func NewPartnerHandler(partnerSvc service.PartnerService) *PartnerHandler {
	return &PartnerHandler{partnerSvc: partnerSvc}
}

// FindPartners 某天时间重叠的对手
// GET /api/v1/partners?date=YYYY-MM-DD
func (h *PartnerHandler) FindPartners(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var q dto.PartnersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, response.CodeInvalidParam, "date 参数缺失或格式错误")
		return
	}

	result, err := h.partnerSvc.FindPartners(c.Request.Context(), userID, q.Date)
	if err != nil {
		h.handlePartnerError(c, err)
		return
	}

	response.OK(c, result)
}

// GetUpcoming 近期窗口内每天的对手汇总
// GET /api/v1/partners/upcoming?window_days=N
func (h *PartnerHandler) GetUpcoming(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var q dto.UpcomingQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, response.CodeInvalidParam, "window_days 参数无效")
		return
	}

	result, err := h.partnerSvc.GetUpcomingSummary(c.Request.Context(), userID, q.WindowDays)
	if err != nil {
		h.handlePartnerError(c, err)
		return
	}

	response.OK(c, result)
}

func (h *PartnerHandler) handlePartnerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidQuery):
		response.ErrorWithDetails(c, 400, 14001, "查询参数无效", err.Error())
	default:
		response.InternalError(c)
	}
}
