package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/Kot-Pawel/squashLeague/internal/dto"
	"github.com/Kot-Pawel/squashLeague/internal/service"
	"github.com/Kot-Pawel/squashLeague/pkg/response"
)

// AvailabilityHandler 可约时间 HTTP 处理器
type AvailabilityHandler struct {
	availabilitySvc service.AvailabilityService
}

// NewAvailabilityHandler 创建 AvailabilityHandler
func NewAvailabilityHandler(availabilitySvc service.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{availabilitySvc: availabilitySvc}
}

// Submit 提交可约时间（与已有记录合并）
// POST /api/v1/availability
func (h *AvailabilityHandler) Submit(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	email, ok := MustGetEmail(c)
	if !ok {
		return
	}

	var req dto.SubmitAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, 400, response.CodeInvalidParam, "参数校验失败", err.Error())
		return
	}

	result, err := h.availabilitySvc.Submit(c.Request.Context(), userID, email, &req)
	if err != nil {
		h.handleAvailabilityError(c, err)
		return
	}

	response.OK(c, result)
}

// GetMine 当前用户今天之后的可约时间
// GET /api/v1/availability/me
func (h *AvailabilityHandler) GetMine(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.availabilitySvc.GetMine(c.Request.Context(), userID)
	if err != nil {
		h.handleAvailabilityError(c, err)
		return
	}

	response.OK(c, result)
}

// DeleteDate 删除某天的可约时间，并取消当天相关的约球申请
// DELETE /api/v1/availability/:date
func (h *AvailabilityHandler) DeleteDate(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.availabilitySvc.DeleteDate(c.Request.Context(), userID, c.Param("date"))
	if err != nil {
		h.handleAvailabilityError(c, err)
		return
	}

	response.OK(c, result)
}

func (h *AvailabilityHandler) handleAvailabilityError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAvailabilityInvalid):
		response.ErrorWithDetails(c, 400, 13001, "可约时间无效", err.Error())
	default:
		response.InternalError(c)
	}
}
