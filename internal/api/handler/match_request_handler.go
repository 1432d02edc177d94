package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Kot-Pawel/squashLeague/internal/dto"
	"github.com/Kot-Pawel/squashLeague/internal/service"
	"github.com/Kot-Pawel/squashLeague/pkg/response"
)

// MatchRequestHandler 约球申请 HTTP 处理器
type MatchRequestHandler struct {
	matchSvc service.MatchRequestService
}

// NewMatchRequestHandler 创建 MatchRequestHandler
func NewMatchRequestHandler(matchSvc service.MatchRequestService) *MatchRequestHandler {
	return &MatchRequestHandler{matchSvc: matchSvc}
}

// Create 发起约球申请
// POST /api/v1/match-requests
func (h *MatchRequestHandler) Create(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateMatchRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, response.CodeInvalidParam, "参数校验失败", err.Error())
		return
	}

	result, err := h.matchSvc.Create(c.Request.Context(), userID, &req)
	if err != nil {
		// 重复申请返回已存在的那一条
		if errors.Is(err, service.ErrMatchRequestDuplicate) {
			response.ErrorWithData(c, http.StatusConflict, 15002, "相同的约球申请已存在", result)
			return
		}
		h.handleMatchRequestError(c, err)
		return
	}

	response.Created(c, result)
}

// Respond 接受或拒绝约球申请
// POST /api/v1/match-requests/:id/respond
func (h *MatchRequestHandler) Respond(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.RespondMatchRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, response.CodeInvalidParam, "action 须为 accept 或 reject")
		return
	}

	result, err := h.matchSvc.Respond(c.Request.Context(), c.Param("id"), userID, req.Accept())
	if err != nil {
		h.handleMatchRequestError(c, err)
		return
	}

	response.OK(c, result)
}

// List 当前用户今天及以后的约球申请（按状态分组）
// GET /api/v1/match-requests
func (h *MatchRequestHandler) List(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.matchSvc.ListActive(c.Request.Context(), userID)
	if err != nil {
		h.handleMatchRequestError(c, err)
		return
	}

	response.OK(c, result)
}

func (h *MatchRequestHandler) handleMatchRequestError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrMatchRequestSelf):
		response.BadRequest(c, 15001, "不能向自己发起约球申请")
	case errors.Is(err, service.ErrMatchRequestInvalid):
		response.ErrorWithDetails(c, http.StatusBadRequest, 15003, "约球日期或时间段无效", err.Error())
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 15004, "用户不存在")
	case errors.Is(err, service.ErrMatchRequestNotFound):
		response.NotFound(c, 15005, "约球申请不存在")
	case errors.Is(err, service.ErrMatchRequestForbidden):
		response.Forbidden(c, 15006, "只有被邀请方可以响应约球申请")
	case errors.Is(err, service.ErrMatchRequestInvalidTransition):
		response.Conflict(c, 15007, "约球申请已处理，无法再次响应")
	default:
		response.InternalError(c)
	}
}
