package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/Kot-Pawel/squashLeague/internal/dto"
	"github.com/Kot-Pawel/squashLeague/internal/service"
	"github.com/Kot-Pawel/squashLeague/pkg/response"
)

// UserHandler 用户模块 HTTP 处理器
type UserHandler struct {
	userSvc service.UserService
}

// NewUserHandler 创建 UserHandler
func NewUserHandler(userSvc service.UserService) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

// UpdateScreenName 修改昵称
// PUT /api/v1/users/me/screen-name
func (h *UserHandler) UpdateScreenName(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateScreenNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, response.CodeInvalidParam, "参数校验失败")
		return
	}

	user, err := h.userSvc.UpdateScreenName(c.Request.Context(), userID, req.ScreenName)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrScreenNameInvalid):
			response.BadRequest(c, 12001, "昵称不能为空且不超过 50 个字符")
		case errors.Is(err, service.ErrUserNotFound):
			response.NotFound(c, 12002, "用户不存在")
		default:
			response.InternalError(c)
		}
		return
	}

	response.OK(c, user)
}
