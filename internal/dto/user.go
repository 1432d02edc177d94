package dto

// ── 用户模块 DTO ──

// UpdateScreenNameRequest 修改昵称请求
type UpdateScreenNameRequest struct {
	ScreenName string `json:"screen_name" binding:"required,min=1,max=50"`
}
