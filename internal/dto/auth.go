package dto

// ── 认证模块 DTO ──

// RegisterRequest 注册请求
type RegisterRequest struct {
	ScreenName string `json:"screen_name" binding:"required,min=1,max=50"`
	Email      string `json:"email"       binding:"required,email,max=255"`
	Password   string `json:"password"    binding:"required,min=8,max=72"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshTokenRequest 刷新 Token 请求
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// LogoutRequest 登出请求；携带 refresh_token 时一并作废
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}
