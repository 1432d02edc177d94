package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Kot-Pawel/squashLeague/config"
	"github.com/Kot-Pawel/squashLeague/internal/api/handler"
	"github.com/Kot-Pawel/squashLeague/internal/api/middleware"
	"github.com/Kot-Pawel/squashLeague/pkg/jwt"
	"github.com/Kot-Pawel/squashLeague/pkg/metrics"
	"github.com/Kot-Pawel/squashLeague/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
// rdb、db、m 均可为 nil：黑名单与限流降级放行，健康检查跳过数据库
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, db *gorm.DB, m *metrics.Metrics, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// nil 指针不能直接赋给接口
	var (
		blacklist middleware.TokenBlacklist
		limiter   middleware.RateLimiter
	)
	if rdb != nil {
		blacklist = rdb
		limiter = rdb
	}

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics(m))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", healthHandler(db))
	r.GET("/metrics", gin.WrapH(m.Handler()))

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证，按 IP 限流）
		auth := v1.Group("/auth")
		auth.Use(middleware.RateLimit(limiter, cfg.Server.RateLimit.Limit, cfg.Server.RateLimit.Window))
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, blacklist, logger))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.GetCurrentUser)

			// 用户模块
			authorized.PUT("/users/me/screen-name", h.User.UpdateScreenName)

			// 可约时间
			availability := authorized.Group("/availability")
			{
				availability.POST("", h.Availability.Submit)
				availability.GET("/me", h.Availability.GetMine)
				availability.DELETE("/:date", h.Availability.DeleteDate)
			}

			// 对手匹配
			partners := authorized.Group("/partners")
			{
				partners.GET("", h.Partner.FindPartners)
				partners.GET("/upcoming", h.Partner.GetUpcoming)
			}

			// 约球申请
			matchRequests := authorized.Group("/match-requests")
			{
				matchRequests.POST("", h.MatchRequest.Create)
				matchRequests.GET("", h.MatchRequest.List)
				matchRequests.POST("/:id/respond", h.MatchRequest.Respond)
			}

			// 统计
			authorized.GET("/stats/players", h.Stats.PlayerStats)

			// 导出
			export := authorized.Group("/export")
			{
				export.GET("/match-requests.xlsx", h.Export.ExportMatchRequests)
				export.GET("/matches.ics", h.Export.ExportMatchesICS)
			}
		}
	}

	return r
}

func healthHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}
		sqlDB, err := db.DB()
		if err == nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "ok"})
	}
}
