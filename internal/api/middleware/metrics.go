package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Kot-Pawel/squashLeague/pkg/metrics"
)

// Metrics 请求计数与耗时；路由按注册模板聚合，避免路径参数撑爆标签
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		m.ObserveHTTP(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
