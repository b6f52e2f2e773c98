package common

import (
	"context"
	"meal_coupon/internal/pkg/registry"
	"meal_coupon/pkg/response"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// CommonModule 通用功能模块：健康检查与指标
type CommonModule struct{}

func init() {
	registry.Register(&CommonModule{})
}

func (m *CommonModule) Name() string {
	return "common"
}

func (m *CommonModule) Priority() int {
	return 100 // 最后初始化
}

func (m *CommonModule) Init(ctx *registry.ModuleContext) error {
	ctx.Router.GET("/health", healthHandler(ctx.DB, ctx.Redis))
	if reg := ctx.Metrics.Registry(); reg != nil {
		ctx.Router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	}
	return nil
}

func healthHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := gin.H{"database": "up", "redis": "disabled"}
		healthy := true

		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			status["database"] = "down"
			healthy = false
		}
		if rdb != nil {
			status["redis"] = "up"
			// 缓存不可用时仍可回源，不影响整体状态
			if err := rdb.Ping(ctx).Err(); err != nil {
				status["redis"] = "down"
			}
		}

		if !healthy {
			c.JSON(http.StatusServiceUnavailable, response.Response{
				Code:    response.ErrServerInternal,
				Message: "unhealthy",
				Data:    status,
			})
			return
		}
		response.Success(c, status)
	}
}
