package coupon

import (
	"fmt"
	"meal_coupon/internal/domain/coupon/handler"
	"meal_coupon/internal/domain/coupon/repository"
	"meal_coupon/internal/domain/coupon/service"
	"meal_coupon/internal/domain/user"
	userService "meal_coupon/internal/domain/user/service"
	"meal_coupon/internal/pkg/config"
	"meal_coupon/internal/pkg/middleware"
	"meal_coupon/internal/pkg/registry"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

// CouponModule 餐券模块
type CouponModule struct{}

func init() {
	registry.Register(&CouponModule{})
}

func (m *CouponModule) Name() string {
	return "coupon"
}

func (m *CouponModule) Priority() int {
	return 10
}

func (m *CouponModule) Init(ctx *registry.ModuleContext) error {
	svc, err := ctx.Lookup(user.DirectoryService)
	if err != nil {
		return err
	}
	directory, ok := svc.(userService.UserDirectory)
	if !ok {
		return fmt.Errorf("%s has unexpected type %T", user.DirectoryService, svc)
	}

	// 报表走 sqlx，与 gorm 共用连接池
	sqlDB, err := ctx.DB.DB()
	if err != nil {
		return err
	}

	cfg := config.GlobalConfig
	if ctx.Config != nil {
		cfg = *ctx.Config
	}

	// 1. 依赖注入
	cRepo := repository.NewCouponRepository(ctx.DB)
	rRepo := repository.NewReportRepository(sqlx.NewDb(sqlDB, "pgx"))
	cService := service.NewCouponService(cRepo, rRepo, directory, cfg.Coupon, service.WithMetrics(ctx.Metrics))
	cHandler := handler.NewCouponHandler(cService)

	// 2. 路由注册
	setupRoutes(ctx.Router, cHandler, cfg.JWT.Secret)

	return nil
}

func setupRoutes(r *gin.Engine, h *handler.CouponHandler, secret string) {
	g := r.Group("/coupons")
	g.Use(middleware.AuthMiddleware(secret))
	{
		g.GET("/unit/:unit", h.ListForUnit)

		g.POST("/reconcile", h.ReconcileForUnit)
		g.POST("/reconcile/event", h.ReconcileForEventSubEvent)

		g.POST("/redeem", h.RedeemOne)
		g.POST("/redeem/batch", h.RedeemMany)
		g.POST("/redeem/all", h.RedeemAllActive)

		g.POST("/:id/take-away", h.TakeAwayAction)

		g.GET("/dashboard/:unit", h.Dashboard)
		g.GET("/report/eod/:event", h.EODReport)
		g.GET("/units", h.ListDistinctUnits)

		// 需要运营权限的路由组
		operator := g.Group("")
		operator.Use(middleware.OperatorMiddleware())
		{
			operator.POST("", h.CreateCoupon)
		}
	}
}
