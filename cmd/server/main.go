package main

import (
	"context"
	"errors"
	"meal_coupon/internal/pkg/config"
	"meal_coupon/internal/pkg/middleware"
	"meal_coupon/internal/pkg/registry"
	"meal_coupon/pkg/database"
	"meal_coupon/pkg/logger"
	"meal_coupon/pkg/metrics"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	// 模块通过 init 自注册
	_ "meal_coupon/internal/domain/common"
	_ "meal_coupon/internal/domain/coupon"
	_ "meal_coupon/internal/domain/user"
)

func main() {
	config.LoadConfig()
	cfg := &config.GlobalConfig

	log := logger.InitLogger(logger.Options{
		File:   cfg.Log.File,
		Level:  cfg.Log.Level,
		IsProd: cfg.App.Env == "prod",
	})
	defer logger.Sync()

	db, err := database.InitDatabase(cfg.Database, cfg.App.Debug)
	if err != nil {
		log.Fatal("Failed to connect database", zap.Error(err))
	}

	// Redis 只用于用户目录缓存，连接失败时降级为直接查库
	ctx := context.Background()
	rdb, err := database.InitRedis(ctx, cfg.Redis)
	if err != nil {
		log.Warn("Redis unavailable, user directory cache disabled", zap.Error(err))
		rdb = nil
	}

	collector := metrics.NewCollector()

	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.TraceMiddleware())
	r.Use(middleware.LoggerMiddleware())
	r.Use(middleware.MetricsMiddleware(collector))
	r.Use(newCors(cfg.Server.CorsOrigins))
	r.Use(middleware.RateLimitMiddleware(
		middleware.NewIPRateLimiter(rate.Limit(cfg.Server.RateLimit), cfg.Server.RateBurst),
	))

	moduleCtx := &registry.ModuleContext{
		DB:      db,
		Redis:   rdb,
		Router:  r,
		Config:  cfg,
		Metrics: collector,
	}
	if err := registry.InitModules(moduleCtx); err != nil {
		log.Fatal("Failed to init modules", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Starting meal coupon service", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start service", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down service...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Service forced to shutdown", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	if rdb != nil {
		_ = rdb.Close()
	}

	log.Info("Service exited")
}

func newCors(origins []string) gin.HandlerFunc {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Trace-ID"},
		ExposeHeaders: []string{"Content-Length", "X-Trace-ID"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
		c.AllowCredentials = true
	}
	return cors.New(c)
}
