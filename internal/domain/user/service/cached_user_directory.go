package service

import (
	"context"
	"errors"
	"meal_coupon/internal/domain/user/model"
	"meal_coupon/pkg/cache"
	"meal_coupon/pkg/logger"
	"time"

	"go.uber.org/zap"
)

// 缓存键常量
const (
	UserUnitCacheKeyPrefix = "user:unit:"
	UserIDCacheKeyPrefix   = "user:id:"
	DefaultUserCacheTTL    = 10 * time.Minute
)

// CachedUserDirectory 带缓存的用户目录，只缓存命中的用户
type CachedUserDirectory struct {
	next  UserDirectory
	cache cache.CacheService
	ttl   time.Duration
}

// NewCachedUserDirectory 创建带缓存的用户目录
func NewCachedUserDirectory(next UserDirectory, c cache.CacheService, ttl time.Duration) UserDirectory {
	if ttl <= 0 {
		ttl = DefaultUserCacheTTL
	}
	return &CachedUserDirectory{next: next, cache: c, ttl: ttl}
}

// FindByUnit 按单元号查找（带缓存）
func (d *CachedUserDirectory) FindByUnit(ctx context.Context, unitNumber string) (*model.User, error) {
	return d.lookup(ctx, UserUnitCacheKeyPrefix+unitNumber, func() (*model.User, error) {
		return d.next.FindByUnit(ctx, unitNumber)
	})
}

// FindByID 按ID查找（带缓存）
func (d *CachedUserDirectory) FindByID(ctx context.Context, id string) (*model.User, error) {
	return d.lookup(ctx, UserIDCacheKeyPrefix+id, func() (*model.User, error) {
		return d.next.FindByID(ctx, id)
	})
}

func (d *CachedUserDirectory) lookup(ctx context.Context, key string, load func() (*model.User, error)) (*model.User, error) {
	var user model.User
	err := d.cache.Get(ctx, key, &user)
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		// 缓存故障不影响业务，回源查询
		logger.L().Warn("user cache get failed", zap.String("key", key), zap.Error(err))
	}

	found, err := load()
	if err != nil {
		return nil, err
	}

	if err := d.cache.Set(ctx, key, found, d.ttl); err != nil {
		logger.L().Warn("user cache set failed", zap.String("key", key), zap.Error(err))
	}
	return found, nil
}
