package user

import (
	"meal_coupon/internal/domain/user/repository"
	"meal_coupon/internal/domain/user/service"
	"meal_coupon/internal/pkg/registry"
	"meal_coupon/pkg/cache"
)

// DirectoryService 用户目录在模块上下文中的名称
const DirectoryService = "user.directory"

// UserModule 用户模块，住户数据由外部系统维护，这里只提供查询
type UserModule struct{}

func init() {
	// 自动注册模块
	registry.Register(&UserModule{})
}

func (m *UserModule) Name() string {
	return "user"
}

func (m *UserModule) Priority() int {
	// 餐券模块依赖用户目录
	return 1
}

func (m *UserModule) Init(ctx *registry.ModuleContext) error {
	userRepo := repository.NewUserRepository(ctx.DB)
	directory := service.NewUserDirectory(userRepo)

	if ctx.Redis != nil {
		mode := ""
		ttl := service.DefaultUserCacheTTL
		if ctx.Config != nil {
			mode = ctx.Config.Server.Mode
			ttl = ctx.Config.Coupon.UserCacheTTL
		}
		directory = service.NewCachedUserDirectory(directory, cache.NewRedisCache(ctx.Redis, mode), ttl)
	}

	ctx.Provide(DirectoryService, directory)
	return nil
}
