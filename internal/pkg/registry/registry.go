package registry

import (
	"fmt"
	"meal_coupon/internal/pkg/config"
	"meal_coupon/pkg/metrics"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// ModuleContext 模块初始化所需的上下文
type ModuleContext struct {
	DB      *gorm.DB
	Redis   *redis.Client
	Router  *gin.Engine
	Config  *config.Config
	Metrics *metrics.Collector

	// shared 模块间共享的服务，由低优先级数字的模块先行提供
	shared map[string]interface{}
}

// Provide 注册一个可供其他模块使用的服务
func (c *ModuleContext) Provide(name string, svc interface{}) {
	if c.shared == nil {
		c.shared = make(map[string]interface{})
	}
	c.shared[name] = svc
}

// Lookup 获取其他模块提供的服务
func (c *ModuleContext) Lookup(name string) (interface{}, error) {
	svc, ok := c.shared[name]
	if !ok {
		return nil, fmt.Errorf("service %q not provided, check module priority", name)
	}
	return svc, nil
}

// Module 模块接口
type Module interface {
	// Name 返回模块名称
	Name() string

	// Init 初始化模块（依赖注入、路由注册等）
	Init(ctx *ModuleContext) error

	// Priority 返回初始化优先级（数字越小越先初始化）
	// 例如：user 模块需要先于 coupon 模块初始化
	Priority() int
}

// moduleRegistry 全局模块注册表
var moduleRegistry = make(map[string]Module)

// Register 注册模块
func Register(module Module) {
	moduleRegistry[module.Name()] = module
}

// GetModules 获取所有已注册的模块
func GetModules() map[string]Module {
	return moduleRegistry
}

// InitModules 按优先级初始化所有模块
func InitModules(ctx *ModuleContext) error {
	modules := make([]Module, 0, len(moduleRegistry))
	for _, m := range moduleRegistry {
		modules = append(modules, m)
	}

	// 优先级相同时按名称排序，保证初始化顺序稳定
	sort.Slice(modules, func(i, j int) bool {
		if modules[i].Priority() != modules[j].Priority() {
			return modules[i].Priority() < modules[j].Priority()
		}
		return modules[i].Name() < modules[j].Name()
	})

	for _, module := range modules {
		if err := module.Init(ctx); err != nil {
			return fmt.Errorf("init module %s: %w", module.Name(), err)
		}
	}

	return nil
}
