package service

import (
	"context"
	"errors"
	"meal_coupon/internal/domain/coupon/model"
	"meal_coupon/internal/domain/coupon/repository"
	userModel "meal_coupon/internal/domain/user/model"
	userService "meal_coupon/internal/domain/user/service"
	"meal_coupon/internal/pkg/config"
	"meal_coupon/internal/pkg/worker"
	"meal_coupon/pkg/logger"
	"meal_coupon/pkg/metrics"
	"time"

	"go.uber.org/zap"
)

// SystemActor 时间驱动的状态校正写入的操作人
const SystemActor = "system:reconciler"

type CouponService interface {
	CreateCoupon(ctx context.Context, in CreateCouponInput) (*model.Coupon, error)
	ListForUnit(ctx context.Context, unitNumber string) ([]*model.Coupon, error)

	ReconcileForUnit(ctx context.Context, unitNumber string) (*ReconcileResult, error)
	ReconcileForEventSubEvent(ctx context.Context, unitNumber string, event model.Event, subEvent model.SubEvent) (*ReconcileResult, error)

	RedeemOne(ctx context.Context, couponID string, mode model.RedeemStatus, actor string) (*model.Coupon, error)
	RedeemMany(ctx context.Context, couponIDs []string, mode model.RedeemStatus, actor string) (*RedeemResult, error)
	RedeemAllActive(ctx context.Context, unitNumber string, mode model.RedeemStatus, actor string, subEvent model.SubEvent) (*RedeemResult, error)

	TakeAwayAction(ctx context.Context, couponID string, action model.TakeAwayAction, actor string) (*model.Coupon, error)

	Dashboard(ctx context.Context, unitNumber string) (Dashboard, error)
	EODReport(ctx context.Context, event model.Event, unitNumber string) (EODReport, error)
	ListDistinctUnits(ctx context.Context) ([]string, error)
}

// Option 可选依赖
type Option func(*couponService)

// WithClock 替换时钟，测试使用
func WithClock(now func() time.Time) Option {
	return func(s *couponService) { s.now = now }
}

// WithMetrics 启用业务指标
func WithMetrics(m *metrics.Collector) Option {
	return func(s *couponService) { s.metrics = m }
}

type couponService struct {
	repo    repository.CouponRepository
	reports repository.ReportRepository
	users   userService.UserDirectory
	cfg     config.CouponConfig
	loc     *time.Location
	now     func() time.Time
	pool    *worker.WorkerPool
	metrics *metrics.Collector
}

func NewCouponService(
	repo repository.CouponRepository,
	reports repository.ReportRepository,
	users userService.UserDirectory,
	cfg config.CouponConfig,
	opts ...Option,
) CouponService {
	loc, err := cfg.Location()
	if err != nil {
		logger.L().Warn("invalid coupon timezone, falling back to UTC", zap.String("timezone", cfg.TimeZone), zap.Error(err))
		loc = time.UTC
	}

	s := &couponService{
		repo:    repo,
		reports: reports,
		users:   users,
		cfg:     cfg,
		loc:     loc,
		now:     time.Now,
		pool:    worker.NewWorkerPool(cfg.BatchConcurrency),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// clock 返回统一时区下的当前时间，每次调用只换算一次
func (s *couponService) clock() time.Time {
	return s.now().In(s.loc)
}

// resolveOwner 单元号只是用户的派生索引，餐券始终按 ownerId 关联
func (s *couponService) resolveOwner(ctx context.Context, unitNumber string) (*userModel.User, error) {
	if unitNumber == "" {
		return nil, model.Validation("missing-unit", "unitNumber is required")
	}
	user, err := s.users.FindByUnit(ctx, unitNumber)
	if err != nil {
		if errors.Is(err, userService.ErrUserNotFound) {
			return nil, model.ErrUserNotFound
		}
		return nil, model.Persistence("find user", err)
	}
	return user, nil
}

// apply 先按时间校正状态，再执行业务迁移，最后按版本号写回一次。
// 迁移被拒绝时，校正产生的变化仍然落库。
func (s *couponService) apply(ctx context.Context, c *model.Coupon, now time.Time, op func(c *model.Coupon) error) error {
	from := c.Status
	reconciled := s.markReconciled(c, now)

	opErr := op(c)
	if opErr != nil && !reconciled {
		return opErr
	}

	if err := s.persist(ctx, c, from); err != nil {
		if opErr != nil && errors.Is(err, model.ErrConcurrentUpdate) {
			return opErr
		}
		return err
	}
	return opErr
}

// markReconciled 校正状态并记录审计字段
func (s *couponService) markReconciled(c *model.Coupon, now time.Time) bool {
	if !c.Reconcile(now) {
		return false
	}
	c.LastUpdatedBy = SystemActor
	c.LastUpdatedAt = now
	return true
}

// persist 校验不变量后按版本号写回
func (s *couponService) persist(ctx context.Context, c *model.Coupon, from model.Status) error {
	if err := c.CheckInvariants(); err != nil {
		logger.L().Error("coupon invariant violated", zap.String("coupon_id", c.ID), zap.Error(err))
		return err
	}

	start := time.Now()
	err := s.repo.Save(ctx, c)
	s.metrics.RecordDBQuery("save_coupon", time.Since(start), err)
	if err != nil {
		if model.KindOf(err) == model.KindPersistence {
			logger.L().Error("save coupon failed", zap.String("coupon_id", c.ID), zap.Error(err))
		}
		return err
	}

	s.metrics.RecordTransition(string(from), string(c.Status))
	return nil
}

// rejected 记录业务拒绝
func rejected(op, couponID string, err error) {
	logger.L().Warn("coupon operation rejected",
		zap.String("op", op),
		zap.String("coupon_id", couponID),
		zap.String("reason", model.ReasonOf(err)),
	)
}
