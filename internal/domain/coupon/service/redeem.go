package service

import (
	"context"
	"meal_coupon/internal/domain/coupon/model"
	"meal_coupon/internal/pkg/worker"
	"time"
)

// RedeemResult 批量核销结果，被拒绝的券记录原因后跳过
type RedeemResult struct {
	Redeemed     []*model.Coupon `json:"redeemed"`
	Skipped      []SkippedCoupon `json:"skipped"`
	SkippedCount int             `json:"skippedCount"`
}

type SkippedCoupon struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

func (r *RedeemResult) skip(id string, err error) {
	r.Skipped = append(r.Skipped, SkippedCoupon{ID: id, Reason: model.ReasonOf(err)})
	r.SkippedCount++
}

func (s *couponService) RedeemOne(ctx context.Context, couponID string, mode model.RedeemStatus, actor string) (*model.Coupon, error) {
	if !mode.Valid() {
		s.metrics.RecordRedemption(string(mode), model.ErrInvalidMode.Reason)
		return nil, model.ErrInvalidMode
	}
	if couponID == "" {
		return nil, model.Validation("missing-coupon-id", "couponId is required")
	}

	coupon, err := s.repo.GetByID(ctx, couponID)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	if err := s.apply(ctx, coupon, now, redeemWith(mode, actor, now)); err != nil {
		if model.KindOf(err) == model.KindIllegalTransition {
			rejected("redeem", couponID, err)
			s.metrics.RecordRedemption(string(mode), model.ReasonOf(err))
		}
		return nil, err
	}

	s.metrics.RecordRedemption(string(mode), "ok")
	return coupon, nil
}

func (s *couponService) RedeemMany(ctx context.Context, couponIDs []string, mode model.RedeemStatus, actor string) (*RedeemResult, error) {
	if !mode.Valid() {
		return nil, model.ErrInvalidMode
	}
	ids := dedupe(couponIDs)
	if len(ids) == 0 {
		return nil, model.ErrEmptySelector
	}

	found, err := s.repo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*model.Coupon, len(found))
	for _, c := range found {
		byID[c.ID] = c
	}

	// 按请求顺序处理，不存在的券直接排除
	coupons := make([]*model.Coupon, 0, len(found))
	var missing []string
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			coupons = append(coupons, c)
		} else {
			missing = append(missing, id)
		}
	}

	now := s.clock()
	result, err := s.redeemBatch(ctx, coupons, mode, redeemWith(mode, actor, now), now)
	if err != nil {
		return nil, err
	}
	for _, id := range missing {
		result.skip(id, model.ErrCouponNotFound)
	}
	return result, nil
}

// RedeemAllActive 核销住户当前 ACTIVE 的全部餐券，可按餐次过滤。mode 为空时按堂食处理
func (s *couponService) RedeemAllActive(ctx context.Context, unitNumber string, mode model.RedeemStatus, actor string, subEvent model.SubEvent) (*RedeemResult, error) {
	if mode == "" {
		mode = model.RedeemDineIn
	}
	if !mode.Valid() {
		return nil, model.ErrInvalidMode
	}
	if subEvent != "" && !subEvent.Valid() {
		return nil, model.ErrInvalidEvent
	}

	owner, err := s.resolveOwner(ctx, unitNumber)
	if err != nil {
		return nil, err
	}

	// 先取全部候选再按校正后的状态筛选，库里的 ACTIVE 可能已经过期
	coupons, err := s.repo.Find(ctx, model.Filter{OwnerID: owner.ID, SubEvent: subEvent})
	if err != nil {
		return nil, err
	}

	now := s.clock()
	redeem := redeemWith(mode, actor, now)
	result, err := s.redeemBatch(ctx, coupons, mode, func(c *model.Coupon) error {
		if c.Status != model.StatusActive {
			return inactiveReason(c)
		}
		return redeem(c)
	}, now)
	if err != nil {
		return nil, err
	}
	if len(result.Redeemed) == 0 {
		return nil, model.ErrNoActiveCoupons
	}
	return result, nil
}

// redeemBatch 并发写入、全部完成后汇总；只有非法迁移会被跳过，其余错误中止整个调用
func (s *couponService) redeemBatch(ctx context.Context, coupons []*model.Coupon, mode model.RedeemStatus, op func(*model.Coupon) error, now time.Time) (*RedeemResult, error) {
	s.metrics.ObserveBatch(len(coupons))

	outcomes := make([]error, len(coupons))
	tasks := make([]worker.Task, len(coupons))
	for i, c := range coupons {
		i, c := i, c
		tasks[i] = func(ctx context.Context) error {
			err := s.apply(ctx, c, now, op)
			if err != nil && model.KindOf(err) == model.KindIllegalTransition {
				outcomes[i] = err
				return nil
			}
			return err
		}
	}

	if err := s.pool.Run(ctx, tasks); err != nil {
		return nil, err
	}

	result := &RedeemResult{Redeemed: make([]*model.Coupon, 0, len(coupons))}
	for i, c := range coupons {
		if outcomes[i] != nil {
			s.metrics.RecordRedemption(string(mode), model.ReasonOf(outcomes[i]))
			result.skip(c.ID, outcomes[i])
			continue
		}
		s.metrics.RecordRedemption(string(mode), "ok")
		result.Redeemed = append(result.Redeemed, c)
	}
	return result, nil
}

func redeemWith(mode model.RedeemStatus, actor string, now time.Time) func(*model.Coupon) error {
	return func(c *model.Coupon) error {
		return c.Redeem(mode, actor, now)
	}
}

// inactiveReason 非 ACTIVE 券被排除的原因
func inactiveReason(c *model.Coupon) error {
	switch c.Status {
	case model.StatusExpired:
		return model.ErrExpired
	case model.StatusRedeemed:
		return model.ErrAlreadyRedeemed
	default:
		return model.ErrNotYetValid
	}
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
