package service

import (
	"context"
	"errors"
	"meal_coupon/internal/domain/coupon/model"
	"meal_coupon/pkg/logger"

	"go.uber.org/zap"
)

// ReconcileResult 状态校正统计
type ReconcileResult struct {
	Checked int `json:"checked"`
	Updated int `json:"updated"`
}

func (s *couponService) ReconcileForUnit(ctx context.Context, unitNumber string) (*ReconcileResult, error) {
	owner, err := s.resolveOwner(ctx, unitNumber)
	if err != nil {
		return nil, err
	}

	coupons, err := s.repo.Find(ctx, model.Filter{OwnerID: owner.ID})
	if err != nil {
		return nil, err
	}
	return s.reconcileAll(ctx, coupons)
}

func (s *couponService) ReconcileForEventSubEvent(ctx context.Context, unitNumber string, event model.Event, subEvent model.SubEvent) (*ReconcileResult, error) {
	if !event.Valid() || !subEvent.Valid() {
		return nil, model.ErrInvalidEvent
	}
	owner, err := s.resolveOwner(ctx, unitNumber)
	if err != nil {
		return nil, err
	}

	coupons, err := s.repo.Find(ctx, model.Filter{OwnerID: owner.ID, Event: event, SubEvent: subEvent})
	if err != nil {
		return nil, err
	}
	return s.reconcileAll(ctx, coupons)
}

// reconcileAll 顺序校正，保证统计结果确定。
// 版本冲突说明其他请求已写入更新的状态，不计入统计，并用库中的最新行替换内存副本。
func (s *couponService) reconcileAll(ctx context.Context, coupons []*model.Coupon) (*ReconcileResult, error) {
	now := s.clock()
	result := &ReconcileResult{Checked: len(coupons)}

	for _, c := range coupons {
		from := c.Status
		if !s.markReconciled(c, now) {
			continue
		}
		err := s.persist(ctx, c, from)
		if errors.Is(err, model.ErrConcurrentUpdate) {
			logger.L().Debug("reconcile lost version race", zap.String("coupon_id", c.ID))
			fresh, err := s.repo.GetByID(ctx, c.ID)
			if err != nil {
				return nil, err
			}
			*c = *fresh
			continue
		}
		if err != nil {
			return nil, err
		}
		result.Updated++
	}
	return result, nil
}
