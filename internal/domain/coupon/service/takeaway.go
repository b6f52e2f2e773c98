package service

import (
	"context"
	"meal_coupon/internal/domain/coupon/model"
)

// TakeAwayAction 推进外带审批：request / approve / reject
func (s *couponService) TakeAwayAction(ctx context.Context, couponID string, action model.TakeAwayAction, actor string) (*model.Coupon, error) {
	switch action {
	case model.TakeAwayRequest, model.TakeAwayApprove, model.TakeAwayReject:
	default:
		return nil, model.ErrInvalidAction
	}

	coupon, err := s.repo.GetByID(ctx, couponID)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	err = s.apply(ctx, coupon, now, func(c *model.Coupon) error {
		return c.ApplyTakeAway(action, actor, now)
	})
	if err != nil {
		if model.KindOf(err) == model.KindIllegalTransition {
			rejected("take-away:"+string(action), couponID, err)
			s.metrics.RecordTakeAway(string(action), model.ReasonOf(err))
		}
		return nil, err
	}

	s.metrics.RecordTakeAway(string(action), "ok")
	return coupon, nil
}
