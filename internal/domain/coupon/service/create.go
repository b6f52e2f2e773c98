package service

import (
	"context"
	"errors"
	"meal_coupon/internal/domain/coupon/model"
	userService "meal_coupon/internal/domain/user/service"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// CreateCouponInput 发券参数。单元号从用户信息复制，不由调用方传入
type CreateCouponInput struct {
	Nomenclature   string         `json:"nomenclature" validate:"required,max=100"`
	OwnerID        string         `json:"ownerId" validate:"required,uuid"`
	SubscriptionID string         `json:"subscriptionId" validate:"required"`
	Event          model.Event    `json:"event" validate:"required,oneof=SAPTAMI ASTAMI NABAMI DASHAMI"`
	SubEvent       model.SubEvent `json:"subEvent" validate:"required,oneof=BREAKFAST LUNCH DINNER"`
	MealType       model.MealType `json:"mealType" validate:"required,oneof=Veg NonVeg"`
	SessionYear    int            `json:"sessionYear"`
	ValidFrom      time.Time      `json:"validFrom" validate:"required"`
	ValidTo        time.Time      `json:"validTo" validate:"required"`
	CreatedBy      string         `json:"createdBy"`
}

func (s *couponService) CreateCoupon(ctx context.Context, in CreateCouponInput) (*model.Coupon, error) {
	if err := validate.Struct(in); err != nil {
		return nil, model.Validation("invalid-input", err.Error())
	}
	if in.ValidFrom.After(in.ValidTo) {
		return nil, model.ErrInvalidWindow
	}

	now := s.clock()
	year := s.cfg.CurrentSessionYear(now, s.loc)
	if in.SessionYear == 0 {
		in.SessionYear = year
	}
	if in.SessionYear != year {
		return nil, model.ErrWrongSessionYear
	}

	owner, err := s.users.FindByID(ctx, in.OwnerID)
	if err != nil {
		if errors.Is(err, userService.ErrUserNotFound) {
			return nil, model.ErrUserNotFound
		}
		return nil, model.Persistence("find user", err)
	}

	coupon := &model.Coupon{
		Nomenclature:   in.Nomenclature,
		OwnerID:        owner.ID,
		UnitNumber:     owner.UnitNumber,
		SubscriptionID: in.SubscriptionID,
		Event:          in.Event,
		SubEvent:       in.SubEvent,
		MealType:       in.MealType,
		SessionYear:    in.SessionYear,
		ValidFrom:      in.ValidFrom,
		ValidTo:        in.ValidTo,
		Status:         model.StatusPending,
		RedeemStatus:   model.RedeemNA,
		TakeAwayStatus: model.TakeAwayNA,
		LastUpdatedAt:  now,
		LastUpdatedBy:  in.CreatedBy,
		Version:        1,
	}
	coupon.Reconcile(now)

	if err := coupon.CheckInvariants(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, coupon); err != nil {
		return nil, err
	}
	return coupon, nil
}

// ListForUnit 返回住户的全部餐券（先校正状态），按生效时间排序
func (s *couponService) ListForUnit(ctx context.Context, unitNumber string) ([]*model.Coupon, error) {
	owner, err := s.resolveOwner(ctx, unitNumber)
	if err != nil {
		return nil, err
	}

	coupons, err := s.repo.Find(ctx, model.Filter{OwnerID: owner.ID})
	if err != nil {
		return nil, err
	}

	if _, err := s.reconcileAll(ctx, coupons); err != nil {
		return nil, err
	}

	sort.SliceStable(coupons, func(i, j int) bool {
		return coupons[i].ValidFrom.Before(coupons[j].ValidFrom)
	})
	return coupons, nil
}
