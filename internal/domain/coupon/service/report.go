package service

import (
	"context"
	"meal_coupon/internal/domain/coupon/model"
	"sort"
	"time"
)

// DashboardEntry 单个节庆日/餐次的汇总
type DashboardEntry struct {
	Total            int       `json:"total"`
	Redeemed         int       `json:"redeemed"`
	Expired          int       `json:"expired"`
	TakeAwayApproved int       `json:"takeAwayApproved"`
	ValidFrom        time.Time `json:"validFrom"`
	ValidTo          time.Time `json:"validTo"`
}

type Dashboard map[model.Event]map[model.SubEvent]*DashboardEntry

// EODCounts 日终统计
type EODCounts struct {
	DineIn   int `json:"dineIn"`
	TakeAway int `json:"takeAway"`
	Expired  int `json:"expired"`
}

type EODReport map[model.SubEvent]*EODCounts

// Dashboard 直接读取当前存储状态，不做校正，也不缓存
func (s *couponService) Dashboard(ctx context.Context, unitNumber string) (Dashboard, error) {
	owner, err := s.resolveOwner(ctx, unitNumber)
	if err != nil {
		return nil, err
	}
	facts, err := s.reports.Facts(ctx, model.Filter{OwnerID: owner.ID})
	if err != nil {
		return nil, err
	}
	return BuildDashboard(facts), nil
}

// EODReport unitNumber 为空时统计全部住户
func (s *couponService) EODReport(ctx context.Context, event model.Event, unitNumber string) (EODReport, error) {
	if !event.Valid() {
		return nil, model.ErrInvalidEvent
	}

	filter := model.Filter{Event: event}
	if unitNumber != "" {
		owner, err := s.resolveOwner(ctx, unitNumber)
		if err != nil {
			return nil, err
		}
		filter.OwnerID = owner.ID
	}

	facts, err := s.reports.Facts(ctx, filter)
	if err != nil {
		return nil, err
	}
	return BuildEODReport(event, facts), nil
}

func (s *couponService) ListDistinctUnits(ctx context.Context) ([]string, error) {
	units, err := s.reports.DistinctUnits(ctx)
	if err != nil {
		return nil, err
	}
	sort.Strings(units)
	return units, nil
}

// BuildDashboard 单次遍历聚合
func BuildDashboard(facts []model.CouponFact) Dashboard {
	out := make(Dashboard)
	for _, f := range facts {
		bySub, ok := out[f.Event]
		if !ok {
			bySub = make(map[model.SubEvent]*DashboardEntry)
			out[f.Event] = bySub
		}
		e, ok := bySub[f.SubEvent]
		if !ok {
			e = &DashboardEntry{ValidFrom: f.ValidFrom, ValidTo: f.ValidTo}
			bySub[f.SubEvent] = e
		}

		e.Total++
		switch f.Status {
		case model.StatusRedeemed:
			e.Redeemed++
		case model.StatusExpired:
			e.Expired++
		}
		if f.TakeAwayStatus == model.TakeAwayApproved {
			e.TakeAwayApproved++
		}
		if f.ValidFrom.Before(e.ValidFrom) {
			e.ValidFrom = f.ValidFrom
		}
		if f.ValidTo.After(e.ValidTo) {
			e.ValidTo = f.ValidTo
		}
	}
	return out
}

// BuildEODReport 已核销的券按核销方式计数，过期券单独计数
func BuildEODReport(event model.Event, facts []model.CouponFact) EODReport {
	out := make(EODReport)
	for _, f := range facts {
		if f.Event != event {
			continue
		}
		counts, ok := out[f.SubEvent]
		if !ok {
			counts = &EODCounts{}
		}

		switch {
		case f.Status == model.StatusRedeemed && f.RedeemStatus == model.RedeemDineIn:
			counts.DineIn++
		case f.Status == model.StatusRedeemed && f.RedeemStatus == model.RedeemTakeAway:
			counts.TakeAway++
		case f.Status == model.StatusExpired:
			counts.Expired++
		default:
			continue
		}
		out[f.SubEvent] = counts
	}
	return out
}
