package repository

import (
	"context"
	"meal_coupon/internal/domain/coupon/model"
	"strings"

	"github.com/jmoiron/sqlx"
)

// ReportRepository 报表只读查询，直接走 SQL 投影，不加载完整实体
type ReportRepository interface {
	Facts(ctx context.Context, filter model.Filter) ([]model.CouponFact, error)
	DistinctUnits(ctx context.Context) ([]string, error)
}

type reportRepository struct {
	db *sqlx.DB
}

func NewReportRepository(db *sqlx.DB) ReportRepository {
	return &reportRepository{db: db}
}

const factColumns = `unit_number, event, sub_event, status, redeem_status, take_away_status, valid_from, valid_to`

func (r *reportRepository) Facts(ctx context.Context, filter model.Filter) ([]model.CouponFact, error) {
	conds := []string{"deleted_at IS NULL"}
	var args []interface{}
	if filter.OwnerID != "" {
		conds = append(conds, "owner_id = ?")
		args = append(args, filter.OwnerID)
	}
	if filter.Unit != "" {
		conds = append(conds, "unit_number = ?")
		args = append(args, filter.Unit)
	}
	if filter.Event != "" {
		conds = append(conds, "event = ?")
		args = append(args, string(filter.Event))
	}
	if filter.SubEvent != "" {
		conds = append(conds, "sub_event = ?")
		args = append(args, string(filter.SubEvent))
	}
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(filter.Status))
	}

	query := r.db.Rebind("SELECT " + factColumns + " FROM coupons WHERE " + strings.Join(conds, " AND "))

	var facts []model.CouponFact
	if err := r.db.SelectContext(ctx, &facts, query, args...); err != nil {
		return nil, model.Persistence("load coupon facts", err)
	}
	return facts, nil
}

func (r *reportRepository) DistinctUnits(ctx context.Context) ([]string, error) {
	var units []string
	err := r.db.SelectContext(ctx, &units,
		"SELECT DISTINCT unit_number FROM coupons WHERE deleted_at IS NULL ORDER BY unit_number")
	if err != nil {
		return nil, model.Persistence("list units", err)
	}
	return units, nil
}
