package repository

import (
	"context"
	"errors"
	"meal_coupon/internal/domain/coupon/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// PostgreSQL 错误码
const (
	uniqueViolation = "23505"
	// 非法的 uuid 文本
	invalidTextRepresentation = "22P02"
)

type CouponRepository interface {
	Create(ctx context.Context, coupon *model.Coupon) error
	GetByID(ctx context.Context, id string) (*model.Coupon, error)
	GetByIDs(ctx context.Context, ids []string) ([]*model.Coupon, error)
	Find(ctx context.Context, filter model.Filter) ([]*model.Coupon, error)
	// Save 按版本号写回，版本不一致时返回 ErrConcurrentUpdate
	Save(ctx context.Context, coupon *model.Coupon) error
}

type couponRepository struct {
	db *gorm.DB
}

func NewCouponRepository(db *gorm.DB) CouponRepository {
	return &couponRepository{db: db}
}

func (r *couponRepository) Create(ctx context.Context, coupon *model.Coupon) error {
	err := r.db.WithContext(ctx).Create(coupon).Error
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return model.ErrCouponExists
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return model.ErrCouponExists
	}
	return model.Persistence("create coupon", err)
}

func (r *couponRepository) GetByID(ctx context.Context, id string) (*model.Coupon, error) {
	var coupon model.Coupon
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&coupon).Error; err != nil {
		var pgErr *pgconn.PgError
		if errors.Is(err, gorm.ErrRecordNotFound) || (errors.As(err, &pgErr) && pgErr.Code == invalidTextRepresentation) {
			return nil, model.ErrCouponNotFound
		}
		return nil, model.Persistence("get coupon", err)
	}
	return &coupon, nil
}

// GetByIDs 只返回存在的券；格式不合法的 id 不可能存在，直接排除
func (r *couponRepository) GetByIDs(ctx context.Context, ids []string) ([]*model.Coupon, error) {
	var coupons []*model.Coupon
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := uuid.Parse(id); err == nil {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return coupons, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", valid).Find(&coupons).Error; err != nil {
		return nil, model.Persistence("get coupons", err)
	}
	return coupons, nil
}

// Find 按条件查询，结果按生效时间排序
func (r *couponRepository) Find(ctx context.Context, filter model.Filter) ([]*model.Coupon, error) {
	query := r.db.WithContext(ctx).Model(&model.Coupon{})
	if filter.OwnerID != "" {
		query = query.Where("owner_id = ?", filter.OwnerID)
	}
	if filter.Unit != "" {
		query = query.Where("unit_number = ?", filter.Unit)
	}
	if filter.Event != "" {
		query = query.Where("event = ?", filter.Event)
	}
	if filter.SubEvent != "" {
		query = query.Where("sub_event = ?", filter.SubEvent)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var coupons []*model.Coupon
	if err := query.Order("valid_from ASC").Order("id ASC").Find(&coupons).Error; err != nil {
		return nil, model.Persistence("find coupons", err)
	}
	return coupons, nil
}

// Save 乐观锁更新：只有版本号未变时才写入
func (r *couponRepository) Save(ctx context.Context, coupon *model.Coupon) error {
	result := r.db.WithContext(ctx).Model(&model.Coupon{}).
		Where("id = ? AND version = ?", coupon.ID, coupon.Version).
		Updates(map[string]interface{}{
			"status":           coupon.Status,
			"redeem_status":    coupon.RedeemStatus,
			"take_away_status": coupon.TakeAwayStatus,
			"last_updated_at":  coupon.LastUpdatedAt,
			"last_updated_by":  coupon.LastUpdatedBy,
			"version":          gorm.Expr("version + 1"),
		})

	if result.Error != nil {
		return model.Persistence("save coupon", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrConcurrentUpdate
	}
	coupon.Version++
	return nil
}
