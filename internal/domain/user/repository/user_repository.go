package repository

import (
	"context"
	"meal_coupon/internal/domain/user/model"

	"gorm.io/gorm"
)

// UserRepository 只读用户查询
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByUnitNumber(ctx context.Context, unitNumber string) (*model.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建新的仓库实例
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// GetByID 根据ID获取用户
func (r *userRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByUnitNumber 根据住户单元号获取用户
func (r *userRepository) GetByUnitNumber(ctx context.Context, unitNumber string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("unit_number = ?", unitNumber).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
