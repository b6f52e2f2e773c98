package service

import (
	"context"
	"errors"
	"meal_coupon/internal/domain/user/model"
	"meal_coupon/internal/domain/user/repository"

	"gorm.io/gorm"
)

// ErrUserNotFound 用户不存在
var ErrUserNotFound = errors.New("user not found")

// UserDirectory 按单元号或ID查找用户，供餐券模块使用
type UserDirectory interface {
	FindByUnit(ctx context.Context, unitNumber string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
}

type userDirectory struct {
	repo repository.UserRepository
}

// NewUserDirectory 创建用户目录服务
func NewUserDirectory(repo repository.UserRepository) UserDirectory {
	return &userDirectory{repo: repo}
}

func (d *userDirectory) FindByUnit(ctx context.Context, unitNumber string) (*model.User, error) {
	user, err := d.repo.GetByUnitNumber(ctx, unitNumber)
	return user, translate(err)
}

func (d *userDirectory) FindByID(ctx context.Context, id string) (*model.User, error) {
	user, err := d.repo.GetByID(ctx, id)
	return user, translate(err)
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	return err
}
