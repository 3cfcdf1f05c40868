package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/wyfcoding/ecommerce/internal/user/domain"
)

type userRepository struct{ db *gorm.DB }

// NewUserRepository 创建用户仓储的 GORM 实现
func NewUserRepository(db *gorm.DB) domain.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByUserID(ctx context.Context, userID string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}
