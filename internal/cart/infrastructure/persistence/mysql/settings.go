package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/wyfcoding/ecommerce/internal/cart/domain"
)

type settingsRepository struct{ db *gorm.DB }

// NewSettingsRepository 创建购物车设置仓储
func NewSettingsRepository(db *gorm.DB) domain.SettingsRepository {
	return &settingsRepository{db: db}
}

// Load 读取设置，尚未建行时返回默认值
func (r *settingsRepository) Load(ctx context.Context) (*domain.CartSettings, error) {
	var settings domain.CartSettings
	err := r.db.WithContext(ctx).First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.DefaultCartSettings(), nil
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (r *settingsRepository) Save(ctx context.Context, settings *domain.CartSettings) error {
	return r.db.WithContext(ctx).Save(settings).Error
}
