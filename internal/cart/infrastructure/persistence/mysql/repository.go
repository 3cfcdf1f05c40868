// Package mysql 提供购物车仓储接口的 MySQL GORM 实现。
package mysql

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/wyfcoding/ecommerce/internal/cart/domain"
)

type cartRepository struct{ db *gorm.DB }

// NewCartRepository 创建购物车仓储
func NewCartRepository(db *gorm.DB) domain.CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) GetByUserID(ctx context.Context, userID string) (*domain.Cart, error) {
	var cart domain.Cart
	err := r.db.WithContext(ctx).Preload("Items").Where("user_id = ?", userID).First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *cartRepository) GetByGuestToken(ctx context.Context, token string) (*domain.Cart, error) {
	var cart domain.Cart
	err := r.db.WithContext(ctx).Preload("Items").Where("guest_token = ?", token).First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// Save 持久化购物车及其明细，并删除已不在聚合中的明细行
func (r *cartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(cart).Error; err != nil {
			return err
		}

		keep := make([]uint, 0, len(cart.Items))
		for i := range cart.Items {
			keep = append(keep, cart.Items[i].ID)
		}
		stale := tx.Where("cart_id = ?", cart.ID)
		if len(keep) > 0 {
			stale = stale.Where("id NOT IN ?", keep)
		}
		return stale.Delete(&domain.CartItem{}).Error
	})
}

func (r *cartRepository) Delete(ctx context.Context, cartID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cart_id = ?", cartID).Delete(&domain.CartItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.Cart{}, cartID).Error
	})
}

func (r *cartRepository) FindExpiredActive(ctx context.Context, now time.Time) ([]*domain.Cart, error) {
	var carts []*domain.Cart
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("status = ?", domain.CartStatusActive).
		Where("is_expired = ?", false).
		Where("expires_at IS NOT NULL AND expires_at <= ?", now).
		Find(&carts).Error
	if err != nil {
		return nil, err
	}
	return carts, nil
}

func (r *cartRepository) FindNearExpiry(ctx context.Context, now, threshold time.Time) ([]*domain.Cart, error) {
	var carts []*domain.Cart
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("status = ?", domain.CartStatusActive).
		Where("is_expired = ?", false).
		Where("expiry_warning_sent = ?", false).
		Where("user_id IS NOT NULL").
		Where("expires_at > ? AND expires_at <= ?", now, threshold).
		Find(&carts).Error
	if err != nil {
		return nil, err
	}
	return carts, nil
}

func (r *cartRepository) MarkWarned(ctx context.Context, cartID uint) error {
	return r.db.WithContext(ctx).
		Model(&domain.Cart{}).
		Where("id = ?", cartID).
		Update("expiry_warning_sent", true).Error
}

func (r *cartRepository) InTx(ctx context.Context, fn func(domain.CartRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&cartRepository{db: tx})
	})
}
