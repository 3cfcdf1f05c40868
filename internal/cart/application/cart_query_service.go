package application

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/wyfcoding/ecommerce/internal/cart/domain"
)

// CartQueryService 处理购物车读操作
type CartQueryService struct {
	repo domain.CartRepository
}

// NewCartQueryService 创建购物车查询服务
func NewCartQueryService(repo domain.CartRepository) *CartQueryService {
	return &CartQueryService{repo: repo}
}

// GetCart 查询购物车，不存在时返回空购物车
func (s *CartQueryService) GetCart(ctx context.Context, owner CartOwner) (*domain.Cart, error) {
	var cart *domain.Cart
	var err error

	switch {
	case owner.UserID != "":
		cart, err = s.repo.GetByUserID(ctx, owner.UserID)
	case owner.GuestToken != "":
		cart, err = s.repo.GetByGuestToken(ctx, owner.GuestToken)
	default:
		return nil, ErrInvalidOwner
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		empty := &domain.Cart{Status: domain.CartStatusActive, TotalPrice: decimal.Zero}
		if owner.UserID != "" {
			uid := owner.UserID
			empty.UserID = &uid
		} else {
			empty.GuestToken = owner.GuestToken
		}
		return empty, nil
	}
	return cart, err
}
