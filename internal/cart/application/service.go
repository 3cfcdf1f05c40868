package application

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/wyfcoding/ecommerce/internal/cart/domain"
)

// CartService 购物车服务门面，整合命令和查询服务
type CartService struct {
	command *CartCommandService
	query   *CartQueryService
}

// NewCartService 构造函数
func NewCartService(command *CartCommandService, query *CartQueryService) *CartService {
	return &CartService{command: command, query: query}
}

// --- Command (Writes) ---

// AddItem 加入商品
func (s *CartService) AddItem(ctx context.Context, owner CartOwner, productID string, qty int, unitPrice decimal.Decimal) (*domain.Cart, error) {
	return s.command.AddItem(ctx, owner, productID, qty, unitPrice)
}

// UpdateItemQuantity 修改商品数量
func (s *CartService) UpdateItemQuantity(ctx context.Context, owner CartOwner, productID string, qty int) (*domain.Cart, error) {
	return s.command.UpdateItemQuantity(ctx, owner, productID, qty)
}

// RemoveItem 移除商品
func (s *CartService) RemoveItem(ctx context.Context, owner CartOwner, productID string) (*domain.Cart, error) {
	return s.command.RemoveItem(ctx, owner, productID)
}

// ClearCart 清空购物车
func (s *CartService) ClearCart(ctx context.Context, owner CartOwner) error {
	return s.command.ClearCart(ctx, owner)
}

// MergeGuestCart 合并游客购物车
func (s *CartService) MergeGuestCart(ctx context.Context, guestToken, userID string) (*domain.Cart, error) {
	return s.command.MergeGuestCart(ctx, guestToken, userID)
}

// --- Query (Reads) ---

// GetCart 查询购物车
func (s *CartService) GetCart(ctx context.Context, owner CartOwner) (*domain.Cart, error) {
	return s.query.GetCart(ctx, owner)
}
