package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/wyfcoding/ecommerce/internal/cart/domain"
	"github.com/wyfcoding/ecommerce/pkg/logger"
)

// CartOwner 购物车归属：登录用户或游客，二选一
type CartOwner struct {
	UserID     string
	GuestToken string
}

// ErrInvalidOwner 归属标识缺失
var ErrInvalidOwner = errors.New("cart owner requires a user id or a guest token")

// ErrItemNotFound 购物车中不存在该商品
var ErrItemNotFound = errors.New("item not found in cart")

// CartCommandService 处理购物车写操作。
// 每次内容变更都会重算总价并按当前设置重开过期周期。
type CartCommandService struct {
	repo      domain.CartRepository
	settings  domain.SettingsRepository
	publisher domain.EventPublisher
}

// NewCartCommandService 创建购物车命令服务
func NewCartCommandService(
	repo domain.CartRepository,
	settings domain.SettingsRepository,
	publisher domain.EventPublisher,
) *CartCommandService {
	return &CartCommandService{
		repo:      repo,
		settings:  settings,
		publisher: publisher,
	}
}

// AddItem 加入商品，单价为当前快照
func (s *CartCommandService) AddItem(ctx context.Context, owner CartOwner, productID string, qty int, unitPrice decimal.Decimal) (*domain.Cart, error) {
	cart, err := s.getOrCreate(ctx, owner)
	if err != nil {
		return nil, err
	}

	cart.AddItem(productID, qty, unitPrice)
	s.refreshExpiry(ctx, cart)

	if err := s.repo.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}

	if err := s.publisher.PublishCartItemAdded(ctx, domain.CartItemAddedEvent{
		CartID:    cart.ID,
		UserID:    owner.UserID,
		ProductID: productID,
		Quantity:  qty,
		UnitPrice: unitPrice,
		Timestamp: time.Now(),
	}); err != nil {
		logger.Warn(ctx, "Failed to publish cart item added event", "cart_id", cart.ID, "error", err)
	}

	return cart, nil
}

// UpdateItemQuantity 修改商品数量
func (s *CartCommandService) UpdateItemQuantity(ctx context.Context, owner CartOwner, productID string, qty int) (*domain.Cart, error) {
	cart, err := s.get(ctx, owner)
	if err != nil {
		return nil, err
	}

	if !cart.UpdateItemQuantity(productID, qty) {
		return nil, ErrItemNotFound
	}
	s.refreshExpiry(ctx, cart)

	if err := s.repo.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}
	return cart, nil
}

// RemoveItem 移除商品
func (s *CartCommandService) RemoveItem(ctx context.Context, owner CartOwner, productID string) (*domain.Cart, error) {
	cart, err := s.get(ctx, owner)
	if err != nil {
		return nil, err
	}

	if !cart.RemoveItem(productID) {
		return nil, ErrItemNotFound
	}
	s.refreshExpiry(ctx, cart)

	if err := s.repo.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}

	if err := s.publisher.PublishCartItemRemoved(ctx, domain.CartItemRemovedEvent{
		CartID:    cart.ID,
		UserID:    owner.UserID,
		ProductID: productID,
		Timestamp: time.Now(),
	}); err != nil {
		logger.Warn(ctx, "Failed to publish cart item removed event", "cart_id", cart.ID, "error", err)
	}

	return cart, nil
}

// ClearCart 清空购物车内容，购物车保持活跃
func (s *CartCommandService) ClearCart(ctx context.Context, owner CartOwner) error {
	cart, err := s.get(ctx, owner)
	if err != nil {
		return err
	}

	cart.Clear()
	if err := s.repo.Save(ctx, cart); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}

	if err := s.publisher.PublishCartCleared(ctx, domain.CartClearedEvent{
		CartID:    cart.ID,
		UserID:    owner.UserID,
		Timestamp: time.Now(),
	}); err != nil {
		logger.Warn(ctx, "Failed to publish cart cleared event", "cart_id", cart.ID, "error", err)
	}
	return nil
}

// MergeGuestCart 登录后将游客购物车并入用户购物车，游客购物车随后删除。
// 整个合并在单个事务中完成。
func (s *CartCommandService) MergeGuestCart(ctx context.Context, guestToken, userID string) (*domain.Cart, error) {
	if guestToken == "" || userID == "" {
		return nil, ErrInvalidOwner
	}

	var merged *domain.Cart
	var guestCartID uint

	err := s.repo.InTx(ctx, func(txRepo domain.CartRepository) error {
		guestCart, err := txRepo.GetByGuestToken(ctx, guestToken)
		if err != nil {
			return fmt.Errorf("failed to load guest cart: %w", err)
		}
		guestCartID = guestCart.ID

		userCart, err := txRepo.GetByUserID(ctx, userID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			uid := userID
			userCart = &domain.Cart{UserID: &uid, Status: domain.CartStatusActive, TotalPrice: decimal.Zero}
		} else if err != nil {
			return fmt.Errorf("failed to load user cart: %w", err)
		}

		for i := range guestCart.Items {
			item := guestCart.Items[i]
			userCart.AddItem(item.ProductID, item.Quantity, item.UnitPrice)
		}
		s.refreshExpiry(ctx, userCart)

		if err := txRepo.Save(ctx, userCart); err != nil {
			return fmt.Errorf("failed to save merged cart: %w", err)
		}
		if err := txRepo.Delete(ctx, guestCart.ID); err != nil {
			return fmt.Errorf("failed to delete guest cart: %w", err)
		}

		merged = userCart
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.publisher.PublishCartsMerged(ctx, domain.CartsMergedEvent{
		GuestCartID: guestCartID,
		UserCartID:  merged.ID,
		UserID:      userID,
		Timestamp:   time.Now(),
	}); err != nil {
		logger.Warn(ctx, "Failed to publish carts merged event", "user_cart_id", merged.ID, "error", err)
	}

	return merged, nil
}

func (s *CartCommandService) get(ctx context.Context, owner CartOwner) (*domain.Cart, error) {
	switch {
	case owner.UserID != "":
		return s.repo.GetByUserID(ctx, owner.UserID)
	case owner.GuestToken != "":
		return s.repo.GetByGuestToken(ctx, owner.GuestToken)
	default:
		return nil, ErrInvalidOwner
	}
}

func (s *CartCommandService) getOrCreate(ctx context.Context, owner CartOwner) (*domain.Cart, error) {
	cart, err := s.get(ctx, owner)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		cart = &domain.Cart{Status: domain.CartStatusActive, TotalPrice: decimal.Zero}
		if owner.UserID != "" {
			uid := owner.UserID
			cart.UserID = &uid
		} else {
			cart.GuestToken = owner.GuestToken
		}
		return cart, nil
	}
	return cart, err
}

// refreshExpiry 按当前设置重开过期周期，设置不可用时回退默认值
func (s *CartCommandService) refreshExpiry(ctx context.Context, cart *domain.Cart) {
	settings, err := s.settings.Load(ctx)
	if err != nil {
		logger.Warn(ctx, "Failed to load cart settings, using defaults", "error", err)
		settings = domain.DefaultCartSettings()
	}
	cart.ResetExpiry(settings.CartExpirationDays, time.Now())
}
