package domain

import (
	"context"
	"time"
)

// CartRepository 购物车仓储
type CartRepository interface {
	GetByUserID(ctx context.Context, userID string) (*Cart, error)
	GetByGuestToken(ctx context.Context, token string) (*Cart, error)
	// Save 持久化单个购物车及其明细
	Save(ctx context.Context, cart *Cart) error
	Delete(ctx context.Context, cartID uint) error
	// FindExpiredActive 清理扫描：活跃、未标记过期、expires_at <= now
	FindExpiredActive(ctx context.Context, now time.Time) ([]*Cart, error)
	// FindNearExpiry 提醒扫描：活跃、未提醒、有归属用户、now < expires_at <= threshold
	FindNearExpiry(ctx context.Context, now, threshold time.Time) ([]*Cart, error)
	// MarkWarned 仅置位 expiry_warning_sent
	MarkWarned(ctx context.Context, cartID uint) error
	// InTx 在单个事务中执行 fn，fn 内通过传入的仓储访问数据
	InTx(ctx context.Context, fn func(CartRepository) error) error
}

// SettingsRepository 购物车设置仓储
type SettingsRepository interface {
	Load(ctx context.Context) (*CartSettings, error)
	Save(ctx context.Context, settings *CartSettings) error
}

// EventPublisher 购物车领域事件发布者
type EventPublisher interface {
	PublishCartItemAdded(ctx context.Context, event CartItemAddedEvent) error
	PublishCartItemRemoved(ctx context.Context, event CartItemRemovedEvent) error
	PublishCartCleared(ctx context.Context, event CartClearedEvent) error
	PublishCartsMerged(ctx context.Context, event CartsMergedEvent) error
	PublishCartExpired(ctx context.Context, event CartExpiredEvent) error
	PublishCartExpiryWarned(ctx context.Context, event CartExpiryWarnedEvent) error
}
