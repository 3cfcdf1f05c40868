package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItemAddedEvent 购物车添加商品事件
type CartItemAddedEvent struct {
	CartID    uint            `json:"cart_id"`
	UserID    string          `json:"user_id,omitempty"`
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Timestamp time.Time       `json:"timestamp"`
}

// CartItemRemovedEvent 购物车移除商品事件
type CartItemRemovedEvent struct {
	CartID    uint      `json:"cart_id"`
	UserID    string    `json:"user_id,omitempty"`
	ProductID string    `json:"product_id"`
	Timestamp time.Time `json:"timestamp"`
}

// CartClearedEvent 购物车清空事件
type CartClearedEvent struct {
	CartID    uint      `json:"cart_id"`
	UserID    string    `json:"user_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// CartsMergedEvent 游客购物车合并事件
type CartsMergedEvent struct {
	GuestCartID uint      `json:"guest_cart_id"`
	UserCartID  uint      `json:"user_cart_id"`
	UserID      string    `json:"user_id"`
	Timestamp   time.Time `json:"timestamp"`
}

// CartExpiredEvent 购物车过期清理事件
type CartExpiredEvent struct {
	CartID    uint            `json:"cart_id"`
	UserID    string          `json:"user_id,omitempty"`
	ItemCount int             `json:"item_count"`
	Total     decimal.Decimal `json:"total"`
	Timestamp time.Time       `json:"timestamp"`
}

// CartExpiryWarnedEvent 购物车过期提醒事件
type CartExpiryWarnedEvent struct {
	CartID           uint      `json:"cart_id"`
	UserID           string    `json:"user_id"`
	MinutesRemaining int       `json:"minutes_remaining"`
	EmailSent        bool      `json:"email_sent"`
	SMSSent          bool      `json:"sms_sent"`
	Timestamp        time.Time `json:"timestamp"`
}
