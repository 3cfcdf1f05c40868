package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CartStatus 购物车状态
type CartStatus string

const (
	// CartStatusActive 活跃购物车
	CartStatusActive CartStatus = "active"
	// CartStatusExpired 已过期购物车（终态）
	CartStatusExpired CartStatus = "expired"
)

// Cart 购物车聚合根。登录用户以 UserID 关联，游客以 GuestToken 关联。
type Cart struct {
	gorm.Model
	// UserID 所属用户，游客购物车为空
	UserID *string `gorm:"column:user_id;type:varchar(36);index"`
	// GuestToken 游客端标识，登录购物车为空
	GuestToken string     `gorm:"column:guest_token;type:varchar(64);index"`
	Items      []CartItem `gorm:"foreignKey:CartID"`
	// TotalPrice 明细小计之和，内容变更时重算
	TotalPrice decimal.Decimal `gorm:"column:total_price;type:decimal(20,2);not null"`
	Status     CartStatus      `gorm:"column:status;type:varchar(16);index;not null;default:'active'"`
	// IsExpired 与 Status 保持一致的过滤镜像字段
	IsExpired bool `gorm:"column:is_expired;index;not null;default:false"`
	// ExpiresAt 过期时间，nil 表示永不过期
	ExpiresAt *time.Time `gorm:"column:expires_at;index"`
	// ExpiryWarningSent 本过期周期内是否已发送过期提醒
	ExpiryWarningSent bool `gorm:"column:expiry_warning_sent;not null;default:false"`
}

func (Cart) TableName() string { return "carts" }

// CartItem 购物车明细，单价为加入时的快照
type CartItem struct {
	gorm.Model
	CartID    uint            `gorm:"column:cart_id;index;not null"`
	ProductID string          `gorm:"column:product_id;type:varchar(36);not null"`
	Quantity  int             `gorm:"column:quantity;not null"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:decimal(20,2);not null"`
}

func (CartItem) TableName() string { return "cart_items" }

// Subtotal 明细小计
func (i *CartItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// RecalculateTotal 重算购物车总价
func (c *Cart) RecalculateTotal() {
	total := decimal.Zero
	for i := range c.Items {
		total = total.Add(c.Items[i].Subtotal())
	}
	c.TotalPrice = total
}

// AddItem 加入商品，已存在时累加数量
func (c *Cart) AddItem(productID string, qty int, unitPrice decimal.Decimal) {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity += qty
			c.RecalculateTotal()
			return
		}
	}
	c.Items = append(c.Items, CartItem{ProductID: productID, Quantity: qty, UnitPrice: unitPrice})
	c.RecalculateTotal()
}

// UpdateItemQuantity 修改商品数量，返回是否命中
func (c *Cart) UpdateItemQuantity(productID string, qty int) bool {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity = qty
			c.RecalculateTotal()
			return true
		}
	}
	return false
}

// RemoveItem 移除商品，返回是否命中
func (c *Cart) RemoveItem(productID string) bool {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			c.RecalculateTotal()
			return true
		}
	}
	return false
}

// Clear 清空内容，购物车保持活跃
func (c *Cart) Clear() {
	c.Items = nil
	c.TotalPrice = decimal.Zero
}

// ItemCount 商品件数（数量之和）
func (c *Cart) ItemCount() int {
	count := 0
	for i := range c.Items {
		count += c.Items[i].Quantity
	}
	return count
}

// MarkExpired 转入过期终态：清空内容、总价归零、状态与镜像字段一致
func (c *Cart) MarkExpired() {
	c.Items = nil
	c.TotalPrice = decimal.Zero
	c.Status = CartStatusExpired
	c.IsExpired = true
}

// ResetExpiry 开启新的过期周期：重置过期时间与提醒标记。
// days <= 0 表示永不过期。
func (c *Cart) ResetExpiry(days int, now time.Time) {
	if days <= 0 {
		c.ExpiresAt = nil
	} else {
		t := now.AddDate(0, 0, days)
		c.ExpiresAt = &t
	}
	c.ExpiryWarningSent = false
}

// EligibleForCleanup 是否满足清理条件：活跃、未标记过期、过期时间已到
func (c *Cart) EligibleForCleanup(now time.Time) bool {
	return c.Status == CartStatusActive &&
		!c.IsExpired &&
		c.ExpiresAt != nil &&
		!c.ExpiresAt.After(now)
}

// EligibleForWarning 是否满足提醒条件：活跃、未提醒、过期时间落在 (now, threshold] 窗口内
func (c *Cart) EligibleForWarning(now, threshold time.Time) bool {
	return c.Status == CartStatusActive &&
		!c.IsExpired &&
		!c.ExpiryWarningSent &&
		c.ExpiresAt != nil &&
		c.ExpiresAt.After(now) &&
		!c.ExpiresAt.After(threshold)
}
