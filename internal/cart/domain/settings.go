package domain

import "gorm.io/gorm"

// NotificationChannel 过期提醒通道
type NotificationChannel string

const (
	ChannelEmail NotificationChannel = "email"
	ChannelSMS   NotificationChannel = "sms"
	ChannelBoth  NotificationChannel = "both"
)

// IncludesEmail 通道是否包含邮件
func (c NotificationChannel) IncludesEmail() bool {
	return c == ChannelEmail || c == ChannelBoth
}

// IncludesSMS 通道是否包含短信
func (c NotificationChannel) IncludesSMS() bool {
	return c == ChannelSMS || c == ChannelBoth
}

// CartSettings 购物车运行时设置，后台可调
type CartSettings struct {
	gorm.Model
	// CartExpirationDays 购物车生命周期（天），0 表示永不过期
	CartExpirationDays int `gorm:"column:cart_expiration_days;not null;default:7"`
	// ExpiryWarningEnabled 是否发送过期提醒
	ExpiryWarningEnabled bool `gorm:"column:expiry_warning_enabled;not null;default:false"`
	// ExpiryWarningMinutes 过期前多少分钟发送提醒
	ExpiryWarningMinutes int `gorm:"column:expiry_warning_minutes;not null;default:30"`
	// NotificationType 提醒通道：email, sms, both
	NotificationType NotificationChannel `gorm:"column:notification_type;type:varchar(8);not null;default:'both'"`
}

func (CartSettings) TableName() string { return "cart_settings" }

// DefaultCartSettings 安全默认值：提醒关闭，设置存储不可用时降级使用
func DefaultCartSettings() *CartSettings {
	return &CartSettings{
		CartExpirationDays:   7,
		ExpiryWarningEnabled: false,
		ExpiryWarningMinutes: 30,
		NotificationType:     ChannelBoth,
	}
}

// WarningWindowExceedsLifetime 提醒窗口是否不小于购物车整个生命周期。
// 成立时提醒会在购物车创建后立即触发。
func (s *CartSettings) WarningWindowExceedsLifetime() bool {
	if s.CartExpirationDays <= 0 {
		return false
	}
	return s.ExpiryWarningMinutes >= s.CartExpirationDays*24*60
}
