// Package domain 通知服务的领域模型
package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// NotificationType 通知类型
type NotificationType string

const (
	NotificationTypeEmail NotificationType = "EMAIL" // 邮件通知
	NotificationTypeSMS   NotificationType = "SMS"   // 短信通知
)

// NotificationStatus 通知状态
type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "PENDING"
	NotificationStatusSent    NotificationStatus = "SENT"
	NotificationStatusFailed  NotificationStatus = "FAILED"
)

// Notification 通知记录实体，每次发送尝试落一条审计记录
type Notification struct {
	gorm.Model
	// NotificationID 通知 ID
	NotificationID string `gorm:"column:notification_id;type:varchar(32);uniqueIndex;not null"`
	// UserID 目标用户
	UserID string `gorm:"column:user_id;type:varchar(36);index;not null"`
	// Type 通知类型
	Type NotificationType `gorm:"column:type;type:varchar(20);not null"`
	// Subject 通知主题
	Subject string `gorm:"column:subject;type:varchar(100)"`
	// Content 通知内容
	Content string `gorm:"column:content;type:text"`
	// Target 通知目标（邮箱或手机号）
	Target string `gorm:"column:target;type:varchar(100);not null"`
	// Status 通知状态
	Status NotificationStatus `gorm:"column:status;type:varchar(20);index;not null;default:'PENDING'"`
	// ErrorMessage 失败原因
	ErrorMessage string `gorm:"column:error_message;type:text"`
	// SentAt 发送成功时间
	SentAt *time.Time `gorm:"column:sent_at;type:datetime"`
}

func (Notification) TableName() string { return "notifications" }

// Sender 出站通道，邮件与短信共用同一个窄接口
type Sender interface {
	Send(ctx context.Context, target string, subject string, content string) error
}

// NotificationRepository 通知记录仓储
type NotificationRepository interface {
	Save(ctx context.Context, notification *Notification) error
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*Notification, int64, error)
}
