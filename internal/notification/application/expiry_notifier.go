package application

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/pkg/idgen"

	"github.com/wyfcoding/ecommerce/internal/notification/domain"
	"github.com/wyfcoding/ecommerce/pkg/logger"
)

// ExpiryWarningData 过期提醒所需的事实
type ExpiryWarningData struct {
	UserName      string
	ItemCount     int
	TotalPrice    decimal.Decimal
	ExpiryMinutes int
}

// ExpiryNotifier 负责构造并发送购物车过期提醒，每次尝试落一条通知记录
type ExpiryNotifier struct {
	repo        domain.NotificationRepository
	emailSender domain.Sender
	smsSender   domain.Sender
}

// NewExpiryNotifier 创建过期提醒通知器
func NewExpiryNotifier(
	repo domain.NotificationRepository,
	emailSender domain.Sender,
	smsSender domain.Sender,
) *ExpiryNotifier {
	return &ExpiryNotifier{
		repo:        repo,
		emailSender: emailSender,
		smsSender:   smsSender,
	}
}

const expiryWarningSubject = "Your cart is about to expire"

// SendExpiryWarningEmail 发送邮件提醒
func (n *ExpiryNotifier) SendExpiryWarningEmail(ctx context.Context, userID, address string, data ExpiryWarningData) error {
	content := fmt.Sprintf(
		"Hi %s,\n\nYour shopping cart with %d item(s) totaling %s will expire in about %d minute(s). "+
			"Complete your order before the cart is cleared.\n",
		data.UserName, data.ItemCount, data.TotalPrice.StringFixed(2), data.ExpiryMinutes,
	)
	return n.dispatch(ctx, domain.NotificationTypeEmail, n.emailSender, userID, address, expiryWarningSubject, content)
}

// SendExpiryWarningSMS 发送短信提醒，为控制长度省略总价
func (n *ExpiryNotifier) SendExpiryWarningSMS(ctx context.Context, userID, mobile string, data ExpiryWarningData) error {
	content := fmt.Sprintf(
		"%s, your cart (%d items) expires in %d min. Complete your order to keep it.",
		data.UserName, data.ItemCount, data.ExpiryMinutes,
	)
	return n.dispatch(ctx, domain.NotificationTypeSMS, n.smsSender, userID, mobile, expiryWarningSubject, content)
}

// dispatch 落记录、发送、回写状态。发送失败返回错误，记录保存失败仅记日志。
func (n *ExpiryNotifier) dispatch(
	ctx context.Context,
	notificationType domain.NotificationType,
	sender domain.Sender,
	userID, target, subject, content string,
) error {
	notification := &domain.Notification{
		NotificationID: fmt.Sprintf("%d", idgen.GenID()),
		UserID:         userID,
		Type:           notificationType,
		Subject:        subject,
		Content:        content,
		Target:         target,
		Status:         domain.NotificationStatusPending,
	}

	if err := n.repo.Save(ctx, notification); err != nil {
		logger.Error(ctx, "Failed to persist notification record",
			"type", notificationType, "user_id", userID, "error", err)
	}

	sendErr := sender.Send(ctx, target, subject, content)
	if sendErr != nil {
		notification.Status = domain.NotificationStatusFailed
		notification.ErrorMessage = sendErr.Error()
	} else {
		now := time.Now()
		notification.Status = domain.NotificationStatusSent
		notification.SentAt = &now
	}

	if err := n.repo.Save(ctx, notification); err != nil {
		logger.Error(ctx, "Failed to update notification record",
			"notification_id", notification.NotificationID, "error", err)
	}

	return sendErr
}
