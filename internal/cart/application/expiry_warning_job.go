package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/wyfcoding/ecommerce/internal/cart/domain"
	notification "github.com/wyfcoding/ecommerce/internal/notification/application"
	userdomain "github.com/wyfcoding/ecommerce/internal/user/domain"
)

// warningInterval 提醒扫描周期
const warningInterval = time.Minute

// ExpiryNotifier 过期提醒出站通道
type ExpiryNotifier interface {
	SendExpiryWarningEmail(ctx context.Context, userID, address string, data notification.ExpiryWarningData) error
	SendExpiryWarningSMS(ctx context.Context, userID, mobile string, data notification.ExpiryWarningData) error
}

// WarningSummary 单轮提醒结果
type WarningSummary struct {
	// Processed 处理并标记为已提醒的购物车数
	Processed int
	// EmailsSent 成功发出的邮件数
	EmailsSent int
	// SMSSent 成功发出的短信数
	SMSSent int
}

// ExpiryWarningJob 在购物车临近过期时给归属用户发送一次性提醒。
// 提醒按"已尝试即已发送"处理：任一通道失败不重试，购物车仍被标记，
// 仅当标记写入失败时下一轮才会重新提醒（至少一次语义）。
type ExpiryWarningJob struct {
	carts    domain.CartRepository
	users    userdomain.UserRepository
	settings domain.SettingsRepository
	notifier ExpiryNotifier
	publisher domain.EventPublisher
	logger   *slog.Logger
	interval time.Duration
	running  atomic.Bool
}

// NewExpiryWarningJob 创建提醒任务
func NewExpiryWarningJob(
	carts domain.CartRepository,
	users userdomain.UserRepository,
	settings domain.SettingsRepository,
	notifier ExpiryNotifier,
	publisher domain.EventPublisher,
	logger *slog.Logger,
) *ExpiryWarningJob {
	return &ExpiryWarningJob{
		carts:     carts,
		users:     users,
		settings:  settings,
		notifier:  notifier,
		publisher: publisher,
		logger:    logger,
		interval:  warningInterval,
	}
}

// Start 启动提醒循环：启动时立即扫一次，之后按固定周期执行，直到 ctx 取消。
func (j *ExpiryWarningJob) Start(ctx context.Context) {
	j.logger.Info("Cart expiry warning job started", "interval", j.interval)

	j.runTick(ctx)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("Cart expiry warning job stopping...")
			return
		case <-ticker.C:
			j.runTick(ctx)
		}
	}
}

func (j *ExpiryWarningJob) runTick(ctx context.Context) {
	summary, err := j.RunOnce(ctx)
	switch {
	case errors.Is(err, ErrSweepRunning):
		j.logger.Warn("Previous warning sweep still running, skipping tick")
	case err != nil:
		j.logger.Error("Warning sweep failed", "error", err)
	case summary.Processed > 0:
		j.logger.Info("Warning sweep finished",
			"processed", summary.Processed,
			"emails_sent", summary.EmailsSent,
			"sms_sent", summary.SMSSent,
		)
	}
}

// RunOnce 执行一轮提醒扫描。提醒未启用时静默返回；
// 设置加载失败降级为"提醒关闭"，不会让调度中断。
func (j *ExpiryWarningJob) RunOnce(ctx context.Context) (WarningSummary, error) {
	if !j.tryAcquire() {
		return WarningSummary{}, ErrSweepRunning
	}
	defer j.release()

	settings, err := j.settings.Load(ctx)
	if err != nil {
		// 每分钟一轮，降级日志只打 debug 级避免刷屏
		j.logger.Debug("Failed to load cart settings, warnings disabled for this tick", "error", err)
		settings = domain.DefaultCartSettings()
	}
	if !settings.ExpiryWarningEnabled {
		return WarningSummary{}, nil
	}

	now := time.Now()
	threshold := now.Add(time.Duration(settings.ExpiryWarningMinutes) * time.Minute)

	carts, err := j.carts.FindNearExpiry(ctx, now, threshold)
	if err != nil {
		return WarningSummary{}, fmt.Errorf("failed to query carts near expiry: %w", err)
	}
	if len(carts) == 0 {
		return WarningSummary{}, nil
	}

	var summary WarningSummary
	for _, cart := range carts {
		if cart.UserID == nil || *cart.UserID == "" {
			j.logger.Warn("Cart near expiry has no resolvable owner, skipping", "cart_id", cart.ID)
			continue
		}

		user, err := j.users.GetByUserID(ctx, *cart.UserID)
		if err != nil {
			j.logger.Warn("Failed to resolve cart owner, skipping",
				"cart_id", cart.ID, "user_id", *cart.UserID, "error", err)
			continue
		}

		minutesRemaining := int(time.Until(*cart.ExpiresAt) / time.Minute)
		data := notification.ExpiryWarningData{
			UserName:      user.DisplayName(),
			ItemCount:     cart.ItemCount(),
			TotalPrice:    cart.TotalPrice,
			ExpiryMinutes: minutesRemaining,
		}

		var emailSent, smsSent bool
		if settings.NotificationType.IncludesEmail() && user.Email != "" {
			if err := j.notifier.SendExpiryWarningEmail(ctx, user.UserID, user.Email, data); err != nil {
				j.logger.Error("Failed to send expiry warning email",
					"cart_id", cart.ID, "user_id", user.UserID, "error", err)
			} else {
				emailSent = true
				summary.EmailsSent++
			}
		}
		if settings.NotificationType.IncludesSMS() && user.Mobile != "" {
			if err := j.notifier.SendExpiryWarningSMS(ctx, user.UserID, user.Mobile, data); err != nil {
				j.logger.Error("Failed to send expiry warning SMS",
					"cart_id", cart.ID, "user_id", user.UserID, "error", err)
			} else {
				smsSent = true
				summary.SMSSent++
			}
		}

		// 无论通道成败都置位标记；写入失败则下一轮重新提醒
		if err := j.carts.MarkWarned(ctx, cart.ID); err != nil {
			j.logger.Error("Failed to mark cart as warned", "cart_id", cart.ID, "error", err)
		}
		summary.Processed++

		if err := j.publisher.PublishCartExpiryWarned(ctx, domain.CartExpiryWarnedEvent{
			CartID:           cart.ID,
			UserID:           user.UserID,
			MinutesRemaining: minutesRemaining,
			EmailSent:        emailSent,
			SMSSent:          smsSent,
			Timestamp:        now,
		}); err != nil {
			j.logger.Warn("Failed to publish cart expiry warned event", "cart_id", cart.ID, "error", err)
		}
	}

	return summary, nil
}

func (j *ExpiryWarningJob) tryAcquire() bool {
	return j.running.CompareAndSwap(false, true)
}

func (j *ExpiryWarningJob) release() {
	j.running.Store(false)
}
