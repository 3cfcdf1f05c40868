package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/wyfcoding/ecommerce/internal/cart/domain"
)

// cleanupInterval 清理扫描周期
const cleanupInterval = 5 * time.Minute

// ErrSweepRunning 上一轮扫描尚未结束
var ErrSweepRunning = errors.New("sweep is already running")

// CleanupSummary 单轮清理结果
type CleanupSummary struct {
	// Found 命中清理条件的购物车数
	Found int
	// Cleaned 成功转入过期态的购物车数
	Cleaned int
}

// ExpiryCleanupJob 定期将到期购物车转入过期终态并清空内容。
// 同一进程内同一时刻最多只有一轮扫描在执行；后续 tick 在上一轮
// 未结束时整体跳过。跨进程互斥由部署侧保证。
type ExpiryCleanupJob struct {
	repo      domain.CartRepository
	publisher domain.EventPublisher
	logger    *slog.Logger
	interval  time.Duration
	running   atomic.Bool
}

// NewExpiryCleanupJob 创建清理任务
func NewExpiryCleanupJob(
	repo domain.CartRepository,
	publisher domain.EventPublisher,
	logger *slog.Logger,
) *ExpiryCleanupJob {
	return &ExpiryCleanupJob{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		interval:  cleanupInterval,
	}
}

// Start 启动清理循环：启动时立即扫一次，之后按固定周期执行，直到 ctx 取消。
func (j *ExpiryCleanupJob) Start(ctx context.Context) {
	j.logger.Info("Cart expiry cleanup job started", "interval", j.interval)

	j.runTick(ctx)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("Cart expiry cleanup job stopping...")
			return
		case <-ticker.C:
			j.runTick(ctx)
		}
	}
}

func (j *ExpiryCleanupJob) runTick(ctx context.Context) {
	summary, err := j.RunOnce(ctx)
	switch {
	case errors.Is(err, ErrSweepRunning):
		j.logger.Warn("Previous cleanup sweep still running, skipping tick")
	case err != nil:
		j.logger.Error("Cleanup sweep failed", "error", err)
	case summary.Found == 0:
		j.logger.Debug("No expired carts found")
	default:
		j.logger.Info("Cleanup sweep finished", "found", summary.Found, "cleaned", summary.Cleaned)
	}
}

// RunOnce 执行一轮清理扫描。查询失败中止本轮；单个购物车保存失败
// 只影响该购物车，其余继续处理，下一轮会重新命中。
func (j *ExpiryCleanupJob) RunOnce(ctx context.Context) (CleanupSummary, error) {
	if !j.tryAcquire() {
		return CleanupSummary{}, ErrSweepRunning
	}
	defer j.release()

	now := time.Now()
	carts, err := j.repo.FindExpiredActive(ctx, now)
	if err != nil {
		return CleanupSummary{}, fmt.Errorf("failed to query expired carts: %w", err)
	}

	summary := CleanupSummary{Found: len(carts)}
	for _, cart := range carts {
		event := domain.CartExpiredEvent{
			CartID:    cart.ID,
			ItemCount: cart.ItemCount(),
			Total:     cart.TotalPrice,
			Timestamp: now,
		}
		if cart.UserID != nil {
			event.UserID = *cart.UserID
		}

		cart.MarkExpired()
		if err := j.repo.Save(ctx, cart); err != nil {
			j.logger.Error("Failed to expire cart", "cart_id", cart.ID, "error", err)
			continue
		}
		summary.Cleaned++

		if err := j.publisher.PublishCartExpired(ctx, event); err != nil {
			j.logger.Warn("Failed to publish cart expired event", "cart_id", cart.ID, "error", err)
		}
	}

	return summary, nil
}

// tryAcquire 获取本进程内的执行权；替换为分布式锁时只需改这里
func (j *ExpiryCleanupJob) tryAcquire() bool {
	return j.running.CompareAndSwap(false, true)
}

func (j *ExpiryCleanupJob) release() {
	j.running.Store(false)
}
