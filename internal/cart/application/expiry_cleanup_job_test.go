package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/ecommerce/internal/cart/domain"
)

func expiredCart(id uint, userID string) *domain.Cart {
	past := time.Now().Add(-time.Hour)
	uid := userID
	cart := &domain.Cart{
		UserID:    &uid,
		Status:    domain.CartStatusActive,
		ExpiresAt: &past,
	}
	cart.ID = id
	cart.AddItem("p-1", 2, decimal.NewFromInt(10))
	return cart
}

func TestCleanupSweepExpiresCarts(t *testing.T) {
	repo := newFakeCartRepo()
	repo.expired = []*domain.Cart{expiredCart(1, "u-1"), expiredCart(2, "u-2")}
	publisher := &fakePublisher{}
	job := NewExpiryCleanupJob(repo, publisher, testLogger())

	summary, err := job.RunOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, CleanupSummary{Found: 2, Cleaned: 2}, summary)

	for _, cart := range repo.expired {
		assert.Equal(t, domain.CartStatusExpired, cart.Status)
		assert.True(t, cart.IsExpired)
		assert.Empty(t, cart.Items)
		assert.True(t, cart.TotalPrice.IsZero())
	}
}

// 过期事件携带清空前的内容快照
func TestCleanupSweepPublishesPreCleanupSnapshot(t *testing.T) {
	repo := newFakeCartRepo()
	repo.expired = []*domain.Cart{expiredCart(1, "u-1")}
	publisher := &fakePublisher{}
	job := NewExpiryCleanupJob(repo, publisher, testLogger())

	_, err := job.RunOnce(context.Background())

	require.NoError(t, err)
	require.Len(t, publisher.expired, 1)
	event := publisher.expired[0]
	assert.Equal(t, uint(1), event.CartID)
	assert.Equal(t, "u-1", event.UserID)
	assert.Equal(t, 2, event.ItemCount)
	assert.True(t, event.Total.Equal(decimal.NewFromInt(20)))
}

// 单个购物车保存失败不影响同轮其余购物车
func TestCleanupSweepIsolatesPerCartFailures(t *testing.T) {
	repo := newFakeCartRepo()
	repo.expired = []*domain.Cart{expiredCart(1, "u-1"), expiredCart(2, "u-2"), expiredCart(3, "u-3")}
	repo.saveErrFor[2] = errors.New("lock wait timeout")
	publisher := &fakePublisher{}
	job := NewExpiryCleanupJob(repo, publisher, testLogger())

	summary, err := job.RunOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, CleanupSummary{Found: 3, Cleaned: 2}, summary)
	assert.Len(t, publisher.expired, 2, "no event for the cart that failed to persist")
}

func TestCleanupSweepQueryFailureAbortsRound(t *testing.T) {
	repo := newFakeCartRepo()
	repo.findErr = errors.New("connection refused")
	job := NewExpiryCleanupJob(repo, &fakePublisher{}, testLogger())

	_, err := job.RunOnce(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to query expired carts")
}

func TestCleanupSweepNoEligibleCarts(t *testing.T) {
	repo := newFakeCartRepo()
	publisher := &fakePublisher{}
	job := NewExpiryCleanupJob(repo, publisher, testLogger())

	summary, err := job.RunOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, CleanupSummary{}, summary)
	assert.Empty(t, publisher.expired)
}

func TestCleanupSweepSkipsWhileRunning(t *testing.T) {
	repo := newFakeCartRepo()
	repo.expired = []*domain.Cart{expiredCart(1, "u-1")}
	job := NewExpiryCleanupJob(repo, &fakePublisher{}, testLogger())

	job.running.Store(true)
	_, err := job.RunOnce(context.Background())
	assert.ErrorIs(t, err, ErrSweepRunning)
	assert.Zero(t, repo.findCalls, "skipped round must not touch the store")

	job.running.Store(false)
	summary, err := job.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Cleaned)
}

// 已转终态的购物车不会再次命中查询，重复执行无额外效果
func TestCleanupSweepIsIdempotent(t *testing.T) {
	repo := newFakeCartRepo()
	cart := expiredCart(1, "u-1")
	repo.expired = []*domain.Cart{cart}
	publisher := &fakePublisher{}
	job := NewExpiryCleanupJob(repo, publisher, testLogger())

	_, err := job.RunOnce(context.Background())
	require.NoError(t, err)

	// 第二轮查询不再返回该购物车
	repo.expired = nil
	summary, err := job.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, CleanupSummary{}, summary)
	assert.Len(t, publisher.expired, 1)
}
