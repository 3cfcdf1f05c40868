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
	userdomain "github.com/wyfcoding/ecommerce/internal/user/domain"
)

func warningSettings(channel domain.NotificationChannel) *fakeSettingsRepo {
	return &fakeSettingsRepo{settings: &domain.CartSettings{
		CartExpirationDays:   7,
		ExpiryWarningEnabled: true,
		ExpiryWarningMinutes: 30,
		NotificationType:     channel,
	}}
}

func nearExpiryCart(id uint, userID string, remaining time.Duration) *domain.Cart {
	expires := time.Now().Add(remaining)
	cart := &domain.Cart{
		Status:    domain.CartStatusActive,
		ExpiresAt: &expires,
	}
	if userID != "" {
		uid := userID
		cart.UserID = &uid
	}
	cart.ID = id
	cart.AddItem("p-1", 3, decimal.NewFromInt(5))
	return cart
}

func testUser(userID, email, mobile string) *userdomain.User {
	return &userdomain.User{UserID: userID, FirstName: "Sara", LastName: "Ahmadi", Email: email, Mobile: mobile}
}

func newWarningJob(repo *fakeCartRepo, users *fakeUserRepo, settings *fakeSettingsRepo, notifier *fakeNotifier, publisher *fakePublisher) *ExpiryWarningJob {
	return NewExpiryWarningJob(repo, users, settings, notifier, publisher, testLogger())
}

func TestWarningSweepSendsOnBothChannels(t *testing.T) {
	repo := newFakeCartRepo()
	// 10m30s 的余量保证分钟取整结果稳定为 10
	repo.near = []*domain.Cart{nearExpiryCart(1, "u-1", 10*time.Minute+30*time.Second)}
	users := &fakeUserRepo{users: map[string]*userdomain.User{
		"u-1": testUser("u-1", "sara@example.com", "+989121234567"),
	}}
	notifier := &fakeNotifier{}
	publisher := &fakePublisher{}
	job := newWarningJob(repo, users, warningSettings(domain.ChannelBoth), notifier, publisher)

	summary, err := job.RunOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, WarningSummary{Processed: 1, EmailsSent: 1, SMSSent: 1}, summary)
	assert.Equal(t, []uint{1}, repo.warned)

	require.Len(t, notifier.emails, 1)
	assert.Equal(t, "sara@example.com", notifier.emails[0].target)
	assert.Equal(t, "Sara Ahmadi", notifier.emails[0].data.UserName)
	assert.Equal(t, 3, notifier.emails[0].data.ItemCount)
	assert.Equal(t, 10, notifier.emails[0].data.ExpiryMinutes)

	require.Len(t, publisher.warned, 1)
	assert.True(t, publisher.warned[0].EmailSent)
	assert.True(t, publisher.warned[0].SMSSent)
	assert.Equal(t, 10, publisher.warned[0].MinutesRemaining)
}

func TestWarningSweepSkipsChannelWithoutAddress(t *testing.T) {
	repo := newFakeCartRepo()
	repo.near = []*domain.Cart{nearExpiryCart(1, "u-1", 10*time.Minute+30*time.Second)}
	users := &fakeUserRepo{users: map[string]*userdomain.User{
		"u-1": testUser("u-1", "sara@example.com", ""),
	}}
	notifier := &fakeNotifier{}
	job := newWarningJob(repo, users, warningSettings(domain.ChannelBoth), notifier, &fakePublisher{})

	summary, err := job.RunOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, WarningSummary{Processed: 1, EmailsSent: 1, SMSSent: 0}, summary)
	assert.Empty(t, notifier.sms)
	assert.Equal(t, []uint{1}, repo.warned)
}

func TestWarningSweepHonorsChannelSetting(t *testing.T) {
	repo := newFakeCartRepo()
	repo.near = []*domain.Cart{nearExpiryCart(1, "u-1", 10*time.Minute+30*time.Second)}
	users := &fakeUserRepo{users: map[string]*userdomain.User{
		"u-1": testUser("u-1", "sara@example.com", "+989121234567"),
	}}
	notifier := &fakeNotifier{}
	job := newWarningJob(repo, users, warningSettings(domain.ChannelSMS), notifier, &fakePublisher{})

	summary, err := job.RunOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, WarningSummary{Processed: 1, EmailsSent: 0, SMSSent: 1}, summary)
	assert.Empty(t, notifier.emails)
}

func TestWarningSweepDisabledDoesNotQuery(t *testing.T) {
	repo := newFakeCartRepo()
	repo.near = []*domain.Cart{nearExpiryCart(1, "u-1", 10*time.Minute)}
	settings := &fakeSettingsRepo{settings: domain.DefaultCartSettings()}
	job := newWarningJob(repo, &fakeUserRepo{}, settings, &fakeNotifier{}, &fakePublisher{})

	summary, err := job.RunOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, WarningSummary{}, summary)
	assert.Zero(t, repo.nearCalls, "disabled warnings must not hit the store")
}

// 设置加载失败时按提醒关闭降级，而不是让本轮报错
func TestWarningSweepSettingsFailureDegradesToDisabled(t *testing.T) {
	repo := newFakeCartRepo()
	repo.near = []*domain.Cart{nearExpiryCart(1, "u-1", 10*time.Minute)}
	settings := &fakeSettingsRepo{loadErr: errors.New("connection refused")}
	job := newWarningJob(repo, &fakeUserRepo{}, settings, &fakeNotifier{}, &fakePublisher{})

	summary, err := job.RunOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, WarningSummary{}, summary)
	assert.Zero(t, repo.nearCalls)
}

// 通道失败不重试，购物车仍被标记，避免每分钟重复打扰用户
func TestWarningSweepMarksWarnedEvenWhenChannelFails(t *testing.T) {
	repo := newFakeCartRepo()
	repo.near = []*domain.Cart{nearExpiryCart(1, "u-1", 10*time.Minute+30*time.Second)}
	users := &fakeUserRepo{users: map[string]*userdomain.User{
		"u-1": testUser("u-1", "sara@example.com", "+989121234567"),
	}}
	notifier := &fakeNotifier{emailErr: errors.New("smtp timeout")}
	publisher := &fakePublisher{}
	job := newWarningJob(repo, users, warningSettings(domain.ChannelBoth), notifier, publisher)

	summary, err := job.RunOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, WarningSummary{Processed: 1, EmailsSent: 0, SMSSent: 1}, summary)
	assert.Equal(t, []uint{1}, repo.warned)

	require.Len(t, publisher.warned, 1)
	assert.False(t, publisher.warned[0].EmailSent)
	assert.True(t, publisher.warned[0].SMSSent)
}

func TestWarningSweepSkipsCartsWithoutOwner(t *testing.T) {
	repo := newFakeCartRepo()
	repo.near = []*domain.Cart{
		nearExpiryCart(1, "", 10*time.Minute),
		nearExpiryCart(2, "u-2", 10*time.Minute+30*time.Second),
	}
	users := &fakeUserRepo{users: map[string]*userdomain.User{
		"u-2": testUser("u-2", "sara@example.com", ""),
	}}
	notifier := &fakeNotifier{}
	job := newWarningJob(repo, users, warningSettings(domain.ChannelEmail), notifier, &fakePublisher{})

	summary, err := job.RunOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, WarningSummary{Processed: 1, EmailsSent: 1}, summary)
	assert.Equal(t, []uint{2}, repo.warned, "ownerless cart stays unmarked")
}

func TestWarningSweepSkipsUnresolvableOwner(t *testing.T) {
	repo := newFakeCartRepo()
	repo.near = []*domain.Cart{nearExpiryCart(1, "u-gone", 10*time.Minute)}
	job := newWarningJob(repo, &fakeUserRepo{users: map[string]*userdomain.User{}},
		warningSettings(domain.ChannelBoth), &fakeNotifier{}, &fakePublisher{})

	summary, err := job.RunOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, WarningSummary{}, summary)
	assert.Empty(t, repo.warned)
}

// 标记写入失败时本轮仍计数，下一轮会重新命中（至少一次语义）
func TestWarningSweepMarkFailureKeepsCartEligible(t *testing.T) {
	repo := newFakeCartRepo()
	repo.near = []*domain.Cart{nearExpiryCart(1, "u-1", 10*time.Minute+30*time.Second)}
	repo.markErr = errors.New("lock wait timeout")
	users := &fakeUserRepo{users: map[string]*userdomain.User{
		"u-1": testUser("u-1", "sara@example.com", ""),
	}}
	job := newWarningJob(repo, users, warningSettings(domain.ChannelEmail), &fakeNotifier{}, &fakePublisher{})

	summary, err := job.RunOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, WarningSummary{Processed: 1, EmailsSent: 1}, summary)
	assert.Empty(t, repo.warned)
}

func TestWarningSweepQueryFailureAbortsRound(t *testing.T) {
	repo := newFakeCartRepo()
	repo.nearErr = errors.New("connection refused")
	job := newWarningJob(repo, &fakeUserRepo{}, warningSettings(domain.ChannelBoth), &fakeNotifier{}, &fakePublisher{})

	_, err := job.RunOnce(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to query carts near expiry")
}

func TestWarningSweepSkipsWhileRunning(t *testing.T) {
	repo := newFakeCartRepo()
	job := newWarningJob(repo, &fakeUserRepo{}, warningSettings(domain.ChannelBoth), &fakeNotifier{}, &fakePublisher{})

	job.running.Store(true)
	_, err := job.RunOnce(context.Background())
	assert.ErrorIs(t, err, ErrSweepRunning)
	assert.Zero(t, repo.nearCalls)

	job.running.Store(false)
	_, err = job.RunOnce(context.Background())
	assert.NoError(t, err)
}
