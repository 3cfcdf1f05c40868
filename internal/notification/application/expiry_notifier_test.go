package application

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/ecommerce/internal/notification/domain"
)

type savedRecord struct {
	notificationType domain.NotificationType
	status           domain.NotificationStatus
	target           string
	content          string
	errorMessage     string
	sentAtSet        bool
}

type fakeNotificationRepo struct {
	saves   []savedRecord
	saveErr error
}

func (r *fakeNotificationRepo) Save(_ context.Context, n *domain.Notification) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saves = append(r.saves, savedRecord{
		notificationType: n.Type,
		status:           n.Status,
		target:           n.Target,
		content:          n.Content,
		errorMessage:     n.ErrorMessage,
		sentAtSet:        n.SentAt != nil,
	})
	return nil
}

func (r *fakeNotificationRepo) ListByUser(context.Context, string, int, int) ([]*domain.Notification, int64, error) {
	return nil, 0, nil
}

type fakeSender struct {
	err  error
	sent []string
}

func (s *fakeSender) Send(_ context.Context, target, _, content string) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, target+": "+content)
	return nil
}

func warningData() ExpiryWarningData {
	return ExpiryWarningData{
		UserName:      "Sara Ahmadi",
		ItemCount:     3,
		TotalPrice:    decimal.RequireFromString("45.50"),
		ExpiryMinutes: 25,
	}
}

func TestSendExpiryWarningEmail(t *testing.T) {
	repo := &fakeNotificationRepo{}
	email := &fakeSender{}
	notifier := NewExpiryNotifier(repo, email, &fakeSender{})

	err := notifier.SendExpiryWarningEmail(context.Background(), "u-1", "sara@example.com", warningData())

	require.NoError(t, err)
	require.Len(t, email.sent, 1)
	assert.Contains(t, email.sent[0], "Sara Ahmadi")
	assert.Contains(t, email.sent[0], "3 item(s)")
	assert.Contains(t, email.sent[0], "45.50")
	assert.Contains(t, email.sent[0], "25 minute(s)")

	// 先落 PENDING，发送成功后回写 SENT
	require.Len(t, repo.saves, 2)
	assert.Equal(t, domain.NotificationStatusPending, repo.saves[0].status)
	assert.Equal(t, domain.NotificationStatusSent, repo.saves[1].status)
	assert.Equal(t, domain.NotificationTypeEmail, repo.saves[1].notificationType)
	assert.True(t, repo.saves[1].sentAtSet)
}

// 短信为控制长度不携带总价
func TestSendExpiryWarningSMSOmitsTotal(t *testing.T) {
	repo := &fakeNotificationRepo{}
	sms := &fakeSender{}
	notifier := NewExpiryNotifier(repo, &fakeSender{}, sms)

	err := notifier.SendExpiryWarningSMS(context.Background(), "u-1", "+989121234567", warningData())

	require.NoError(t, err)
	require.Len(t, sms.sent, 1)
	assert.Contains(t, sms.sent[0], "3 items")
	assert.Contains(t, sms.sent[0], "25 min")
	assert.NotContains(t, sms.sent[0], "45.50")

	require.Len(t, repo.saves, 2)
	assert.Equal(t, domain.NotificationTypeSMS, repo.saves[1].notificationType)
	assert.Equal(t, domain.NotificationStatusSent, repo.saves[1].status)
}

func TestSendFailureRecordsFailedStatus(t *testing.T) {
	repo := &fakeNotificationRepo{}
	email := &fakeSender{err: errors.New("smtp timeout")}
	notifier := NewExpiryNotifier(repo, email, &fakeSender{})

	err := notifier.SendExpiryWarningEmail(context.Background(), "u-1", "sara@example.com", warningData())

	require.Error(t, err)
	require.Len(t, repo.saves, 2)
	assert.Equal(t, domain.NotificationStatusFailed, repo.saves[1].status)
	assert.Equal(t, "smtp timeout", repo.saves[1].errorMessage)
	assert.False(t, repo.saves[1].sentAtSet)
}

// 审计记录不可用不阻断发送
func TestRepoFailureDoesNotBlockSending(t *testing.T) {
	repo := &fakeNotificationRepo{saveErr: errors.New("connection refused")}
	email := &fakeSender{}
	notifier := NewExpiryNotifier(repo, email, &fakeSender{})

	err := notifier.SendExpiryWarningEmail(context.Background(), "u-1", "sara@example.com", warningData())

	require.NoError(t, err)
	assert.Len(t, email.sent, 1)
}
