package application

import (
	"context"
	"io"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/wyfcoding/ecommerce/internal/cart/domain"
	notification "github.com/wyfcoding/ecommerce/internal/notification/application"
	userdomain "github.com/wyfcoding/ecommerce/internal/user/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeCartRepo 内存版购物车仓储
type fakeCartRepo struct {
	byUser  map[string]*domain.Cart
	byGuest map[string]*domain.Cart

	expired []*domain.Cart
	near    []*domain.Cart

	saved      []*domain.Cart
	deleted    []uint
	warned     []uint
	nextID     uint
	findCalls  int
	nearCalls  int
	findErr    error
	nearErr    error
	markErr    error
	saveErrFor map[uint]error
}

func newFakeCartRepo() *fakeCartRepo {
	return &fakeCartRepo{
		byUser:     make(map[string]*domain.Cart),
		byGuest:    make(map[string]*domain.Cart),
		saveErrFor: make(map[uint]error),
	}
}

func (r *fakeCartRepo) GetByUserID(_ context.Context, userID string) (*domain.Cart, error) {
	cart, ok := r.byUser[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return cart, nil
}

func (r *fakeCartRepo) GetByGuestToken(_ context.Context, token string) (*domain.Cart, error) {
	cart, ok := r.byGuest[token]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return cart, nil
}

func (r *fakeCartRepo) Save(_ context.Context, cart *domain.Cart) error {
	if err := r.saveErrFor[cart.ID]; err != nil {
		return err
	}
	if cart.ID == 0 {
		r.nextID++
		cart.ID = r.nextID
	}
	if cart.UserID != nil && *cart.UserID != "" {
		r.byUser[*cart.UserID] = cart
	}
	if cart.GuestToken != "" {
		r.byGuest[cart.GuestToken] = cart
	}
	r.saved = append(r.saved, cart)
	return nil
}

func (r *fakeCartRepo) Delete(_ context.Context, cartID uint) error {
	r.deleted = append(r.deleted, cartID)
	for k, c := range r.byGuest {
		if c.ID == cartID {
			delete(r.byGuest, k)
		}
	}
	for k, c := range r.byUser {
		if c.ID == cartID {
			delete(r.byUser, k)
		}
	}
	return nil
}

func (r *fakeCartRepo) FindExpiredActive(_ context.Context, _ time.Time) ([]*domain.Cart, error) {
	r.findCalls++
	if r.findErr != nil {
		return nil, r.findErr
	}
	return r.expired, nil
}

func (r *fakeCartRepo) FindNearExpiry(_ context.Context, _, _ time.Time) ([]*domain.Cart, error) {
	r.nearCalls++
	if r.nearErr != nil {
		return nil, r.nearErr
	}
	return r.near, nil
}

func (r *fakeCartRepo) MarkWarned(_ context.Context, cartID uint) error {
	if r.markErr != nil {
		return r.markErr
	}
	r.warned = append(r.warned, cartID)
	return nil
}

func (r *fakeCartRepo) InTx(_ context.Context, fn func(domain.CartRepository) error) error {
	return fn(r)
}

// fakeSettingsRepo 固定返回给定设置
type fakeSettingsRepo struct {
	settings *domain.CartSettings
	loadErr  error
	saved    []*domain.CartSettings
}

func (r *fakeSettingsRepo) Load(context.Context) (*domain.CartSettings, error) {
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	return r.settings, nil
}

func (r *fakeSettingsRepo) Save(_ context.Context, s *domain.CartSettings) error {
	r.saved = append(r.saved, s)
	r.settings = s
	return nil
}

// fakeUserRepo 内存用户查询
type fakeUserRepo struct {
	users map[string]*userdomain.User
}

func (r *fakeUserRepo) GetByUserID(_ context.Context, userID string) (*userdomain.User, error) {
	user, ok := r.users[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

// fakePublisher 记录发布的事件
type fakePublisher struct {
	itemAdded   []domain.CartItemAddedEvent
	itemRemoved []domain.CartItemRemovedEvent
	cleared     []domain.CartClearedEvent
	merged      []domain.CartsMergedEvent
	expired     []domain.CartExpiredEvent
	warned      []domain.CartExpiryWarnedEvent
}

func (p *fakePublisher) PublishCartItemAdded(_ context.Context, e domain.CartItemAddedEvent) error {
	p.itemAdded = append(p.itemAdded, e)
	return nil
}

func (p *fakePublisher) PublishCartItemRemoved(_ context.Context, e domain.CartItemRemovedEvent) error {
	p.itemRemoved = append(p.itemRemoved, e)
	return nil
}

func (p *fakePublisher) PublishCartCleared(_ context.Context, e domain.CartClearedEvent) error {
	p.cleared = append(p.cleared, e)
	return nil
}

func (p *fakePublisher) PublishCartsMerged(_ context.Context, e domain.CartsMergedEvent) error {
	p.merged = append(p.merged, e)
	return nil
}

func (p *fakePublisher) PublishCartExpired(_ context.Context, e domain.CartExpiredEvent) error {
	p.expired = append(p.expired, e)
	return nil
}

func (p *fakePublisher) PublishCartExpiryWarned(_ context.Context, e domain.CartExpiryWarnedEvent) error {
	p.warned = append(p.warned, e)
	return nil
}

type sentWarning struct {
	userID string
	target string
	data   notification.ExpiryWarningData
}

// fakeNotifier 记录提醒发送尝试，可按通道注入失败
type fakeNotifier struct {
	emailErr error
	smsErr   error
	emails   []sentWarning
	sms      []sentWarning
}

func (n *fakeNotifier) SendExpiryWarningEmail(_ context.Context, userID, address string, data notification.ExpiryWarningData) error {
	if n.emailErr != nil {
		return n.emailErr
	}
	n.emails = append(n.emails, sentWarning{userID: userID, target: address, data: data})
	return nil
}

func (n *fakeNotifier) SendExpiryWarningSMS(_ context.Context, userID, mobile string, data notification.ExpiryWarningData) error {
	if n.smsErr != nil {
		return n.smsErr
	}
	n.sms = append(n.sms, sentWarning{userID: userID, target: mobile, data: data})
	return nil
}
