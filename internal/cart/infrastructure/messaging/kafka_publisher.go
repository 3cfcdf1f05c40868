// Package messaging 提供购物车领域事件的 Kafka 发布实现。
package messaging

import (
	"context"
	"strconv"

	"github.com/wyfcoding/ecommerce/internal/cart/domain"
	"github.com/wyfcoding/ecommerce/pkg/mq"
)

// KafkaEventPublisher 将购物车事件发布到 Kafka，同一购物车的事件按 cart_id 分区保序
type KafkaEventPublisher struct {
	producer *mq.KafkaProducer
	topic    string
}

// NewKafkaEventPublisher 创建 Kafka 事件发布者
func NewKafkaEventPublisher(producer *mq.KafkaProducer, topic string) domain.EventPublisher {
	return &KafkaEventPublisher{producer: producer, topic: topic}
}

func (p *KafkaEventPublisher) PublishCartItemAdded(ctx context.Context, event domain.CartItemAddedEvent) error {
	return p.send(ctx, event.CartID, wrap("cart.item_added", event))
}

func (p *KafkaEventPublisher) PublishCartItemRemoved(ctx context.Context, event domain.CartItemRemovedEvent) error {
	return p.send(ctx, event.CartID, wrap("cart.item_removed", event))
}

func (p *KafkaEventPublisher) PublishCartCleared(ctx context.Context, event domain.CartClearedEvent) error {
	return p.send(ctx, event.CartID, wrap("cart.cleared", event))
}

func (p *KafkaEventPublisher) PublishCartsMerged(ctx context.Context, event domain.CartsMergedEvent) error {
	return p.send(ctx, event.UserCartID, wrap("cart.merged", event))
}

func (p *KafkaEventPublisher) PublishCartExpired(ctx context.Context, event domain.CartExpiredEvent) error {
	return p.send(ctx, event.CartID, wrap("cart.expired", event))
}

func (p *KafkaEventPublisher) PublishCartExpiryWarned(ctx context.Context, event domain.CartExpiryWarnedEvent) error {
	return p.send(ctx, event.CartID, wrap("cart.expiry_warned", event))
}

type envelope struct {
	EventType string `json:"event_type"`
	Payload   any    `json:"payload"`
}

func wrap(eventType string, payload any) envelope {
	return envelope{EventType: eventType, Payload: payload}
}

func (p *KafkaEventPublisher) send(ctx context.Context, cartID uint, value envelope) error {
	return p.producer.SendMessage(ctx, p.topic, strconv.FormatUint(uint64(cartID), 10), value)
}

// NopEventPublisher 空实现，Kafka 未启用时使用
type NopEventPublisher struct{}

// NewNopEventPublisher 创建空事件发布者
func NewNopEventPublisher() domain.EventPublisher {
	return &NopEventPublisher{}
}

func (NopEventPublisher) PublishCartItemAdded(context.Context, domain.CartItemAddedEvent) error {
	return nil
}

func (NopEventPublisher) PublishCartItemRemoved(context.Context, domain.CartItemRemovedEvent) error {
	return nil
}

func (NopEventPublisher) PublishCartCleared(context.Context, domain.CartClearedEvent) error {
	return nil
}

func (NopEventPublisher) PublishCartsMerged(context.Context, domain.CartsMergedEvent) error {
	return nil
}

func (NopEventPublisher) PublishCartExpired(context.Context, domain.CartExpiredEvent) error {
	return nil
}

func (NopEventPublisher) PublishCartExpiryWarned(context.Context, domain.CartExpiryWarnedEvent) error {
	return nil
}
