// Package redis 提供购物车设置的缓存装饰器。
// 提醒扫描每分钟读一次设置，走缓存避免每个 tick 打数据库。
package redis

import (
	"context"
	"errors"
	"time"

	"github.com/wyfcoding/ecommerce/internal/cart/domain"
	"github.com/wyfcoding/ecommerce/pkg/cache"
	"github.com/wyfcoding/ecommerce/pkg/logger"
)

const settingsCacheKey = "cart:settings"

type cachedSettingsRepository struct {
	inner domain.SettingsRepository
	cache *cache.RedisCache
	ttl   time.Duration
}

// NewCachedSettingsRepository 用 Redis 缓存包装设置仓储
func NewCachedSettingsRepository(inner domain.SettingsRepository, c *cache.RedisCache, ttl time.Duration) domain.SettingsRepository {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &cachedSettingsRepository{inner: inner, cache: c, ttl: ttl}
}

func (r *cachedSettingsRepository) Load(ctx context.Context) (*domain.CartSettings, error) {
	var settings domain.CartSettings
	err := r.cache.GetJSON(ctx, settingsCacheKey, &settings)
	if err == nil {
		return &settings, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		logger.Warn(ctx, "Cart settings cache read failed, falling back to store", "error", err)
	}

	loaded, err := r.inner.Load(ctx)
	if err != nil {
		return nil, err
	}

	if err := r.cache.SetJSON(ctx, settingsCacheKey, loaded, r.ttl); err != nil {
		logger.Warn(ctx, "Cart settings cache write failed", "error", err)
	}
	return loaded, nil
}

// Save 写穿透并失效缓存
func (r *cachedSettingsRepository) Save(ctx context.Context, settings *domain.CartSettings) error {
	if err := r.inner.Save(ctx, settings); err != nil {
		return err
	}
	if err := r.cache.Delete(ctx, settingsCacheKey); err != nil {
		logger.Warn(ctx, "Cart settings cache invalidation failed", "error", err)
	}
	return nil
}
