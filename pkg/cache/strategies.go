package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tweetflow/pkg/logger"
	"tweetflow/pkg/metrics"
)

const (
	UserByIDKey       = "user:id:%d"
	UserByUsernameKey = "user:username:%s"
)

const ShortExpiration = 5 * time.Minute

type Strategy interface {
	// ReadThrough serves key from cache, falling back to fetch and caching its
	// result. Cache failures never fail the read.
	ReadThrough(ctx context.Context, key string, dest interface{}, fetch func() (interface{}, error), expiration time.Duration) error
	Invalidate(ctx context.Context, keys ...string)
}

type Manager struct {
	cache  Cache
	logger logger.Logger
}

func NewManager(cache Cache, logger logger.Logger) *Manager {
	return &Manager{cache: cache, logger: logger}
}

func (m *Manager) ReadThrough(ctx context.Context, key string, dest interface{}, fetch func() (interface{}, error), expiration time.Duration) error {
	err := m.cache.Get(ctx, key, dest)
	if err == nil {
		metrics.RecordCacheHit()
		return nil
	}
	metrics.RecordCacheMiss()

	if !errors.Is(err, ErrCacheMiss) {
		m.logger.Warn("Önbellek okunamadı, veritabanına dönülüyor", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}

	data, err := fetch()
	if err != nil {
		return err
	}

	if err := m.cache.Set(ctx, key, data, expiration); err != nil {
		m.logger.Warn("Önbellek yazılamadı", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}

	return copyData(data, dest)
}

func (m *Manager) Invalidate(ctx context.Context, keys ...string) {
	if err := m.cache.DeleteMultiple(ctx, keys); err != nil {
		m.logger.Warn("Önbellek temizlenemedi", map[string]interface{}{
			"keys":  keys,
			"error": err.Error(),
		})
	}
}

func UserCacheKey(userID int64) string {
	return fmt.Sprintf(UserByIDKey, userID)
}

func UserCacheKeyByUsername(username string) string {
	return fmt.Sprintf(UserByUsernameKey, username)
}

func copyData(src, dest interface{}) error {
	if d, ok := dest.(*interface{}); ok {
		*d = src
		return nil
	}
	data, err := json.Marshal(src)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}
