package cache

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tweetflow/pkg/logger"
)

type memoryCache struct {
	mu      sync.Mutex
	items   map[string][]byte
	failGet bool
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: map[string][]byte{}}
}

func (m *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = data
	return nil
}

func (m *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet {
		return errors.New("connection refused")
	}
	data, ok := m.items[key]
	if !ok {
		return ErrCacheMiss
	}
	return json.Unmarshal(data, dest)
}

func (m *memoryCache) Delete(ctx context.Context, key string) error {
	return m.DeleteMultiple(ctx, []string{key})
}

func (m *memoryCache) DeleteMultiple(_ context.Context, keys []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.items, k)
	}
	return nil
}

func (m *memoryCache) Ping(context.Context) error { return nil }

type profile struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func TestReadThroughCachesFetchedValue(t *testing.T) {
	ctx := context.Background()
	mgr := NewManager(newMemoryCache(), logger.New(logger.ErrorLevel, io.Discard))

	calls := 0
	fetch := func() (interface{}, error) {
		calls++
		return &profile{ID: 1, Name: "Alice"}, nil
	}

	var first, second profile
	require.NoError(t, mgr.ReadThrough(ctx, UserCacheKey(1), &first, fetch, ShortExpiration))
	require.NoError(t, mgr.ReadThrough(ctx, UserCacheKey(1), &second, fetch, ShortExpiration))

	assert.Equal(t, 1, calls)
	assert.Equal(t, "Alice", first.Name)
	assert.Equal(t, first, second)
}

func TestReadThroughPropagatesFetchError(t *testing.T) {
	mgr := NewManager(newMemoryCache(), logger.New(logger.ErrorLevel, io.Discard))
	boom := errors.New("boom")

	var p profile
	err := mgr.ReadThrough(context.Background(), "k", &p, func() (interface{}, error) { return nil, boom }, ShortExpiration)
	assert.ErrorIs(t, err, boom)
}

func TestReadThroughSurvivesCacheFailure(t *testing.T) {
	mc := newMemoryCache()
	mc.failGet = true
	mgr := NewManager(mc, logger.New(logger.ErrorLevel, io.Discard))

	var p profile
	err := mgr.ReadThrough(context.Background(), "k", &p, func() (interface{}, error) {
		return profile{ID: 2, Name: "Bob"}, nil
	}, ShortExpiration)

	require.NoError(t, err)
	assert.Equal(t, "Bob", p.Name)
}

func TestInvalidateRemovesKeys(t *testing.T) {
	ctx := context.Background()
	mc := newMemoryCache()
	mgr := NewManager(mc, logger.New(logger.ErrorLevel, io.Discard))

	require.NoError(t, mc.Set(ctx, UserCacheKey(1), profile{ID: 1}, 0))
	require.NoError(t, mc.Set(ctx, UserCacheKeyByUsername("alice"), profile{ID: 1}, 0))

	mgr.Invalidate(ctx, UserCacheKey(1), UserCacheKeyByUsername("alice"))

	var p profile
	assert.ErrorIs(t, mc.Get(ctx, UserCacheKey(1), &p), ErrCacheMiss)
	assert.ErrorIs(t, mc.Get(ctx, UserCacheKeyByUsername("alice"), &p), ErrCacheMiss)
}
