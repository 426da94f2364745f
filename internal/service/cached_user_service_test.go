package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tweetflow/internal/domain"
)

// jsonStrategy mimics the Redis-backed strategy: values round-trip through JSON.
type jsonStrategy struct {
	mu    sync.Mutex
	items map[string][]byte
	hits  int
}

func newJSONStrategy() *jsonStrategy {
	return &jsonStrategy{items: map[string][]byte{}}
}

func (c *jsonStrategy) ReadThrough(_ context.Context, key string, dest interface{}, fetch func() (interface{}, error), _ time.Duration) error {
	c.mu.Lock()
	data, ok := c.items[key]
	c.mu.Unlock()
	if ok {
		c.hits++
		return json.Unmarshal(data, dest)
	}

	v, err := fetch()
	if err != nil {
		return err
	}
	data, err = json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.items[key] = data
	c.mu.Unlock()
	return json.Unmarshal(data, dest)
}

func (c *jsonStrategy) Invalidate(_ context.Context, keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.items, k)
	}
}

type stubUsers struct {
	domain.UserService
	byID  map[int64]*domain.User
	calls int
}

func (s *stubUsers) GetUserByID(_ context.Context, id int64) (*domain.User, error) {
	s.calls++
	u, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *stubUsers) GetUserByUsername(_ context.Context, username string) (*domain.User, error) {
	s.calls++
	for _, u := range s.byID {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

type stubGraph struct {
	users *stubUsers
	err   error
}

func (g *stubGraph) Follow(_ context.Context, followerID, targetID int64) (*domain.FollowResult, error) {
	if g.err != nil {
		return nil, g.err
	}
	a, t := g.users.byID[followerID], g.users.byID[targetID]
	a.Following = append(a.Following, targetID)
	t.Followers = append(t.Followers, followerID)
	return &domain.FollowResult{Actor: a, Target: t}, nil
}

func (g *stubGraph) Unfollow(_ context.Context, followerID, targetID int64) (*domain.FollowResult, error) {
	if g.err != nil {
		return nil, g.err
	}
	a, t := g.users.byID[followerID], g.users.byID[targetID]
	a.Following, t.Followers = []int64{}, []int64{}
	return &domain.FollowResult{Actor: a, Target: t}, nil
}

func newStubUsers() *stubUsers {
	return &stubUsers{byID: map[int64]*domain.User{
		1: {ID: 1, Username: "alice", PasswordHash: "hash", Following: []int64{}, Followers: []int64{}},
		2: {ID: 2, Username: "bob", PasswordHash: "hash", Following: []int64{}, Followers: []int64{}},
	}}
}

func TestCachedUserServiceServesRepeatReadsFromCache(t *testing.T) {
	ctx := context.Background()
	users := newStubUsers()
	strategy := newJSONStrategy()
	cached := NewCachedUserService(users, strategy)

	first, err := cached.GetUserByID(ctx, 1)
	require.NoError(t, err)
	second, err := cached.GetUserByID(ctx, 1)
	require.NoError(t, err)

	assert.Equal(t, 1, users.calls)
	assert.Equal(t, 1, strategy.hits)
	assert.Equal(t, first.Username, second.Username)
	assert.Empty(t, second.PasswordHash)

	byName, err := cached.GetUserByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(2), byName.ID)
}

func TestCachedUserServiceDoesNotCacheMisses(t *testing.T) {
	ctx := context.Background()
	users := newStubUsers()
	cached := NewCachedUserService(users, newJSONStrategy())

	_, err := cached.GetUserByID(ctx, 42)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	_, err = cached.GetUserByID(ctx, 42)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	assert.Equal(t, 2, users.calls)
}

func TestCachedGraphServiceInvalidatesBothUsers(t *testing.T) {
	ctx := context.Background()
	users := newStubUsers()
	strategy := newJSONStrategy()
	cachedUsers := NewCachedUserService(users, strategy)
	graph := NewCachedGraphService(&stubGraph{users: users}, strategy)

	_, err := cachedUsers.GetUserByID(ctx, 1)
	require.NoError(t, err)
	_, err = cachedUsers.GetUserByUsername(ctx, "bob")
	require.NoError(t, err)

	_, err = graph.Follow(ctx, 1, 2)
	require.NoError(t, err)

	alice, err := cachedUsers.GetUserByID(ctx, 1)
	require.NoError(t, err)
	bob, err := cachedUsers.GetUserByUsername(ctx, "bob")
	require.NoError(t, err)

	assert.Equal(t, []int64{2}, alice.Following)
	assert.Equal(t, []int64{1}, bob.Followers)
}

func TestCachedGraphServiceKeepsCacheOnFailure(t *testing.T) {
	ctx := context.Background()
	users := newStubUsers()
	strategy := newJSONStrategy()
	graph := NewCachedGraphService(&stubGraph{users: users, err: errors.New("store down")}, strategy)

	strategy.items["user:id:1"] = []byte(`{"id":1}`)
	_, err := graph.Follow(ctx, 1, 2)
	require.Error(t, err)
	assert.Contains(t, strategy.items, "user:id:1")
}
