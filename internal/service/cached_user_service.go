package service

import (
	"context"

	"tweetflow/internal/domain"
	"tweetflow/pkg/cache"
)

// CachedUserService wraps a UserService with read-through caching of profile
// lookups. Credential checks always go to the wrapped service because cached
// copies carry no password hash.
type CachedUserService struct {
	domain.UserService
	cache cache.Strategy
}

func NewCachedUserService(userService domain.UserService, strategy cache.Strategy) *CachedUserService {
	return &CachedUserService{
		UserService: userService,
		cache:       strategy,
	}
}

func (s *CachedUserService) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	var user *domain.User
	err := s.cache.ReadThrough(ctx, cache.UserCacheKey(id), &user, func() (interface{}, error) {
		return s.UserService.GetUserByID(ctx, id)
	}, cache.ShortExpiration)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *CachedUserService) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	var user *domain.User
	err := s.cache.ReadThrough(ctx, cache.UserCacheKeyByUsername(username), &user, func() (interface{}, error) {
		return s.UserService.GetUserByUsername(ctx, username)
	}, cache.ShortExpiration)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// CachedGraphService drops both users' cached profiles after a graph change.
type CachedGraphService struct {
	graph domain.GraphService
	cache cache.Strategy
}

func NewCachedGraphService(graph domain.GraphService, strategy cache.Strategy) *CachedGraphService {
	return &CachedGraphService{graph: graph, cache: strategy}
}

func (s *CachedGraphService) Follow(ctx context.Context, followerID, targetID int64) (*domain.FollowResult, error) {
	res, err := s.graph.Follow(ctx, followerID, targetID)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, res)
	return res, nil
}

func (s *CachedGraphService) Unfollow(ctx context.Context, followerID, targetID int64) (*domain.FollowResult, error) {
	res, err := s.graph.Unfollow(ctx, followerID, targetID)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, res)
	return res, nil
}

func (s *CachedGraphService) invalidate(ctx context.Context, res *domain.FollowResult) {
	s.cache.Invalidate(ctx,
		cache.UserCacheKey(res.Actor.ID),
		cache.UserCacheKeyByUsername(res.Actor.Username),
		cache.UserCacheKey(res.Target.ID),
		cache.UserCacheKeyByUsername(res.Target.Username),
	)
}
