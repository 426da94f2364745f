package service

import (
	"context"

	"tweetflow/internal/domain"
	"tweetflow/pkg/logger"
	"tweetflow/pkg/metrics"
)

type GraphService struct {
	users    domain.UserRepository
	activity domain.ActivityService
	logger   logger.Logger
}

func NewGraphService(users domain.UserRepository, activity domain.ActivityService, logger logger.Logger) *GraphService {
	return &GraphService{
		users:    users,
		activity: activity,
		logger:   logger,
	}
}

func (s *GraphService) loadPair(ctx context.Context, followerID, targetID int64) (*domain.User, *domain.User, error) {
	follower, err := s.users.FindByID(ctx, followerID)
	if err != nil {
		return nil, nil, err
	}
	target, err := s.users.FindByID(ctx, targetID)
	if err != nil {
		return nil, nil, err
	}
	if follower == nil || target == nil {
		return nil, nil, domain.ErrUserNotFound
	}
	return follower, target, nil
}

// Follow adds followerID -> targetID. Checks run in order: both users exist,
// not self, not already following.
func (s *GraphService) Follow(ctx context.Context, followerID, targetID int64) (*domain.FollowResult, error) {
	if _, _, err := s.loadPair(ctx, followerID, targetID); err != nil {
		return nil, err
	}
	if followerID == targetID {
		return nil, domain.ErrCannotFollowSelf
	}

	following, err := s.users.IsFollowing(ctx, followerID, targetID)
	if err != nil {
		return nil, err
	}
	if following {
		return nil, domain.ErrAlreadyFollowing
	}

	if err := s.users.AddFollow(ctx, followerID, targetID); err != nil {
		return nil, err
	}

	metrics.RecordEngagement("follow")
	s.activity.Record(ctx, domain.EntityTypeUser, targetID, domain.ActionTypeFollow, followerID, "")

	return s.result(ctx, followerID, targetID)
}

func (s *GraphService) Unfollow(ctx context.Context, followerID, targetID int64) (*domain.FollowResult, error) {
	if _, _, err := s.loadPair(ctx, followerID, targetID); err != nil {
		return nil, err
	}

	removed, err := s.users.RemoveFollow(ctx, followerID, targetID)
	if err != nil {
		return nil, err
	}
	if !removed {
		return nil, domain.ErrNotFollowing
	}

	metrics.RecordEngagement("unfollow")
	s.activity.Record(ctx, domain.EntityTypeUser, targetID, domain.ActionTypeUnfollow, followerID, "")

	return s.result(ctx, followerID, targetID)
}

func (s *GraphService) result(ctx context.Context, followerID, targetID int64) (*domain.FollowResult, error) {
	actor, target, err := s.loadPair(ctx, followerID, targetID)
	if err != nil {
		return nil, err
	}
	return &domain.FollowResult{Actor: actor, Target: target}, nil
}
