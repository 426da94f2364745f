package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"tweetflow/internal/domain"
	"tweetflow/pkg/logger"
	"tweetflow/pkg/metrics"
)

type TweetService struct {
	tweets   domain.TweetRepository
	users    domain.UserService
	activity domain.ActivityService
	logger   logger.Logger
}

func NewTweetService(
	tweets domain.TweetRepository,
	users domain.UserService,
	activity domain.ActivityService,
	logger logger.Logger,
) *TweetService {
	return &TweetService{
		tweets:   tweets,
		users:    users,
		activity: activity,
		logger:   logger,
	}
}

func validateContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", domain.ErrContentRequired
	}
	if utf8.RuneCountInString(content) > domain.MaxTweetLength {
		return "", domain.ErrContentTooLong
	}
	return content, nil
}

func (s *TweetService) getTweet(ctx context.Context, id int64) (*domain.Tweet, error) {
	tweet, err := s.tweets.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tweet == nil {
		return nil, domain.ErrTweetNotFound
	}
	return tweet, nil
}

func (s *TweetService) CreateTweet(ctx context.Context, content string, authorID int64) (*domain.TweetView, error) {
	content, err := validateContent(content)
	if err != nil {
		return nil, err
	}
	if _, err := s.users.GetUserByID(ctx, authorID); err != nil {
		return nil, err
	}

	tweet := &domain.Tweet{Content: content, AuthorID: authorID}
	if err := s.tweets.Create(ctx, tweet); err != nil {
		return nil, err
	}

	metrics.RecordEngagement("tweet")
	s.activity.Record(ctx, domain.EntityTypeTweet, tweet.ID, domain.ActionTypeCreate, authorID, "")

	created, err := s.getTweet(ctx, tweet.ID)
	if err != nil {
		return nil, err
	}
	return created.View(), nil
}

// DeleteTweet removes a tweet owned by requesterID together with every retweet of it.
func (s *TweetService) DeleteTweet(ctx context.Context, tweetID, requesterID int64) error {
	tweet, err := s.getTweet(ctx, tweetID)
	if err != nil {
		return err
	}
	if tweet.AuthorID != requesterID {
		return domain.ErrNotTweetOwner
	}

	deleted, err := s.tweets.DeleteCascade(ctx, tweetID)
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Tweet silindi", map[string]interface{}{
		"tweet_id": tweetID,
		"removed":  deleted,
	})
	s.activity.Record(ctx, domain.EntityTypeTweet, tweetID, domain.ActionTypeDelete, requesterID,
		fmt.Sprintf("%d records removed", deleted))
	return nil
}

func (s *TweetService) ToggleLike(ctx context.Context, tweetID, userID int64) (*domain.TweetView, error) {
	if _, err := s.users.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}
	if _, err := s.getTweet(ctx, tweetID); err != nil {
		return nil, err
	}

	liked, err := s.tweets.ToggleLike(ctx, tweetID, userID)
	if err != nil {
		return nil, err
	}

	action := domain.ActionTypeUnlike
	if liked {
		action = domain.ActionTypeLike
	}
	metrics.RecordEngagement(string(action))
	s.activity.Record(ctx, domain.EntityTypeTweet, tweetID, action, userID, "")

	tweet, err := s.getTweet(ctx, tweetID)
	if err != nil {
		return nil, err
	}
	return tweet.View(), nil
}

// ToggleRetweet retweets or un-retweets tweetID for userID. Retweeting a retweet
// acts on the original it points at.
func (s *TweetService) ToggleRetweet(ctx context.Context, tweetID, userID int64) (*domain.RetweetResult, error) {
	if _, err := s.users.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}
	target, err := s.getTweet(ctx, tweetID)
	if err != nil {
		return nil, err
	}

	original := target
	if target.IsRetweet {
		if original, err = s.getTweet(ctx, target.RootID()); err != nil {
			return nil, err
		}
	}

	created, err := s.tweets.ToggleRetweet(ctx, original, userID)
	if errors.Is(err, domain.ErrRetweetAlreadyTaken) {
		// a concurrent toggle created it first
		created, err = s.tweets.FindRetweet(ctx, original.ID, userID)
	}
	if err != nil {
		return nil, err
	}

	result := &domain.RetweetResult{Action: domain.RetweetActionUnretweet}
	if created != nil {
		result.Action = domain.RetweetActionRetweet
		retweet, err := s.getTweet(ctx, created.ID)
		if err != nil {
			return nil, err
		}
		result.Retweet = retweet.View()
	}

	metrics.RecordEngagement(string(result.Action))
	s.activity.Record(ctx, domain.EntityTypeTweet, original.ID, domain.ActionType(result.Action), userID, "")

	updated, err := s.getTweet(ctx, original.ID)
	if err != nil {
		return nil, err
	}
	result.Original = updated.View()
	return result, nil
}
