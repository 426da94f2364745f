package service

import (
	"context"
	"errors"

	"tweetflow/internal/domain"
	"tweetflow/pkg/logger"
)

type FeedService struct {
	tweets domain.TweetRepository
	users  domain.UserService
	logger logger.Logger
}

func NewFeedService(tweets domain.TweetRepository, users domain.UserService, logger logger.Logger) *FeedService {
	return &FeedService{
		tweets: tweets,
		users:  users,
		logger: logger,
	}
}

// ListFeed returns one page of tweets, newest first. An unknown username yields
// an empty page rather than an error.
func (s *FeedService) ListFeed(ctx context.Context, filter domain.FeedFilter, page, limit int) (*domain.Feed, error) {
	page, limit = domain.NormalizePage(page, limit)
	feed := &domain.Feed{Items: []*domain.TweetView{}, Page: page}

	var authorID *int64
	if filter.Username != "" {
		user, err := s.users.GetUserByUsername(ctx, filter.Username)
		// unknown author: empty page, never the unfiltered feed
		if errors.Is(err, domain.ErrUserNotFound) {
			return feed, nil
		}
		if err != nil {
			return nil, err
		}
		authorID = &user.ID
	}

	total, err := s.tweets.Count(ctx, authorID)
	if err != nil {
		return nil, err
	}
	feed.TotalCount = total
	feed.TotalPages = domain.TotalPages(total, limit)

	tweets, err := s.tweets.Find(ctx, domain.TweetQuery{
		AuthorID: authorID,
		Limit:    limit,
		Offset:   domain.Offset(page, limit),
	})
	if err != nil {
		return nil, err
	}

	for _, t := range tweets {
		feed.Items = append(feed.Items, t.View())
	}
	return feed, nil
}
