package domain

import "context"

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type FeedFilter struct {
	Username string
}

type Feed struct {
	Items      []*TweetView `json:"items"`
	TotalCount int          `json:"totalCount"`
	Page       int          `json:"page"`
	TotalPages int          `json:"totalPages"`
}

type FeedService interface {
	ListFeed(ctx context.Context, filter FeedFilter, page, limit int) (*Feed, error)
}

// NormalizePage falls back to page 1 and the default size for non-positive input.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit
}

func Offset(page, limit int) int {
	return (page - 1) * limit
}

func TotalPages(total, limit int) int {
	if limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
