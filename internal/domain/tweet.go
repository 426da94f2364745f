package domain

import (
	"context"
	"time"
)

const MaxTweetLength = 280

type AuthorSnapshot struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Image    string `json:"image"`
}

// Tweet is the stored record. LikedBy, RetweetedBy and Author are filled in at
// read time by the repository.
type Tweet struct {
	ID              int64
	Content         string
	AuthorID        int64
	IsRetweet       bool
	OriginalTweetID *int64
	CreatedAt       time.Time

	LikedBy     []int64
	RetweetedBy []int64
	Author      AuthorSnapshot
}

// TweetView is the client-facing projection of a tweet.
type TweetView struct {
	ID              int64          `json:"id"`
	Content         string         `json:"content"`
	CreatedAt       time.Time      `json:"createdAt"`
	AuthorID        int64          `json:"authorId"`
	Author          AuthorSnapshot `json:"author"`
	LikeCount       int            `json:"likeCount"`
	CommentCount    int            `json:"commentCount"`
	LikedBy         []int64        `json:"likedBy"`
	RetweetedBy     []int64        `json:"retweetedBy"`
	IsRetweet       bool           `json:"isRetweet"`
	OriginalTweetID *int64         `json:"originalTweetId,omitempty"`
}

func (t *Tweet) View() *TweetView {
	likedBy := t.LikedBy
	if likedBy == nil {
		likedBy = []int64{}
	}
	retweetedBy := t.RetweetedBy
	if retweetedBy == nil {
		retweetedBy = []int64{}
	}

	return &TweetView{
		ID:              t.ID,
		Content:         t.Content,
		CreatedAt:       t.CreatedAt,
		AuthorID:        t.AuthorID,
		Author:          t.Author,
		LikeCount:       len(likedBy),
		CommentCount:    0,
		LikedBy:         likedBy,
		RetweetedBy:     retweetedBy,
		IsRetweet:       t.IsRetweet,
		OriginalTweetID: t.OriginalTweetID,
	}
}

// RootID is the id of the original tweet this record points at, or its own id.
func (t *Tweet) RootID() int64 {
	if t.IsRetweet && t.OriginalTweetID != nil {
		return *t.OriginalTweetID
	}
	return t.ID
}

func (t *Tweet) LikedByUser(userID int64) bool {
	return containsID(t.LikedBy, userID)
}

func (t *Tweet) RetweetedByUser(userID int64) bool {
	return containsID(t.RetweetedBy, userID)
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

type RetweetAction string

const (
	RetweetActionRetweet   RetweetAction = "retweet"
	RetweetActionUnretweet RetweetAction = "unretweet"
)

type RetweetResult struct {
	Action   RetweetAction `json:"action"`
	Original *TweetView    `json:"original"`
	Retweet  *TweetView    `json:"retweet,omitempty"`
}

type TweetQuery struct {
	AuthorID *int64
	Limit    int
	Offset   int
}

type TweetRepository interface {
	FindByID(ctx context.Context, id int64) (*Tweet, error)
	Find(ctx context.Context, q TweetQuery) ([]*Tweet, error)
	Count(ctx context.Context, authorID *int64) (int, error)
	Create(ctx context.Context, tweet *Tweet) error
	FindRetweet(ctx context.Context, originalID, userID int64) (*Tweet, error)

	// ToggleLike flips userID's membership in the tweet's likes and reports the new state.
	ToggleLike(ctx context.Context, tweetID, userID int64) (bool, error)
	// ToggleRetweet deletes userID's retweet of original if it exists, otherwise
	// creates one. It returns the created record, or nil when a record was removed.
	// A uniqueness violation from a concurrent create is reported as ErrRetweetAlreadyTaken.
	ToggleRetweet(ctx context.Context, original *Tweet, userID int64) (*Tweet, error)
	// DeleteCascade removes the tweet, every retweet pointing at it and their likes.
	DeleteCascade(ctx context.Context, tweetID int64) (int64, error)
}

type TweetService interface {
	CreateTweet(ctx context.Context, content string, authorID int64) (*TweetView, error)
	DeleteTweet(ctx context.Context, tweetID, requesterID int64) error
	ToggleLike(ctx context.Context, tweetID, userID int64) (*TweetView, error)
	ToggleRetweet(ctx context.Context, tweetID, userID int64) (*RetweetResult, error)
}
