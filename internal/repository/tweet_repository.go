package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"tweetflow/internal/domain"
	"tweetflow/pkg/logger"
)

var tweetColumns = []string{
	"t.id",
	"t.content",
	"t.author_id",
	"t.is_retweet",
	"t.original_tweet_id",
	"t.created_at",
	"u.name",
	"u.username",
	"u.image",
}

type TweetRepository struct {
	db     *sql.DB
	guard  *Guard
	logger logger.Logger
}

func NewTweetRepository(db *sql.DB, guard *Guard, logger logger.Logger) *TweetRepository {
	return &TweetRepository{
		db:     db,
		guard:  guard,
		logger: logger,
	}
}

func selectTweets() sq.SelectBuilder {
	return sq.Select(tweetColumns...).
		From("tweets t").
		Join("users u ON u.id = t.author_id").
		PlaceholderFormat(sq.Dollar)
}

func scanTweet(row interface{ Scan(...interface{}) error }) (*domain.Tweet, error) {
	var (
		t        domain.Tweet
		original sql.NullInt64
	)
	err := row.Scan(
		&t.ID,
		&t.Content,
		&t.AuthorID,
		&t.IsRetweet,
		&original,
		&t.CreatedAt,
		&t.Author.Name,
		&t.Author.Username,
		&t.Author.Image,
	)
	if err != nil {
		return nil, err
	}
	if original.Valid {
		id := original.Int64
		t.OriginalTweetID = &id
	}
	t.LikedBy = []int64{}
	t.RetweetedBy = []int64{}
	return &t, nil
}

func queryTweets(ctx context.Context, q queryer, b sq.SelectBuilder) ([]*domain.Tweet, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tweets := make([]*domain.Tweet, 0)
	for rows.Next() {
		t, err := scanTweet(rows)
		if err != nil {
			return nil, err
		}
		tweets = append(tweets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := loadMemberships(ctx, q, tweets); err != nil {
		return nil, err
	}
	return tweets, nil
}

// loadMemberships fills LikedBy and RetweetedBy. RetweetedBy is projected from the
// live retweet records that point at each tweet.
func loadMemberships(ctx context.Context, q queryer, tweets []*domain.Tweet) error {
	if len(tweets) == 0 {
		return nil
	}

	byID := make(map[int64]*domain.Tweet, len(tweets))
	ids := make([]int64, 0, len(tweets))
	for _, t := range tweets {
		byID[t.ID] = t
		ids = append(ids, t.ID)
	}

	likes := sq.Select("tweet_id", "user_id").
		From("tweet_likes").
		Where(sq.Eq{"tweet_id": ids}).
		OrderBy("created_at", "user_id").
		PlaceholderFormat(sq.Dollar)
	if err := collectPairs(ctx, q, likes, func(tweetID, userID int64) {
		byID[tweetID].LikedBy = append(byID[tweetID].LikedBy, userID)
	}); err != nil {
		return fmt.Errorf("load likes: %w", err)
	}

	retweets := sq.Select("original_tweet_id", "author_id").
		From("tweets").
		Where("is_retweet").
		Where(sq.Eq{"original_tweet_id": ids}).
		OrderBy("created_at", "id").
		PlaceholderFormat(sq.Dollar)
	if err := collectPairs(ctx, q, retweets, func(tweetID, userID int64) {
		byID[tweetID].RetweetedBy = append(byID[tweetID].RetweetedBy, userID)
	}); err != nil {
		return fmt.Errorf("load retweets: %w", err)
	}

	return nil
}

func collectPairs(ctx context.Context, q queryer, b sq.SelectBuilder, fn func(a, b int64)) error {
	query, args, err := b.ToSql()
	if err != nil {
		return err
	}
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var a, b int64
		if err := rows.Scan(&a, &b); err != nil {
			return err
		}
		fn(a, b)
	}
	return rows.Err()
}

func findTweet(ctx context.Context, q queryer, b sq.SelectBuilder) (*domain.Tweet, error) {
	tweets, err := queryTweets(ctx, q, b.Limit(1))
	if err != nil || len(tweets) == 0 {
		return nil, err
	}
	return tweets[0], nil
}

// FindByID returns nil, nil when the tweet does not exist.
func (r *TweetRepository) FindByID(ctx context.Context, id int64) (*domain.Tweet, error) {
	var tweet *domain.Tweet
	err := r.guard.Run(ctx, "find", "tweet", func(ctx context.Context) (err error) {
		tweet, err = findTweet(ctx, r.db, selectTweets().Where(sq.Eq{"t.id": id}))
		return err
	})
	if err != nil {
		r.logger.Error("Tweet bulunamadı", map[string]interface{}{"id": id, "error": err.Error()})
		return nil, fmt.Errorf("find tweet: %w", err)
	}
	return tweet, nil
}

func (r *TweetRepository) FindRetweet(ctx context.Context, originalID, userID int64) (*domain.Tweet, error) {
	var tweet *domain.Tweet
	err := r.guard.Run(ctx, "find", "tweet", func(ctx context.Context) (err error) {
		tweet, err = findTweet(ctx, r.db, selectTweets().
			Where("t.is_retweet").
			Where(sq.Eq{"t.original_tweet_id": originalID, "t.author_id": userID}))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("find retweet: %w", err)
	}
	return tweet, nil
}

// Find lists tweets newest first, ties broken by id.
func (r *TweetRepository) Find(ctx context.Context, q domain.TweetQuery) ([]*domain.Tweet, error) {
	b := selectTweets().
		OrderBy("t.created_at DESC", "t.id DESC").
		Limit(uint64(q.Limit)).
		Offset(uint64(q.Offset))
	if q.AuthorID != nil {
		b = b.Where(sq.Eq{"t.author_id": *q.AuthorID})
	}

	var tweets []*domain.Tweet
	err := r.guard.Run(ctx, "list", "tweet", func(ctx context.Context) (err error) {
		tweets, err = queryTweets(ctx, r.db, b)
		return err
	})
	if err != nil {
		r.logger.Error("Tweetler listelenemedi", map[string]interface{}{"error": err.Error()})
		return nil, fmt.Errorf("list tweets: %w", err)
	}
	return tweets, nil
}

func (r *TweetRepository) Count(ctx context.Context, authorID *int64) (int, error) {
	b := sq.Select("COUNT(*)").From("tweets").PlaceholderFormat(sq.Dollar)
	if authorID != nil {
		b = b.Where(sq.Eq{"author_id": *authorID})
	}
	query, args, err := b.ToSql()
	if err != nil {
		return 0, err
	}

	var count int
	err = r.guard.Run(ctx, "count", "tweet", func(ctx context.Context) error {
		return r.db.QueryRowContext(ctx, query, args...).Scan(&count)
	})
	if err != nil {
		return 0, fmt.Errorf("count tweets: %w", err)
	}
	return count, nil
}

func insertTweet(ctx context.Context, q queryer, t *domain.Tweet) error {
	query := `
		INSERT INTO tweets (content, author_id, is_retweet, original_tweet_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	var original sql.NullInt64
	if t.OriginalTweetID != nil {
		original = sql.NullInt64{Int64: *t.OriginalTweetID, Valid: true}
	}
	t.CreatedAt = time.Now().UTC()

	return q.QueryRowContext(ctx, query,
		t.Content,
		t.AuthorID,
		t.IsRetweet,
		original,
		t.CreatedAt,
	).Scan(&t.ID)
}

// insertRetweet adds userID's retweet of original. A row already held by the
// retweet unique index is reported as ErrRetweetAlreadyTaken.
func insertRetweet(ctx context.Context, q queryer, original *domain.Tweet, userID int64) (*domain.Tweet, error) {
	originalID := original.ID
	retweet := &domain.Tweet{
		Content:         original.Content,
		AuthorID:        userID,
		IsRetweet:       true,
		OriginalTweetID: &originalID,
	}
	if err := insertTweet(ctx, q, retweet); err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrRetweetAlreadyTaken
		}
		return nil, err
	}
	return retweet, nil
}

func (r *TweetRepository) Create(ctx context.Context, tweet *domain.Tweet) error {
	err := r.guard.Run(ctx, "insert", "tweet", func(ctx context.Context) error {
		return insertTweet(ctx, r.db, tweet)
	})
	if err != nil {
		r.logger.Error("Tweet oluşturulamadı", map[string]interface{}{"author_id": tweet.AuthorID, "error": err.Error()})
		return fmt.Errorf("create tweet: %w", err)
	}
	tweet.LikedBy = []int64{}
	tweet.RetweetedBy = []int64{}
	return nil
}

func (r *TweetRepository) ToggleLike(ctx context.Context, tweetID, userID int64) (bool, error) {
	var liked bool
	err := r.guard.Run(ctx, "toggle_like", "tweet", func(ctx context.Context) error {
		return withTx(ctx, r.db, func(tx *sql.Tx) error {
			res, err := tx.ExecContext(ctx,
				`DELETE FROM tweet_likes WHERE tweet_id = $1 AND user_id = $2`, tweetID, userID)
			if err != nil {
				return err
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			if n > 0 {
				liked = false
				return nil
			}

			_, err = tx.ExecContext(ctx, `
				INSERT INTO tweet_likes (tweet_id, user_id, created_at) VALUES ($1, $2, $3)
				ON CONFLICT (tweet_id, user_id) DO NOTHING`,
				tweetID, userID, time.Now().UTC())
			liked = err == nil
			return err
		})
	})
	if err != nil {
		r.logger.Error("Beğeni değiştirilemedi", map[string]interface{}{
			"tweet_id": tweetID,
			"user_id":  userID,
			"error":    err.Error(),
		})
		return false, fmt.Errorf("toggle like: %w", err)
	}
	return liked, nil
}

func (r *TweetRepository) ToggleRetweet(ctx context.Context, original *domain.Tweet, userID int64) (*domain.Tweet, error) {
	var created *domain.Tweet
	err := r.guard.Run(ctx, "toggle_retweet", "tweet", func(ctx context.Context) error {
		return withTx(ctx, r.db, func(tx *sql.Tx) error {
			var existing int64
			err := tx.QueryRowContext(ctx,
				`SELECT id FROM tweets WHERE is_retweet AND original_tweet_id = $1 AND author_id = $2`,
				original.ID, userID,
			).Scan(&existing)

			switch {
			case err == nil:
				_, err = deleteTweets(ctx, tx, []int64{existing})
				return err
			case !errors.Is(err, sql.ErrNoRows):
				return err
			}

			created, err = insertRetweet(ctx, tx, original, userID)
			return err
		})
	})
	if err != nil {
		if !errors.Is(err, domain.ErrRetweetAlreadyTaken) {
			r.logger.Error("Retweet değiştirilemedi", map[string]interface{}{
				"tweet_id": original.ID,
				"user_id":  userID,
				"error":    err.Error(),
			})
		}
		return nil, fmt.Errorf("toggle retweet: %w", err)
	}
	return created, nil
}

// DeleteCascade removes the tweet, its retweets and the likes on all of them.
func (r *TweetRepository) DeleteCascade(ctx context.Context, tweetID int64) (int64, error) {
	var deleted int64
	err := r.guard.Run(ctx, "delete", "tweet", func(ctx context.Context) error {
		return withTx(ctx, r.db, func(tx *sql.Tx) error {
			rows, err := tx.QueryContext(ctx,
				`SELECT id FROM tweets WHERE original_tweet_id = $1`, tweetID)
			if err != nil {
				return err
			}
			ids := []int64{}
			for rows.Next() {
				var id int64
				if err := rows.Scan(&id); err != nil {
					rows.Close()
					return err
				}
				ids = append(ids, id)
			}
			rows.Close()
			if err := rows.Err(); err != nil {
				return err
			}

			// retweets go first so the original is no longer referenced
			ids = append(ids, tweetID)
			deleted, err = deleteTweets(ctx, tx, ids)
			return err
		})
	})
	if err != nil {
		r.logger.Error("Tweet silinemedi", map[string]interface{}{"id": tweetID, "error": err.Error()})
		return 0, fmt.Errorf("delete tweet: %w", err)
	}
	return deleted, nil
}

func deleteTweets(ctx context.Context, tx *sql.Tx, ids []int64) (int64, error) {
	likes, args, err := sq.Delete("tweet_likes").
		Where(sq.Eq{"tweet_id": ids}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx, likes, args...); err != nil {
		return 0, err
	}

	tweets, args, err := sq.Delete("tweets").
		Where(sq.Eq{"id": ids}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return 0, err
	}
	res, err := tx.ExecContext(ctx, tweets, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
