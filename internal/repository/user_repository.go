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

const userColumns = `id, name, username, email, password_hash, image, created_at`

type UserRepository struct {
	db     *sql.DB
	guard  *Guard
	logger logger.Logger
}

func NewUserRepository(db *sql.DB, guard *Guard, logger logger.Logger) *UserRepository {
	return &UserRepository{
		db:     db,
		guard:  guard,
		logger: logger,
	}
}

func scanUser(row interface{ Scan(...interface{}) error }) (*domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.Image,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	user.Following = []int64{}
	user.Followers = []int64{}
	return &user, nil
}

// findOne returns nil, nil when no user matches.
func (r *UserRepository) findOne(ctx context.Context, column string, value interface{}) (*domain.User, error) {
	var user *domain.User
	err := r.guard.Run(ctx, "find", "user", func(ctx context.Context) error {
		query := fmt.Sprintf(`SELECT %s FROM users WHERE %s = $1`, userColumns, column)

		u, err := scanUser(r.db.QueryRowContext(ctx, query, value))
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := r.loadEdges(ctx, []*domain.User{u}); err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		r.logger.Error("Kullanıcı bulunamadı", map[string]interface{}{column: value, "error": err.Error()})
		return nil, fmt.Errorf("find user by %s: %w", column, err)
	}
	return user, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.findOne(ctx, "id", id)
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, "username", username)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, "email", email)
}

func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]*domain.User, error) {
	users := make([]*domain.User, 0, limit)
	err := r.guard.Run(ctx, "list", "user", func(ctx context.Context) error {
		query := fmt.Sprintf(`SELECT %s FROM users ORDER BY id LIMIT $1 OFFSET $2`, userColumns)
		rows, err := r.db.QueryContext(ctx, query, limit, offset)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			u, err := scanUser(rows)
			if err != nil {
				return err
			}
			users = append(users, u)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		return r.loadEdges(ctx, users)
	})
	if err != nil {
		r.logger.Error("Kullanıcılar listelenemedi", map[string]interface{}{"error": err.Error()})
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.guard.Run(ctx, "count", "user", func(ctx context.Context) error {
		return r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	})
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

// Create inserts the user. Duplicate usernames or emails surface as
// ErrUsernameTaken or ErrEmailTaken.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (name, username, email, password_hash, image, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	user.CreatedAt = time.Now().UTC()

	err := r.guard.Run(ctx, "insert", "user", func(ctx context.Context) error {
		err := r.db.QueryRowContext(ctx, query,
			user.Name,
			user.Username,
			user.Email,
			user.PasswordHash,
			user.Image,
			user.CreatedAt,
		).Scan(&user.ID)
		if isUniqueViolation(err) {
			return r.duplicateError(ctx, user)
		}
		return err
	})
	if err != nil {
		r.logger.Error("Kullanıcı oluşturulamadı", map[string]interface{}{"username": user.Username, "error": err.Error()})
		return fmt.Errorf("create user: %w", err)
	}

	user.Following = []int64{}
	user.Followers = []int64{}
	return nil
}

func (r *UserRepository) duplicateError(ctx context.Context, user *domain.User) error {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, user.Username,
	).Scan(&exists)
	if err == nil && exists {
		return domain.ErrUsernameTaken
	}
	return domain.ErrEmailTaken
}

func (r *UserRepository) IsFollowing(ctx context.Context, followerID, followeeID int64) (bool, error) {
	var exists bool
	err := r.guard.Run(ctx, "find", "follow", func(ctx context.Context) error {
		return r.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM follows WHERE follower_id = $1 AND followee_id = $2)`,
			followerID, followeeID,
		).Scan(&exists)
	})
	if err != nil {
		return false, fmt.Errorf("check follow: %w", err)
	}
	return exists, nil
}

// AddFollow records a single directed edge; the reverse view is derived from it.
func (r *UserRepository) AddFollow(ctx context.Context, followerID, followeeID int64) error {
	err := r.guard.Run(ctx, "insert", "follow", func(ctx context.Context) error {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO follows (follower_id, followee_id, created_at) VALUES ($1, $2, $3)`,
			followerID, followeeID, time.Now().UTC(),
		)
		switch {
		case isUniqueViolation(err):
			return domain.ErrAlreadyFollowing
		case isCheckViolation(err):
			return domain.ErrCannotFollowSelf
		}
		return err
	})
	if err != nil {
		r.logger.Error("Takip eklenemedi", map[string]interface{}{
			"follower_id": followerID,
			"followee_id": followeeID,
			"error":       err.Error(),
		})
		return fmt.Errorf("add follow: %w", err)
	}
	return nil
}

// RemoveFollow reports whether an edge was deleted.
func (r *UserRepository) RemoveFollow(ctx context.Context, followerID, followeeID int64) (bool, error) {
	var removed bool
	err := r.guard.Run(ctx, "delete", "follow", func(ctx context.Context) error {
		res, err := r.db.ExecContext(ctx,
			`DELETE FROM follows WHERE follower_id = $1 AND followee_id = $2`,
			followerID, followeeID,
		)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		removed = n > 0
		return err
	})
	if err != nil {
		r.logger.Error("Takip kaldırılamadı", map[string]interface{}{
			"follower_id": followerID,
			"followee_id": followeeID,
			"error":       err.Error(),
		})
		return false, fmt.Errorf("remove follow: %w", err)
	}
	return removed, nil
}

// loadEdges fills Following and Followers for every user in one pass per direction.
func (r *UserRepository) loadEdges(ctx context.Context, users []*domain.User) error {
	if len(users) == 0 {
		return nil
	}

	byID := make(map[int64]*domain.User, len(users))
	ids := make([]int64, 0, len(users))
	for _, u := range users {
		byID[u.ID] = u
		ids = append(ids, u.ID)
	}

	query, args, err := sq.Select("follower_id", "followee_id").
		From("follows").
		Where(sq.Or{sq.Eq{"follower_id": ids}, sq.Eq{"followee_id": ids}}).
		OrderBy("created_at", "follower_id", "followee_id").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var follower, followee int64
		if err := rows.Scan(&follower, &followee); err != nil {
			return err
		}
		if u, ok := byID[follower]; ok {
			u.Following = append(u.Following, followee)
		}
		if u, ok := byID[followee]; ok {
			u.Followers = append(u.Followers, follower)
		}
	}
	return rows.Err()
}
