package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"tweetflow/pkg/logger"
)

type Migration struct {
	Name  string
	Apply func(ctx context.Context, tx *sql.Tx, d Dialect) error
}

type MigrationService struct {
	db      *sql.DB
	dialect Dialect
	logger  logger.Logger
}

func NewMigrationService(db *sql.DB, dialect Dialect, logger logger.Logger) *MigrationService {
	return &MigrationService{db: db, dialect: dialect, logger: logger}
}

func (m *MigrationService) initMigrationTable(ctx context.Context) error {
	query := fmt.Sprintf(`
    CREATE TABLE IF NOT EXISTS migrations (
        id %s,
        name TEXT NOT NULL UNIQUE,
        applied_at %s NOT NULL
    )`, m.dialect.PrimaryKey(), m.dialect.Timestamp())

	if _, err := m.db.ExecContext(ctx, query); err != nil {
		m.logger.Error("Migration tablosu oluşturulamadı", map[string]interface{}{"error": err.Error()})
		return err
	}
	return nil
}

func (m *MigrationService) IsMigrationApplied(ctx context.Context, name string) (bool, error) {
	var count int
	err := m.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM migrations WHERE name = $1", name).Scan(&count)
	if err != nil {
		m.logger.Error("Migration durumu kontrol edilemedi", map[string]interface{}{"name": name, "error": err.Error()})
		return false, err
	}
	return count > 0, nil
}

// applyMigration runs the migration and records it in one transaction.
func (m *MigrationService) applyMigration(ctx context.Context, mig Migration) (err error) {
	applied, err := m.IsMigrationApplied(ctx, mig.Name)
	if err != nil {
		return err
	}
	if applied {
		m.logger.Debug("Migration zaten uygulanmış", map[string]interface{}{"name": mig.Name})
		return nil
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration %s: %w", mig.Name, err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
			m.logger.Error("Migration geri alındı", map[string]interface{}{"name": mig.Name, "error": err.Error()})
		}
	}()

	if err = mig.Apply(ctx, tx, m.dialect); err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx,
		"INSERT INTO migrations (name, applied_at) VALUES ($1, $2)",
		mig.Name, time.Now().UTC(),
	); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return err
	}

	m.logger.Info("Migration uygulandı", map[string]interface{}{"name": mig.Name})
	return nil
}

func (m *MigrationService) RunMigrations(ctx context.Context) error {
	if err := m.initMigrationTable(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	for _, mig := range Migrations() {
		if err := m.applyMigration(ctx, mig); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", mig.Name, err)
		}
	}
	return nil
}

func Migrations() []Migration {
	return []Migration{
		{"create_users_table", createUsersTable},
		{"create_follows_table", createFollowsTable},
		{"create_tweets_table", createTweetsTable},
		{"create_tweet_likes_table", createTweetLikesTable},
		{"create_activities_table", createActivitiesTable},
	}
}

func execAll(ctx context.Context, tx *sql.Tx, statements ...string) error {
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func createUsersTable(ctx context.Context, tx *sql.Tx, d Dialect) error {
	return execAll(ctx, tx, fmt.Sprintf(`
    CREATE TABLE IF NOT EXISTS users (
        id %s,
        name TEXT NOT NULL,
        username TEXT NOT NULL UNIQUE,
        email TEXT NOT NULL UNIQUE,
        password_hash TEXT NOT NULL,
        image TEXT NOT NULL,
        created_at %s NOT NULL
    )`, d.PrimaryKey(), d.Timestamp()))
}

// following and followers are both projected from this table.
func createFollowsTable(ctx context.Context, tx *sql.Tx, d Dialect) error {
	return execAll(ctx, tx,
		fmt.Sprintf(`
    CREATE TABLE IF NOT EXISTS follows (
        follower_id BIGINT NOT NULL REFERENCES users (id),
        followee_id BIGINT NOT NULL REFERENCES users (id),
        created_at %s NOT NULL,
        PRIMARY KEY (follower_id, followee_id),
        CHECK (follower_id <> followee_id)
    )`, d.Timestamp()),
		`CREATE INDEX IF NOT EXISTS follows_followee_idx ON follows (followee_id)`,
	)
}

func createTweetsTable(ctx context.Context, tx *sql.Tx, d Dialect) error {
	return execAll(ctx, tx,
		fmt.Sprintf(`
    CREATE TABLE IF NOT EXISTS tweets (
        id %s,
        content TEXT NOT NULL,
        author_id BIGINT NOT NULL REFERENCES users (id),
        is_retweet BOOLEAN NOT NULL DEFAULT FALSE,
        original_tweet_id BIGINT REFERENCES tweets (id),
        created_at %s NOT NULL
    )`, d.PrimaryKey(), d.Timestamp()),
		`CREATE INDEX IF NOT EXISTS tweets_created_at_idx ON tweets (created_at)`,
		`CREATE INDEX IF NOT EXISTS tweets_author_idx ON tweets (author_id)`,
		`CREATE INDEX IF NOT EXISTS tweets_original_idx ON tweets (original_tweet_id)`,
		// one live retweet per (original, user)
		`CREATE UNIQUE INDEX IF NOT EXISTS tweets_retweet_unique_idx
        ON tweets (original_tweet_id, author_id) WHERE is_retweet`,
	)
}

func createTweetLikesTable(ctx context.Context, tx *sql.Tx, d Dialect) error {
	return execAll(ctx, tx,
		fmt.Sprintf(`
    CREATE TABLE IF NOT EXISTS tweet_likes (
        tweet_id BIGINT NOT NULL REFERENCES tweets (id),
        user_id BIGINT NOT NULL REFERENCES users (id),
        created_at %s NOT NULL,
        PRIMARY KEY (tweet_id, user_id)
    )`, d.Timestamp()),
	)
}

func createActivitiesTable(ctx context.Context, tx *sql.Tx, d Dialect) error {
	return execAll(ctx, tx,
		fmt.Sprintf(`
    CREATE TABLE IF NOT EXISTS activities (
        id %s,
        entity_type TEXT NOT NULL,
        entity_id BIGINT NOT NULL,
        action TEXT NOT NULL,
        actor_id BIGINT NOT NULL,
        details TEXT,
        created_at %s NOT NULL
    )`, d.PrimaryKey(), d.Timestamp()),
		`CREATE INDEX IF NOT EXISTS activities_entity_idx ON activities (entity_type, entity_id)`,
	)
}
