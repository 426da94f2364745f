package database

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tweetflow/internal/config"
	"tweetflow/pkg/logger"
)

func openTestDB(t *testing.T) *MigrationService {
	t.Helper()
	log := logger.New(logger.ErrorLevel, io.Discard)
	cfg := config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "test.db"),
	}

	db, err := Open(context.Background(), cfg, log)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewMigrationService(db, SQLite, log)
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	ctx := context.Background()
	m := openTestDB(t)

	require.NoError(t, m.RunMigrations(ctx))
	require.NoError(t, m.RunMigrations(ctx))

	var count int
	require.NoError(t, m.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM migrations").Scan(&count))
	assert.Equal(t, len(Migrations()), count)

	applied, err := m.IsMigrationApplied(ctx, "create_tweets_table")
	require.NoError(t, err)
	assert.True(t, applied)
}

func TestSchemaConstraints(t *testing.T) {
	ctx := context.Background()
	m := openTestDB(t)
	require.NoError(t, m.RunMigrations(ctx))
	db := m.db
	now := time.Now().UTC()

	for _, name := range []string{"alice", "bob"} {
		_, err := db.ExecContext(ctx,
			`INSERT INTO users (name, username, email, password_hash, image, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
			name, name, name+"@example.com", "hash", "img", now)
		require.NoError(t, err)
	}

	t.Run("self follow rejected", func(t *testing.T) {
		_, err := db.ExecContext(ctx, `INSERT INTO follows (follower_id, followee_id, created_at) VALUES (1, 1, $1)`, now)
		assert.Error(t, err)
	})

	t.Run("duplicate follow rejected", func(t *testing.T) {
		_, err := db.ExecContext(ctx, `INSERT INTO follows (follower_id, followee_id, created_at) VALUES (1, 2, $1)`, now)
		require.NoError(t, err)
		_, err = db.ExecContext(ctx, `INSERT INTO follows (follower_id, followee_id, created_at) VALUES (1, 2, $1)`, now)
		assert.Error(t, err)
	})

	t.Run("second retweet by same user rejected", func(t *testing.T) {
		_, err := db.ExecContext(ctx, `INSERT INTO tweets (content, author_id, is_retweet, created_at) VALUES ('hi', 1, $1, $2)`, false, now)
		require.NoError(t, err)

		insert := `INSERT INTO tweets (content, author_id, is_retweet, original_tweet_id, created_at) VALUES ('hi', 2, $1, 1, $2)`
		_, err = db.ExecContext(ctx, insert, true, now)
		require.NoError(t, err)
		_, err = db.ExecContext(ctx, insert, true, now)
		assert.Error(t, err)
	})
}
