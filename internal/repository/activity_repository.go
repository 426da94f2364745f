package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"tweetflow/internal/domain"
	"tweetflow/pkg/logger"
)

type ActivityRepository struct {
	db     *sql.DB
	guard  *Guard
	logger logger.Logger
}

func NewActivityRepository(db *sql.DB, guard *Guard, logger logger.Logger) *ActivityRepository {
	return &ActivityRepository{
		db:     db,
		guard:  guard,
		logger: logger,
	}
}

func (r *ActivityRepository) Create(ctx context.Context, a *domain.Activity) error {
	query := `
		INSERT INTO activities (entity_type, entity_id, action, actor_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	a.CreatedAt = time.Now().UTC()

	err := r.guard.Run(ctx, "insert", "activity", func(ctx context.Context) error {
		return r.db.QueryRowContext(ctx, query,
			string(a.EntityType),
			a.EntityID,
			string(a.Action),
			a.ActorID,
			a.Details,
			a.CreatedAt,
		).Scan(&a.ID)
	})
	if err != nil {
		r.logger.Error("Aktivite kaydı oluşturulamadı", map[string]interface{}{"error": err.Error()})
		return fmt.Errorf("create activity: %w", err)
	}
	return nil
}

func (r *ActivityRepository) FindByEntity(ctx context.Context, entityType domain.EntityType, entityID int64, limit, offset int) ([]*domain.Activity, error) {
	return r.find(ctx, sq.Eq{"entity_type": string(entityType), "entity_id": entityID}, limit, offset)
}

func (r *ActivityRepository) FindAll(ctx context.Context, limit, offset int) ([]*domain.Activity, error) {
	return r.find(ctx, nil, limit, offset)
}

func (r *ActivityRepository) find(ctx context.Context, where sq.Sqlizer, limit, offset int) ([]*domain.Activity, error) {
	b := sq.Select("id", "entity_type", "entity_id", "action", "actor_id", "details", "created_at").
		From("activities").
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		PlaceholderFormat(sq.Dollar)
	if where != nil {
		b = b.Where(where)
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}

	activities := make([]*domain.Activity, 0)
	err = r.guard.Run(ctx, "list", "activity", func(ctx context.Context) error {
		rows, err := r.db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				a                  domain.Activity
				entityType, action string
				details            sql.NullString
			)
			if err := rows.Scan(&a.ID, &entityType, &a.EntityID, &action, &a.ActorID, &details, &a.CreatedAt); err != nil {
				return err
			}
			a.EntityType = domain.EntityType(entityType)
			a.Action = domain.ActionType(action)
			a.Details = details.String
			activities = append(activities, &a)
		}
		return rows.Err()
	})
	if err != nil {
		r.logger.Error("Aktivite kayıtları alınamadı", map[string]interface{}{"error": err.Error()})
		return nil, fmt.Errorf("list activities: %w", err)
	}
	return activities, nil
}
