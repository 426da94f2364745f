package domain

import (
	"context"
	"time"
)

type EntityType string
type ActionType string

const (
	EntityTypeUser  EntityType = "user"
	EntityTypeTweet EntityType = "tweet"

	ActionTypeCreate    ActionType = "create"
	ActionTypeDelete    ActionType = "delete"
	ActionTypeFollow    ActionType = "follow"
	ActionTypeUnfollow  ActionType = "unfollow"
	ActionTypeLike      ActionType = "like"
	ActionTypeUnlike    ActionType = "unlike"
	ActionTypeRetweet   ActionType = "retweet"
	ActionTypeUnretweet ActionType = "unretweet"
)

// Activity is an append-only record of a successful mutation.
type Activity struct {
	ID         int64      `json:"id"`
	EntityType EntityType `json:"entityType"`
	EntityID   int64      `json:"entityId"`
	Action     ActionType `json:"action"`
	ActorID    int64      `json:"actorId"`
	Details    string     `json:"details,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

type ActivityRepository interface {
	Create(ctx context.Context, activity *Activity) error
	FindByEntity(ctx context.Context, entityType EntityType, entityID int64, limit, offset int) ([]*Activity, error)
	FindAll(ctx context.Context, limit, offset int) ([]*Activity, error)
}

type ActivityService interface {
	Record(ctx context.Context, entityType EntityType, entityID int64, action ActionType, actorID int64, details string)
	GetEntityActivity(ctx context.Context, entityType EntityType, entityID int64, page, limit int) ([]*Activity, error)
	GetRecentActivity(ctx context.Context, page, limit int) ([]*Activity, error)
}
