package service

import (
	"context"
	"fmt"

	"tweetflow/internal/domain"
	"tweetflow/pkg/logger"
)

type ActivityService struct {
	repo   domain.ActivityRepository
	logger logger.Logger
}

func NewActivityService(repo domain.ActivityRepository, logger logger.Logger) *ActivityService {
	return &ActivityService{
		repo:   repo,
		logger: logger,
	}
}

// Record appends an activity entry. The mutation it describes has already been
// applied, so a failure here is logged and not returned.
func (s *ActivityService) Record(ctx context.Context, entityType domain.EntityType, entityID int64, action domain.ActionType, actorID int64, details string) {
	a := &domain.Activity{
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		ActorID:    actorID,
		Details:    details,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		s.logger.WarnContext(ctx, "Aktivite kaydedilemedi", map[string]interface{}{
			"entity_type": entityType,
			"entity_id":   entityID,
			"action":      action,
			"error":       err.Error(),
		})
	}
}

func (s *ActivityService) GetEntityActivity(ctx context.Context, entityType domain.EntityType, entityID int64, page, limit int) ([]*domain.Activity, error) {
	page, limit = domain.NormalizePage(page, limit)

	activities, err := s.repo.FindByEntity(ctx, entityType, entityID, limit, domain.Offset(page, limit))
	if err != nil {
		return nil, fmt.Errorf("entity activity: %w", err)
	}
	return activities, nil
}

func (s *ActivityService) GetRecentActivity(ctx context.Context, page, limit int) ([]*domain.Activity, error) {
	page, limit = domain.NormalizePage(page, limit)

	activities, err := s.repo.FindAll(ctx, limit, domain.Offset(page, limit))
	if err != nil {
		return nil, fmt.Errorf("recent activity: %w", err)
	}
	return activities, nil
}
