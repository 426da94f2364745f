package api

import (
	"net/http"
	"strconv"

	"tweetflow/internal/domain"
	"tweetflow/pkg/logger"
)

type ActivityHandler struct {
	service domain.ActivityService
	logger  logger.Logger
}

func NewActivityHandler(service domain.ActivityService, logger logger.Logger) *ActivityHandler {
	return &ActivityHandler{
		service: service,
		logger:  logger,
	}
}

// ListActivity returns the newest entries first. With entity_type and
// entity_id set it narrows the log to a single user or tweet.
func (h *ActivityHandler) ListActivity(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, limit := queryInt(r, "page"), queryInt(r, "limit")

	entityTypeStr := q.Get("entity_type")
	entityIDStr := q.Get("entity_id")

	if entityTypeStr == "" && entityIDStr == "" {
		activities, err := h.service.GetRecentActivity(r.Context(), page, limit)
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, activities)
		return
	}

	entityType := domain.EntityType(entityTypeStr)
	switch entityType {
	case domain.EntityTypeUser, domain.EntityTypeTweet:
	default:
		writeError(w, r, h.logger, domain.Validation("entity_type must be one of: user, tweet"))
		return
	}

	entityID, err := strconv.ParseInt(entityIDStr, 10, 64)
	if err != nil || entityID <= 0 {
		writeError(w, r, h.logger, domain.Validation("invalid entity_id"))
		return
	}

	activities, err := h.service.GetEntityActivity(r.Context(), entityType, entityID, page, limit)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, activities)
}

func (h *ActivityHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/activity", h.ListActivity)
}
