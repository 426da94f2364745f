package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"tweetflow/internal/domain"
	"tweetflow/pkg/logger"
)

type errorResponse struct {
	Error string           `json:"error"`
	Kind  domain.ErrorKind `json:"kind"`
}

func statusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindValidation, domain.KindConflict, domain.KindInvalidOperation:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps err to a status code and a {error, kind} body. Internal
// details are logged and never sent to the client.
func writeError(w http.ResponseWriter, r *http.Request, log logger.Logger, err error) {
	kind := domain.KindOf(err)
	status := statusFor(kind)

	fields := map[string]interface{}{
		"method": r.Method,
		"path":   r.URL.Path,
		"kind":   kind,
		"error":  err.Error(),
	}
	if status >= http.StatusInternalServerError {
		log.ErrorContext(r.Context(), "İstek işlenemedi", fields)
	} else {
		log.DebugContext(r.Context(), "İstek reddedildi", fields)
	}

	writeJSON(w, status, errorResponse{Error: domain.MessageOf(err), Kind: kind})
}

func decodeJSON(r *http.Request, dest interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.Validation("request body is required")
		}
		return domain.Validation("invalid request body")
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.Validation("invalid " + name)
	}
	return id, nil
}

// queryInt returns 0 for absent or malformed values so callers fall back to defaults.
func queryInt(r *http.Request, name string) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return 0
	}
	return v
}

// actorRequest is the body shared by the follow, like, retweet and delete routes.
type actorRequest struct {
	UserID     int64 `json:"userId"`
	FollowerID int64 `json:"followerId"`
}

func (a actorRequest) actor() (int64, error) {
	id := a.UserID
	if id == 0 {
		id = a.FollowerID
	}
	if id <= 0 {
		return 0, domain.Validation("userId is required")
	}
	return id, nil
}
