package api

import (
	"net/http"

	"tweetflow/internal/domain"
	"tweetflow/pkg/logger"
)

type TweetHandler struct {
	tweets domain.TweetService
	feed   domain.FeedService
	logger logger.Logger
}

func NewTweetHandler(tweets domain.TweetService, feed domain.FeedService, logger logger.Logger) *TweetHandler {
	return &TweetHandler{
		tweets: tweets,
		feed:   feed,
		logger: logger,
	}
}

func (h *TweetHandler) ListFeed(w http.ResponseWriter, r *http.Request) {
	filter := domain.FeedFilter{Username: r.URL.Query().Get("username")}

	feed, err := h.feed.ListFeed(r.Context(), filter, queryInt(r, "page"), queryInt(r, "limit"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, feed)
}

type createTweetRequest struct {
	Content string `json:"content"`
	UserID  int64  `json:"userId"`
}

func (h *TweetHandler) CreateTweet(w http.ResponseWriter, r *http.Request) {
	var req createTweetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if req.UserID <= 0 {
		writeError(w, r, h.logger, domain.Validation("userId is required"))
		return
	}

	tweet, err := h.tweets.CreateTweet(r.Context(), req.Content, req.UserID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, tweet)
}

func (h *TweetHandler) DeleteTweet(w http.ResponseWriter, r *http.Request) {
	tweetID, userID, ok := h.target(w, r)
	if !ok {
		return
	}

	if err := h.tweets.DeleteTweet(r.Context(), tweetID, userID); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *TweetHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	tweetID, userID, ok := h.target(w, r)
	if !ok {
		return
	}

	view, err := h.tweets.ToggleLike(r.Context(), tweetID, userID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *TweetHandler) ToggleRetweet(w http.ResponseWriter, r *http.Request) {
	tweetID, userID, ok := h.target(w, r)
	if !ok {
		return
	}

	res, err := h.tweets.ToggleRetweet(r.Context(), tweetID, userID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// target reads the tweet id from the path and the acting user from the body.
// It writes the error response itself and reports false on failure.
func (h *TweetHandler) target(w http.ResponseWriter, r *http.Request) (int64, int64, bool) {
	tweetID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.logger, err)
		return 0, 0, false
	}

	var req actorRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return 0, 0, false
	}
	userID, err := req.actor()
	if err != nil {
		writeError(w, r, h.logger, err)
		return 0, 0, false
	}
	return tweetID, userID, true
}

func (h *TweetHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/tweets", h.ListFeed)
	mux.HandleFunc("POST /api/tweets", h.CreateTweet)
	mux.HandleFunc("DELETE /api/tweets/{id}", h.DeleteTweet)
	mux.HandleFunc("POST /api/tweets/{id}/like", h.ToggleLike)
	mux.HandleFunc("POST /api/tweets/{id}/retweet", h.ToggleRetweet)
}
