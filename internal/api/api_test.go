package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"tweetflow/internal/config"
	"tweetflow/internal/database"
	"tweetflow/internal/domain"
	"tweetflow/internal/repository"
	"tweetflow/internal/service"
	"tweetflow/pkg/logger"
)

type apiSuite struct {
	suite.Suite

	mux   *http.ServeMux
	close func()
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(apiSuite))
}

func (s *apiSuite) SetupTest() {
	ctx := context.Background()
	log := logger.New(logger.ErrorLevel, io.Discard)

	db, err := database.Open(ctx, config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(s.T().TempDir(), "api.db"),
	}, log)
	s.Require().NoError(err)
	s.Require().NoError(database.NewMigrationService(db, database.SQLite, log).RunMigrations(ctx))
	s.close = func() { db.Close() }

	guard := repository.NewGuard(5*time.Second, log)
	userRepo := repository.NewUserRepository(db, guard, log)
	tweetRepo := repository.NewTweetRepository(db, guard, log)

	activity := service.NewActivityService(repository.NewActivityRepository(db, guard, log), log)
	users := service.NewUserService(userRepo, activity, log)
	graph := service.NewGraphService(userRepo, activity, log)
	tweets := service.NewTweetService(tweetRepo, users, activity, log)
	feed := service.NewFeedService(tweetRepo, users, log)

	s.mux = http.NewServeMux()
	NewUserHandler(users, graph, log).RegisterRoutes(s.mux)
	NewTweetHandler(tweets, feed, log).RegisterRoutes(s.mux)
	NewActivityHandler(activity, log).RegisterRoutes(s.mux)
	NewHealthHandler(map[string]HealthCheck{"database": db.PingContext}, log).RegisterRoutes(s.mux)
}

func (s *apiSuite) TearDownTest() {
	s.close()
}

func (s *apiSuite) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)
	return rec
}

func (s *apiSuite) decode(rec *httptest.ResponseRecorder, dest interface{}) {
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), dest), rec.Body.String())
}

func (s *apiSuite) errorKind(rec *httptest.ResponseRecorder) domain.ErrorKind {
	var body errorResponse
	s.decode(rec, &body)
	s.NotEmpty(body.Error)
	return body.Kind
}

func (s *apiSuite) register(username string) domain.User {
	rec := s.do(http.MethodPost, "/api/users", map[string]string{
		"name":     username,
		"username": username,
		"email":    username + "@example.com",
		"password": "secret",
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var u domain.User
	s.decode(rec, &u)
	return u
}

func (s *apiSuite) post(userID int64, content string) domain.TweetView {
	rec := s.do(http.MethodPost, "/api/tweets", map[string]interface{}{"content": content, "userId": userID})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var v domain.TweetView
	s.decode(rec, &v)
	return v
}

func (s *apiSuite) TestRegisterAndFetchProfile() {
	alice := s.register("alice")
	s.NotZero(alice.ID)
	s.NotContains(s.do(http.MethodGet, "/api/users/1", nil).Body.String(), "password")

	rec := s.do(http.MethodGet, "/api/profiles/alice", nil)
	s.Equal(http.StatusOK, rec.Code)
	var u domain.User
	s.decode(rec, &u)
	s.Equal(alice.ID, u.ID)

	rec = s.do(http.MethodGet, "/api/profiles/nobody", nil)
	s.Equal(http.StatusNotFound, rec.Code)
	s.Equal(domain.KindNotFound, s.errorKind(rec))

	rec = s.do(http.MethodGet, "/api/users/abc", nil)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *apiSuite) TestRegisterRejectsDuplicatesAndBadBodies() {
	s.register("alice")

	rec := s.do(http.MethodPost, "/api/users", map[string]string{
		"name": "Other", "username": "alice", "email": "other@example.com", "password": "x",
	})
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal(domain.KindConflict, s.errorKind(rec))

	rec = s.do(http.MethodPost, "/api/users", nil)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal(domain.KindValidation, s.errorKind(rec))
}

func (s *apiSuite) TestLogin() {
	s.register("alice")

	rec := s.do(http.MethodPost, "/api/auth/login", map[string]string{"email": "alice@example.com", "password": "secret"})
	s.Equal(http.StatusOK, rec.Code)
	var body struct {
		User domain.User `json:"user"`
	}
	s.decode(rec, &body)
	s.Equal("alice", body.User.Username)

	rec = s.do(http.MethodPost, "/api/auth/login", map[string]string{"email": "alice@example.com", "password": "wrong"})
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Equal(domain.KindUnauthorized, s.errorKind(rec))
}

func (s *apiSuite) TestFollowAndUnfollow() {
	alice := s.register("alice")
	bob := s.register("bob")

	rec := s.do(http.MethodPost, "/api/users/2/follow", map[string]int64{"followerId": alice.ID})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var res domain.FollowResult
	s.decode(rec, &res)
	s.Equal([]int64{bob.ID}, res.Actor.Following)
	s.Equal([]int64{alice.ID}, res.Target.Followers)

	rec = s.do(http.MethodPost, "/api/users/2/follow", map[string]int64{"followerId": alice.ID})
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal(domain.KindConflict, s.errorKind(rec))

	rec = s.do(http.MethodPost, "/api/users/1/follow", map[string]int64{"followerId": alice.ID})
	s.Equal(domain.KindInvalidOperation, s.errorKind(rec))

	rec = s.do(http.MethodPost, "/api/users/2/unfollow", map[string]int64{"followerId": alice.ID})
	s.Equal(http.StatusOK, rec.Code)
	s.decode(rec, &res)
	s.Empty(res.Actor.Following)

	rec = s.do(http.MethodPost, "/api/users/2/follow", map[string]int64{})
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal(domain.KindValidation, s.errorKind(rec))
}

func (s *apiSuite) TestTweetLifecycle() {
	alice := s.register("alice")
	bob := s.register("bob")
	tweet := s.post(alice.ID, "hello world")
	s.Equal("alice", tweet.Author.Username)

	rec := s.do(http.MethodPost, "/api/tweets/1/like", map[string]int64{"userId": bob.ID})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var view domain.TweetView
	s.decode(rec, &view)
	s.Equal(1, view.LikeCount)
	s.Equal([]int64{bob.ID}, view.LikedBy)

	rec = s.do(http.MethodPost, "/api/tweets/1/retweet", map[string]int64{"userId": bob.ID})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var rt domain.RetweetResult
	s.decode(rec, &rt)
	s.Equal(domain.RetweetActionRetweet, rt.Action)
	s.Equal([]int64{bob.ID}, rt.Original.RetweetedBy)
	s.Require().NotNil(rt.Retweet)
	s.True(rt.Retweet.IsRetweet)

	rec = s.do(http.MethodGet, "/api/tweets", nil)
	var feed domain.Feed
	s.decode(rec, &feed)
	s.Equal(2, feed.TotalCount)

	rec = s.do(http.MethodDelete, "/api/tweets/1", map[string]int64{"userId": bob.ID})
	s.Equal(http.StatusForbidden, rec.Code)
	s.Equal(domain.KindForbidden, s.errorKind(rec))

	rec = s.do(http.MethodDelete, "/api/tweets/1", map[string]int64{"userId": alice.ID})
	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"success":true}`, rec.Body.String())

	rec = s.do(http.MethodGet, "/api/tweets", nil)
	s.decode(rec, &feed)
	s.Zero(feed.TotalCount)
	s.Empty(feed.Items)

	rec = s.do(http.MethodPost, "/api/tweets/1/like", map[string]int64{"userId": bob.ID})
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *apiSuite) TestCreateTweetValidation() {
	alice := s.register("alice")

	rec := s.do(http.MethodPost, "/api/tweets", map[string]interface{}{"content": "   ", "userId": alice.ID})
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal(domain.KindValidation, s.errorKind(rec))

	rec = s.do(http.MethodPost, "/api/tweets", map[string]interface{}{"content": "hi"})
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/api/tweets", map[string]interface{}{"content": "hi", "userId": 99})
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *apiSuite) TestFeedFiltersByUsernameAndPages() {
	alice := s.register("alice")
	bob := s.register("bob")
	for i := 0; i < 3; i++ {
		s.post(alice.ID, "from alice")
	}
	s.post(bob.ID, "from bob")

	var feed domain.Feed
	s.decode(s.do(http.MethodGet, "/api/tweets?username=alice&page=2&limit=2", nil), &feed)
	s.Equal(3, feed.TotalCount)
	s.Equal(2, feed.Page)
	s.Equal(2, feed.TotalPages)
	s.Len(feed.Items, 1)

	s.decode(s.do(http.MethodGet, "/api/tweets?username=ghost", nil), &feed)
	s.Zero(feed.TotalCount)
	s.NotNil(feed.Items)
}

func (s *apiSuite) TestActivityLog() {
	alice := s.register("alice")
	s.post(alice.ID, "hello")

	var all []domain.Activity
	s.decode(s.do(http.MethodGet, "/api/activity", nil), &all)
	s.Len(all, 2)
	s.Equal(domain.EntityTypeTweet, all[0].EntityType)

	var forUser []domain.Activity
	s.decode(s.do(http.MethodGet, "/api/activity?entity_type=user&entity_id=1", nil), &forUser)
	s.Require().Len(forUser, 1)
	s.Equal(domain.ActionTypeCreate, forUser[0].Action)

	rec := s.do(http.MethodGet, "/api/activity?entity_type=comment&entity_id=1", nil)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *apiSuite) TestHealthEndpoints() {
	rec := s.do(http.MethodGet, "/health", nil)
	s.Equal(http.StatusOK, rec.Code)
	var body HealthResponse
	s.decode(rec, &body)
	s.Equal("healthy", body.Status)
	s.Equal("healthy", body.Services["database"]["status"])

	s.Equal(http.StatusOK, s.do(http.MethodGet, "/health/live", nil).Code)
	s.Equal(http.StatusOK, s.do(http.MethodGet, "/health/ready", nil).Code)
}

func TestReadinessReportsFailingChecks(t *testing.T) {
	mux := http.NewServeMux()
	NewHealthHandler(map[string]HealthCheck{
		"redis": func(context.Context) error { return errors.New("connection refused") },
	}, logger.New(logger.ErrorLevel, io.Discard)).RegisterRoutes(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "redis: connection refused")
}
