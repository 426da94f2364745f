package factory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"tweetflow/internal/config"
	"tweetflow/internal/database"
	"tweetflow/internal/domain"
	"tweetflow/internal/repository"
	"tweetflow/internal/service"
	"tweetflow/pkg/cache"
	"tweetflow/pkg/logger"
	"tweetflow/pkg/tracing"
)

const serviceName = "tweetflow"

type Factory interface {
	GetLogger() logger.Logger
	GetConfig() *config.Config
	GetDB() *sql.DB
	GetCache() cache.Cache

	GetUserService() domain.UserService
	GetGraphService() domain.GraphService
	GetTweetService() domain.TweetService
	GetFeedService() domain.FeedService
	GetActivityService() domain.ActivityService

	Close(ctx context.Context) error
}

type AppFactory struct {
	config        *config.Config
	logger        logger.Logger
	db            *sql.DB
	redisClient   *redis.Client
	cache         cache.Cache
	cacheManager  cache.Strategy
	traceShutdown func(context.Context) error

	userRepository     domain.UserRepository
	tweetRepository    domain.TweetRepository
	activityRepository domain.ActivityRepository

	userService     domain.UserService
	graphService    domain.GraphService
	tweetService    domain.TweetService
	feedService     domain.FeedService
	activityService domain.ActivityService
}

// NewFactory loads configuration, opens the store, applies migrations and
// wires the service graph. Redis is optional; without it lookups go straight
// to the store.
func NewFactory(ctx context.Context) (Factory, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log := logger.New(logger.LogLevel(cfg.LogLevel), nil)

	traceShutdown, err := tracing.Init(ctx, serviceName, cfg.Tracing.OTLPEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise tracing: %w", err)
	}

	db, err := database.Open(ctx, cfg.Database, log)
	if err != nil {
		traceShutdown(ctx)
		return nil, err
	}

	dialect := database.Dialect(cfg.Database.Driver)
	if err := database.NewMigrationService(db, dialect, log).RunMigrations(ctx); err != nil {
		db.Close()
		traceShutdown(ctx)
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	factory := &AppFactory{
		config:        cfg,
		logger:        log,
		db:            db,
		traceShutdown: traceShutdown,
	}

	if cfg.Redis.Enabled() {
		if err := factory.initCache(ctx); err != nil {
			factory.Close(ctx)
			return nil, err
		}
	}

	factory.initRepositories()
	factory.initServices()

	return factory, nil
}

func (f *AppFactory) initCache(ctx context.Context) error {
	f.redisClient = cache.NewRedisClient(f.config.Redis.Addr(), f.config.Redis.Password, f.config.Redis.DB)
	if err := f.redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to reach redis at %s: %w", f.config.Redis.Addr(), err)
	}

	f.cache = cache.NewRedisCache(f.redisClient, f.logger, serviceName)
	f.cacheManager = cache.NewManager(f.cache, f.logger)

	f.logger.Info("Redis önbelleği etkin", map[string]interface{}{"addr": f.config.Redis.Addr()})
	return nil
}

func (f *AppFactory) initRepositories() {
	guard := repository.NewGuard(f.config.Database.StoreTimeout, f.logger)

	f.userRepository = repository.NewUserRepository(f.db, guard, f.logger)
	f.tweetRepository = repository.NewTweetRepository(f.db, guard, f.logger)
	f.activityRepository = repository.NewActivityRepository(f.db, guard, f.logger)
}

func (f *AppFactory) initServices() {
	f.activityService = service.NewActivityService(f.activityRepository, f.logger)

	var users domain.UserService = service.NewUserService(f.userRepository, f.activityService, f.logger)
	var graph domain.GraphService = service.NewGraphService(f.userRepository, f.activityService, f.logger)
	if f.cacheManager != nil {
		users = service.NewCachedUserService(users, f.cacheManager)
		graph = service.NewCachedGraphService(graph, f.cacheManager)
	}
	f.userService = users
	f.graphService = graph

	f.tweetService = service.NewTweetService(f.tweetRepository, f.userService, f.activityService, f.logger)
	f.feedService = service.NewFeedService(f.tweetRepository, f.userService, f.logger)
}

// Close releases the store, the cache client and the trace exporter.
func (f *AppFactory) Close(ctx context.Context) error {
	var errs []error
	if f.redisClient != nil {
		if err := f.redisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	if err := f.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("database: %w", err))
	}
	if err := f.traceShutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("tracing: %w", err))
	}
	return errors.Join(errs...)
}

func (f *AppFactory) GetLogger() logger.Logger {
	return f.logger
}

func (f *AppFactory) GetConfig() *config.Config {
	return f.config
}

func (f *AppFactory) GetDB() *sql.DB {
	return f.db
}

func (f *AppFactory) GetCache() cache.Cache {
	return f.cache
}

func (f *AppFactory) GetUserService() domain.UserService {
	return f.userService
}

func (f *AppFactory) GetGraphService() domain.GraphService {
	return f.graphService
}

func (f *AppFactory) GetTweetService() domain.TweetService {
	return f.tweetService
}

func (f *AppFactory) GetFeedService() domain.FeedService {
	return f.feedService
}

func (f *AppFactory) GetActivityService() domain.ActivityService {
	return f.activityService
}
