// Package container provides dependency injection management for the snapshare backend.
// It holds every long-lived service built at startup and owns their shutdown.
package container

import (
	"context"
	"sync"

	"github.com/zfogg/snapshare/internal/cache"
	"github.com/zfogg/snapshare/internal/feed"
	"github.com/zfogg/snapshare/internal/intelligence"
	"github.com/zfogg/snapshare/internal/logger"
	"github.com/zfogg/snapshare/internal/media"
	"github.com/zfogg/snapshare/internal/middleware"
	"github.com/zfogg/snapshare/internal/publish"
	"github.com/zfogg/snapshare/internal/repository"
	"github.com/zfogg/snapshare/internal/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Container holds all application dependencies and provides type-safe access.
type Container struct {
	// Core infrastructure
	db     *gorm.DB
	logger *zap.Logger
	cache  *cache.RedisClient

	// Stores
	engagement repository.EngagementRepository
	users      repository.UserRepository

	// External collaborators
	storage  storage.Backend
	analyzer intelligence.Analyzer
	auth     *middleware.Authenticator

	// Features
	feed    *feed.Assembler
	media   *media.Service
	publish *publish.Service

	// Lifecycle hooks
	cleanupFuncs []func(context.Context) error
	mu           sync.RWMutex
}

// New creates a new empty container.
// Services should be registered using Set* methods.
func New() *Container {
	return &Container{
		cleanupFuncs: make([]func(context.Context) error, 0),
	}
}

// ============================================================================
// CORE INFRASTRUCTURE
// ============================================================================

// SetDB registers the database connection and the repositories built on it
func (c *Container) SetDB(db *gorm.DB) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.db = db
	c.engagement = repository.NewEngagementRepository(db)
	c.users = repository.NewUserRepository(db)
	return c
}

// DB returns the database connection
func (c *Container) DB() *gorm.DB {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db
}

// SetLogger registers the logger
func (c *Container) SetLogger(l *zap.Logger) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logger = l
	return c
}

// Logger returns the logger instance
func (c *Container) Logger() *zap.Logger {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loggerLocked()
}

func (c *Container) loggerLocked() *zap.Logger {
	if c.logger == nil {
		return logger.Log
	}
	return c.logger
}

// SetCache registers the Redis client backing the analysis cache
func (c *Container) SetCache(client *cache.RedisClient) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = client
	return c
}

// Cache returns the Redis client, nil when caching is disabled
func (c *Container) Cache() *cache.RedisClient {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cache
}

// Engagement returns the post/comment/reaction store
func (c *Container) Engagement() repository.EngagementRepository {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.engagement
}

// Users returns the user store
func (c *Container) Users() repository.UserRepository {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.users
}

// ============================================================================
// EXTERNAL COLLABORATORS
// ============================================================================

// SetStorage registers the media storage backend
func (c *Container) SetStorage(backend storage.Backend) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.storage = backend
	return c
}

// Storage returns the media storage backend
func (c *Container) Storage() storage.Backend {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.storage
}

// SetAnalyzer registers the content intelligence client
func (c *Container) SetAnalyzer(analyzer intelligence.Analyzer) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.analyzer = analyzer
	return c
}

// Analyzer returns the content intelligence client
func (c *Container) Analyzer() intelligence.Analyzer {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.analyzer
}

// SetAuthenticator registers the bearer token verifier
func (c *Container) SetAuthenticator(auth *middleware.Authenticator) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.auth = auth
	return c
}

// Authenticator returns the bearer token verifier
func (c *Container) Authenticator() *middleware.Authenticator {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.auth
}

// ============================================================================
// FEATURES
// ============================================================================

// Build assembles the feature services from the registered infrastructure.
// It must run after SetDB, SetStorage and SetAnalyzer.
func (c *Container) Build(moderation bool) error {
	if err := c.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.feed = feed.NewAssembler(c.engagement)
	c.media = media.NewService(c.storage)
	c.publish = publish.NewService(c.engagement, c.media, c.analyzer, moderation)
	return nil
}

// Feed returns the feed assembler
func (c *Container) Feed() *feed.Assembler {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.feed
}

// Media returns the media ingestion service
func (c *Container) Media() *media.Service {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.media
}

// Publish returns the post publishing service
func (c *Container) Publish() *publish.Service {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.publish
}

// ============================================================================
// LIFECYCLE MANAGEMENT
// ============================================================================

// OnCleanup registers a cleanup function to be called during shutdown.
// Cleanup functions are called in LIFO order (last registered, first cleaned up).
func (c *Container) OnCleanup(fn func(context.Context) error) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleanupFuncs = append(c.cleanupFuncs, fn)
	return c
}

// Close performs graceful shutdown of all registered services.
// Every cleanup function runs even if an earlier one fails; the first error is returned.
func (c *Container) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var first error
	for i := len(c.cleanupFuncs) - 1; i >= 0; i-- {
		if err := c.cleanupFuncs[i](ctx); err != nil {
			c.loggerLocked().Error("Cleanup function failed", zap.Int("index", i), zap.Error(err))
			if first == nil {
				first = err
			}
		}
	}
	c.cleanupFuncs = nil

	return first
}

// ============================================================================
// VALIDATION
// ============================================================================

// Validate checks that all required dependencies are registered.
// The Redis cache is optional and never reported.
func (c *Container) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var missing []Dependency
	if c.db == nil {
		missing = append(missing, DepDatabase)
	}
	if c.storage == nil {
		missing = append(missing, DepStorage)
	}
	if c.analyzer == nil {
		missing = append(missing, DepIntelligence)
	}
	if c.auth == nil {
		missing = append(missing, DepAuthenticator)
	}

	if len(missing) > 0 {
		return &InitializationError{Missing: missing}
	}
	return nil
}
