package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/zfogg/snapshare/internal/intelligence"
	"github.com/zfogg/snapshare/internal/logger"
	"go.uber.org/zap"
)

// AnalysisTTL bounds how long an image analysis is reused
const AnalysisTTL = 24 * time.Hour

const analysisKeyPrefix = "analysis:"

// kv is the subset of go-redis used by the analysis cache
type kv interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// AnalysisCache stores image analyses in Redis as JSON. Every Redis error is
// a miss; the cache never fails a request.
type AnalysisCache struct {
	store kv
	ttl   time.Duration
}

var _ intelligence.AnalysisCache = (*AnalysisCache)(nil)

// NewAnalysisCache creates an analysis cache backed by rc
func NewAnalysisCache(rc *RedisClient) *AnalysisCache {
	return &AnalysisCache{store: rc.client, ttl: AnalysisTTL}
}

// Get returns the cached analysis for key
func (c *AnalysisCache) Get(ctx context.Context, key string) (*intelligence.Analysis, bool) {
	raw, err := c.store.Get(ctx, analysisKeyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Log.Warn("Analysis cache read failed", zap.Error(err))
		}
		return nil, false
	}

	var analysis intelligence.Analysis
	if err := json.Unmarshal(raw, &analysis); err != nil {
		logger.Log.Warn("Discarding corrupt analysis cache entry", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if analysis.Tags == nil {
		analysis.Tags = []string{}
	}
	return &analysis, true
}

// Set stores analysis under key with the cache TTL
func (c *AnalysisCache) Set(ctx context.Context, key string, analysis intelligence.Analysis) {
	raw, err := json.Marshal(analysis)
	if err != nil {
		return
	}
	if err := c.store.Set(ctx, analysisKeyPrefix+key, raw, c.ttl).Err(); err != nil {
		logger.Log.Warn("Analysis cache write failed", zap.Error(err))
	}
}
