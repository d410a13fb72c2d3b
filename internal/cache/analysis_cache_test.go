package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zfogg/snapshare/internal/intelligence"
)

// fakeKV is an in-memory kv
type fakeKV struct {
	mu     sync.Mutex
	values map[string]string
	ttls   map[string]time.Duration
	err    error
}

func newFakeKV() *fakeKV {
	return &fakeKV{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeKV) Get(ctx context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	v, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeKV) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewStatusResult("", f.err)
	}
	f.values[key] = string(value.([]byte))
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func TestAnalysisCacheRoundTrip(t *testing.T) {
	store := newFakeKV()
	c := &AnalysisCache{store: store, ttl: AnalysisTTL}
	ctx := context.Background()

	_, ok := c.Get(ctx, "abc")
	assert.False(t, ok)

	c.Set(ctx, "abc", intelligence.Analysis{Description: "A cat.", Tags: []string{"cat"}})

	got, ok := c.Get(ctx, "abc")
	require.True(t, ok)
	assert.Equal(t, "A cat.", got.Description)
	assert.Equal(t, []string{"cat"}, got.Tags)
	assert.Equal(t, AnalysisTTL, store.ttls["analysis:abc"])
}

func TestAnalysisCacheErrorsAreMisses(t *testing.T) {
	store := newFakeKV()
	store.err = errors.New("connection refused")
	c := &AnalysisCache{store: store, ttl: AnalysisTTL}

	c.Set(context.Background(), "abc", intelligence.EmptyAnalysis())
	_, ok := c.Get(context.Background(), "abc")
	assert.False(t, ok)
}

func TestAnalysisCacheCorruptEntry(t *testing.T) {
	store := newFakeKV()
	store.values["analysis:abc"] = "not json"
	c := &AnalysisCache{store: store, ttl: AnalysisTTL}

	_, ok := c.Get(context.Background(), "abc")
	assert.False(t, ok)
}

func TestAnalysisCacheNormalizesNilTags(t *testing.T) {
	store := newFakeKV()
	store.values["analysis:abc"] = `{"description":"x","tags":null}`
	c := &AnalysisCache{store: store, ttl: AnalysisTTL}

	got, ok := c.Get(context.Background(), "abc")
	require.True(t, ok)
	assert.NotNil(t, got.Tags)
}
