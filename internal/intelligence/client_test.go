package intelligence

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zfogg/snapshare/internal/config"
)

// modelServer returns a fake chat completions endpoint replying with reply
func modelServer(t *testing.T, reply string, capture *chatRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		if capture != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(capture))
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"index": 0, "message": map[string]string{"role": "assistant", "content": reply}},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	return NewClient(config.AIConfig{
		APIKey:  "test-key",
		BaseURL: baseURL,
		Model:   "moonshot-v1-8k",
		Timeout: timeout,
	}, opts...)
}

// =============================================================================
// ANALYZE IMAGE TESTS
// =============================================================================

func TestAnalyzeImage(t *testing.T) {
	var req chatRequest
	srv := modelServer(t, "A dog running on a beach.\ndog, beach , , sunny\n", &req)

	got := newTestClient(srv.URL, time.Second).AnalyzeImage(context.Background(), "aGVsbG8=")

	assert.Equal(t, Analysis{Description: "A dog running on a beach.", Tags: []string{"dog", "beach", "sunny"}}, got)
	assert.Equal(t, "moonshot-v1-8k", req.Model)
	assert.Equal(t, analyzeMaxTokens, req.MaxTokens)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, "system", req.Messages[0].Role)

	raw, err := json.Marshal(req.Messages[1].Content)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "data:image/jpeg;base64,aGVsbG8=")
}

func TestAnalyzeImageNoNewline(t *testing.T) {
	srv := modelServer(t, "Just a description without tags", nil)

	got := newTestClient(srv.URL, time.Second).AnalyzeImage(context.Background(), "aGVsbG8=")

	assert.Equal(t, "Just a description without tags", got.Description)
	assert.NotNil(t, got.Tags)
	assert.Empty(t, got.Tags)
}

func TestAnalyzeImageNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	got := newTestClient(url, time.Second).AnalyzeImage(context.Background(), "aGVsbG8=")

	assert.Equal(t, EmptyAnalysis(), got)
}

func TestAnalyzeImageServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	got := newTestClient(srv.URL, time.Second).AnalyzeImage(context.Background(), "aGVsbG8=")

	assert.Equal(t, EmptyAnalysis(), got)
}

func TestAnalyzeImageMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices": []}`))
	}))
	defer srv.Close()

	got := newTestClient(srv.URL, time.Second).AnalyzeImage(context.Background(), "aGVsbG8=")

	assert.Equal(t, EmptyAnalysis(), got)
}

// memoryCache is an in-process AnalysisCache
type memoryCache struct {
	mu      sync.Mutex
	entries map[string]Analysis
}

func (m *memoryCache) Get(ctx context.Context, key string) (*Analysis, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	return &a, true
}

func (m *memoryCache) Set(ctx context.Context, key string, analysis Analysis) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = analysis
}

func TestAnalyzeImageUsesCache(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"A cat.\ncat"}}]}`))
	}))
	defer srv.Close()

	cache := &memoryCache{entries: map[string]Analysis{}}
	client := newTestClient(srv.URL, time.Second, WithCache(cache))

	first := client.AnalyzeImage(context.Background(), "Y2F0")
	second := client.AnalyzeImage(context.Background(), "Y2F0")

	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)
	assert.Contains(t, cache.entries, cacheKey("Y2F0"))
}

func TestAnalyzeImageDoesNotCacheFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cache := &memoryCache{entries: map[string]Analysis{}}
	newTestClient(srv.URL, time.Second, WithCache(cache)).AnalyzeImage(context.Background(), "Y2F0")

	assert.Empty(t, cache.entries)
}

func TestAnalyzeImageDoesNotCacheEmptyReply(t *testing.T) {
	srv := modelServer(t, "", nil)

	cache := &memoryCache{entries: map[string]Analysis{}}
	got := newTestClient(srv.URL, time.Second, WithCache(cache)).AnalyzeImage(context.Background(), "Y2F0")

	assert.True(t, got.Empty())
	assert.Empty(t, cache.entries)
}

// =============================================================================
// MODERATION TESTS
// =============================================================================

func TestModerateContent(t *testing.T) {
	tests := []struct {
		reply    string
		expected bool
	}{
		{"APPROVE", true},
		{"  APPROVE\n", true},
		{"REJECT", false},
		{"REJECT.", true},
		{"I cannot decide", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.reply, func(t *testing.T) {
			var req chatRequest
			srv := modelServer(t, tt.reply, &req)

			got := newTestClient(srv.URL, time.Second).ModerateContent(context.Background(), "hello world")

			assert.Equal(t, tt.expected, got)
			assert.Equal(t, moderateMaxTokens, req.MaxTokens)
			assert.Equal(t, "hello world", req.Messages[1].Content)
		})
	}
}

func TestModerateContentTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	start := time.Now()
	got := newTestClient(srv.URL, 50*time.Millisecond).ModerateContent(context.Background(), "hello")

	assert.True(t, got)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestModerateContentCancelledContext(t *testing.T) {
	srv := modelServer(t, "REJECT", nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.True(t, newTestClient(srv.URL, time.Second).ModerateContent(ctx, "hello"))
}

// =============================================================================
// PARSING TESTS
// =============================================================================

func TestParseAnalysis(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected Analysis
	}{
		{"two lines", "A tree.\ntree,green", Analysis{"A tree.", []string{"tree", "green"}}},
		{"crlf", "A tree.\r\ntree, green\r\n", Analysis{"A tree.", []string{"tree", "green"}}},
		{"extra lines ignored", "A tree.\ntree\nextra,stuff", Analysis{"A tree.", []string{"tree"}}},
		{"empty tag line", "A tree.\n", Analysis{"A tree.", []string{}}},
		{"empty", "", Analysis{"", []string{}}},
		{"only commas", "desc\n , ,", Analysis{"desc", []string{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseAnalysis(tt.content))
		})
	}
}

func TestParseVerdict(t *testing.T) {
	v, err := ParseVerdict(" APPROVE ")
	require.NoError(t, err)
	assert.True(t, v)

	v, err = ParseVerdict("REJECT")
	require.NoError(t, err)
	assert.False(t, v)

	_, err = ParseVerdict("approve")
	assert.Error(t, err)
}
