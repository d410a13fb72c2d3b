// Package intelligence calls an OpenAI-compatible model to describe and tag
// images and to moderate text. Every failure degrades to a fixed fallback:
// analysis is an enhancement and moderation is advisory.
package intelligence

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/zfogg/snapshare/internal/config"
	apierrors "github.com/zfogg/snapshare/internal/errors"
	"github.com/zfogg/snapshare/internal/logger"
	"github.com/zfogg/snapshare/internal/metrics"
	"github.com/zfogg/snapshare/internal/telemetry"
	"go.uber.org/zap"
)

const (
	analyzeInstruction = "You are an image analysis assistant. Look at the image and reply with exactly two lines. " +
		"Line 1: a one-sentence description of the image. " +
		"Line 2: 5 to 10 relevant tags separated by commas."
	moderateInstruction = "You are a content moderation assistant. Decide whether the following text contains " +
		"inappropriate content such as violence, sexual content or hate speech. " +
		"Reply with exactly APPROVE or REJECT."

	analyzeMaxTokens  = 500
	moderateMaxTokens = 10

	opAnalyze  = "analyze_image"
	opModerate = "moderate_content"

	// moderationFallback is the verdict whenever the model gives no definitive answer
	moderationFallback = true
)

// Analysis is the model's description and tags for an image
type Analysis struct {
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

// EmptyAnalysis is the result of any failed analysis
func EmptyAnalysis() Analysis {
	return Analysis{Description: "", Tags: []string{}}
}

// Empty reports an analysis with neither description nor tags
func (a Analysis) Empty() bool {
	return a.Description == "" && len(a.Tags) == 0
}

// Analyzer is the contract the publish flow and handlers depend on
type Analyzer interface {
	AnalyzeImage(ctx context.Context, base64Image string) Analysis
	ModerateContent(ctx context.Context, text string) bool
}

// AnalysisCache stores analyses keyed by a digest of the image. Implementations
// must treat their own errors as misses.
type AnalysisCache interface {
	Get(ctx context.Context, key string) (*Analysis, bool)
	Set(ctx context.Context, key string, analysis Analysis)
}

// Client is the process-wide model client. Immutable after construction.
type Client struct {
	http  *resty.Client
	model string
	cache AnalysisCache
}

// Option configures a Client
type Option func(*Client)

// WithCache enables analysis caching
func WithCache(cache AnalysisCache) Option {
	return func(c *Client) {
		c.cache = cache
	}
}

// WithTransport overrides the HTTP transport
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.http.SetTransport(rt)
	}
}

// NewClient creates a client for the configured endpoint. Requests are
// bounded by cfg.Timeout and never retried.
func NewClient(cfg config.AIConfig, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	httpClient := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetTransport(telemetry.NewInstrumentedTransport(nil))
	if cfg.APIKey != "" {
		httpClient.SetAuthToken(cfg.APIKey)
	}

	c := &Client{
		http:  httpClient,
		model: cfg.Model,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AnalyzeImage describes and tags a base64-encoded image. It never fails:
// any error yields EmptyAnalysis.
func (c *Client) AnalyzeImage(ctx context.Context, base64Image string) Analysis {
	key := cacheKey(base64Image)
	if c.cache != nil {
		if cached, ok := c.cache.Get(ctx, key); ok {
			metrics.RecordAnalysisCache("hit")
			return *cached
		}
		metrics.RecordAnalysisCache("miss")
	}

	content, err := c.complete(ctx, opAnalyze, chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: analyzeInstruction},
			{Role: "user", Content: []contentPart{{
				Type:     "image_url",
				ImageURL: &imageURL{URL: "data:image/jpeg;base64," + base64Image},
			}}},
		},
		MaxTokens: analyzeMaxTokens,
	})
	if err != nil {
		return analysisFallback(err)
	}

	analysis := ParseAnalysis(content)
	if c.cache != nil && !analysis.Empty() {
		c.cache.Set(ctx, key, analysis)
	}
	return analysis
}

// ModerateContent asks the model to approve or reject text. Only a REJECT
// verdict rejects; errors and unexpected replies approve.
func (c *Client) ModerateContent(ctx context.Context, text string) bool {
	content, err := c.complete(ctx, opModerate, chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: moderateInstruction},
			{Role: "user", Content: text},
		},
		MaxTokens: moderateMaxTokens,
	})
	if err != nil {
		return moderationFallbackFor(err)
	}

	verdict, err := ParseVerdict(content)
	if err != nil {
		return moderationFallbackFor(err)
	}
	return verdict
}

// complete runs one chat completion and returns the first choice's text
func (c *Client) complete(ctx context.Context, operation string, req chatRequest) (content string, err error) {
	start := time.Now()
	ctx, span := telemetry.TraceExternalCall(ctx, telemetry.ExternalServiceCallAttrs{
		Service:   "intelligence",
		Operation: operation,
	})
	defer func() {
		metrics.RecordIntelligenceCall(operation, time.Since(start), err)
		span.End()
	}()

	var result chatResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&result).
		Post("/chat/completions")
	if err != nil {
		telemetry.RecordExternalCallError(span, err, 0, true)
		return "", fmt.Errorf("request failed: %w", err)
	}
	if resp.IsError() {
		err = fmt.Errorf("unexpected status %d", resp.StatusCode())
		telemetry.RecordExternalCallError(span, err, resp.StatusCode(), true)
		return "", err
	}
	if len(result.Choices) == 0 {
		err = fmt.Errorf("response has no choices")
		telemetry.RecordExternalCallError(span, err, resp.StatusCode(), true)
		return "", err
	}

	telemetry.RecordExternalCallSuccess(span, resp.StatusCode())
	return result.Choices[0].Message.Content, nil
}

func analysisFallback(cause error) Analysis {
	logger.Log.Warn("Image analysis failed, continuing without it",
		zap.Error(apierrors.ExternalServiceFailure(opAnalyze, cause)))
	return EmptyAnalysis()
}

func moderationFallbackFor(cause error) bool {
	logger.Log.Warn("Moderation unavailable, approving",
		zap.Error(apierrors.ExternalServiceFailure(opModerate, cause)))
	return moderationFallback
}

// ParseAnalysis reads a two-line reply: description, then comma-separated
// tags. Without a newline the whole reply is the description.
func ParseAnalysis(content string) Analysis {
	description, rest, found := strings.Cut(content, "\n")
	analysis := Analysis{
		Description: strings.TrimSpace(description),
		Tags:        []string{},
	}
	if !found {
		return analysis
	}

	line, _, _ := strings.Cut(rest, "\n")
	for _, tag := range strings.Split(line, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			analysis.Tags = append(analysis.Tags, tag)
		}
	}
	return analysis
}

// ParseVerdict maps APPROVE to true and REJECT to false. Anything else is an error.
func ParseVerdict(content string) (bool, error) {
	switch strings.TrimSpace(content) {
	case "APPROVE":
		return true, nil
	case "REJECT":
		return false, nil
	default:
		return false, fmt.Errorf("unexpected moderation reply %q", content)
	}
}

func cacheKey(base64Image string) string {
	sum := sha256.Sum256([]byte(base64Image))
	return hex.EncodeToString(sum[:])
}
