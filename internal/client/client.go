// Package client is a typed HTTP client for the snapshare API.
package client

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-resty/resty/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/zfogg/snapshare/internal/feed"
	"github.com/zfogg/snapshare/internal/intelligence"
	"github.com/zfogg/snapshare/internal/media"
	"github.com/zfogg/snapshare/internal/models"
	"github.com/zfogg/snapshare/internal/repository"
)

const userAgent = "Snapshare-CLI/0.1.0"

// Logger receives request/response debug lines. charmbracelet/log satisfies it.
type Logger interface {
	Debug(msg interface{}, keyvals ...interface{})
}

// Client calls the snapshare API
type Client struct {
	http *resty.Client
}

// Config addresses the API
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	Logger  Logger
}

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// New creates a client. An empty token sends unauthenticated requests.
func New(cfg Config) *Client {
	h := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", userAgent).
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal).
		SetError(&APIError{})

	if cfg.Token != "" {
		h.SetAuthToken(cfg.Token)
	}

	if cfg.Logger != nil {
		log := cfg.Logger
		h.OnBeforeRequest(func(c *resty.Client, req *resty.Request) error {
			log.Debug("HTTP Request", "method", req.Method, "url", req.URL)
			return nil
		})
		h.OnAfterResponse(func(c *resty.Client, resp *resty.Response) error {
			log.Debug("HTTP Response", "status", resp.StatusCode(), "duration", resp.Time())
			return nil
		})
	}

	return &Client{http: h}
}

// APIError is the error body the server writes for any non-2xx response
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Code
	}
	if e.Field != "" {
		return fmt.Sprintf("%d %s: %s (%s)", e.Status, e.Code, msg, e.Field)
	}
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, msg)
}

// Comment is a comment with its author
type Comment struct {
	ID        string               `json:"id"`
	Content   string               `json:"content"`
	PostID    string               `json:"post_id"`
	Author    models.AuthorSummary `json:"author"`
	CreatedAt time.Time            `json:"created_at"`
}

// CreatePostRequest creates a post from already-uploaded image URLs
type CreatePostRequest struct {
	Content       *string  `json:"content,omitempty"`
	Images        []string `json:"images,omitempty"`
	AITags        []string `json:"aiTags,omitempty"`
	AIDescription *string  `json:"aiDescription,omitempty"`
}

// Health is the server's health report
type Health struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// check turns a transport error or non-2xx response into an error
func check(resp *resty.Response, err error) error {
	if err != nil {
		return err
	}
	if resp.IsSuccess() {
		return nil
	}

	apiErr, ok := resp.Error().(*APIError)
	if !ok || apiErr == nil || apiErr.Code == "" {
		apiErr = &APIError{Code: "HTTP_ERROR", Message: resp.Status()}
	}
	apiErr.Status = resp.StatusCode()
	return apiErr
}

// Health checks the server
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var out Health
	resp, err := c.http.R().SetContext(ctx).SetResult(&out).SetError(&out).Get("/health")
	// A degraded server still answers with a health body
	if err == nil && resp.StatusCode() == http.StatusServiceUnavailable {
		return &out, nil
	}
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListPosts fetches the newest posts
func (c *Client) ListPosts(ctx context.Context) (*feed.Response, error) {
	var out feed.Response
	resp, err := c.http.R().SetContext(ctx).SetResult(&out).Get("/api/v1/posts")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// Feed fetches the caller's home feed
func (c *Client) Feed(ctx context.Context) (*feed.Response, error) {
	var out feed.Response
	resp, err := c.http.R().SetContext(ctx).SetResult(&out).Get("/api/v1/feed")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreatePost creates a post
func (c *Client) CreatePost(ctx context.Context, req CreatePostRequest) (*models.Post, error) {
	var out models.Post
	resp, err := c.http.R().SetContext(ctx).SetBody(req).SetResult(&out).Post("/api/v1/posts")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// Publish uploads the files and creates a post in one request
func (c *Client) Publish(ctx context.Context, content string, paths []string) (*models.Post, error) {
	req := c.http.R().SetContext(ctx)
	if content != "" {
		req.SetFormData(map[string]string{"content": content})
	}
	for _, p := range paths {
		if err := attach(req, "files", p); err != nil {
			return nil, err
		}
	}

	var out models.Post
	resp, err := req.SetResult(&out).Post("/api/v1/posts/publish")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListComments fetches a post's comments, newest first
func (c *Client) ListComments(ctx context.Context, postID string) ([]Comment, error) {
	var out struct {
		Comments []Comment `json:"comments"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", postID).
		SetResult(&out).
		Get("/api/v1/posts/{id}/comments")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return out.Comments, nil
}

// CreateComment comments on a post
func (c *Client) CreateComment(ctx context.Context, postID, content string) (*Comment, error) {
	var out Comment
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", postID).
		SetBody(map[string]string{"content": content}).
		SetResult(&out).
		Post("/api/v1/posts/{id}/comments")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// ToggleLike likes or unlikes a post
func (c *Client) ToggleLike(ctx context.Context, postID string) (*repository.ToggleResult, error) {
	return c.toggle(ctx, postID, models.ReactionLike)
}

// ToggleFavorite favorites or unfavorites a post
func (c *Client) ToggleFavorite(ctx context.Context, postID string) (*repository.ToggleResult, error) {
	return c.toggle(ctx, postID, models.ReactionFavorite)
}

func (c *Client) toggle(ctx context.Context, postID string, kind models.ReactionKind) (*repository.ToggleResult, error) {
	var out repository.ToggleResult
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParams(map[string]string{"id": postID, "kind": string(kind)}).
		SetResult(&out).
		Post("/api/v1/posts/{id}/{kind}")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// Upload stores a single image
func (c *Client) Upload(ctx context.Context, path string) (*media.IngestResult, error) {
	req := c.http.R().SetContext(ctx)
	if err := attach(req, "file", path); err != nil {
		return nil, err
	}

	var out media.IngestResult
	resp, err := req.SetResult(&out).Post("/api/v1/upload")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// Analyze describes and tags a base64 image
func (c *Client) Analyze(ctx context.Context, base64Image string) (*intelligence.Analysis, error) {
	var out intelligence.Analysis
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"image": base64Image}).
		SetResult(&out).
		Post("/api/v1/ai/analyze")
	if err := check(resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// attach adds a file part with a content type derived from its extension.
// resty's SetFile sends application/octet-stream, which the server rejects.
func attach(req *resty.Request, field, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	req.SetMultipartField(field, filepath.Base(path), contentType(path), bytes.NewReader(data))
	return nil
}
