package feed

import (
	"context"
	"time"

	"github.com/zfogg/snapshare/internal/metrics"
	"github.com/zfogg/snapshare/internal/models"
	"github.com/zfogg/snapshare/internal/repository"
	"github.com/zfogg/snapshare/internal/telemetry"
)

// PageSize is the fixed number of posts in a feed page
const PageSize = 20

// Counts are the derived engagement totals of a post
type Counts struct {
	Likes     int64 `json:"likes"`
	Comments  int64 `json:"comments"`
	Favorites int64 `json:"favorites"`
}

// Item is a single post in a feed page
type Item struct {
	ID            string               `json:"id"`
	Content       *string              `json:"content,omitempty"`
	Images        []string             `json:"images"`
	AITags        []string             `json:"ai_tags"`
	AIDescription *string              `json:"ai_description,omitempty"`
	Author        models.AuthorSummary `json:"author"`
	Counts        Counts               `json:"counts"`
	CreatedAt     time.Time            `json:"created_at"`
	// Only present on the home feed
	Liked     *bool `json:"liked,omitempty"`
	Favorited *bool `json:"favorited,omitempty"`
}

// Response is a feed page
type Response struct {
	Items []Item   `json:"items"`
	Meta  FeedMeta `json:"meta"`
}

// FeedMeta describes a feed page
type FeedMeta struct {
	Limit int `json:"limit"`
	Count int `json:"count"`
}

// Assembler builds feed pages from the engagement store
type Assembler struct {
	repo repository.EngagementRepository
}

// NewAssembler creates a new feed assembler
func NewAssembler(repo repository.EngagementRepository) *Assembler {
	return &Assembler{repo: repo}
}

// HomeFeed returns the newest posts with the viewer's like and favorite state
func (a *Assembler) HomeFeed(ctx context.Context, viewerID string) (*Response, error) {
	return a.page(ctx, "home", &viewerID)
}

// List returns the newest posts without viewer state
func (a *Assembler) List(ctx context.Context) (*Response, error) {
	return a.page(ctx, "list", nil)
}

func (a *Assembler) page(ctx context.Context, feedType string, viewerID *string) (resp *Response, err error) {
	start := time.Now()
	ctx, span := telemetry.TraceFeed(ctx, feedType, PageSize)
	defer func() {
		telemetry.EndSpan(span, err)
		metrics.RecordFeedGeneration(feedType, time.Since(start))
	}()

	posts, err := a.repo.ListPage(ctx, PageSize, viewerID)
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(posts))
	for _, p := range posts {
		items = append(items, toItem(p))
	}

	return &Response{
		Items: items,
		Meta: FeedMeta{
			Limit: PageSize,
			Count: len(items),
		},
	}, nil
}

func toItem(p *repository.PostWithEngagement) Item {
	images := []string(p.Post.Images)
	if images == nil {
		images = []string{}
	}
	tags := []string(p.Post.AITags)
	if tags == nil {
		tags = []string{}
	}

	return Item{
		ID:            p.Post.ID,
		Content:       p.Post.Content,
		Images:        images,
		AITags:        tags,
		AIDescription: p.Post.AIDescription,
		Author:        p.Author,
		Counts: Counts{
			Likes:     p.LikeCount,
			Comments:  p.CommentCount,
			Favorites: p.FavoriteCount,
		},
		CreatedAt: p.Post.CreatedAt,
		Liked:     p.Liked,
		Favorited: p.Favorited,
	}
}
