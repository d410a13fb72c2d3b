package repository

import (
	"context"
	"errors"
	"strings"

	apierrors "github.com/zfogg/snapshare/internal/errors"
	"github.com/zfogg/snapshare/internal/logger"
	"github.com/zfogg/snapshare/internal/metrics"
	"github.com/zfogg/snapshare/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CreatePostParams carries the fields accepted when creating a post
type CreatePostParams struct {
	AuthorID      string
	Content       *string
	Images        []string
	AITags        []string
	AIDescription *string
}

// ToggleResult is the post-mutation state of a reaction toggle
type ToggleResult struct {
	Active bool  `json:"active"`
	Count  int64 `json:"count"`
}

// PostWithEngagement is a post enriched with derived counts and, when a viewer
// was supplied, the viewer's reaction state.
type PostWithEngagement struct {
	Post          *models.Post
	Author        models.AuthorSummary
	LikeCount     int64
	CommentCount  int64
	FavoriteCount int64
	// nil when no viewer was given
	Liked     *bool
	Favorited *bool
}

// EngagementRepository owns posts, comments and the like/favorite relations
type EngagementRepository interface {
	// Posts
	CreatePost(ctx context.Context, params CreatePostParams) (*models.Post, error)
	GetPost(ctx context.Context, postID string) (*models.Post, error)

	// Comments
	CreateComment(ctx context.Context, authorID, postID, content string) (*models.Comment, error)
	ListComments(ctx context.Context, postID string) ([]*models.Comment, error)

	// Reactions
	Toggle(ctx context.Context, userID, postID string, kind models.ReactionKind) (*ToggleResult, error)

	// Reads
	ListPage(ctx context.Context, limit int, viewerID *string) ([]*PostWithEngagement, error)
}

// engagementRepository implements EngagementRepository on gorm
type engagementRepository struct {
	db *gorm.DB
}

// NewEngagementRepository creates a new engagement repository
func NewEngagementRepository(db *gorm.DB) EngagementRepository {
	return &engagementRepository{db: db}
}

// CreatePost inserts a published post. Text and images may not both be empty.
func (r *engagementRepository) CreatePost(ctx context.Context, params CreatePostParams) (*models.Post, error) {
	content := normalizeOptional(params.Content)
	images := compact(params.Images)
	if content == nil && len(images) == 0 {
		return nil, apierrors.ValidationFailed("content", "content or images required")
	}

	post := &models.Post{
		Content:       content,
		Images:        images,
		AITags:        compact(params.AITags),
		AIDescription: normalizeOptional(params.AIDescription),
		AuthorID:      params.AuthorID,
		Published:     true,
	}

	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return nil, apierrors.NotFound("user")
		}
		return nil, err
	}

	return post, nil
}

// GetPost gets a post by ID with its author
func (r *engagementRepository) GetPost(ctx context.Context, postID string) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("id = ?", postID).
		First(&post).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierrors.NotFound("post")
	}
	if err != nil {
		return nil, err
	}

	return &post, nil
}

// CreateComment stores a trimmed, non-empty comment on an existing post
func (r *engagementRepository) CreateComment(ctx context.Context, authorID, postID, content string) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apierrors.ValidationFailed("content", "content is required")
	}

	if err := r.requirePost(ctx, postID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		Content:  content,
		AuthorID: authorID,
		PostID:   postID,
	}
	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return nil, apierrors.NotFound("user")
		}
		return nil, err
	}

	// Reload so the author summary is available to callers
	if err := r.db.WithContext(ctx).Preload("Author").First(comment, "id = ?", comment.ID).Error; err != nil {
		return nil, err
	}

	return comment, nil
}

// ListComments lists a post's comments, newest first
func (r *engagementRepository) ListComments(ctx context.Context, postID string) ([]*models.Comment, error) {
	if err := r.requirePost(ctx, postID); err != nil {
		return nil, err
	}

	var comments []*models.Comment
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("post_id = ?", postID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&comments).Error

	return comments, err
}

// Toggle flips the caller's relation of the given kind on a post and returns
// the resulting state with a freshly computed count.
//
// The (user_id, post_id) unique index is the only arbiter of concurrent
// inserts: a losing insert sees a duplicate key and reports the relation as
// active, which is the state the winner left behind.
func (r *engagementRepository) Toggle(ctx context.Context, userID, postID string, kind models.ReactionKind) (*ToggleResult, error) {
	if userID == "" {
		return nil, apierrors.AuthenticationRequired("")
	}
	if !kind.Valid() {
		return nil, apierrors.ValidationFailed("kind", "unknown reaction kind")
	}
	if err := r.requirePost(ctx, postID); err != nil {
		return nil, err
	}

	db := r.db.WithContext(ctx)

	var existing int64
	if err := db.Model(kind.Model()).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Count(&existing).Error; err != nil {
		return nil, err
	}

	active := existing == 0
	if active {
		if err := db.Create(kind.NewRelation(userID, postID)).Error; err != nil {
			if !isDuplicateKey(err) {
				if errors.Is(err, gorm.ErrForeignKeyViolated) {
					return nil, apierrors.NotFound("user")
				}
				return nil, err
			}
			race := apierrors.ConflictRace(string(kind), err)
			logger.Log.Debug("Resolved concurrent reaction insert as active",
				logger.WithUserID(userID),
				logger.WithPostID(postID),
				logger.WithReaction(string(kind)),
				zap.Error(race))
			metrics.RecordToggleRace(string(kind))
		}
	} else {
		if err := db.Where("user_id = ? AND post_id = ?", userID, postID).
			Delete(kind.Model()).Error; err != nil {
			return nil, err
		}
	}

	var count int64
	if err := db.Model(kind.Model()).Where("post_id = ?", postID).Count(&count).Error; err != nil {
		return nil, err
	}

	metrics.RecordToggle(string(kind), active)
	return &ToggleResult{Active: active, Count: count}, nil
}

// ListPage returns up to limit published posts, newest first, with counts
// derived from the relation tables. Viewer flags are set only when viewerID
// is non-nil.
func (r *engagementRepository) ListPage(ctx context.Context, limit int, viewerID *string) ([]*PostWithEngagement, error) {
	if limit <= 0 {
		return []*PostWithEngagement{}, nil
	}

	db := r.db.WithContext(ctx)

	var posts []*models.Post
	err := db.Preload("Author").
		Where("published = ?", true).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}

	if len(posts) == 0 {
		return []*PostWithEngagement{}, nil
	}

	postIDs := make([]string, len(posts))
	for i, p := range posts {
		postIDs[i] = p.ID
	}

	likes, err := r.countByPost(ctx, &models.Like{}, postIDs)
	if err != nil {
		return nil, err
	}
	comments, err := r.countByPost(ctx, &models.Comment{}, postIDs)
	if err != nil {
		return nil, err
	}
	favorites, err := r.countByPost(ctx, &models.Favorite{}, postIDs)
	if err != nil {
		return nil, err
	}

	var liked, favorited map[string]bool
	if viewerID != nil {
		if liked, err = r.viewerPostIDs(ctx, &models.Like{}, *viewerID, postIDs); err != nil {
			return nil, err
		}
		if favorited, err = r.viewerPostIDs(ctx, &models.Favorite{}, *viewerID, postIDs); err != nil {
			return nil, err
		}
	}

	result := make([]*PostWithEngagement, len(posts))
	for i, p := range posts {
		item := &PostWithEngagement{
			Post:          p,
			Author:        p.Author.Summary(),
			LikeCount:     likes[p.ID],
			CommentCount:  comments[p.ID],
			FavoriteCount: favorites[p.ID],
		}
		if viewerID != nil {
			l, f := liked[p.ID], favorited[p.ID]
			item.Liked = &l
			item.Favorited = &f
		}
		result[i] = item
	}

	return result, nil
}

type postCount struct {
	PostID string
	N      int64
}

// countByPost counts rows of model grouped by post_id for the given posts
func (r *engagementRepository) countByPost(ctx context.Context, model interface{}, postIDs []string) (map[string]int64, error) {
	var rows []postCount
	err := r.db.WithContext(ctx).
		Model(model).
		Select("post_id, COUNT(*) AS n").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.PostID] = row.N
	}
	return counts, nil
}

// viewerPostIDs returns which of postIDs the viewer has a relation of model on
func (r *engagementRepository) viewerPostIDs(ctx context.Context, model interface{}, viewerID string, postIDs []string) (map[string]bool, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(model).
		Where("user_id = ? AND post_id IN ?", viewerID, postIDs).
		Pluck("post_id", &ids).Error
	if err != nil {
		return nil, err
	}

	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

func (r *engagementRepository) requirePost(ctx context.Context, postID string) error {
	if postID == "" {
		return apierrors.NotFound("post")
	}

	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", postID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return apierrors.NotFound("post")
	}
	return nil
}

// isDuplicateKey reports a unique-constraint violation. The string checks
// cover drivers that do not translate the error.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint failed")
}

// normalizeOptional trims s and maps blank to nil
func normalizeOptional(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// compact drops blank entries and trims the rest
func compact(values []string) models.StringArray {
	out := models.StringArray{}
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
