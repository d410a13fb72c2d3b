// Package publish composes media ingestion, content intelligence and the
// engagement store into the write paths for posts and comments.
package publish

import (
	"context"
	"strings"

	apierrors "github.com/zfogg/snapshare/internal/errors"
	"github.com/zfogg/snapshare/internal/intelligence"
	"github.com/zfogg/snapshare/internal/logger"
	"github.com/zfogg/snapshare/internal/media"
	"github.com/zfogg/snapshare/internal/models"
	"github.com/zfogg/snapshare/internal/repository"
	"github.com/zfogg/snapshare/internal/telemetry"
	"go.uber.org/zap"
)

// Ingester stores uploads. Implemented by media.Service.
type Ingester interface {
	Ingest(ctx context.Context, data []byte, originalFilename, contentType string) (*media.IngestResult, error)
}

// Upload is one file of a publish request
type Upload struct {
	Data        []byte
	Filename    string
	ContentType string
}

// Service owns post and comment creation
type Service struct {
	repo       repository.EngagementRepository
	media      Ingester
	analyzer   intelligence.Analyzer
	moderation bool
}

// NewService creates a publish service. When moderation is true, post and
// comment text is screened by the analyzer before it is stored.
func NewService(repo repository.EngagementRepository, ingester Ingester, analyzer intelligence.Analyzer, moderation bool) *Service {
	return &Service{
		repo:       repo,
		media:      ingester,
		analyzer:   analyzer,
		moderation: moderation,
	}
}

// CreatePost creates a post from already-uploaded image URLs and client-supplied analysis
func (s *Service) CreatePost(ctx context.Context, params repository.CreatePostParams) (*models.Post, error) {
	if params.Content != nil {
		if err := s.screen(ctx, *params.Content); err != nil {
			return nil, err
		}
	}
	return s.repo.CreatePost(ctx, params)
}

// Publish stores every upload, analyzes the first image and creates the post
// with the derived tags and description. Analysis failures never block the post.
func (s *Service) Publish(ctx context.Context, authorID string, content *string, uploads []Upload) (post *models.Post, err error) {
	ctx, span := telemetry.TracePublish(ctx, len(uploads))
	defer func() { telemetry.EndSpan(span, err) }()

	hasText := content != nil && strings.TrimSpace(*content) != ""
	if !hasText && len(uploads) == 0 {
		return nil, apierrors.ValidationFailed("content", "content or images required")
	}
	if hasText {
		if err := s.screen(ctx, *content); err != nil {
			return nil, err
		}
	}

	// Reject the whole batch before anything reaches storage
	for _, u := range uploads {
		if err := media.Validate(u.Data, u.ContentType); err != nil {
			return nil, err
		}
	}

	params := repository.CreatePostParams{
		AuthorID: authorID,
		Content:  content,
		Images:   make([]string, 0, len(uploads)),
	}

	var firstImage string
	for i, u := range uploads {
		res, err := s.media.Ingest(ctx, u.Data, u.Filename, u.ContentType)
		if err != nil {
			return nil, err
		}
		params.Images = append(params.Images, res.URL)
		if i == 0 {
			firstImage = res.Base64
		}
	}

	if firstImage != "" {
		analysis := s.analyzer.AnalyzeImage(ctx, firstImage)
		params.AITags = analysis.Tags
		if analysis.Description != "" {
			params.AIDescription = &analysis.Description
		}
	}

	post, err = s.repo.CreatePost(ctx, params)
	if err != nil {
		return nil, err
	}

	logger.Log.Info("Post published",
		logger.WithPostID(post.ID),
		logger.WithUserID(authorID),
		zap.Int("images", len(post.Images)),
		zap.Int("ai_tags", len(post.AITags)))

	return post, nil
}

// CreateComment screens and stores a comment
func (s *Service) CreateComment(ctx context.Context, authorID, postID, content string) (*models.Comment, error) {
	if strings.TrimSpace(content) != "" {
		if err := s.screen(ctx, content); err != nil {
			return nil, err
		}
	}
	return s.repo.CreateComment(ctx, authorID, postID, content)
}

// Analyze exposes image analysis for clients that run the upload flow themselves
func (s *Service) Analyze(ctx context.Context, base64Image string) intelligence.Analysis {
	if strings.TrimSpace(base64Image) == "" {
		return intelligence.EmptyAnalysis()
	}
	return s.analyzer.AnalyzeImage(ctx, base64Image)
}

// screen rejects text only on a definitive REJECT verdict
func (s *Service) screen(ctx context.Context, text string) error {
	if !s.moderation || strings.TrimSpace(text) == "" {
		return nil
	}
	if !s.analyzer.ModerateContent(ctx, text) {
		logger.Log.Info("Content rejected by moderation", zap.Int("length", len(text)))
		return apierrors.ValidationFailed("content", "content rejected")
	}
	return nil
}
