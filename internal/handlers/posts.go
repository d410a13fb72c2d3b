package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/snapshare/internal/media"
	"github.com/zfogg/snapshare/internal/publish"
	"github.com/zfogg/snapshare/internal/repository"
	"github.com/zfogg/snapshare/internal/util"
)

// createPostRequest is the JSON body of POST /posts. Images are URLs returned
// by a previous upload.
type createPostRequest struct {
	Content       *string  `json:"content"`
	Images        []string `json:"images"`
	AITags        []string `json:"aiTags"`
	AIDescription *string  `json:"aiDescription"`
}

// ListPosts returns the newest published posts
// GET /api/v1/posts
func (h *Handlers) ListPosts(c *gin.Context) {
	resp, err := h.feed.List(c.Request.Context())
	if err != nil {
		util.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetFeed returns the home feed with the caller's like and favorite state
// GET /api/v1/feed
func (h *Handlers) GetFeed(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	resp, err := h.feed.HomeFeed(c.Request.Context(), userID)
	if err != nil {
		util.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CreatePost creates a post from already-uploaded images
// POST /api/v1/posts
func (h *Handlers) CreatePost(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid request body")
		return
	}

	post, err := h.publish.CreatePost(c.Request.Context(), repository.CreatePostParams{
		AuthorID:      userID,
		Content:       req.Content,
		Images:        req.Images,
		AITags:        req.AITags,
		AIDescription: req.AIDescription,
	})
	if err != nil {
		util.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

// PublishPost uploads images, analyzes the first one and creates the post in one request
// POST /api/v1/posts/publish (multipart: content, files)
func (h *Handlers) PublishPost(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		util.RespondBadRequest(c, "invalid multipart form")
		return
	}

	var content *string
	var files []*multipart.FileHeader
	if form != nil {
		if values := form.Value["content"]; len(values) > 0 {
			content = &values[0]
		}
		files = form.File["files"]
	}

	uploads := make([]publish.Upload, 0, len(files))
	for _, fh := range files {
		data, contentType, err := util.ReadUploadedFile(fh, media.MaxUploadSize)
		if err != nil {
			util.RespondBadRequest(c, "failed to read upload")
			return
		}
		uploads = append(uploads, publish.Upload{
			Data:        data,
			Filename:    fh.Filename,
			ContentType: contentType,
		})
	}

	post, err := h.publish.Publish(c.Request.Context(), userID, content, uploads)
	if err != nil {
		util.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}
