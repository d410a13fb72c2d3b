package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/snapshare/internal/models"
	"github.com/zfogg/snapshare/internal/util"
)

// commentResponse is a comment with its author's public profile
type commentResponse struct {
	ID        string               `json:"id"`
	Content   string               `json:"content"`
	PostID    string               `json:"post_id"`
	Author    models.AuthorSummary `json:"author"`
	CreatedAt time.Time            `json:"created_at"`
}

func toCommentResponse(comment *models.Comment) commentResponse {
	return commentResponse{
		ID:        comment.ID,
		Content:   comment.Content,
		PostID:    comment.PostID,
		Author:    comment.Author.Summary(),
		CreatedAt: comment.CreatedAt,
	}
}

// ListComments returns a post's comments, newest first
// GET /api/v1/posts/:id/comments
func (h *Handlers) ListComments(c *gin.Context) {
	comments, err := h.engagement.ListComments(c.Request.Context(), c.Param("id"))
	if err != nil {
		util.RespondError(c, err)
		return
	}

	resp := make([]commentResponse, 0, len(comments))
	for i := range comments {
		resp = append(resp, toCommentResponse(comments[i]))
	}
	c.JSON(http.StatusOK, gin.H{"comments": resp})
}

// CreateComment adds a comment to a post
// POST /api/v1/posts/:id/comments
func (h *Handlers) CreateComment(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid request body")
		return
	}

	comment, err := h.publish.CreateComment(c.Request.Context(), userID, c.Param("id"), req.Content)
	if err != nil {
		util.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toCommentResponse(comment))
}
