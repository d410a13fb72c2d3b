package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/snapshare/internal/models"
	"github.com/zfogg/snapshare/internal/util"
)

// ToggleLike likes or unlikes a post
// POST /api/v1/posts/:id/like
func (h *Handlers) ToggleLike(c *gin.Context) {
	h.toggle(c, models.ReactionLike)
}

// ToggleFavorite favorites or unfavorites a post
// POST /api/v1/posts/:id/favorite
func (h *Handlers) ToggleFavorite(c *gin.Context) {
	h.toggle(c, models.ReactionFavorite)
}

func (h *Handlers) toggle(c *gin.Context, kind models.ReactionKind) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	result, err := h.engagement.Toggle(c.Request.Context(), userID, c.Param("id"), kind)
	if err != nil {
		util.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
