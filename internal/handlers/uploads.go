package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/snapshare/internal/media"
	"github.com/zfogg/snapshare/internal/util"
)

// Upload stores a single image and returns its URL and base64 payload
// POST /api/v1/upload (multipart: file)
func (h *Handlers) Upload(c *gin.Context) {
	var data []byte
	var filename, contentType string

	// A missing part reaches Ingest as an empty payload and fails with "no file"
	if fh, err := c.FormFile("file"); err == nil {
		data, contentType, err = util.ReadUploadedFile(fh, media.MaxUploadSize)
		if err != nil {
			util.RespondBadRequest(c, "failed to read upload")
			return
		}
		filename = fh.Filename
	}

	res, err := h.media.Ingest(c.Request.Context(), data, filename, contentType)
	if err != nil {
		util.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Analyze describes and tags a base64 image. It never fails: analysis errors
// produce an empty description and no tags.
// POST /api/v1/ai/analyze
func (h *Handlers) Analyze(c *gin.Context) {
	var req struct {
		Image string `json:"image"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid request body")
		return
	}

	c.JSON(http.StatusOK, h.publish.Analyze(c.Request.Context(), req.Image))
}
