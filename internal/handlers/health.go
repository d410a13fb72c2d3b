package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/snapshare/internal/database"
	"github.com/zfogg/snapshare/internal/logger"
	"go.uber.org/zap"
)

// Health reports whether the database is reachable
// GET /health
func (h *Handlers) Health(c *gin.Context) {
	status := gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
		"database":  "ok",
	}

	if err := database.Health(h.db); err != nil {
		logger.Log.Warn("Health check failed", zap.Error(err))
		status["status"] = "degraded"
		status["database"] = "unreachable"
		c.JSON(http.StatusServiceUnavailable, status)
		return
	}

	c.JSON(http.StatusOK, status)
}
