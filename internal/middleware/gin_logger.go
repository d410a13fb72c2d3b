package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/snapshare/internal/logger"
	"github.com/zfogg/snapshare/internal/util"
	"go.uber.org/zap"
)

// GinLoggerMiddleware writes one access log line per request after it completes.
// Lines carry the matched route, the post being acted on and the caller, so a
// single post's likes, comments and uploads can be followed in the logs.
func GinLoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := accessFields(c, status, time.Since(start))

		switch {
		case status >= 500:
			logger.Log.Error("HTTP request", fields...)
		case status >= 400:
			logger.Log.Warn("HTTP request", fields...)
		default:
			logger.Log.Info("HTTP request", fields...)
		}
	}
}

func accessFields(c *gin.Context, status int, latency time.Duration) []zap.Field {
	fields := []zap.Field{
		zap.String("method", c.Request.Method),
		zap.String("route", routePath(c)),
		zap.String("path", c.Request.URL.Path),
		logger.WithStatus(status),
		logger.WithIP(c.ClientIP()),
		zap.Int("bytes", c.Writer.Size()),
		zap.Duration("latency", latency),
	}

	if id := c.GetString("request_id"); id != "" {
		fields = append(fields, logger.WithRequestID(id))
	}
	if userID := c.GetString(util.UserIDKey); userID != "" {
		fields = append(fields, logger.WithUserID(userID))
	}
	if postID := c.Param("id"); postID != "" {
		fields = append(fields, logger.WithPostID(postID))
	}
	if len(c.Errors) > 0 {
		fields = append(fields, zap.String("errors", c.Errors.String()))
	}
	return fields
}
