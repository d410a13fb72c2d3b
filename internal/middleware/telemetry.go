package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/zfogg/snapshare/internal/util"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracingMiddleware traces HTTP requests using OpenTelemetry. It wraps the
// official otelgin middleware and adds snapshare attributes to its span.
// Use it as r.Use(TracingMiddleware(name)...).
func TracingMiddleware(serviceName string) gin.HandlersChain {
	return gin.HandlersChain{otelgin.Middleware(serviceName), spanAttributes}
}

// spanAttributes runs inside the otelgin span so the span is still open
// when the handler chain returns
func spanAttributes(c *gin.Context) {
	c.Next()

	span := trace.SpanFromContext(c.Request.Context())
	if !span.IsRecording() {
		return
	}

	if userID := c.GetString(util.UserIDKey); userID != "" {
		span.SetAttributes(attribute.String("user.id", userID))
	}
	if postID := c.Param("id"); postID != "" {
		span.SetAttributes(attribute.String("post.id", postID))
	}
	if requestID := c.GetString("request_id"); requestID != "" {
		span.SetAttributes(attribute.String("request.id", requestID))
	}

	for _, ginErr := range c.Errors {
		if ginErr.Err != nil {
			span.RecordError(ginErr.Err)
			span.SetStatus(codes.Error, ginErr.Error())
		}
	}
}
