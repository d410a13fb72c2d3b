package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Domain spans sit between the HTTP span from otelgin and the gorm/HTTP client spans.

func tracer() trace.Tracer {
	return otel.Tracer("snapshare")
}

// TraceFeed creates a span for feed assembly
func TraceFeed(ctx context.Context, feedType string, limit int) (context.Context, trace.Span) {
	return tracer().Start(ctx, "feed.get",
		trace.WithAttributes(
			attribute.String("feed.type", feedType),
			attribute.Int("feed.limit", limit),
		),
	)
}

// TraceToggle creates a span for a like or favorite toggle
func TraceToggle(ctx context.Context, kind, postID string) (context.Context, trace.Span) {
	return tracer().Start(ctx, "engagement.toggle",
		trace.WithAttributes(
			attribute.String("engagement.kind", kind),
			attribute.String("post.id", postID),
		),
	)
}

// TraceIngest creates a span for storing an upload
func TraceIngest(ctx context.Context, backend string, size int) (context.Context, trace.Span) {
	return tracer().Start(ctx, "media.ingest",
		trace.WithAttributes(
			attribute.String("storage.backend", backend),
			attribute.Int("media.size_bytes", size),
		),
	)
}

// TracePublish creates a span for the upload, analyze and create flow
func TracePublish(ctx context.Context, imageCount int) (context.Context, trace.Span) {
	return tracer().Start(ctx, "post.publish",
		trace.WithAttributes(
			attribute.Int("post.image_count", imageCount),
		),
	)
}

// EndSpan records err on span, if any, and ends it
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	}
	span.End()
}
