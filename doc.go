// Package snapshare is the backend of a small photo-sharing social app.
//
// The API server lives in cmd/server. Library code is organized into
// subpackages:
//
//   - internal/handlers: HTTP request handlers for all API endpoints
//   - internal/repository: posts, comments, likes and favorites (gorm)
//   - internal/feed: feed pages with derived engagement counts
//   - internal/media: image upload validation and naming
//   - internal/storage: local disk and S3-compatible media backends
//   - internal/intelligence: image tagging and text moderation via an OpenAI-compatible API
//   - internal/publish: the upload, analyze and create-post flow
//   - internal/cache: Redis-backed analysis cache
//   - internal/middleware: auth, request IDs, logging, metrics and tracing
//   - internal/client: typed API client used by cmd/cli
//
// See the individual package documentation for details.
package snapshare
