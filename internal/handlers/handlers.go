// Package handlers implements the snapshare HTTP API.
package handlers

import (
	"github.com/zfogg/snapshare/internal/container"
	"github.com/zfogg/snapshare/internal/feed"
	"github.com/zfogg/snapshare/internal/media"
	"github.com/zfogg/snapshare/internal/publish"
	"github.com/zfogg/snapshare/internal/repository"
	"gorm.io/gorm"
)

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	db         *gorm.DB
	engagement repository.EngagementRepository
	feed       *feed.Assembler
	media      *media.Service
	publish    *publish.Service
}

// NewHandlers creates a new handlers instance from a built container
func NewHandlers(c *container.Container) *Handlers {
	return &Handlers{
		db:         c.DB(),
		engagement: c.Engagement(),
		feed:       c.Feed(),
		media:      c.Media(),
		publish:    c.Publish(),
	}
}
