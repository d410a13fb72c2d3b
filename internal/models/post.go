package models

import (
	"time"

	"gorm.io/gorm"
)

// Post is a published short post with optional images and AI-derived metadata.
// Posts are never mutated after creation.
type Post struct {
	ID            string      `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Content       *string     `gorm:"type:text" json:"content,omitempty"`
	Images        StringArray `gorm:"not null" json:"images"`
	AITags        StringArray `gorm:"column:ai_tags;not null" json:"ai_tags"`
	AIDescription *string     `gorm:"column:ai_description;type:text" json:"ai_description,omitempty"`
	AuthorID      string      `gorm:"type:varchar(36);not null;index" json:"author_id"`
	Author        *User       `gorm:"foreignKey:AuthorID" json:"-"`
	Published     bool        `gorm:"not null;default:true;index" json:"published"`
	CreatedAt     time.Time   `gorm:"not null;index" json:"created_at"`
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = newID()
	}
	if p.Images == nil {
		p.Images = StringArray{}
	}
	if p.AITags == nil {
		p.AITags = StringArray{}
	}
	return nil
}

// Comment is a non-empty, trimmed text reply on a post
type Comment struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	AuthorID  string    `gorm:"type:varchar(36);not null;index" json:"author_id"`
	Author    *User     `gorm:"foreignKey:AuthorID" json:"-"`
	PostID    string    `gorm:"type:varchar(36);not null;index" json:"post_id"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = newID()
	}
	return nil
}

// Like is an engagement relation; at most one row per (user, post).
type Like struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID    string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_likes_user_post" json:"user_id"`
	PostID    string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_likes_user_post;index" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (l *Like) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = newID()
	}
	return nil
}

// Favorite is structurally identical to Like, kept in its own table.
type Favorite struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID    string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_favorites_user_post" json:"user_id"`
	PostID    string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_favorites_user_post;index" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (f *Favorite) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = newID()
	}
	return nil
}

// ReactionKind selects the engagement relation a toggle operates on
type ReactionKind string

const (
	ReactionLike     ReactionKind = "like"
	ReactionFavorite ReactionKind = "favorite"
)

// Valid reports whether k names a known relation
func (k ReactionKind) Valid() bool {
	return k == ReactionLike || k == ReactionFavorite
}

// NewRelation returns an unsaved relation row of this kind
func (k ReactionKind) NewRelation(userID, postID string) interface{} {
	if k == ReactionFavorite {
		return &Favorite{UserID: userID, PostID: postID}
	}
	return &Like{UserID: userID, PostID: postID}
}

// Model returns the zero model used for queries against this kind's table
func (k ReactionKind) Model() interface{} {
	if k == ReactionFavorite {
		return &Favorite{}
	}
	return &Like{}
}

// AllModels lists every table owned by this service, in migration order
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Post{},
		&Comment{},
		&Like{},
		&Favorite{},
	}
}
