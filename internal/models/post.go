package models

import (
	"time"
)

// Post represents a blog post.
type Post struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:200;not null" json:"title"`
	Text        string    `gorm:"type:text;not null" json:"text"`
	Slug        string    `gorm:"size:200;not null;uniqueIndex" json:"slug"`
	Image       string    `gorm:"size:255" json:"image"`
	PublishedAt time.Time `gorm:"not null;index" json:"published_at"`
	AuthorID    uint      `gorm:"not null;index" json:"author_id"`
	Author      User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"author"`
	Likes       []User    `gorm:"many2many:post_likes;constraint:OnDelete:CASCADE" json:"-"`
	Tags        []Tag     `gorm:"many2many:post_tags;constraint:OnDelete:CASCADE" json:"tags"`
	// LikesCount is not persisted; computed at query time
	LikesCount int `gorm:"->;-:migration" json:"likes_count"`
	// CommentsCount is not persisted; computed at query time
	CommentsCount int `gorm:"->;-:migration" json:"comments_count"`
}

// HasImage reports whether an uploaded image is attached to the post.
func (p *Post) HasImage() bool {
	return p.Image != ""
}
