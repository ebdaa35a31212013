package models

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// TagTitleMaxLen bounds a tag title.
const TagTitleMaxLen = 20

// Tag groups posts by topic. Titles are stored lowercase.
type Tag struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Title string `gorm:"size:20;unique;not null" json:"title"`
	Posts []Post `gorm:"many2many:post_tags" json:"-"`
	// PostsCount is not persisted; computed at query time
	PostsCount int `gorm:"->;-:migration" json:"posts_count"`
}

// NormalizeTagTitle returns the canonical stored form of a tag title.
func NormalizeTagTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// BeforeSave normalizes the title so lookups by title are case-insensitive.
func (t *Tag) BeforeSave(_ *gorm.DB) error {
	t.Title = NormalizeTagTitle(t.Title)
	if t.Title == "" {
		return NewValidationError("Tag title is required")
	}
	if len([]rune(t.Title)) > TagTitleMaxLen {
		return NewValidationError(fmt.Sprintf("Tag title too long (max %d characters)", TagTitleMaxLen))
	}
	return nil
}
