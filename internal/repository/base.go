// Package repository implements the blog's named query operations on top of gorm.
package repository

import (
	"context"

	"sensive/internal/models"
	"sensive/internal/observability"

	"gorm.io/gorm"
)

const (
	likesCountSelect = "posts.*, " +
		"(SELECT COUNT(*) FROM post_likes WHERE post_likes.post_id = posts.id) AS likes_count"
	postsCountSelect = "tags.*, " +
		"(SELECT COUNT(*) FROM post_tags WHERE post_tags.tag_id = tags.id) AS posts_count"
)

// DefaultPageSize bounds admin listings when the caller passes no limit.
const DefaultPageSize = 50

// MaxPageSize caps admin listings.
const MaxPageSize = 200

// withPostsCount is a preload scope selecting every tag's post count.
func withPostsCount(db *gorm.DB) *gorm.DB {
	return db.Select(postsCountSelect)
}

// cardTags preloads a post's tags alphabetically, each with its post count.
func cardTags(db *gorm.DB) *gorm.DB {
	return withPostsCount(db).Order("tags.title ASC")
}

// observe starts a span and a latency timer for one repository call. The
// returned func must be called with the call's final error.
func observe(ctx context.Context, table, operation string) (context.Context, func(error)) {
	span, ctx := observability.StartQuerySpan(ctx, table, operation)
	done := observability.TrackQuery(operation, table)
	logger := observability.NewRepoLogger(table)

	return ctx, func(err error) {
		done()
		if err != nil && !models.IsCode(err, models.CodeNotFound) {
			span.SetError(err)
			logger.LogError(ctx, err, operation)
		}
		span.End()
	}
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func likePattern(q string) string {
	return "%" + escapeLike(q) + "%"
}

func escapeLike(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch r {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}
