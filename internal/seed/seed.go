package seed

import (
	"context"
	"fmt"
	"log/slog"

	"sensive/internal/middleware"
	"sensive/internal/models"

	"gorm.io/gorm"
)

// Result counts what a seeding run created.
type Result struct {
	Users    int
	Authors  int
	Posts    int
	Tags     int
	Likes    int
	Comments int
}

// Seed populates the database with generated users, staff authors, tagged
// posts, likes and comments.
func Seed(ctx context.Context, db *gorm.DB, opts Options) (*Result, error) {
	if opts.Authors < 1 && opts.Posts > 0 {
		return nil, models.NewValidationError("at least one author is required to seed posts")
	}
	if opts.Clean {
		if err := ClearAll(ctx, db); err != nil {
			return nil, err
		}
	}

	f := NewFactory(db, opts)
	res := &Result{}

	authors := make([]*models.User, 0, opts.Authors)
	for i := 0; i < opts.Authors; i++ {
		u, err := f.CreateStaff(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create author: %w", err)
		}
		authors = append(authors, u)
	}
	res.Authors = len(authors)

	readers := make([]*models.User, 0, opts.Users)
	for i := 0; i < opts.Users; i++ {
		u, err := f.CreateUser(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		readers = append(readers, u)
	}
	res.Users = len(readers)
	middleware.Logger.Info("Seeded users", slog.Int("authors", res.Authors), slog.Int("readers", res.Users))

	tags := f.TagTitles(opts.Tags)
	res.Tags = len(tags)
	everyone := append(append([]*models.User{}, authors...), readers...)

	for i := 0; i < opts.Posts; i++ {
		author := authors[f.faker.Number(0, len(authors)-1)]
		var postTags []string
		if len(tags) > 0 {
			postTags = pick(f.faker, tags, f.faker.Number(1, min(3, len(tags))))
		}
		post, err := f.CreatePost(ctx, author, postTags)
		if err != nil {
			return nil, fmt.Errorf("failed to create post: %w", err)
		}
		res.Posts++

		if opts.MaxLikes > 0 {
			for _, u := range pick(f.faker, everyone, f.faker.Number(0, opts.MaxLikes)) {
				if err := f.Like(ctx, post, u); err != nil {
					return nil, fmt.Errorf("failed to like post: %w", err)
				}
				res.Likes++
			}
		}
		if opts.MaxComments > 0 && len(everyone) > 0 {
			for n := f.faker.Number(0, opts.MaxComments); n > 0; n-- {
				commenter := everyone[f.faker.Number(0, len(everyone)-1)]
				if _, err := f.CreateComment(ctx, post, commenter); err != nil {
					return nil, fmt.Errorf("failed to create comment: %w", err)
				}
				res.Comments++
			}
		}
	}

	middleware.Logger.Info("Seeding completed",
		slog.Int("posts", res.Posts),
		slog.Int("tags", res.Tags),
		slog.Int("likes", res.Likes),
		slog.Int("comments", res.Comments),
	)
	return res, nil
}

// ClearAll deletes every blog row, children first.
func ClearAll(ctx context.Context, db *gorm.DB) error {
	tables := []string{"comments", "post_likes", "post_tags", "posts", "tags", "users"}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range tables {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		return nil
	})
}
