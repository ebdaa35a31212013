package repository

import (
	"context"
	"fmt"
	"strings"

	"sensive/internal/models"
	"sensive/internal/observability"

	"gorm.io/gorm"
)

// TagRepository defines the read operations over tags.
type TagRepository interface {
	Popular(ctx context.Context, n int) ([]*models.Tag, error)
	PostCount(ctx context.Context, tagID uint) (int64, error)
	GetByTitle(ctx context.Context, title string) (*models.Tag, error)
	Search(ctx context.Context, query string, limit, offset int) ([]*models.Tag, int64, error)
}

type tagRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewTagRepository creates a new tag repository
func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db, log: observability.NewRepoLogger("tags")}
}

func (r *tagRepository) withCounts(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Tag{}).Scopes(withPostsCount)
}

// Popular returns the n tags attached to the most posts, ties by title.
func (r *tagRepository) Popular(ctx context.Context, n int) (tags []*models.Tag, err error) {
	ctx, finish := observe(ctx, "tags", "popular")
	defer func() { finish(err) }()

	if n <= 0 {
		return []*models.Tag{}, nil
	}
	err = r.withCounts(ctx).
		Order("posts_count DESC, tags.title ASC").
		Limit(n).
		Find(&tags).Error
	if err != nil {
		return nil, fmt.Errorf("popular tags: %w", err)
	}
	r.log.LogRead(ctx, "popular", map[string]interface{}{"n": n, "rows": len(tags)})
	return tags, nil
}

func (r *tagRepository) PostCount(ctx context.Context, tagID uint) (count int64, err error) {
	ctx, finish := observe(ctx, "post_tags", "post_count")
	defer func() { finish(err) }()

	err = r.db.WithContext(ctx).Table("post_tags").Where("tag_id = ?", tagID).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("tag post count: %w", err)
	}
	return count, nil
}

// GetByTitle looks a tag up by title. The title is normalized the same way
// tags are stored, so "Django" finds "django".
func (r *tagRepository) GetByTitle(ctx context.Context, title string) (tag *models.Tag, err error) {
	ctx, finish := observe(ctx, "tags", "get_by_title")
	defer func() { finish(err) }()

	normalized := models.NormalizeTagTitle(title)
	if normalized == "" {
		return nil, models.NewValidationError("Tag title is required")
	}

	var tags []*models.Tag
	err = r.withCounts(ctx).
		Where("tags.title = ?", normalized).
		Limit(2).
		Find(&tags).Error
	if err != nil {
		return nil, fmt.Errorf("tag by title: %w", err)
	}

	switch len(tags) {
	case 0:
		return nil, models.NewNotFoundError("Tag", normalized)
	case 1:
		return tags[0], nil
	default:
		return nil, models.NewAmbiguousError("Tag", normalized, len(tags))
	}
}

func (r *tagRepository) Search(ctx context.Context, query string, limit, offset int) (tags []*models.Tag, total int64, err error) {
	ctx, finish := observe(ctx, "tags", "search")
	defer func() { finish(err) }()

	limit, offset = clampPage(limit, offset)
	filtered := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&models.Tag{})
		if s := models.NormalizeTagTitle(query); s != "" {
			q = q.Where(`tags.title LIKE ? ESCAPE '\'`, likePattern(strings.ToLower(s)))
		}
		return q
	}

	if err = filtered().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count tags: %w", err)
	}
	err = filtered().
		Scopes(withPostsCount).
		Order("tags.title ASC").
		Limit(limit).
		Offset(offset).
		Find(&tags).Error
	if err != nil {
		return nil, 0, fmt.Errorf("search tags: %w", err)
	}
	return tags, total, nil
}
