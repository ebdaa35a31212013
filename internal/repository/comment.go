package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"sensive/internal/cache"
	"sensive/internal/models"
	"sensive/internal/observability"

	"gorm.io/gorm"
)

// CommentFilter narrows the admin comment listing. Zero values disable a filter.
type CommentFilter struct {
	Query  string
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

// CommentRepository defines the operations over comments.
type CommentRepository interface {
	ListByPost(ctx context.Context, postID uint) ([]*models.Comment, error)
	Search(ctx context.Context, filter CommentFilter) ([]*models.Comment, int64, error)
	Create(ctx context.Context, comment *models.Comment) error
}

type commentRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db, log: observability.NewRepoLogger("comments")}
}

// ListByPost returns the comments of a post, newest first, with their authors.
func (r *commentRepository) ListByPost(ctx context.Context, postID uint) (comments []*models.Comment, err error) {
	ctx, finish := observe(ctx, "comments", "list_by_post")
	defer func() { finish(err) }()

	err = r.db.WithContext(ctx).
		Preload("Author").
		Where("post_id = ?", postID).
		Order("published_at DESC, id DESC").
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("comments of post %d: %w", postID, err)
	}
	r.log.LogRead(ctx, "list_by_post", map[string]interface{}{"post_id": postID, "rows": len(comments)})
	return comments, nil
}

func (r *commentRepository) Search(ctx context.Context, f CommentFilter) (comments []*models.Comment, total int64, err error) {
	ctx, finish := observe(ctx, "comments", "search")
	defer func() { finish(err) }()

	if f.From != nil && f.To != nil && !f.From.Before(*f.To) {
		return nil, 0, models.NewValidationError("'from' must be before 'to'")
	}
	limit, offset := clampPage(f.Limit, f.Offset)

	filtered := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&models.Comment{})
		if s := strings.TrimSpace(f.Query); s != "" {
			q = q.Where(`LOWER(comments.text) LIKE ? ESCAPE '\'`, likePattern(strings.ToLower(s)))
		}
		if f.From != nil {
			q = q.Where("comments.published_at >= ?", *f.From)
		}
		if f.To != nil {
			q = q.Where("comments.published_at < ?", *f.To)
		}
		return q
	}

	if err = filtered().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count comments: %w", err)
	}
	err = filtered().
		Preload("Author").
		Order("comments.published_at DESC, comments.id DESC").
		Limit(limit).
		Offset(offset).
		Find(&comments).Error
	if err != nil {
		return nil, 0, fmt.Errorf("search comments: %w", err)
	}
	return comments, total, nil
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) (err error) {
	ctx, finish := observe(ctx, "comments", "create")
	defer func() { finish(err) }()

	if strings.TrimSpace(comment.Text) == "" {
		return models.NewValidationError("Comment text is required")
	}
	if comment.PublishedAt.IsZero() {
		comment.PublishedAt = time.Now().UTC()
	}
	if err = r.db.WithContext(ctx).Omit("Post", "Author").Create(comment).Error; err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	// Sidebar cards carry comment counts.
	cache.InvalidateSidebars(ctx, cache.SidebarSize)
	return nil
}
