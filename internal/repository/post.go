package repository

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"sensive/internal/cache"
	"sensive/internal/models"
	"sensive/internal/observability"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostFilter narrows the admin post listing. Zero values disable a filter.
type PostFilter struct {
	Query    string
	AuthorID uint
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
}

// PostRepository defines the read operations the pages and the admin tools run over posts.
type PostRepository interface {
	Popular(ctx context.Context, n int) ([]*models.Post, error)
	Fresh(ctx context.Context, n int) ([]*models.Post, error)
	FreshPage(ctx context.Context, page, size int) ([]*models.Post, error)
	WithCommentCounts(ctx context.Context, posts []*models.Post) error
	GetBySlug(ctx context.Context, slug string) (*models.Post, error)
	ListByTag(ctx context.Context, tagID uint, n int) ([]*models.Post, error)
	Search(ctx context.Context, filter PostFilter) ([]*models.Post, int64, error)
	Year(ctx context.Context, year int) ([]*models.Post, error)
	Create(ctx context.Context, post *models.Post, tagTitles []string) error
	Like(ctx context.Context, postID, userID uint) error
}

type postRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db, log: observability.NewRepoLogger("posts")}
}

// cards selects posts with their like count, author and tags (each tag with
// its own post count). The shape costs four queries whatever the row count.
func (r *postRepository) cards(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.Post{}).
		Select(likesCountSelect).
		Preload("Author").
		Preload("Tags", cardTags)
}

func (r *postRepository) Popular(ctx context.Context, n int) (posts []*models.Post, err error) {
	ctx, finish := observe(ctx, "posts", "popular")
	defer func() { finish(err) }()

	if n <= 0 {
		return []*models.Post{}, nil
	}
	err = r.cards(ctx).
		Order("likes_count DESC, posts.id ASC").
		Limit(n).
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("popular posts: %w", err)
	}
	r.log.LogRead(ctx, "popular", map[string]interface{}{"n": n, "rows": len(posts)})
	return posts, nil
}

func (r *postRepository) Fresh(ctx context.Context, n int) ([]*models.Post, error) {
	return r.fresh(ctx, n, 0)
}

// FreshPage returns the page-th (1-based) block of size freshest posts.
func (r *postRepository) FreshPage(ctx context.Context, page, size int) ([]*models.Post, error) {
	if page < 1 {
		return nil, models.NewValidationError("Page must be a positive integer")
	}
	if size > 0 && page-1 > math.MaxInt/size {
		return nil, models.NewValidationError(fmt.Sprintf("Page %d is out of range", page))
	}
	return r.fresh(ctx, size, (page-1)*size)
}

func (r *postRepository) fresh(ctx context.Context, n, offset int) (posts []*models.Post, err error) {
	ctx, finish := observe(ctx, "posts", "fresh")
	defer func() { finish(err) }()

	if n <= 0 {
		return []*models.Post{}, nil
	}
	err = r.cards(ctx).
		Order("posts.published_at DESC, posts.id DESC").
		Limit(n).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("fresh posts: %w", err)
	}
	r.log.LogRead(ctx, "fresh", map[string]interface{}{"n": n, "offset": offset, "rows": len(posts)})
	return posts, nil
}

type postCommentCount struct {
	PostID uint
	Count  int
}

// WithCommentCounts fills CommentsCount on every post using one grouped query.
func (r *postRepository) WithCommentCounts(ctx context.Context, posts []*models.Post) (err error) {
	if len(posts) == 0 {
		return nil
	}
	ctx, finish := observe(ctx, "comments", "count_by_post")
	defer func() { finish(err) }()

	ids := make([]uint, 0, len(posts))
	seen := make(map[uint]struct{}, len(posts))
	for _, p := range posts {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		ids = append(ids, p.ID)
	}

	var rows []postCommentCount
	err = r.db.WithContext(ctx).
		Model(&models.Comment{}).
		Select("post_id, COUNT(*) AS count").
		Where("post_id IN ?", ids).
		Group("post_id").
		Find(&rows).Error
	if err != nil {
		return fmt.Errorf("comment counts: %w", err)
	}

	counts := make(map[uint]int, len(rows))
	for _, row := range rows {
		counts[row.PostID] = row.Count
	}
	for _, p := range posts {
		p.CommentsCount = counts[p.ID]
	}
	return nil
}

func (r *postRepository) GetBySlug(ctx context.Context, slug string) (post *models.Post, err error) {
	ctx, finish := observe(ctx, "posts", "get_by_slug")
	defer func() { finish(err) }()

	// Two rows are enough to tell a unique match from an ambiguous one.
	var posts []*models.Post
	err = r.cards(ctx).
		Where("posts.slug = ?", slug).
		Order("posts.id ASC").
		Limit(2).
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("post by slug: %w", err)
	}

	switch len(posts) {
	case 0:
		return nil, models.NewNotFoundError("Post", slug)
	case 1:
		return posts[0], nil
	default:
		return nil, models.NewAmbiguousError("Post", slug, len(posts))
	}
}

func (r *postRepository) ListByTag(ctx context.Context, tagID uint, n int) (posts []*models.Post, err error) {
	ctx, finish := observe(ctx, "posts", "list_by_tag")
	defer func() { finish(err) }()

	if n <= 0 {
		return []*models.Post{}, nil
	}
	err = r.cards(ctx).
		Joins("JOIN post_tags ON post_tags.post_id = posts.id").
		Where("post_tags.tag_id = ?", tagID).
		Order("posts.published_at ASC, posts.id ASC").
		Limit(n).
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("posts by tag: %w", err)
	}
	r.log.LogRead(ctx, "list_by_tag", map[string]interface{}{"tag_id": tagID, "rows": len(posts)})
	return posts, nil
}

func (r *postRepository) filtered(ctx context.Context, f PostFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Post{})
	if s := strings.TrimSpace(f.Query); s != "" {
		like := likePattern(strings.ToLower(s))
		q = q.Where(`(LOWER(posts.title) LIKE ? ESCAPE '\' OR LOWER(posts.text) LIKE ? ESCAPE '\')`, like, like)
	}
	if f.AuthorID != 0 {
		q = q.Where("posts.author_id = ?", f.AuthorID)
	}
	if f.From != nil {
		q = q.Where("posts.published_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("posts.published_at < ?", *f.To)
	}
	return q
}

func (r *postRepository) Search(ctx context.Context, f PostFilter) (posts []*models.Post, total int64, err error) {
	ctx, finish := observe(ctx, "posts", "search")
	defer func() { finish(err) }()

	if f.From != nil && f.To != nil && !f.From.Before(*f.To) {
		return nil, 0, models.NewValidationError("'from' must be before 'to'")
	}
	limit, offset := clampPage(f.Limit, f.Offset)

	if err = r.filtered(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count posts: %w", err)
	}
	err = r.filtered(ctx, f).
		Preload("Author").
		Order("posts.published_at DESC, posts.id DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, 0, fmt.Errorf("search posts: %w", err)
	}
	return posts, total, nil
}

func (r *postRepository) Year(ctx context.Context, year int) (posts []*models.Post, err error) {
	ctx, finish := observe(ctx, "posts", "year")
	defer func() { finish(err) }()

	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)
	err = r.cards(ctx).
		Where("posts.published_at >= ? AND posts.published_at < ?", from, to).
		Order("posts.published_at ASC, posts.id ASC").
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("posts of %d: %w", year, err)
	}
	return posts, nil
}

// Create stores a post written by a staff user and attaches its tags by
// title, creating the tags that do not exist yet.
func (r *postRepository) Create(ctx context.Context, post *models.Post, tagTitles []string) (err error) {
	ctx, finish := observe(ctx, "posts", "create")
	defer func() { finish(err) }()

	var author models.User
	if err = r.db.WithContext(ctx).First(&author, post.AuthorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewValidationError(fmt.Sprintf("Author %d does not exist", post.AuthorID))
		}
		return fmt.Errorf("load author: %w", err)
	}
	if !author.IsStaff {
		return models.NewValidationError(fmt.Sprintf("Author %q is not staff", author.Username))
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tags := make([]models.Tag, 0, len(tagTitles))
		for _, title := range tagTitles {
			tag := models.Tag{Title: title}
			if err := tx.Where(models.Tag{Title: models.NormalizeTagTitle(title)}).FirstOrCreate(&tag).Error; err != nil {
				return err
			}
			tags = append(tags, tag)
		}
		post.Tags = tags
		return tx.Omit("Author").Create(post).Error
	})
	if isUniqueViolation(err) {
		return models.NewValidationError(fmt.Sprintf("Slug %q is already taken", post.Slug))
	}
	if err != nil {
		return err
	}

	cache.InvalidateSidebars(ctx, cache.SidebarSize)
	return nil
}

// Like records userID among the likers of postID. Liking twice is a no-op.
func (r *postRepository) Like(ctx context.Context, postID, userID uint) (err error) {
	ctx, finish := observe(ctx, "post_likes", "like")
	defer func() { finish(err) }()

	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Table("post_likes").
		Create(map[string]interface{}{"post_id": postID, "user_id": userID}).Error
	if err != nil {
		return fmt.Errorf("like post %d: %w", postID, err)
	}
	cache.InvalidateSidebars(ctx, cache.SidebarSize)
	return nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
