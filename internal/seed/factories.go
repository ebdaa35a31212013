// Package seed creates demo data for the blog database. It is intended for
// development and testing only.
package seed

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"sensive/internal/models"
	"sensive/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every generated user.
const DefaultPassword = "password123"

// Options configures the seeder.
type Options struct {
	Users       int
	Authors     int
	Posts       int
	Tags        int
	MaxLikes    int
	MaxComments int
	MaxDays     int
	// Seed makes generated content reproducible when non-zero.
	Seed       int64
	SkipBcrypt bool
	BcryptCost int
	Clean      bool
}

// DefaultOptions returns a small but populated demo blog.
func DefaultOptions() Options {
	return Options{
		Users:       30,
		Authors:     3,
		Posts:       40,
		Tags:        12,
		MaxLikes:    20,
		MaxComments: 6,
		MaxDays:     365,
		BcryptCost:  bcrypt.DefaultCost,
	}
}

// Factory builds blog entities and persists them through the repositories.
type Factory struct {
	opts     Options
	faker    *gofakeit.Faker
	users    repository.UserRepository
	posts    repository.PostRepository
	comments repository.CommentRepository
	now      time.Time
	seq      int
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.MaxDays <= 0 {
		opts.MaxDays = 365
	}
	return &Factory{
		opts:     opts,
		faker:    gofakeit.New(seed),
		users:    repository.NewUserRepository(db),
		posts:    repository.NewPostRepository(db),
		comments: repository.NewCommentRepository(db),
		now:      time.Now().UTC(),
	}
}

func (f *Factory) hashPassword(raw string) (string, error) {
	if f.opts.SkipBcrypt {
		return raw, nil
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(raw), f.opts.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// CreateUser constructs and persists a sample user.
// Optional override functions may modify the generated user before saving.
func (f *Factory) CreateUser(ctx context.Context, overrides ...func(*models.User)) (*models.User, error) {
	f.seq++
	username := fmt.Sprintf("%s%d", strings.ToLower(f.faker.Username()), f.seq)
	user := &models.User{
		Username: username,
		Email:    username + "@" + f.faker.DomainName(),
		Password: DefaultPassword,
	}
	for _, override := range overrides {
		override(user)
	}

	hashed, err := f.hashPassword(user.Password)
	if err != nil {
		return nil, err
	}
	user.Password = hashed

	if err := f.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// CreateStaff persists a sample user allowed to author posts.
func (f *Factory) CreateStaff(ctx context.Context, overrides ...func(*models.User)) (*models.User, error) {
	return f.CreateUser(ctx, append([]func(*models.User){func(u *models.User) { u.IsStaff = true }}, overrides...)...)
}

// TagTitles returns n distinct tag titles short enough to be stored.
func (f *Factory) TagTitles(n int) []string {
	seen := make(map[string]struct{}, n)
	out := make([]string, 0, n)
	for attempts := 0; len(out) < n && attempts < n*20; attempts++ {
		title := models.NormalizeTagTitle(f.faker.Word())
		if title == "" || len([]rune(title)) > models.TagTitleMaxLen {
			continue
		}
		if _, ok := seen[title]; ok {
			continue
		}
		seen[title] = struct{}{}
		out = append(out, title)
	}
	return out
}

// BuildPost constructs a post by author without persisting it. Roughly two
// posts out of three carry an image with a unique file name.
func (f *Factory) BuildPost(author *models.User, overrides ...func(*models.Post)) *models.Post {
	title := strings.TrimSuffix(f.faker.Sentence(f.faker.Number(3, 7)), ".")
	daysBack := f.faker.Number(0, f.opts.MaxDays)
	post := &models.Post{
		Title:       title,
		Text:        f.faker.Paragraph(3, 5, 12, "\n\n"),
		Slug:        Slugify(title) + "-" + uuid.NewString()[:8],
		PublishedAt: f.now.Add(-time.Duration(daysBack)*24*time.Hour - time.Duration(f.faker.Number(0, 1439))*time.Minute),
		AuthorID:    author.ID,
	}
	if f.faker.Number(1, 3) > 1 {
		post.Image = uuid.NewString() + ".jpg"
	}
	for _, override := range overrides {
		override(post)
	}
	return post
}

// CreatePost persists a sample post by author filed under tags.
func (f *Factory) CreatePost(ctx context.Context, author *models.User, tags []string, overrides ...func(*models.Post)) (*models.Post, error) {
	post := f.BuildPost(author, overrides...)
	if err := f.posts.Create(ctx, post, tags); err != nil {
		return nil, err
	}
	return post, nil
}

// CreateComment persists a sample comment by author under post, published
// some time after the post.
func (f *Factory) CreateComment(ctx context.Context, post *models.Post, author *models.User) (*models.Comment, error) {
	published := post.PublishedAt.Add(time.Duration(f.faker.Number(1, 72*60)) * time.Minute)
	if published.After(f.now) {
		published = f.now
	}
	comment := &models.Comment{
		PostID:      post.ID,
		AuthorID:    author.ID,
		Text:        f.faker.Sentence(f.faker.Number(4, 16)),
		PublishedAt: published,
	}
	if err := f.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// Like records that user liked post.
func (f *Factory) Like(ctx context.Context, post *models.Post, user *models.User) error {
	return f.posts.Like(ctx, post.ID, user.ID)
}

// pick returns up to n distinct elements of items.
func pick[T any](f *gofakeit.Faker, items []T, n int) []T {
	if n > len(items) {
		n = len(items)
	}
	idx := make([]int, len(items))
	for i := range idx {
		idx[i] = i
	}
	f.ShuffleInts(idx)
	out := make([]T, 0, n)
	for _, i := range idx[:n] {
		out = append(out, items[i])
	}
	return out
}

// Slugify lowercases s and joins its letter and digit runs with dashes.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
		default:
			dash = true
		}
	}
	if b.Len() == 0 {
		return "post"
	}
	return b.String()
}
