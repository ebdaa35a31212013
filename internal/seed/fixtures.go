package seed

import (
	"context"
	"fmt"
	"os"
	"time"

	"sensive/internal/models"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// Fixture is a hand-written blog loaded from YAML.
//
//	users:
//	  - username: editor
//	    staff: true
//	posts:
//	  - title: Hello
//	    slug: hello
//	    author: editor
//	    published_at: 2023-01-02T10:00:00Z
//	    tags: [python]
//	    liked_by: [reader]
//	    comments:
//	      - {author: reader, text: Nice}
type Fixture struct {
	Users []UserFixture `yaml:"users"`
	Posts []PostFixture `yaml:"posts"`
}

type UserFixture struct {
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Staff    bool   `yaml:"staff"`
}

type PostFixture struct {
	Title       string           `yaml:"title"`
	Slug        string           `yaml:"slug"`
	Text        string           `yaml:"text"`
	Image       string           `yaml:"image"`
	Author      string           `yaml:"author"`
	PublishedAt time.Time        `yaml:"published_at"`
	Tags        []string         `yaml:"tags"`
	LikedBy     []string         `yaml:"liked_by"`
	Comments    []CommentFixture `yaml:"comments"`
}

type CommentFixture struct {
	Author      string    `yaml:"author"`
	Text        string    `yaml:"text"`
	PublishedAt time.Time `yaml:"published_at"`
}

// LoadFixture reads and parses a YAML fixture file.
func LoadFixture(path string) (*Fixture, error) {
	// #nosec G304: path comes from CLI flags in a dev tool
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return ParseFixture(raw)
}

// ParseFixture parses a YAML fixture document.
func ParseFixture(raw []byte) (*Fixture, error) {
	var fx Fixture
	if err := yaml.Unmarshal(raw, &fx); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	return &fx, nil
}

// ApplyFixture persists fx. Users are created first; posts, likes and
// comments refer to them by username.
func ApplyFixture(ctx context.Context, db *gorm.DB, fx *Fixture, opts Options) error {
	f := NewFactory(db, opts)
	users := make(map[string]*models.User, len(fx.Users))

	for _, uf := range fx.Users {
		uf := uf
		u, err := f.CreateUser(ctx, func(u *models.User) {
			u.Username = uf.Username
			u.IsStaff = uf.Staff
			if uf.Email != "" {
				u.Email = uf.Email
			} else {
				u.Email = uf.Username + "@example.com"
			}
			if uf.Password != "" {
				u.Password = uf.Password
			}
		})
		if err != nil {
			return fmt.Errorf("user %q: %w", uf.Username, err)
		}
		users[uf.Username] = u
	}

	lookup := func(name string) (*models.User, error) {
		u, ok := users[name]
		if !ok {
			return nil, models.NewValidationError(fmt.Sprintf("Unknown fixture user %q", name))
		}
		return u, nil
	}

	for _, pf := range fx.Posts {
		pf := pf
		author, err := lookup(pf.Author)
		if err != nil {
			return fmt.Errorf("post %q: %w", pf.Slug, err)
		}
		post, err := f.CreatePost(ctx, author, pf.Tags, func(p *models.Post) {
			p.Title = pf.Title
			p.Image = pf.Image
			if pf.Slug != "" {
				p.Slug = pf.Slug
			} else {
				p.Slug = Slugify(pf.Title)
			}
			if pf.Text != "" {
				p.Text = pf.Text
			}
			if !pf.PublishedAt.IsZero() {
				p.PublishedAt = pf.PublishedAt.UTC()
			}
		})
		if err != nil {
			return fmt.Errorf("post %q: %w", pf.Slug, err)
		}

		for _, name := range pf.LikedBy {
			u, err := lookup(name)
			if err != nil {
				return fmt.Errorf("post %q: %w", post.Slug, err)
			}
			if err := f.Like(ctx, post, u); err != nil {
				return fmt.Errorf("post %q: %w", post.Slug, err)
			}
		}

		for _, cf := range pf.Comments {
			u, err := lookup(cf.Author)
			if err != nil {
				return fmt.Errorf("post %q: %w", post.Slug, err)
			}
			c := &models.Comment{PostID: post.ID, AuthorID: u.ID, Text: cf.Text, PublishedAt: cf.PublishedAt.UTC()}
			if err := f.comments.Create(ctx, c); err != nil {
				return fmt.Errorf("post %q: %w", post.Slug, err)
			}
		}
	}
	return nil
}
