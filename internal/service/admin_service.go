package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"sensive/internal/models"
	"sensive/internal/repository"
)

// DateLayout is the format of admin date filters.
const DateLayout = "2006-01-02"

// AdminPostQuery is the raw admin post listing request, as typed by a user.
type AdminPostQuery struct {
	Q      string
	Author string
	From   string
	To     string
	Limit  int
	Offset int
}

// AdminCommentQuery is the raw admin comment listing request.
type AdminCommentQuery struct {
	Q      string
	From   string
	To     string
	Limit  int
	Offset int
}

// PostRow is one line of the admin post list.
type PostRow struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Author      string    `json:"author"`
	Image       string    `json:"image"`
	PublishedAt time.Time `json:"published_at"`
}

// CommentRow is one line of the admin comment list.
type CommentRow struct {
	ID          uint      `json:"id"`
	PostID      uint      `json:"post_id"`
	Text        string    `json:"text"`
	PublishedAt time.Time `json:"published_at"`
}

// TagRow is one line of the admin tag list.
type TagRow struct {
	ID         uint   `json:"id"`
	Title      string `json:"title"`
	PostsCount int    `json:"posts_count"`
}

// Listing is one page of an admin list.
type Listing[T any] struct {
	Items  []T   `json:"items"`
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

// AdminService backs the read-only admin data grid served over HTTP and the CLI.
type AdminService struct {
	postRepo    repository.PostRepository
	tagRepo     repository.TagRepository
	commentRepo repository.CommentRepository
	userRepo    repository.UserRepository
}

func NewAdminService(
	postRepo repository.PostRepository,
	tagRepo repository.TagRepository,
	commentRepo repository.CommentRepository,
	userRepo repository.UserRepository,
) *AdminService {
	return &AdminService{
		postRepo:    postRepo,
		tagRepo:     tagRepo,
		commentRepo: commentRepo,
		userRepo:    userRepo,
	}
}

// ParseDateRange parses optional YYYY-MM-DD bounds. The upper bound is
// inclusive: "to=2023-01-31" keeps posts published on the 31st.
func ParseDateRange(from, to string) (*time.Time, *time.Time, error) {
	var start, end *time.Time
	if s := strings.TrimSpace(from); s != "" {
		t, err := time.Parse(DateLayout, s)
		if err != nil {
			return nil, nil, models.NewValidationError(fmt.Sprintf("Invalid 'from' date %q, expected %s", s, DateLayout))
		}
		start = &t
	}
	if s := strings.TrimSpace(to); s != "" {
		t, err := time.Parse(DateLayout, s)
		if err != nil {
			return nil, nil, models.NewValidationError(fmt.Sprintf("Invalid 'to' date %q, expected %s", s, DateLayout))
		}
		t = t.AddDate(0, 0, 1)
		end = &t
	}
	return start, end, nil
}

func (s *AdminService) Posts(ctx context.Context, q AdminPostQuery) (*Listing[PostRow], error) {
	from, to, err := ParseDateRange(q.From, q.To)
	if err != nil {
		return nil, err
	}
	filter := repository.PostFilter{Query: q.Q, From: from, To: to, Limit: q.Limit, Offset: q.Offset}

	if name := strings.TrimSpace(q.Author); name != "" {
		author, err := s.userRepo.GetByUsername(ctx, name)
		if err != nil {
			if models.IsCode(err, models.CodeNotFound) {
				return nil, models.NewValidationError(fmt.Sprintf("Unknown author %q", name))
			}
			return nil, err
		}
		filter.AuthorID = author.ID
	}

	posts, total, err := s.postRepo.Search(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &Listing[PostRow]{Items: postRows(posts), Total: total, Limit: q.Limit, Offset: q.Offset}, nil
}

// PostsOfYear lists every post published during year.
func (s *AdminService) PostsOfYear(ctx context.Context, year int) (*Listing[PostRow], error) {
	if year < 1 || year > 9999 {
		return nil, models.NewValidationError(fmt.Sprintf("Invalid year %d", year))
	}
	posts, err := s.postRepo.Year(ctx, year)
	if err != nil {
		return nil, err
	}
	return &Listing[PostRow]{Items: postRows(posts), Total: int64(len(posts))}, nil
}

func (s *AdminService) Comments(ctx context.Context, q AdminCommentQuery) (*Listing[CommentRow], error) {
	from, to, err := ParseDateRange(q.From, q.To)
	if err != nil {
		return nil, err
	}
	comments, total, err := s.commentRepo.Search(ctx, repository.CommentFilter{
		Query: q.Q, From: from, To: to, Limit: q.Limit, Offset: q.Offset,
	})
	if err != nil {
		return nil, err
	}

	rows := make([]CommentRow, 0, len(comments))
	for _, c := range comments {
		rows = append(rows, CommentRow{ID: c.ID, PostID: c.PostID, Text: c.Text, PublishedAt: c.PublishedAt})
	}
	return &Listing[CommentRow]{Items: rows, Total: total, Limit: q.Limit, Offset: q.Offset}, nil
}

func (s *AdminService) Tags(ctx context.Context, query string, limit, offset int) (*Listing[TagRow], error) {
	tags, total, err := s.tagRepo.Search(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}

	rows := make([]TagRow, 0, len(tags))
	for _, t := range tags {
		rows = append(rows, TagRow{ID: t.ID, Title: t.Title, PostsCount: t.PostsCount})
	}
	return &Listing[TagRow]{Items: rows, Total: total, Limit: limit, Offset: offset}, nil
}

func postRows(posts []*models.Post) []PostRow {
	rows := make([]PostRow, 0, len(posts))
	for _, p := range posts {
		rows = append(rows, PostRow{
			ID:          p.ID,
			Title:       p.Title,
			Slug:        p.Slug,
			Author:      p.Author.Username,
			Image:       p.Image,
			PublishedAt: p.PublishedAt,
		})
	}
	return rows
}
