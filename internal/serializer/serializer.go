// Package serializer shapes posts, tags and comments into display records.
// Functions here never touch the database: every count they expose must be
// loaded by the repository before the record is shaped.
package serializer

import (
	"strings"
	"time"

	"sensive/internal/models"
)

// TeaserLength is the number of characters of post text shown in a card.
const TeaserLength = 200

// TagCard is a tag as listed on a page.
type TagCard struct {
	Title        string `json:"title"`
	PostsWithTag int    `json:"posts_with_tag"`
}

// PostCard is a post as listed on a page.
type PostCard struct {
	Title          string    `json:"title"`
	TeaserText     string    `json:"teaser_text"`
	Author         string    `json:"author"`
	CommentsAmount int       `json:"comments_amount"`
	LikesAmount    int       `json:"likes_amount"`
	ImageURL       *string   `json:"image_url"`
	PublishedAt    time.Time `json:"published_at"`
	Slug           string    `json:"slug"`
	Tags           []TagCard `json:"tags"`
	FirstTagTitle  *string   `json:"first_tag_title"`
}

// CommentCard is a comment as shown under a post.
type CommentCard struct {
	Text        string    `json:"text"`
	PublishedAt time.Time `json:"published_at"`
	Author      string    `json:"author"`
}

// PostDetail is the full post shown on its own page.
type PostDetail struct {
	Title       string        `json:"title"`
	Text        string        `json:"text"`
	Author      string        `json:"author"`
	Comments    []CommentCard `json:"comments"`
	LikesAmount int           `json:"likes_amount"`
	ImageURL    *string       `json:"image_url"`
	PublishedAt time.Time     `json:"published_at"`
	Slug        string        `json:"slug"`
	Tags        []TagCard     `json:"tags"`
}

// Teaser returns at most limit characters of text. It counts runes, so
// multibyte text is never cut inside a character.
func Teaser(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	n := 0
	for i := range text {
		if n == limit {
			return text[:i]
		}
		n++
	}
	return text
}

// ImageURL resolves a stored media path against the public media URL.
// Posts without an image get nil.
func ImageURL(post *models.Post, mediaURL string) *string {
	if !post.HasImage() {
		return nil
	}
	url := strings.TrimSuffix(mediaURL, "/") + "/" + strings.TrimPrefix(post.Image, "/")
	return &url
}

func Tag(tag *models.Tag) TagCard {
	return TagCard{Title: tag.Title, PostsWithTag: tag.PostsCount}
}

// Tags shapes a slice of tags, never returning nil.
func Tags(tags []*models.Tag) []TagCard {
	out := make([]TagCard, 0, len(tags))
	for _, t := range tags {
		out = append(out, Tag(t))
	}
	return out
}

func postTags(post *models.Post) []TagCard {
	out := make([]TagCard, 0, len(post.Tags))
	for i := range post.Tags {
		out = append(out, Tag(&post.Tags[i]))
	}
	return out
}

func Post(post *models.Post, mediaURL string) PostCard {
	card := PostCard{
		Title:          post.Title,
		TeaserText:     Teaser(post.Text, TeaserLength),
		Author:         post.Author.Username,
		CommentsAmount: post.CommentsCount,
		LikesAmount:    post.LikesCount,
		ImageURL:       ImageURL(post, mediaURL),
		PublishedAt:    post.PublishedAt,
		Slug:           post.Slug,
		Tags:           postTags(post),
	}
	if len(post.Tags) > 0 {
		first := post.Tags[0].Title
		card.FirstTagTitle = &first
	}
	return card
}

// Posts shapes a slice of posts, never returning nil.
func Posts(posts []*models.Post, mediaURL string) []PostCard {
	out := make([]PostCard, 0, len(posts))
	for _, p := range posts {
		out = append(out, Post(p, mediaURL))
	}
	return out
}

func Comment(comment *models.Comment) CommentCard {
	return CommentCard{
		Text:        comment.Text,
		PublishedAt: comment.PublishedAt,
		Author:      comment.Author.Username,
	}
}

// Detail shapes a post with its comments for the post page.
func Detail(post *models.Post, comments []*models.Comment, mediaURL string) PostDetail {
	cards := make([]CommentCard, 0, len(comments))
	for _, c := range comments {
		cards = append(cards, Comment(c))
	}
	return PostDetail{
		Title:       post.Title,
		Text:        post.Text,
		Author:      post.Author.Username,
		Comments:    cards,
		LikesAmount: post.LikesCount,
		ImageURL:    ImageURL(post, mediaURL),
		PublishedAt: post.PublishedAt,
		Slug:        post.Slug,
		Tags:        postTags(post),
	}
}
