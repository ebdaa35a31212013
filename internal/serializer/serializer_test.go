package serializer

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"sensive/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTeaser(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		limit int
		want  int
	}{
		{"long body", strings.Repeat("a", 500), TeaserLength, 200},
		{"short body", "hello", TeaserLength, 5},
		{"exact", strings.Repeat("b", 200), TeaserLength, 200},
		{"multibyte", strings.Repeat("ж", 300), TeaserLength, 200},
		{"zero limit", "hello", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Teaser(tt.text, tt.limit)
			assert.Equal(t, tt.want, utf8.RuneCountInString(got))
			assert.True(t, utf8.ValidString(got))
			assert.True(t, strings.HasPrefix(tt.text, got))
		})
	}
}

func TestPost(t *testing.T) {
	published := time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)
	post := &models.Post{
		Title:         "Hello",
		Text:          strings.Repeat("x", 500),
		Slug:          "hello",
		PublishedAt:   published,
		Author:        models.User{Username: "editor", Email: "editor@example.com", Password: "hash"},
		LikesCount:    4,
		CommentsCount: 2,
		Tags: []models.Tag{
			{Title: "django", PostsCount: 3},
			{Title: "python", PostsCount: 1},
		},
	}

	card := Post(post, "/media/")
	assert.Equal(t, "Hello", card.Title)
	assert.Len(t, card.TeaserText, 200)
	assert.Equal(t, "editor", card.Author)
	assert.Equal(t, 2, card.CommentsAmount)
	assert.Equal(t, 4, card.LikesAmount)
	assert.Nil(t, card.ImageURL)
	assert.Equal(t, published, card.PublishedAt)
	assert.Equal(t, []TagCard{{"django", 3}, {"python", 1}}, card.Tags)
	require.NotNil(t, card.FirstTagTitle)
	assert.Equal(t, "django", *card.FirstTagTitle)

	post.Image = "posts/cover.jpg"
	post.Tags = nil
	card = Post(post, "/media/")
	require.NotNil(t, card.ImageURL)
	assert.Equal(t, "/media/posts/cover.jpg", *card.ImageURL)
	assert.Nil(t, card.FirstTagTitle)
	assert.NotNil(t, card.Tags)
}

func TestImageURL(t *testing.T) {
	post := &models.Post{Image: "/a.png"}
	assert.Equal(t, "https://cdn.example.com/m/a.png", *ImageURL(post, "https://cdn.example.com/m"))
	assert.Nil(t, ImageURL(&models.Post{}, "/media/"))
}

func TestDetail(t *testing.T) {
	post := &models.Post{
		Title:      "Hello",
		Text:       strings.Repeat("y", 300),
		Author:     models.User{Username: "editor"},
		LikesCount: 7,
		Tags:       []models.Tag{{Title: "go", PostsCount: 2}},
	}
	comments := []*models.Comment{
		{Text: "newest", Author: models.User{Username: "b"}},
		{Text: "oldest", Author: models.User{Username: "a"}},
	}

	detail := Detail(post, comments, "/media/")
	assert.Len(t, detail.Text, 300)
	assert.Equal(t, 7, detail.LikesAmount)
	require.Len(t, detail.Comments, 2)
	assert.Equal(t, CommentCard{Text: "newest", Author: "b"}, detail.Comments[0])
	assert.Equal(t, []TagCard{{"go", 2}}, detail.Tags)
	assert.Nil(t, detail.ImageURL)

	empty := Detail(post, nil, "/media/")
	assert.NotNil(t, empty.Comments)
}

func TestTags(t *testing.T) {
	cards := Tags([]*models.Tag{{Title: "django", PostsCount: 3}})
	assert.Equal(t, []TagCard{{Title: "django", PostsWithTag: 3}}, cards)
	assert.NotNil(t, Tags(nil))
}
