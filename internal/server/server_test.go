package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"sensive/internal/config"
	"sensive/internal/database"
	"sensive/internal/middleware"
	"sensive/internal/models"
	"sensive/internal/repository"
	"sensive/internal/service"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "test-secret"

type fixture struct {
	app    *fiber.App
	db     *gorm.DB
	staff  *models.User
	reader *models.User
	media  string
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func newFixture(t *testing.T, flags string, rdb *redis.Client) *fixture {
	t.Helper()
	db := setupTestDB(t)
	media := t.TempDir()

	cfg := &config.Config{
		Port:                   "0",
		JWTSecret:              testSecret,
		MediaURL:               "/media/",
		MediaRoot:              media,
		FeatureFlags:           flags,
		SidebarCacheTTLSeconds: 60,
	}
	s, err := NewServerWithDeps(cfg, db, rdb)
	require.NoError(t, err)

	f := &fixture{app: s.App(), db: db, media: media}
	f.staff = &models.User{Username: "editor", Email: "editor@example.com", Password: "x", IsStaff: true}
	f.reader = &models.User{Username: "reader", Email: "reader@example.com", Password: "x"}
	require.NoError(t, db.Create(f.staff).Error)
	require.NoError(t, db.Create(f.reader).Error)

	ctx := context.Background()
	posts := repository.NewPostRepository(db)
	first := &models.Post{
		Title: "Hello world", Text: "First post", Slug: "hello-world", Image: "hello.jpg",
		PublishedAt: time.Date(2023, 3, 1, 12, 0, 0, 0, time.UTC), AuthorID: f.staff.ID,
	}
	second := &models.Post{
		Title: "Second", Text: "Second post", Slug: "second",
		PublishedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), AuthorID: f.staff.ID,
	}
	require.NoError(t, posts.Create(ctx, first, []string{"Python", "go"}))
	require.NoError(t, posts.Create(ctx, second, []string{"python"}))
	require.NoError(t, posts.Like(ctx, first.ID, f.reader.ID))
	require.NoError(t, repository.NewCommentRepository(db).Create(ctx, &models.Comment{
		PostID: first.ID, AuthorID: f.reader.ID, Text: "Nice",
	}))
	return f
}

func (f *fixture) do(t *testing.T, path, token string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, dest), string(body))
}

func token(t *testing.T, user *models.User) string {
	t.Helper()
	tok, err := middleware.IssueStaffToken(testSecret, user.ID, time.Hour)
	require.NoError(t, err)
	return tok
}

func TestPages(t *testing.T) {
	f := newFixture(t, "admin_api=on", nil)

	t.Run("home", func(t *testing.T) {
		resp := f.do(t, "/", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var page service.HomePage
		decode(t, resp, &page)
		assert.Equal(t, 1, page.Page)
		require.Len(t, page.PagePosts, 2)
		assert.Equal(t, "second", page.PagePosts[0].Slug)
		require.Len(t, page.MostPopularPosts, 2)
		assert.Equal(t, "hello-world", page.MostPopularPosts[0].Slug)
		assert.Equal(t, 1, page.MostPopularPosts[0].LikesAmount)
		assert.Equal(t, 1, page.MostPopularPosts[0].CommentsAmount)
		require.NotNil(t, page.MostPopularPosts[0].ImageURL)
		assert.Equal(t, "/media/hello.jpg", *page.MostPopularPosts[0].ImageURL)
		require.NotEmpty(t, page.PopularTags)
		assert.Equal(t, "python", page.PopularTags[0].Title)
		assert.Equal(t, 2, page.PopularTags[0].PostsWithTag)
	})

	t.Run("second page", func(t *testing.T) {
		resp := f.do(t, "/page/2", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var page service.HomePage
		decode(t, resp, &page)
		assert.Equal(t, 2, page.Page)
		assert.Empty(t, page.PagePosts)
		assert.Len(t, page.MostPopularPosts, 2)
	})

	for _, path := range []string{"/page/0", "/page/abc"} {
		t.Run("bad page "+path, func(t *testing.T) {
			assert.Equal(t, http.StatusBadRequest, f.do(t, path, "").StatusCode)
		})
	}

	t.Run("post detail", func(t *testing.T) {
		resp := f.do(t, "/post/hello-world", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var page service.PostPage
		decode(t, resp, &page)
		assert.Equal(t, "Hello world", page.Post.Title)
		assert.Equal(t, "editor", page.Post.Author)
		require.Len(t, page.Post.Comments, 1)
		assert.Equal(t, "reader", page.Post.Comments[0].Author)
		assert.Len(t, page.Post.Tags, 2)
	})

	t.Run("unknown post", func(t *testing.T) {
		resp := f.do(t, "/post/missing", "")
		require.Equal(t, http.StatusNotFound, resp.StatusCode)

		var body models.ErrorResponse
		decode(t, resp, &body)
		assert.Equal(t, models.CodeNotFound, body.Code)
	})

	t.Run("tag listing", func(t *testing.T) {
		resp := f.do(t, "/tag/PYTHON", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var page service.TagPage
		decode(t, resp, &page)
		assert.Equal(t, "python", page.Tag)
		require.Len(t, page.Posts, 2)
		assert.Equal(t, "hello-world", page.Posts[0].Slug)
	})

	t.Run("unknown tag", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, f.do(t, "/tag/rust", "").StatusCode)
	})

	t.Run("contacts", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, f.do(t, "/contacts", "").StatusCode)
	})
}

func TestHealth(t *testing.T) {
	f := newFixture(t, "", nil)

	assert.Equal(t, http.StatusOK, f.do(t, "/health/live", "").StatusCode)

	resp := f.do(t, "/health/ready", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	decode(t, resp, &body)
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "healthy", body.Checks["database"])
	assert.Equal(t, "disabled", body.Checks["redis"])
}

func TestHealth_WithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	f := newFixture(t, "sidebar_cache=on", rdb)

	resp := f.do(t, "/health/ready", "")
	var body struct {
		Checks map[string]string `json:"checks"`
	}
	decode(t, resp, &body)
	assert.Equal(t, "healthy", body.Checks["redis"])

	require.Equal(t, http.StatusOK, f.do(t, "/", "").StatusCode)
	assert.NotEmpty(t, mr.Keys())
}

func TestAdminAPI(t *testing.T) {
	f := newFixture(t, "admin_api=on", nil)
	staffToken := token(t, f.staff)

	tests := []struct {
		name   string
		path   string
		token  string
		status int
	}{
		{name: "no token", path: "/admin/posts", status: http.StatusUnauthorized},
		{name: "garbage token", path: "/admin/posts", token: "nope", status: http.StatusUnauthorized},
		{name: "not staff", path: "/admin/posts", token: token(t, f.reader), status: http.StatusForbidden},
		{name: "posts", path: "/admin/posts", token: staffToken, status: http.StatusOK},
		{name: "bad date", path: "/admin/posts?from=yesterday", token: staffToken, status: http.StatusBadRequest},
		{name: "unknown author", path: "/admin/posts?author=ghost", token: staffToken, status: http.StatusBadRequest},
		{name: "year", path: "/admin/posts/year/2023", token: staffToken, status: http.StatusOK},
		{name: "bad year", path: "/admin/posts/year/zero", token: staffToken, status: http.StatusBadRequest},
		{name: "comments", path: "/admin/comments?q=nice", token: staffToken, status: http.StatusOK},
		{name: "tags", path: "/admin/tags", token: staffToken, status: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, f.do(t, tt.path, tt.token).StatusCode)
		})
	}

	t.Run("posts listing", func(t *testing.T) {
		resp := f.do(t, "/admin/posts?author=editor&from=2024-01-01&to=2024-12-31", staffToken)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var listing service.Listing[service.PostRow]
		decode(t, resp, &listing)
		assert.Equal(t, int64(1), listing.Total)
		require.Len(t, listing.Items, 1)
		assert.Equal(t, "second", listing.Items[0].Slug)
		assert.Equal(t, defaultAdminLimit, listing.Limit)
	})

	t.Run("year listing", func(t *testing.T) {
		resp := f.do(t, "/admin/posts/year/2023", staffToken)
		var listing service.Listing[service.PostRow]
		decode(t, resp, &listing)
		require.Len(t, listing.Items, 1)
		assert.Equal(t, "hello-world", listing.Items[0].Slug)
	})

	t.Run("tags listing", func(t *testing.T) {
		resp := f.do(t, "/admin/tags?q=PY", staffToken)
		var listing service.Listing[service.TagRow]
		decode(t, resp, &listing)
		require.Len(t, listing.Items, 1)
		assert.Equal(t, "python", listing.Items[0].Title)
		assert.Equal(t, 2, listing.Items[0].PostsCount)
	})
}

func TestAdminAPI_FlagOff(t *testing.T) {
	f := newFixture(t, "admin_api=off", nil)
	assert.Equal(t, http.StatusNotFound, f.do(t, "/admin/posts", token(t, f.staff)).StatusCode)
}

func TestMediaFiles(t *testing.T) {
	f := newFixture(t, "", nil)
	require.NoError(t, os.WriteFile(filepath.Join(f.media, "hello.jpg"), []byte("jpeg"), 0o600))

	resp := f.do(t, "/media/hello.jpg", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", string(body))
}
