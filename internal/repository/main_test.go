package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"sensive/internal/database"
	"sensive/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	// Every pooled connection to :memory: would be a different database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	return gormDB, mock
}

// countQueries counts every SELECT issued through db from now on.
func countQueries(t *testing.T, db *gorm.DB) *int {
	t.Helper()
	n := new(int)
	inc := func(*gorm.DB) { *n++ }
	name := fmt.Sprintf("test:count_queries:%s", t.Name())
	require.NoError(t, db.Callback().Query().Before("gorm:query").Register(name, inc))
	require.NoError(t, db.Callback().Row().Before("gorm:row").Register(name, inc))
	t.Cleanup(func() {
		_ = db.Callback().Query().Remove(name)
		_ = db.Callback().Row().Remove(name)
	})
	return n
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 12, 0, 0, 0, time.UTC)
}

func createUser(t *testing.T, db *gorm.DB, username string, staff bool) *models.User {
	t.Helper()
	u := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "x",
		IsStaff:  staff,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func createPost(t *testing.T, db *gorm.DB, author *models.User, slug string, published time.Time, tags ...string) *models.Post {
	t.Helper()
	p := &models.Post{
		Title:       "Title " + slug,
		Text:        "Text of " + slug,
		Slug:        slug,
		PublishedAt: published,
		AuthorID:    author.ID,
	}
	require.NoError(t, NewPostRepository(db).Create(context.Background(), p, tags))
	return p
}

func likeBy(t *testing.T, db *gorm.DB, post *models.Post, users ...*models.User) {
	t.Helper()
	repo := NewPostRepository(db)
	for _, u := range users {
		require.NoError(t, repo.Like(context.Background(), post.ID, u.ID))
	}
}

func createReaders(t *testing.T, db *gorm.DB, n int) []*models.User {
	t.Helper()
	out := make([]*models.User, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, createUser(t, db, fmt.Sprintf("reader%d", i), false))
	}
	return out
}

func createComment(t *testing.T, db *gorm.DB, post *models.Post, author *models.User, text string, published time.Time) *models.Comment {
	t.Helper()
	c := &models.Comment{PostID: post.ID, AuthorID: author.ID, Text: text, PublishedAt: published}
	require.NoError(t, NewCommentRepository(db).Create(context.Background(), c))
	return c
}
