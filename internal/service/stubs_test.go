package service

import (
	"context"

	"sensive/internal/models"
	"sensive/internal/repository"
)

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	popularFn           func(context.Context, int) ([]*models.Post, error)
	freshFn             func(context.Context, int) ([]*models.Post, error)
	freshPageFn         func(context.Context, int, int) ([]*models.Post, error)
	withCommentCountsFn func(context.Context, []*models.Post) error
	getBySlugFn         func(context.Context, string) (*models.Post, error)
	listByTagFn         func(context.Context, uint, int) ([]*models.Post, error)
	searchFn            func(context.Context, repository.PostFilter) ([]*models.Post, int64, error)
	yearFn              func(context.Context, int) ([]*models.Post, error)
	createFn            func(context.Context, *models.Post, []string) error
	likeFn              func(context.Context, uint, uint) error
}

func (s *postRepoStub) Popular(ctx context.Context, n int) ([]*models.Post, error) {
	return s.popularFn(ctx, n)
}
func (s *postRepoStub) Fresh(ctx context.Context, n int) ([]*models.Post, error) {
	return s.freshFn(ctx, n)
}
func (s *postRepoStub) FreshPage(ctx context.Context, page, size int) ([]*models.Post, error) {
	return s.freshPageFn(ctx, page, size)
}
func (s *postRepoStub) WithCommentCounts(ctx context.Context, posts []*models.Post) error {
	return s.withCommentCountsFn(ctx, posts)
}
func (s *postRepoStub) GetBySlug(ctx context.Context, slug string) (*models.Post, error) {
	return s.getBySlugFn(ctx, slug)
}
func (s *postRepoStub) ListByTag(ctx context.Context, tagID uint, n int) ([]*models.Post, error) {
	return s.listByTagFn(ctx, tagID, n)
}
func (s *postRepoStub) Search(ctx context.Context, f repository.PostFilter) ([]*models.Post, int64, error) {
	return s.searchFn(ctx, f)
}
func (s *postRepoStub) Year(ctx context.Context, year int) ([]*models.Post, error) {
	return s.yearFn(ctx, year)
}
func (s *postRepoStub) Create(ctx context.Context, post *models.Post, tags []string) error {
	return s.createFn(ctx, post, tags)
}
func (s *postRepoStub) Like(ctx context.Context, postID, userID uint) error {
	return s.likeFn(ctx, postID, userID)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		popularFn:           func(_ context.Context, _ int) ([]*models.Post, error) { return nil, nil },
		freshFn:             func(_ context.Context, _ int) ([]*models.Post, error) { return nil, nil },
		freshPageFn:         func(_ context.Context, _, _ int) ([]*models.Post, error) { return nil, nil },
		withCommentCountsFn: func(_ context.Context, _ []*models.Post) error { return nil },
		getBySlugFn:         func(_ context.Context, _ string) (*models.Post, error) { return &models.Post{}, nil },
		listByTagFn:         func(_ context.Context, _ uint, _ int) ([]*models.Post, error) { return nil, nil },
		searchFn: func(_ context.Context, _ repository.PostFilter) ([]*models.Post, int64, error) {
			return nil, 0, nil
		},
		yearFn:   func(_ context.Context, _ int) ([]*models.Post, error) { return nil, nil },
		createFn: func(_ context.Context, _ *models.Post, _ []string) error { return nil },
		likeFn:   func(_ context.Context, _, _ uint) error { return nil },
	}
}

// tagRepoStub is a stub for repository.TagRepository.
type tagRepoStub struct {
	popularFn    func(context.Context, int) ([]*models.Tag, error)
	postCountFn  func(context.Context, uint) (int64, error)
	getByTitleFn func(context.Context, string) (*models.Tag, error)
	searchFn     func(context.Context, string, int, int) ([]*models.Tag, int64, error)
}

func (s *tagRepoStub) Popular(ctx context.Context, n int) ([]*models.Tag, error) {
	return s.popularFn(ctx, n)
}
func (s *tagRepoStub) PostCount(ctx context.Context, tagID uint) (int64, error) {
	return s.postCountFn(ctx, tagID)
}
func (s *tagRepoStub) GetByTitle(ctx context.Context, title string) (*models.Tag, error) {
	return s.getByTitleFn(ctx, title)
}
func (s *tagRepoStub) Search(ctx context.Context, q string, limit, offset int) ([]*models.Tag, int64, error) {
	return s.searchFn(ctx, q, limit, offset)
}

func noopTagRepo() *tagRepoStub {
	return &tagRepoStub{
		popularFn:    func(_ context.Context, _ int) ([]*models.Tag, error) { return nil, nil },
		postCountFn:  func(_ context.Context, _ uint) (int64, error) { return 0, nil },
		getByTitleFn: func(_ context.Context, _ string) (*models.Tag, error) { return &models.Tag{}, nil },
		searchFn: func(_ context.Context, _ string, _, _ int) ([]*models.Tag, int64, error) {
			return nil, 0, nil
		},
	}
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	listByPostFn func(context.Context, uint) ([]*models.Comment, error)
	searchFn     func(context.Context, repository.CommentFilter) ([]*models.Comment, int64, error)
	createFn     func(context.Context, *models.Comment) error
}

func (s *commentRepoStub) ListByPost(ctx context.Context, postID uint) ([]*models.Comment, error) {
	return s.listByPostFn(ctx, postID)
}
func (s *commentRepoStub) Search(ctx context.Context, f repository.CommentFilter) ([]*models.Comment, int64, error) {
	return s.searchFn(ctx, f)
}
func (s *commentRepoStub) Create(ctx context.Context, c *models.Comment) error {
	return s.createFn(ctx, c)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		listByPostFn: func(_ context.Context, _ uint) ([]*models.Comment, error) { return nil, nil },
		searchFn: func(_ context.Context, _ repository.CommentFilter) ([]*models.Comment, int64, error) {
			return nil, 0, nil
		},
		createFn: func(_ context.Context, _ *models.Comment) error { return nil },
	}
}

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByUsernameFn func(context.Context, string) (*models.User, error)
}

func (s *userRepoStub) GetByID(_ context.Context, id uint) (*models.User, error) {
	return nil, models.NewNotFoundError("User", id)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) Create(_ context.Context, _ *models.User) error { return nil }
func (s *userRepoStub) List(_ context.Context, _ bool) ([]models.User, error) {
	return nil, nil
}
func (s *userRepoStub) SetStaff(_ context.Context, username string, _ bool) (*models.User, error) {
	return nil, models.NewNotFoundError("User", username)
}
