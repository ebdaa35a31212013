// Package service assembles page contexts and admin listings from the repositories.
package service

import (
	"context"
	"time"

	"sensive/internal/cache"
	"sensive/internal/featureflags"
	"sensive/internal/models"
	"sensive/internal/repository"
	"sensive/internal/serializer"
)

// Block sizes of the public pages.
const (
	SidebarSize   = cache.SidebarSize
	PagePostsSize = 5
	TagPostsLimit = 20
)

// HomePage is the context of the index page.
type HomePage struct {
	Page             int                   `json:"page"`
	MostPopularPosts []serializer.PostCard `json:"most_popular_posts"`
	PagePosts        []serializer.PostCard `json:"page_posts"`
	PopularTags      []serializer.TagCard  `json:"popular_tags"`
}

// PostPage is the context of a post detail page.
type PostPage struct {
	Post             serializer.PostDetail `json:"post"`
	PopularTags      []serializer.TagCard  `json:"popular_tags"`
	MostPopularPosts []serializer.PostCard `json:"most_popular_posts"`
}

// TagPage is the context of a tag listing page.
type TagPage struct {
	Tag              string                `json:"tag"`
	PopularTags      []serializer.TagCard  `json:"popular_tags"`
	Posts            []serializer.PostCard `json:"posts"`
	MostPopularPosts []serializer.PostCard `json:"most_popular_posts"`
}

// ContactsPage is the context of the static contacts page.
type ContactsPage struct{}

type PageService struct {
	postRepo    repository.PostRepository
	tagRepo     repository.TagRepository
	commentRepo repository.CommentRepository
	flags       *featureflags.Manager
	mediaURL    string
	sidebarTTL  time.Duration
}

func NewPageService(
	postRepo repository.PostRepository,
	tagRepo repository.TagRepository,
	commentRepo repository.CommentRepository,
	flags *featureflags.Manager,
	mediaURL string,
	sidebarTTL time.Duration,
) *PageService {
	return &PageService{
		postRepo:    postRepo,
		tagRepo:     tagRepo,
		commentRepo: commentRepo,
		flags:       flags,
		mediaURL:    mediaURL,
		sidebarTTL:  sidebarTTL,
	}
}

// Home assembles the index page. page is 1-based and only shifts the fresh
// posts block; the sidebars are the same on every page.
func (s *PageService) Home(ctx context.Context, page int) (*HomePage, error) {
	if page < 1 {
		return nil, models.NewValidationError("Page must be a positive integer")
	}

	fresh, err := s.postRepo.FreshPage(ctx, page, PagePostsSize)
	if err != nil {
		return nil, err
	}
	sb, err := s.sidebars(ctx, fresh)
	if err != nil {
		return nil, err
	}

	return &HomePage{
		Page:             page,
		MostPopularPosts: sb.posts,
		PagePosts:        serializer.Posts(fresh, s.mediaURL),
		PopularTags:      sb.tags,
	}, nil
}

// PostDetail assembles the page of the post published under slug.
func (s *PageService) PostDetail(ctx context.Context, slug string) (*PostPage, error) {
	post, err := s.postRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	comments, err := s.commentRepo.ListByPost(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	sb, err := s.sidebars(ctx, nil)
	if err != nil {
		return nil, err
	}

	return &PostPage{
		Post:             serializer.Detail(post, comments, s.mediaURL),
		PopularTags:      sb.tags,
		MostPopularPosts: sb.posts,
	}, nil
}

// TagListing assembles the page listing posts filed under a tag.
func (s *PageService) TagListing(ctx context.Context, title string) (*TagPage, error) {
	tag, err := s.tagRepo.GetByTitle(ctx, title)
	if err != nil {
		return nil, err
	}
	posts, err := s.postRepo.ListByTag(ctx, tag.ID, TagPostsLimit)
	if err != nil {
		return nil, err
	}
	sb, err := s.sidebars(ctx, posts)
	if err != nil {
		return nil, err
	}

	return &TagPage{
		Tag:              tag.Title,
		PopularTags:      sb.tags,
		Posts:            serializer.Posts(posts, s.mediaURL),
		MostPopularPosts: sb.posts,
	}, nil
}

func (s *PageService) Contacts() *ContactsPage {
	return &ContactsPage{}
}

type sidebar struct {
	posts []serializer.PostCard
	tags  []serializer.TagCard
}

func (s *PageService) cacheTTL() time.Duration {
	if !s.flags.Enabled(featureflags.SidebarCache) {
		return 0
	}
	return s.sidebarTTL
}

// sidebars loads the popular posts and popular tags blocks. The comment
// counts of body are loaded in the same grouped query as those of the
// popular posts, or alone when the popular block comes from the cache.
func (s *PageService) sidebars(ctx context.Context, body []*models.Post) (sidebar, error) {
	var sb sidebar
	ttl := s.cacheTTL()

	fetched := false
	err := cache.Aside(ctx, cache.FamilyPopularPosts, cache.PopularPostsKey(SidebarSize), &sb.posts, ttl, func() error {
		popular, err := s.postRepo.Popular(ctx, SidebarSize)
		if err != nil {
			return err
		}
		all := make([]*models.Post, 0, len(popular)+len(body))
		all = append(all, popular...)
		all = append(all, body...)
		if err := s.postRepo.WithCommentCounts(ctx, all); err != nil {
			return err
		}
		fetched = true
		sb.posts = serializer.Posts(popular, s.mediaURL)
		return nil
	})
	if err != nil {
		return sb, err
	}
	if !fetched {
		if err := s.postRepo.WithCommentCounts(ctx, body); err != nil {
			return sb, err
		}
	}

	err = cache.Aside(ctx, cache.FamilyPopularTags, cache.PopularTagsKey(SidebarSize), &sb.tags, ttl, func() error {
		tags, err := s.tagRepo.Popular(ctx, SidebarSize)
		if err != nil {
			return err
		}
		sb.tags = serializer.Tags(tags)
		return nil
	})
	if err != nil {
		return sb, err
	}
	return sb, nil
}
