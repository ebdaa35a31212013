package server

import (
	"sensive/internal/service"

	"github.com/gofiber/fiber/v2"
)

// AdminListPosts handles GET /admin/posts?q=&author=&from=&to=&limit=&offset=
func (s *Server) AdminListPosts(c *fiber.Ctx) error {
	page := parsePagination(c, defaultAdminLimit)
	listing, err := s.adminService.Posts(c.UserContext(), service.AdminPostQuery{
		Q:      c.Query("q"),
		Author: c.Query("author"),
		From:   c.Query("from"),
		To:     c.Query("to"),
		Limit:  page.Limit,
		Offset: page.Offset,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(listing)
}

// AdminPostsOfYear handles GET /admin/posts/year/:year
func (s *Server) AdminPostsOfYear(c *fiber.Ctx) error {
	year, err := parsePositive(c, "year")
	if err != nil {
		return nil
	}
	listing, err := s.adminService.PostsOfYear(c.UserContext(), year)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(listing)
}

// AdminListComments handles GET /admin/comments?q=&from=&to=&limit=&offset=
func (s *Server) AdminListComments(c *fiber.Ctx) error {
	page := parsePagination(c, defaultAdminLimit)
	listing, err := s.adminService.Comments(c.UserContext(), service.AdminCommentQuery{
		Q:      c.Query("q"),
		From:   c.Query("from"),
		To:     c.Query("to"),
		Limit:  page.Limit,
		Offset: page.Offset,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(listing)
}

// AdminListTags handles GET /admin/tags?q=&limit=&offset=
func (s *Server) AdminListTags(c *fiber.Ctx) error {
	page := parsePagination(c, defaultAdminLimit)
	listing, err := s.adminService.Tags(c.UserContext(), c.Query("q"), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(listing)
}
