package server

import (
	"log/slog"

	"sensive/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// HomePage handles GET / and GET /page/:page
func (s *Server) HomePage(c *fiber.Ctx) error {
	page := 1
	if c.Params("page") != "" {
		p, err := parsePositive(c, "page")
		if err != nil {
			return nil
		}
		page = p
	}

	ctx, err := s.pageService.Home(c.UserContext(), page)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(ctx)
}

// PostDetailPage handles GET /post/:slug
func (s *Server) PostDetailPage(c *fiber.Ctx) error {
	ctx, err := s.pageService.PostDetail(c.UserContext(), routeParam(c, "slug"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(ctx)
}

// TagListingPage handles GET /tag/:title
func (s *Server) TagListingPage(c *fiber.Ctx) error {
	ctx, err := s.pageService.TagListing(c.UserContext(), routeParam(c, "title"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(ctx)
}

// ContactsPage handles GET /contacts
func (s *Server) ContactsPage(c *fiber.Ctx) error {
	return c.JSON(s.pageService.Contacts())
}

func logRequestError(c *fiber.Ctx, err error) {
	middleware.Logger.ErrorContext(c.UserContext(), "request failed",
		slog.String("method", c.Method()),
		slog.String("path", c.Path()),
		slog.String("error", err.Error()),
	)
}
