package server

import (
	"errors"
	"strings"

	"sensive/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// Pagination holds parsed limit/offset query parameters.
type Pagination struct {
	Limit  int
	Offset int
}

const (
	defaultAdminLimit  = 50
	maxPaginationLimit = 200
)

// parsePagination extracts limit and offset query parameters with the given default limit.
func parsePagination(c *fiber.Ctx, defaultLimit int) Pagination {
	limit := c.QueryInt("limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxPaginationLimit {
		limit = maxPaginationLimit
	}

	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	return Pagination{
		Limit:  limit,
		Offset: offset,
	}
}

// parsePositive extracts a route parameter as a positive int.
// On failure it writes a 400 JSON response and returns errResponseWritten.
func parsePositive(c *fiber.Ctx, param string) (int, error) {
	v, err := c.ParamsInt(param)
	if err != nil || v <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+param))
		return 0, errResponseWritten
	}
	return v, nil
}

// routeParam returns a trimmed path parameter, or "" when it is absent.
func routeParam(c *fiber.Ctx, name string) string {
	return strings.TrimSpace(c.Params(name))
}

// respondError reports err with the status its error code maps to.
// Unexpected errors are logged and hidden behind a generic message.
func respondError(c *fiber.Ctx, err error) error {
	status := models.StatusFor(err)
	if status == fiber.StatusInternalServerError {
		var appErr *models.AppError
		if !errors.As(err, &appErr) {
			err = models.NewInternalError(err)
		}
		logRequestError(c, err)
	}
	return models.RespondWithError(c, status, err)
}
