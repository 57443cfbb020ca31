package server

import (
	"errors"
	"log/slog"

	"snapfeed/internal/middleware"
	"snapfeed/internal/models"

	"github.com/gofiber/fiber/v2"
)

// respondError writes err with the status its code implies. Server-side
// failures are logged and answered with publicMessage so internal detail
// never reaches the client.
func respondError(c *fiber.Ctx, err error, publicMessage string) error {
	status := models.StatusFor(err)
	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), publicMessage,
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.String("error", err.Error()),
		)
		return c.Status(status).JSON(models.ErrorResponse{
			Error: publicMessage,
			Code:  models.CodeInternal,
		})
	}
	return models.RespondWithError(c, status, err)
}

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// parseBody decodes the JSON request body into dst. On failure it writes a
// 400 response and returns errResponseWritten.
func parseBody(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
		return errResponseWritten
	}
	return nil
}

// feedLimit reads the limit query parameter. Missing or malformed values mean
// the default page size; the post service clamps the rest.
func feedLimit(c *fiber.Ctx) int {
	return c.QueryInt("limit", 0)
}
