package server

import (
	"log/slog"

	"snapfeed/internal/middleware"
	"snapfeed/internal/models"

	"github.com/gofiber/fiber/v2"
)

const (
	localUserID = "userID"
	localUser   = "user"
)

// SessionMiddleware resolves the session token of every request. Requests
// without a valid session continue anonymously.
func (s *Server) SessionMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := middleware.TokenFromRequest(c)
		if token == "" {
			return c.Next()
		}

		user, err := s.authService.ResolveSession(c.UserContext(), token)
		if err != nil {
			middleware.Logger.WarnContext(c.UserContext(), "session lookup failed",
				slog.String("error", err.Error()))
			return c.Next()
		}
		if user == nil {
			return c.Next()
		}

		c.Locals(localUserID, user.ID)
		c.Locals(localUser, user)
		c.SetUserContext(middleware.WithUserID(c.UserContext(), user.ID))
		return c.Next()
	}
}

// AuthRequired rejects anonymous requests with 401.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if currentUser(c) == nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Unauthorized"))
		}
		return c.Next()
	}
}

// AdminRequired returns middleware that rejects non-admin users with 403.
// Must be placed after AuthRequired.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !currentUser(c).IsAdmin() {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Forbidden"))
		}
		return c.Next()
	}
}

// currentUser returns the signed-in user, or nil for anonymous requests.
func currentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(localUser).(*models.User)
	return user
}

// viewerID returns the signed-in user's ID, or "" for anonymous requests.
func viewerID(c *fiber.Ctx) string {
	id, _ := c.Locals(localUserID).(string)
	return id
}
