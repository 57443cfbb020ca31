// Package middleware provides request-scoped HTTP middleware for the application.
package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// SessionCookieName is the httpOnly cookie carrying the session token.
const SessionCookieName = "session_token"

// TokenFromRequest extracts a session token from the session cookie or,
// failing that, from an "Authorization: Bearer <token>" header.
func TokenFromRequest(c *fiber.Ctx) string {
	if token := strings.TrimSpace(c.Cookies(SessionCookieName)); token != "" {
		return token
	}

	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
