package server

import (
	"time"

	"snapfeed/internal/middleware"
	"snapfeed/internal/models"
	"snapfeed/internal/service"

	"github.com/gofiber/fiber/v2"
)

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Bio         string `json:"bio"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles POST /api/auth/register
// @Summary Register
// @Description Create a verified account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body registerRequest true "Account details"
// @Success 200 {object} object{message=string}
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /auth/register [post]
func (s *Server) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	_, err := s.authService.Register(c.UserContext(), service.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		Username:    req.Username,
		DisplayName: req.DisplayName,
		Bio:         req.Bio,
	})
	if err != nil {
		return respondError(c, err, "Unable to create account right now.")
	}

	return c.JSON(fiber.Map{"message": service.MsgAccountCreated})
}

// Login handles POST /api/auth/login
// @Summary Login
// @Description Verify credentials and start a session. The token is set as an httpOnly cookie and also returned for Bearer use.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body loginRequest true "Credentials"
// @Success 200 {object} object{token=string,user=models.SafeUser}
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	res, err := s.authService.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return respondError(c, err, "Unable to log you in right now.")
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    res.Token,
		Path:     "/",
		Expires:  res.ExpiresAt,
		MaxAge:   int(time.Until(res.ExpiresAt).Seconds()),
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	return c.JSON(fiber.Map{
		"token": res.Token,
		"user":  res.User,
	})
}

// Logout handles POST /api/auth/logout
// @Summary Logout
// @Tags auth
// @Produce json
// @Success 200 {object} object{message=string}
// @Router /auth/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	if token := middleware.TokenFromRequest(c); token != "" {
		if err := s.authService.Logout(c.UserContext(), token); err != nil {
			return respondError(c, err, "Unable to log out.")
		}
	}
	c.ClearCookie(middleware.SessionCookieName)
	return c.JSON(fiber.Map{"message": "Logged out."})
}

// Me handles GET /api/auth/me
// @Summary Current user
// @Description Returns the signed-in user, or null for anonymous callers
// @Tags auth
// @Produce json
// @Success 200 {object} object{user=models.SafeUser}
// @Router /auth/me [get]
func (s *Server) Me(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"user": safeUserOrNil(currentUser(c))})
}

// safeUserOrNil keeps JSON responses stable for anonymous viewers.
func safeUserOrNil(u *models.User) any {
	if u == nil {
		return nil
	}
	return u.Safe()
}
