package server

import (
	"snapfeed/internal/service"

	"github.com/gofiber/fiber/v2"
)

type updateProfileRequest struct {
	DisplayName  *string `json:"displayName"`
	Bio          *string `json:"bio"`
	ProfileImage *string `json:"profileImage"`
}

// ListUsers handles GET /api/users
// @Summary People list
// @Description Newest accounts with follower and following counts
// @Tags users
// @Produce json
// @Success 200 {object} object{users=[]models.UserListing}
// @Router /users [get]
func (s *Server) ListUsers(c *fiber.Ctx) error {
	users, err := s.userService.ListUsers(c.UserContext(), viewerID(c))
	if err != nil {
		return respondError(c, err, "Unable to load users.")
	}
	return c.JSON(fiber.Map{"users": users})
}

// UpdateMyProfile handles PUT /api/users/me
// @Summary Update own profile
// @Description Omitted fields are left alone; empty strings clear a field
// @Tags users
// @Accept json
// @Produce json
// @Param request body updateProfileRequest true "Profile fields"
// @Success 200 {object} object{user=models.SafeUser}
// @Failure 400 {object} models.ErrorResponse
// @Router /users/me [put]
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req updateProfileRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	user, err := s.userService.UpdateProfile(c.UserContext(), viewerID(c), service.UpdateProfileInput{
		DisplayName:  req.DisplayName,
		Bio:          req.Bio,
		ProfileImage: req.ProfileImage,
	})
	if err != nil {
		return respondError(c, err, "Unable to update user.")
	}
	return c.JSON(fiber.Map{"user": user.Safe()})
}

// GetUserProfile handles GET /api/users/:username
// @Summary Public profile
// @Tags users
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} object{user=profileView}
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{username} [get]
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	profile, err := s.userService.Profile(c.UserContext(), c.Params("username"), viewerID(c))
	if err != nil {
		return respondError(c, err, "Unable to load profile.")
	}
	return c.JSON(fiber.Map{"user": presentProfile(profile)})
}
