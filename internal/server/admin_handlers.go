package server

import "github.com/gofiber/fiber/v2"

type adminActionRequest struct {
	UserID string `json:"userId"`
	Action string `json:"action"`
}

// AdminListUsers handles GET /api/admin/users
// @Summary All accounts
// @Tags admin
// @Produce json
// @Success 200 {object} object{users=[]models.UserListing}
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/users [get]
func (s *Server) AdminListUsers(c *fiber.Ctx) error {
	users, err := s.adminService.ListAll(c.UserContext(), viewerID(c))
	if err != nil {
		return respondError(c, err, "Unable to load users.")
	}
	return c.JSON(fiber.Map{"users": users})
}

// AdminApply handles POST /api/admin/users
// @Summary Promote, demote or delete an account
// @Tags admin
// @Accept json
// @Produce json
// @Param request body adminActionRequest true "Target and action"
// @Success 200 {object} service.AdminResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /admin/users [post]
func (s *Server) AdminApply(c *fiber.Ctx) error {
	var req adminActionRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	res, err := s.adminService.Apply(c.UserContext(), viewerID(c), req.UserID, req.Action)
	if err != nil {
		return respondError(c, err, "Unable to update user.")
	}
	return c.JSON(res)
}
