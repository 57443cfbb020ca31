package server

import "github.com/gofiber/fiber/v2"

type toggleFollowRequest struct {
	UserID string `json:"userId"`
}

// GetFollowOverview handles GET /api/follow
// @Summary Follow graph
// @Description Who the caller follows, who follows them, and suggestions
// @Tags follow
// @Produce json
// @Success 200 {object} models.FollowOverview
// @Failure 401 {object} models.ErrorResponse
// @Router /follow [get]
func (s *Server) GetFollowOverview(c *fiber.Ctx) error {
	overview, err := s.followService.Overview(c.UserContext(), viewerID(c))
	if err != nil {
		return respondError(c, err, "Unable to load follow data.")
	}
	return c.JSON(overview)
}

// ToggleFollow handles POST /api/follow
// @Summary Follow or unfollow
// @Tags follow
// @Accept json
// @Produce json
// @Param request body toggleFollowRequest true "Target user"
// @Success 200 {object} service.FollowResult
// @Failure 400 {object} models.ErrorResponse
// @Router /follow [post]
func (s *Server) ToggleFollow(c *fiber.Ctx) error {
	var req toggleFollowRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	res, err := s.followService.Toggle(c.UserContext(), viewerID(c), req.UserID)
	if err != nil {
		return respondError(c, err, "Unable to update follow state.")
	}
	return c.JSON(res)
}
