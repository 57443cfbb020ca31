package server

import (
	"log/slog"

	"snapfeed/internal/featureflags"
	"snapfeed/internal/middleware"
	"snapfeed/internal/models"
	"snapfeed/internal/service"

	"github.com/gofiber/fiber/v2"
)

type chatbotRequest struct {
	Prompt string `json:"prompt"`
}

// Chatbot handles POST /api/chatbot
// @Summary Ask the chatbot
// @Description Templated replies; personalised with the caller's post count when signed in
// @Tags chatbot
// @Accept json
// @Produce json
// @Param request body chatbotRequest true "Prompt"
// @Success 200 {object} object{answer=string}
// @Failure 404 {object} models.ErrorResponse
// @Router /chatbot [post]
func (s *Server) Chatbot(c *fiber.Ctx) error {
	if !s.featureFlags.Enabled(featureflags.Chatbot, viewerID(c)) {
		return models.RespondWithError(c, fiber.StatusNotFound,
			&models.AppError{Code: models.CodeNotFound, Message: "Chatbot is not available."})
	}

	var req chatbotRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	answer, err := s.chatbot.Respond(c.UserContext(), viewerID(c), req.Prompt)
	if err != nil {
		middleware.Logger.ErrorContext(c.UserContext(), "chatbot failed",
			slog.String("error", err.Error()))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"answer": service.ChatbotFallbackAnswer,
		})
	}
	return c.JSON(fiber.Map{"answer": answer})
}

// GetFeatureFlags handles GET /api/feature-flags
// @Summary Feature flags
// @Description Configured flags and their evaluation for the caller
// @Tags system
// @Produce json
// @Success 200 {object} object{flags=map[string]string,enabled=map[string]bool}
// @Router /feature-flags [get]
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"flags":   s.featureFlags.Raw(),
		"enabled": s.featureFlags.Snapshot(viewerID(c)),
	})
}
