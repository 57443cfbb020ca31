package server

import "github.com/gofiber/fiber/v2"

type sendMessageRequest struct {
	ReceiverID string `json:"receiverId"`
	Content    string `json:"content"`
}

// GetConversations handles GET /api/messages/conversations
// @Summary Conversation list
// @Description Latest message per peer, newest first
// @Tags messages
// @Produce json
// @Success 200 {object} object{conversations=[]models.Conversation}
// @Router /messages/conversations [get]
func (s *Server) GetConversations(c *fiber.Ctx) error {
	conversations, err := s.messageService.Conversations(c.UserContext(), viewerID(c))
	if err != nil {
		return respondError(c, err, "Unable to load conversations.")
	}
	return c.JSON(fiber.Map{"conversations": conversations})
}

// GetThread handles GET /api/messages?with=<userId>
// @Summary Message thread
// @Tags messages
// @Produce json
// @Param with query string true "Peer user ID"
// @Success 200 {object} object{messages=[]models.ThreadMessage}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /messages [get]
func (s *Server) GetThread(c *fiber.Ctx) error {
	thread, err := s.messageService.Thread(c.UserContext(), viewerID(c), c.Query("with"))
	if err != nil {
		return respondError(c, err, "Unable to load messages.")
	}
	return c.JSON(fiber.Map{"messages": thread})
}

// SendMessage handles POST /api/messages
// @Summary Send a direct message
// @Tags messages
// @Accept json
// @Produce json
// @Param request body sendMessageRequest true "Message"
// @Success 200 {object} object{message=models.ThreadMessage}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /messages [post]
func (s *Server) SendMessage(c *fiber.Ctx) error {
	var req sendMessageRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	msg, err := s.messageService.Send(c.UserContext(), viewerID(c), req.ReceiverID, req.Content)
	if err != nil {
		return respondError(c, err, "Unable to send message.")
	}
	return c.JSON(fiber.Map{"message": msg})
}
