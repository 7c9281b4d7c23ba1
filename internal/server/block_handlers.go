package server

import (
	"socialgraph/internal/models"

	"github.com/gofiber/fiber/v2"
)

// SetBlockRequest is the body of POST /api/users/blocks.
type SetBlockRequest struct {
	UserID uint               `json:"user_id"`
	Type   models.BlockAction `json:"type"`
}

// SetBlock handles POST /api/users/blocks and returns the caller's block list.
func (s *Server) SetBlock(c *fiber.Ctx) error {
	var req SetBlockRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.UserID == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("user_id is required"))
	}

	list, err := s.blockService.SetBlock(c.UserContext(), currentUserID(c), req.UserID, req.Type)
	return respondData(c, fiber.StatusOK, list, err)
}

// GetBlockList handles GET /api/users/blocks
func (s *Server) GetBlockList(c *fiber.Ctx) error {
	list, err := s.blockService.GetBlockList(c.UserContext(), currentUserID(c))
	return respondData(c, fiber.StatusOK, list, err)
}

// CheckIsBlock handles GET /api/users/blocks/:userId and reports whether the
// caller has :userId blocked.
func (s *Server) CheckIsBlock(c *fiber.Ctx) error {
	otherID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}
	blocked, err := s.blockService.CheckIsBlock(c.UserContext(), otherID, currentUserID(c))
	return respondData(c, fiber.StatusOK, fiber.Map{"is_blocked": blocked}, err)
}
