package server

import (
	"socialgraph/internal/models"
	"socialgraph/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateCommentRequest is the body of POST /api/posts/:id/comments.
type CreateCommentRequest struct {
	Content    string `json:"content"`
	AnsweredID *uint  `json:"answered_id"`
}

// CreateComment handles POST /api/posts/:id/comments
func (s *Server) CreateComment(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	comment, err := s.commentService.CreateComment(c.UserContext(), service.CreateCommentInput{
		UserID:     currentUserID(c),
		PostID:     postID,
		Content:    req.Content,
		AnsweredID: req.AnsweredID,
	})
	return respondData(c, fiber.StatusCreated, comment, err)
}

// GetComments handles GET /api/posts/:id/comments?limit=&offset=
func (s *Server) GetComments(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	page := parsePagination(c, 20)
	comments, err := s.commentService.ListComments(c.UserContext(), postID, page.Limit, page.Offset)
	return respondData(c, fiber.StatusOK, comments, err)
}
