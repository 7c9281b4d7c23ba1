package server

import (
	"mime/multipart"
	"strconv"
	"strings"

	"socialgraph/internal/models"
	"socialgraph/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Multipart field names used by post create and edit.
const (
	fieldOp        = "op"
	fieldContent   = "content"
	fieldStatus    = "status"
	fieldMediaIDs  = "media_ids"
	fieldPositions = "positions"
	fieldImages    = "images"
	fieldVideo     = "video"
)

// editFields lists the form fields each edit op accepts besides "op".
var editFields = map[string][]string{
	service.EditKindContent:      {fieldContent},
	service.EditKindStatus:       {fieldStatus},
	service.EditKindDeleteMedia:  {fieldMediaIDs, fieldImages},
	service.EditKindInsertImages: {fieldPositions, fieldImages},
	service.EditKindAttachVideo:  {fieldVideo},
}

// CreatePost handles POST /api/posts (multipart: content, status, images[], video)
func (s *Server) CreatePost(c *fiber.Ctx) error {
	in := service.CreatePostInput{
		AuthorID: currentUserID(c),
		Content:  c.FormValue(fieldContent),
		Status:   c.FormValue(fieldStatus),
	}
	if form, ok := multipartForm(c); ok {
		in.Images = form.File[fieldImages]
		if videos := form.File[fieldVideo]; len(videos) > 0 {
			if len(videos) > 1 {
				return models.RespondWithError(c, fiber.StatusBadRequest,
					models.NewValidationError("Only one video is allowed"))
			}
			in.Video = videos[0]
		}
	}

	view, err := s.postService.Create(c.UserContext(), in)
	return respondData(c, fiber.StatusCreated, view, err)
}

// GetPost handles GET /api/posts/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	view, err := s.postService.GetByID(c.UserContext(), currentUserID(c), postID)
	return respondData(c, fiber.StatusOK, view, err)
}

// GetUserPosts handles GET /api/users/:id/posts?limit=&offset=
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	authorID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	page := parsePagination(c, 10)
	views, err := s.postService.ListByAuthor(c.UserContext(), currentUserID(c), authorID, page.Limit, page.Offset)
	return respondData(c, fiber.StatusOK, views, err)
}

// EditPost handles PATCH /api/posts/:id. The "op" field selects exactly one edit.
func (s *Server) EditPost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	op, err := parseEditOperation(c)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	view, err := s.postService.Edit(c.UserContext(), currentUserID(c), postID, op)
	return respondData(c, fiber.StatusOK, view, err)
}

// DeletePost handles DELETE /api/posts/:id
func (s *Server) DeletePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.postService.Delete(c.UserContext(), currentUserID(c), postID); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(models.Succeeded("Post deleted", nil))
}

// LikePost handles POST /api/posts/:id/like and toggles the caller's like.
func (s *Server) LikePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	env, err := s.postService.LikePost(c.UserContext(), currentUserID(c), postID)
	return respondEnvelope(c, env, err)
}

func multipartForm(c *fiber.Ctx) (*multipart.Form, bool) {
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		return nil, false
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, false
	}
	return form, true
}

// parseEditOperation maps the request form onto one EditOperation variant.
// Fields that belong to a different op are rejected.
func parseEditOperation(c *fiber.Ctx) (service.EditOperation, error) {
	kind := c.FormValue(fieldOp)
	allowed, ok := editFields[kind]
	if !ok {
		return nil, models.NewValidationError("Unknown edit op: " + strconv.Quote(kind))
	}

	values := map[string][]string{}
	files := map[string][]*multipart.FileHeader{}
	if form, ok := multipartForm(c); ok {
		values = form.Value
		files = form.File
	} else {
		for _, f := range []string{fieldContent, fieldStatus, fieldMediaIDs, fieldPositions} {
			if v := c.FormValue(f); v != "" {
				values[f] = []string{v}
			}
		}
	}

	for _, f := range []string{fieldContent, fieldStatus, fieldMediaIDs, fieldPositions, fieldImages, fieldVideo} {
		if containsField(allowed, f) {
			continue
		}
		if len(values[f]) > 0 || len(files[f]) > 0 {
			return nil, models.NewValidationError("Field " + f + " is not valid for op " + kind)
		}
	}

	switch kind {
	case service.EditKindContent:
		return service.ReplaceContent{Content: first(values[fieldContent])}, nil
	case service.EditKindStatus:
		return service.SetStatus{Status: first(values[fieldStatus])}, nil
	case service.EditKindDeleteMedia:
		ids, err := parseUintList(values[fieldMediaIDs])
		if err != nil {
			return nil, err
		}
		return service.DeleteMedia{MediaIDs: ids, Files: files[fieldImages]}, nil
	case service.EditKindInsertImages:
		positions, err := parseIntList(values[fieldPositions])
		if err != nil {
			return nil, err
		}
		return service.InsertImages{Positions: positions, Files: files[fieldImages]}, nil
	default:
		video := files[fieldVideo]
		if len(video) > 1 {
			return nil, models.NewValidationError("Only one video is allowed")
		}
		var file *multipart.FileHeader
		if len(video) == 1 {
			file = video[0]
		}
		return service.AttachVideo{File: file}, nil
	}
}

func containsField(fields []string, f string) bool {
	for _, v := range fields {
		if v == f {
			return true
		}
	}
	return false
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// splitList accepts repeated fields and comma-separated values.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func parseUintList(values []string) ([]uint, error) {
	parts := splitList(values)
	out := make([]uint, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.ParseUint(p, 10, 32)
		if err != nil || n == 0 {
			return nil, models.NewValidationError("Invalid media ID " + strconv.Quote(p))
		}
		out = append(out, uint(n))
	}
	return out, nil
}

func parseIntList(values []string) ([]int, error) {
	parts := splitList(values)
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, models.NewValidationError("Invalid position " + strconv.Quote(p))
		}
		out = append(out, n)
	}
	return out, nil
}
