package server

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"socialgraph/internal/middleware"
	"socialgraph/internal/models"
	"socialgraph/internal/service"
	"socialgraph/internal/validation"

	"github.com/gofiber/fiber/v2"
)

const birthdayLayout = "2006-01-02"

// VerifyCodeRequest is the body of POST /api/users/verify.
type VerifyCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// UpdateProfileRequest is the JSON body of PUT /api/users/me. Nil fields are left untouched.
type UpdateProfileRequest struct {
	Name     *string `json:"name"`
	Gender   *string `json:"gender"`
	Birthday *string `json:"birthday"`
}

// GetMyProfile handles GET /api/users/me
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	user, err := s.userService.GetProfile(c.UserContext(), currentUserID(c))
	return respondData(c, fiber.StatusOK, user, err)
}

// GetUserProfile handles GET /api/users/:id
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	user, err := s.userService.GetProfile(c.UserContext(), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	if id == currentUserID(c) {
		return c.JSON(models.OK(user))
	}
	return c.JSON(models.OK(models.ToPublicUser(user)))
}

// UpdateMyProfile handles PUT /api/users/me as JSON or multipart (avatar, cover).
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	in := service.UpdateProfileInput{UserID: currentUserID(c)}

	var req UpdateProfileRequest
	if form, ok := multipartForm(c); ok {
		req.Name = formValue(form.Value, "name")
		req.Gender = formValue(form.Value, "gender")
		req.Birthday = formValue(form.Value, "birthday")
		if f := form.File["avatar"]; len(f) > 0 {
			in.AvatarFile = f[0]
		}
		if f := form.File["cover"]; len(f) > 0 {
			in.CoverFile = f[0]
		}
	} else if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	in.Name = req.Name
	in.Gender = req.Gender
	if req.Birthday != nil {
		birthday, err := parseBirthday(*req.Birthday)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid birthday, expected YYYY-MM-DD"))
		}
		in.Birthday = &birthday
	}

	user, err := s.userService.UpdateProfile(c.UserContext(), in)
	return respondData(c, fiber.StatusOK, user, err)
}

// CheckVerifyCode handles POST /api/users/verify
func (s *Server) CheckVerifyCode(c *fiber.Ctx) error {
	var req VerifyCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	email, err := validation.NormalizeEmail(req.Email)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError(err.Error()))
	}
	if strings.TrimSpace(req.Code) == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("code is required"))
	}

	env, err := s.userService.CheckVerifyCode(c.UserContext(), email, strings.TrimSpace(req.Code))
	return respondEnvelope(c, env, err)
}

// ResendVerifyCode handles POST /api/users/verify/code and issues a new code.
// Mail delivery is out of scope; the code is only written to the debug log.
func (s *Server) ResendVerifyCode(c *fiber.Ctx) error {
	var req VerifyCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	email, err := validation.NormalizeEmail(req.Email)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError(err.Error()))
	}

	code, err := s.userService.IssueVerifyCode(c.UserContext(), email)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	logVerifyCode(c.UserContext(), email, code)
	return c.JSON(models.Succeeded("Verification code sent", nil))
}

func logVerifyCode(ctx context.Context, email, code string) {
	middleware.Logger.DebugContext(ctx, "verification code issued",
		slog.String("email", email), slog.String("code", code))
}

func formValue(values map[string][]string, key string) *string {
	v, ok := values[key]
	if !ok || len(v) == 0 {
		return nil
	}
	return &v[0]
}

func parseBirthday(v string) (time.Time, error) {
	if t, err := time.Parse(birthdayLayout, v); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, v)
}
