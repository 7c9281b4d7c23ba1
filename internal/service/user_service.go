package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"mime/multipart"
	"time"

	"socialgraph/internal/models"
	"socialgraph/internal/observability"
	"socialgraph/internal/repository"
	"socialgraph/internal/storage"
	"socialgraph/internal/validation"
)

// Storage prefixes for profile images.
const (
	AvatarPath = "user/avatars"
	CoverPath  = "user/covers"
)

type UserService struct {
	userRepo  repository.UserRepository
	store     storage.Storage
	verifyTTL time.Duration
	now       func() time.Time
}

type UpdateProfileInput struct {
	UserID     uint
	Name       *string
	Gender     *string
	Birthday   *time.Time
	AvatarFile *multipart.FileHeader
	CoverFile  *multipart.FileHeader
}

func NewUserService(userRepo repository.UserRepository, store storage.Storage, verifyTTL time.Duration) *UserService {
	if verifyTTL <= 0 {
		verifyTTL = 15 * time.Minute
	}
	return &UserService{userRepo: userRepo, store: store, verifyTTL: verifyTTL, now: time.Now}
}

func (s *UserService) GetProfile(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// UpdateProfile writes only the fields set in in.
func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	if _, err := s.userRepo.GetByID(ctx, in.UserID); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if in.Name != nil {
		name, err := validation.ValidateDisplayName(*in.Name)
		if err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		fields["name"] = name
	}
	if in.Gender != nil {
		gender, err := validation.ValidateGender(*in.Gender)
		if err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		fields["gender"] = gender
	}
	if in.Birthday != nil {
		if in.Birthday.After(s.now()) {
			return nil, models.NewValidationError("Birthday cannot be in the future")
		}
		fields["birthday"] = *in.Birthday
	}
	if url, err := s.uploadProfileImage(ctx, in.AvatarFile, AvatarPath); err != nil {
		return nil, err
	} else if url != "" {
		fields["avatar"] = url
	}
	if url, err := s.uploadProfileImage(ctx, in.CoverFile, CoverPath); err != nil {
		return nil, err
	} else if url != "" {
		fields["cover"] = url
	}

	if len(fields) == 0 {
		return nil, models.NewValidationError("Nothing to update")
	}
	if err := s.userRepo.UpdateFields(ctx, in.UserID, fields); err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(ctx, in.UserID)
}

// A failed profile upload fails the whole update.
func (s *UserService) uploadProfileImage(ctx context.Context, file *multipart.FileHeader, prefix string) (string, error) {
	if file == nil {
		return "", nil
	}
	if s.store == nil {
		return "", models.NewDomainValidationError("Uploads are not configured", models.CodeUploadFileFailed)
	}
	if err := checkMedia(storage.KindImage, file); err != nil {
		return "", err
	}
	url, err := s.store.UploadFile(ctx, file, prefix)
	if err != nil {
		observability.UploadFailures.WithLabelValues(prefix).Inc()
		return "", models.NewUploadFailedError(err)
	}
	return url, nil
}

// IssueVerifyCode stores a fresh six digit code for the user. Delivery is
// left to the caller.
func (s *UserService) IssueVerifyCode(ctx context.Context, email string) (string, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", models.NewUserNotFoundError(email)
	}
	if user.IsVerified {
		return "", models.NewConflictError("User already verified")
	}

	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", models.NewInternalError(err)
	}
	code := fmt.Sprintf("%06d", n.Int64())
	expiry := s.now().Add(s.verifyTTL)
	if err := s.userRepo.UpdateFields(ctx, user.ID, map[string]any{
		"verify_code": code,
		"expiry_time": &expiry,
	}); err != nil {
		return "", err
	}
	return code, nil
}

// CheckVerifyCode verifies email with code.
func (s *UserService) CheckVerifyCode(ctx context.Context, email, code string) (models.Envelope, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return models.Envelope{}, err
	}
	if user == nil {
		return models.Envelope{}, models.NewUserNotFoundError(email)
	}
	if user.IsVerified {
		return models.Fail("User already verified"), nil
	}
	if user.VerifyCode == "" || user.VerifyCode != code ||
		user.ExpiryTime == nil || s.now().After(*user.ExpiryTime) {
		return models.Envelope{}, models.NewDomainValidationError("Verify code is incorrect or expired", models.CodeVerifyCodeIncorrect)
	}

	if err := s.MakeVerified(ctx, user.ID); err != nil {
		return models.Envelope{}, err
	}
	return models.Succeeded("User verified", models.ToPublicUser(user)), nil
}

// MakeVerified marks the user verified and clears the pending code.
func (s *UserService) MakeVerified(ctx context.Context, userID uint) error {
	return s.userRepo.UpdateFields(ctx, userID, map[string]any{
		"is_verified": true,
		"verify_code": "",
		"expiry_time": nil,
	})
}
