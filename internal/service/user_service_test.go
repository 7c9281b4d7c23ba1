package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"socialgraph/internal/models"
	"socialgraph/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestUserService_UpdateProfile_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   UpdateProfileInput
	}{
		{"nothing to update", UpdateProfileInput{UserID: 1}},
		{"blank name", UpdateProfileInput{UserID: 1, Name: strPtr("  ")}},
		{"name too long", UpdateProfileInput{UserID: 1, Name: strPtr(strings.Repeat("x", 101))}},
		{"gender too long", UpdateProfileInput{UserID: 1, Gender: strPtr(strings.Repeat("x", 21))}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			repo := noopUserRepo()
			repo.updateFieldsFn = func(context.Context, uint, map[string]any) error {
				t.Fatal("update must not be called")
				return nil
			}
			svc := NewUserService(repo, &fakeStorage{}, time.Minute)
			_, err := svc.UpdateProfile(context.Background(), tt.in)
			assertAppError(t, err, 400, models.CodeParamsValueInvalid)
		})
	}
}

func TestUserService_UpdateProfile_FutureBirthday(t *testing.T) {
	svc := NewUserService(noopUserRepo(), nil, time.Minute)
	svc.now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	future := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := svc.UpdateProfile(context.Background(), UpdateProfileInput{UserID: 1, Birthday: &future})
	assertAppError(t, err, 400, models.CodeParamsValueInvalid)
}

func TestUserService_UpdateProfile_PartialUpdate(t *testing.T) {
	repo := noopUserRepo()
	var saved map[string]any
	repo.updateFieldsFn = func(_ context.Context, _ uint, fields map[string]any) error {
		saved = fields
		return nil
	}
	svc := NewUserService(repo, &fakeStorage{}, time.Minute)

	_, err := svc.UpdateProfile(context.Background(), UpdateProfileInput{
		UserID:     1,
		Name:       strPtr(" New Name "),
		AvatarFile: files("me.png")[0],
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "New Name", "avatar": "/user/avatars/me.png"}, saved)
}

func TestUserService_UpdateProfile_UploadFailure(t *testing.T) {
	svc := NewUserService(noopUserRepo(), &fakeStorage{fail: map[string]bool{"me.png": true}}, time.Minute)
	_, err := svc.UpdateProfile(context.Background(), UpdateProfileInput{UserID: 1, CoverFile: files("me.png")[0]})
	assertAppError(t, err, 400, models.CodeUploadFileFailed)
}

func TestUserService_UpdateProfile_RejectsNonImage(t *testing.T) {
	store := &fakeStorage{}
	svc := NewUserService(noopUserRepo(), store, time.Minute)

	_, err := svc.UpdateProfile(context.Background(), UpdateProfileInput{
		UserID:     1,
		AvatarFile: upload("me.png", []byte("<html><body>hi</body></html>")),
	})
	assertAppError(t, err, 400, models.CodeOnlyImagesOrVideos)

	_, err = svc.UpdateProfile(context.Background(), UpdateProfileInput{UserID: 1, CoverFile: files("cover.mp4")[0]})
	assertAppError(t, err, 400, models.CodeOnlyImagesOrVideos)
	assert.Empty(t, store.uploads)
}

func TestUserService_VerifyFlow(t *testing.T) {
	db := newTestDB(t)
	u := seedUser(t, db, "new@example.com")
	svc := NewUserService(repository.NewUserRepository(db), nil, 10*time.Minute)
	ctx := context.Background()

	_, err := svc.CheckVerifyCode(ctx, "ghost@example.com", "123456")
	assertAppError(t, err, 404, models.CodeUserNotValidated)

	code, err := svc.IssueVerifyCode(ctx, u.Email)
	require.NoError(t, err)
	assert.Len(t, code, 6)

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	_, err = svc.CheckVerifyCode(ctx, u.Email, wrong)
	assertAppError(t, err, 400, models.CodeVerifyCodeIncorrect)

	env, err := svc.CheckVerifyCode(ctx, u.Email, code)
	require.NoError(t, err)
	assert.True(t, env.Success)

	var stored models.User
	require.NoError(t, db.First(&stored, u.ID).Error)
	assert.True(t, stored.IsVerified)
	assert.Empty(t, stored.VerifyCode)
	assert.Nil(t, stored.ExpiryTime)

	env, err = svc.CheckVerifyCode(ctx, u.Email, code)
	require.NoError(t, err)
	assert.False(t, env.Success)

	_, err = svc.IssueVerifyCode(ctx, u.Email)
	assertAppError(t, err, 409, models.CodeActionHasDone)
}

func TestUserService_VerifyCodeExpires(t *testing.T) {
	db := newTestDB(t)
	u := seedUser(t, db, "slow@example.com")
	svc := NewUserService(repository.NewUserRepository(db), nil, time.Minute)
	start := time.Now()
	svc.now = func() time.Time { return start }

	code, err := svc.IssueVerifyCode(context.Background(), u.Email)
	require.NoError(t, err)

	svc.now = func() time.Time { return start.Add(2 * time.Minute) }
	_, err = svc.CheckVerifyCode(context.Background(), u.Email, code)
	assertAppError(t, err, 400, models.CodeVerifyCodeIncorrect)
}
