package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"socialgraph/internal/models"
	"socialgraph/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockPostRepository is a mock of the PostRepository interface
type MockPostRepository struct {
	mock.Mock
}

func (m *MockPostRepository) Create(ctx context.Context, post *models.Post) error {
	args := m.Called(ctx, post)
	return args.Error(0)
}

func (m *MockPostRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Post), args.Error(1)
}

func (m *MockPostRepository) ListByAuthor(ctx context.Context, authorID uint, limit, offset int) ([]*models.Post, error) {
	args := m.Called(ctx, authorID, limit, offset)
	return args.Get(0).([]*models.Post), args.Error(1)
}

func (m *MockPostRepository) UpdateFields(ctx context.Context, id uint, fields map[string]any) error {
	args := m.Called(ctx, id, fields)
	return args.Error(0)
}

func (m *MockPostRepository) ReplaceMedias(ctx context.Context, postID uint, medias []models.Media) error {
	args := m.Called(ctx, postID, medias)
	return args.Error(0)
}

func (m *MockPostRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockPostRepository) IsLiked(ctx context.Context, userID, postID uint) (bool, error) {
	args := m.Called(ctx, userID, postID)
	return args.Bool(0), args.Error(1)
}

func (m *MockPostRepository) ToggleLike(ctx context.Context, userID, postID uint) (*models.LikeResult, error) {
	args := m.Called(ctx, userID, postID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LikeResult), args.Error(1)
}

type postBody struct {
	ID       uint           `json:"id"`
	AuthorID uint           `json:"author_id"`
	Content  string         `json:"content"`
	Status   string         `json:"status"`
	NumLikes int            `json:"num_likes"`
	Medias   []models.Media `json:"medias"`
	IsLiked  bool           `json:"is_liked"`
	CanEdit  bool           `json:"can_edit"`
}

func newMockPostApp(repo *MockPostRepository, userID uint) *fiber.App {
	s := &Server{postService: service.NewPostService(repo, nil, nil, nil)}
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("userID", userID)
		return c.Next()
	})
	app.Get("/posts/:id", s.GetPost)
	app.Delete("/posts/:id", s.DeletePost)
	app.Post("/posts/:id/like", s.LikePost)
	return app
}

func TestPostHandlers_WithMockRepository(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		setupMock  func(m *MockPostRepository)
		wantStatus int
		wantDomain int
	}{
		{
			name:   "get missing post",
			method: http.MethodGet,
			path:   "/posts/9",
			setupMock: func(m *MockPostRepository) {
				m.On("GetByID", mock.Anything, uint(9)).Return(nil, models.NewPostNotFoundError(9))
			},
			wantStatus: http.StatusNotFound,
			wantDomain: models.CodePostNotExist,
		},
		{
			name:   "get post",
			method: http.MethodGet,
			path:   "/posts/1",
			setupMock: func(m *MockPostRepository) {
				m.On("GetByID", mock.Anything, uint(1)).Return(&models.Post{ID: 1, AuthorID: 7, Content: "hi"}, nil)
				m.On("IsLiked", mock.Anything, uint(7), uint(1)).Return(true, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:   "delete by non-author",
			method: http.MethodDelete,
			path:   "/posts/2",
			setupMock: func(m *MockPostRepository) {
				m.On("GetByID", mock.Anything, uint(2)).Return(&models.Post{ID: 2, AuthorID: 99}, nil)
			},
			wantStatus: http.StatusForbidden,
			wantDomain: models.CodeNotAccess,
		},
		{
			name:   "delete by author",
			method: http.MethodDelete,
			path:   "/posts/3",
			setupMock: func(m *MockPostRepository) {
				m.On("GetByID", mock.Anything, uint(3)).Return(&models.Post{ID: 3, AuthorID: 7}, nil)
				m.On("Delete", mock.Anything, uint(3)).Return(nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:   "like storage failure",
			method: http.MethodPost,
			path:   "/posts/4/like",
			setupMock: func(m *MockPostRepository) {
				m.On("GetByID", mock.Anything, uint(4)).Return(&models.Post{ID: 4, AuthorID: 1}, nil)
				m.On("ToggleLike", mock.Anything, uint(7), uint(4)).Return(nil, models.NewInternalError(assert.AnError))
			},
			wantStatus: http.StatusInternalServerError,
			wantDomain: models.CodeExceptionError,
		},
		{
			name:       "invalid id",
			method:     http.MethodGet,
			path:       "/posts/abc",
			setupMock:  func(m *MockPostRepository) {},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockPostRepository)
			tt.setupMock(repo)
			app := newMockPostApp(repo, 7)

			resp, err := app.Test(httptest.NewRequest(tt.method, tt.path, nil))
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantDomain != 0 {
				assert.Equal(t, tt.wantDomain, decodeError(t, resp).DomainCode)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestDeletePost_NonAuthorNeverDeletes(t *testing.T) {
	repo := new(MockPostRepository)
	repo.On("GetByID", mock.Anything, uint(2)).Return(&models.Post{ID: 2, AuthorID: 99}, nil)
	app := newMockPostApp(repo, 7)

	resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/posts/2", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func createPostWithImages(t *testing.T, env *testEnv, userID uint, names ...string) postBody {
	t.Helper()
	files := make([]formFile, 0, len(names))
	for _, n := range names {
		files = append(files, formFile{field: "images", name: n, content: pngContent})
	}
	resp := env.doMultipart(t, http.MethodPost, "/api/posts", userID,
		map[string][]string{"content": {"hello"}}, files)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var post postBody
	body := decodeEnvelope(t, resp, &post)
	require.True(t, body.Success)
	return post
}

func TestCreatePost_Multipart(t *testing.T) {
	env := newTestEnv(t)
	alice := env.seedUser(t, "alice")

	post := createPostWithImages(t, env, alice.ID, "a.png", "b.png")

	assert.Equal(t, alice.ID, post.AuthorID)
	assert.Equal(t, "hello", post.Content)
	require.Len(t, post.Medias, 2)
	for i, m := range post.Medias {
		assert.Equal(t, i+1, m.Order)
		assert.Equal(t, models.MediaTypeImage, m.Type)
		assert.True(t, strings.HasPrefix(m.URL, "http://cdn.test/media/post/images/"), m.URL)
	}

	// Local uploads are served back from the media mount.
	media := env.do(t, http.MethodGet, strings.TrimPrefix(post.Medias[0].URL, "http://cdn.test"), 0, nil)
	require.Equal(t, http.StatusOK, media.StatusCode)
	content, err := io.ReadAll(media.Body)
	require.NoError(t, err)
	assert.Equal(t, pngContent, string(content))
}

func TestCreatePost_Rejections(t *testing.T) {
	env := newTestEnv(t)
	alice := env.seedUser(t, "alice")

	tests := []struct {
		name       string
		values     map[string][]string
		files      []formFile
		wantDomain int
	}{
		{
			name:       "empty post",
			values:     map[string][]string{"content": {"  "}},
			wantDomain: models.CodeParamsValueInvalid,
		},
		{
			name:   "images and video",
			values: map[string][]string{"content": {"x"}},
			files: []formFile{
				{field: "images", name: "a.png", content: pngContent},
				{field: "video", name: "v.mp4", content: mp4Content},
			},
			wantDomain: models.CodeOnlyImagesOrVideos,
		},
		{
			name:   "too many images",
			values: map[string][]string{"content": {"x"}},
			files: []formFile{
				{field: "images", name: "1.png", content: pngContent},
				{field: "images", name: "2.png", content: pngContent},
				{field: "images", name: "3.png", content: pngContent},
				{field: "images", name: "4.png", content: pngContent},
				{field: "images", name: "5.png", content: pngContent},
			},
			wantDomain: models.CodeMaxNumberImages,
		},
		{
			name:   "html in images",
			values: map[string][]string{"content": {"x"}},
			files: []formFile{
				{field: "images", name: "page.html", content: "<html><script>alert(document.cookie)</script></html>"},
			},
			wantDomain: models.CodeOnlyImagesOrVideos,
		},
		{
			name:   "video in images",
			values: map[string][]string{"content": {"x"}},
			files: []formFile{
				{field: "images", name: "clip.png", content: mp4Content},
			},
			wantDomain: models.CodeOnlyImagesOrVideos,
		},
		{
			name:   "image in video",
			values: map[string][]string{"content": {"x"}},
			files: []formFile{
				{field: "video", name: "clip.mp4", content: pngContent},
			},
			wantDomain: models.CodeOnlyImagesOrVideos,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.doMultipart(t, http.MethodPost, "/api/posts", alice.ID, tt.values, tt.files)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tt.wantDomain, decodeError(t, resp).DomainCode)
		})
	}
}

func TestEditPost_InsertImagesKeepsOrder(t *testing.T) {
	env := newTestEnv(t)
	alice := env.seedUser(t, "alice")
	post := createPostWithImages(t, env, alice.ID, "a.png", "b.png")
	first, second := post.Medias[0].URL, post.Medias[1].URL

	resp := env.doMultipart(t, http.MethodPatch, fmt.Sprintf("/api/posts/%d", post.ID), alice.ID,
		map[string][]string{"op": {"insert_images"}, "positions": {"2"}},
		[]formFile{{field: "images", name: "new.png", content: pngContent}})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var edited postBody
	decodeEnvelope(t, resp, &edited)
	require.Len(t, edited.Medias, 3)
	assert.Equal(t, first, edited.Medias[0].URL)
	assert.NotEqual(t, first, edited.Medias[1].URL)
	assert.NotEqual(t, second, edited.Medias[1].URL)
	assert.Equal(t, second, edited.Medias[2].URL)
	for i, m := range edited.Medias {
		assert.Equal(t, i+1, m.Order)
	}
}

func TestEditPost_ContentAndStatus(t *testing.T) {
	env := newTestEnv(t)
	alice := env.seedUser(t, "alice")
	post := createPostWithImages(t, env, alice.ID, "a.png")
	path := fmt.Sprintf("/api/posts/%d", post.ID)

	resp := env.doMultipart(t, http.MethodPatch, path, alice.ID,
		map[string][]string{"op": {"content"}, "content": {"updated"}}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var edited postBody
	decodeEnvelope(t, resp, &edited)
	assert.Equal(t, "updated", edited.Content)

	resp = env.doMultipart(t, http.MethodPatch, path, alice.ID,
		map[string][]string{"op": {"status"}, "status": {"happy"}}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeEnvelope(t, resp, &edited)
	assert.Equal(t, "happy", edited.Status)
	assert.Equal(t, "updated", edited.Content)
}

func TestEditPost_RejectsMalformedOps(t *testing.T) {
	env := newTestEnv(t)
	alice := env.seedUser(t, "alice")
	bob := env.seedUser(t, "bob")
	post := createPostWithImages(t, env, alice.ID, "a.png")
	path := fmt.Sprintf("/api/posts/%d", post.ID)

	tests := []struct {
		name       string
		userID     uint
		values     map[string][]string
		wantStatus int
		wantDomain int
	}{
		{"missing op", alice.ID, map[string][]string{"content": {"x"}}, http.StatusBadRequest, models.CodeParamsValueInvalid},
		{"unknown op", alice.ID, map[string][]string{"op": {"rotate"}}, http.StatusBadRequest, models.CodeParamsValueInvalid},
		{"foreign field", alice.ID, map[string][]string{"op": {"content"}, "content": {"x"}, "positions": {"1"}}, http.StatusBadRequest, models.CodeParamsValueInvalid},
		{"bad media id", alice.ID, map[string][]string{"op": {"delete_media"}, "media_ids": {"x"}}, http.StatusBadRequest, models.CodeParamsValueInvalid},
		{"not the author", bob.ID, map[string][]string{"op": {"content"}, "content": {"x"}}, http.StatusForbidden, models.CodeNotAccess},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.doMultipart(t, http.MethodPatch, path, tt.userID, tt.values, nil)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantDomain, decodeError(t, resp).DomainCode)
		})
	}
}

func TestEditPost_DeleteMedia(t *testing.T) {
	env := newTestEnv(t)
	alice := env.seedUser(t, "alice")
	post := createPostWithImages(t, env, alice.ID, "a.png", "b.png", "c.png")

	ids := fmt.Sprintf("%d,%d", post.Medias[0].ID, post.Medias[2].ID)
	resp := env.doMultipart(t, http.MethodPatch, fmt.Sprintf("/api/posts/%d", post.ID), alice.ID,
		map[string][]string{"op": {"delete_media"}, "media_ids": {ids}}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var edited postBody
	decodeEnvelope(t, resp, &edited)
	require.Len(t, edited.Medias, 1)
	assert.Equal(t, post.Medias[1].URL, edited.Medias[0].URL)
	assert.Equal(t, 1, edited.Medias[0].Order)
}

func TestLikePost_Toggles(t *testing.T) {
	env := newTestEnv(t)
	alice := env.seedUser(t, "alice")
	bob := env.seedUser(t, "bob")
	post := createPostWithImages(t, env, alice.ID, "a.png")
	path := fmt.Sprintf("/api/posts/%d/like", post.ID)

	var res models.LikeResult
	body := decodeEnvelope(t, env.do(t, http.MethodPost, path, bob.ID, nil), &res)
	assert.True(t, body.Success)
	assert.Equal(t, "liked", body.Message)
	assert.Equal(t, models.LikeResult{Liked: true, NumLikes: 1}, res)

	var view postBody
	decodeEnvelope(t, env.do(t, http.MethodGet, fmt.Sprintf("/api/posts/%d", post.ID), bob.ID, nil), &view)
	assert.True(t, view.IsLiked)
	assert.Equal(t, 1, view.NumLikes)

	body = decodeEnvelope(t, env.do(t, http.MethodPost, path, bob.ID, nil), &res)
	assert.Equal(t, "unliked", body.Message)
	assert.Equal(t, models.LikeResult{Liked: false, NumLikes: 0}, res)
}

func TestGetUserPosts_Paginates(t *testing.T) {
	env := newTestEnv(t)
	alice := env.seedUser(t, "alice")
	for i := 0; i < 3; i++ {
		createPostWithImages(t, env, alice.ID, fmt.Sprintf("%d.png", i))
	}

	resp := env.do(t, http.MethodGet, fmt.Sprintf("/api/users/%d/posts?limit=2", alice.ID), alice.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var raw envelopeBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	var posts []postBody
	require.NoError(t, json.Unmarshal(raw.Data, &posts))
	require.Len(t, posts, 2)
	assert.Greater(t, posts[0].ID, posts[1].ID)
	assert.True(t, posts[0].CanEdit)

	missing := env.do(t, http.MethodGet, "/api/users/999/posts", alice.ID, nil)
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}
