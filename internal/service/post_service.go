package service

import (
	"context"
	"mime/multipart"
	"strings"

	"socialgraph/internal/models"
	"socialgraph/internal/observability"
	"socialgraph/internal/repository"
	"socialgraph/internal/storage"

	"go.opentelemetry.io/otel/attribute"
)

const (
	maxContentLen = 50000
	maxStatusLen  = 100
)

// BlockChecker answers whether userID has checkUserID blocked.
type BlockChecker interface {
	CheckIsBlock(ctx context.Context, checkUserID, userID uint) (bool, error)
}

// PostService owns post permissions, derived viewer fields, likes and edits.
type PostService struct {
	postRepo repository.PostRepository
	userRepo repository.UserRepository
	blocks   BlockChecker
	store    storage.Storage
}

type CreatePostInput struct {
	AuthorID uint
	Content  string
	Status   string
	Images   []*multipart.FileHeader
	Video    *multipart.FileHeader
}

func NewPostService(
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	blocks BlockChecker,
	store storage.Storage,
) *PostService {
	return &PostService{
		postRepo: postRepo,
		userRepo: userRepo,
		blocks:   blocks,
		store:    store,
	}
}

// CheckUserPermission loads the post and verifies userID may perform perm on
// it. EDIT and DELETE are both author-only.
func (s *PostService) CheckUserPermission(ctx context.Context, userID, postID uint, perm models.PostPermission) (*models.Post, error) {
	if perm != models.PermissionEdit && perm != models.PermissionDelete {
		return nil, models.NewValidationError("Unknown permission")
	}
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != userID {
		return nil, models.NewForbiddenError("User has no permission")
	}
	return post, nil
}

// GetMorePostInfo derives the viewer-dependent fields for post.
func (s *PostService) GetMorePostInfo(ctx context.Context, post *models.Post, viewerID uint) (models.PostInfo, error) {
	info := models.PostInfo{
		CanEdit:    post.AuthorID == viewerID || !post.IsBanned,
		Banned:     post.IsBanned,
		CanComment: !post.IsBlockComment,
	}
	if viewerID == 0 {
		return info, nil
	}

	liked, err := s.postRepo.IsLiked(ctx, viewerID, post.ID)
	if err != nil {
		return info, err
	}
	info.IsLiked = liked

	if s.blocks != nil && viewerID != post.AuthorID {
		blocked, err := s.blocks.CheckIsBlock(ctx, viewerID, post.AuthorID)
		if err != nil {
			return info, err
		}
		info.IsBlocked = blocked
	}
	return info, nil
}

func (s *PostService) view(ctx context.Context, post *models.Post, viewerID uint) (*models.PostView, error) {
	info, err := s.GetMorePostInfo(ctx, post, viewerID)
	if err != nil {
		return nil, err
	}
	return &models.PostView{Post: post, PostInfo: info}, nil
}

// LikePost toggles viewer's like on the post.
func (s *PostService) LikePost(ctx context.Context, userID, postID uint) (env models.Envelope, err error) {
	ctx, span := observability.StartSpan(ctx, "post", "like",
		attribute.Int64("user_id", int64(userID)), attribute.Int64("post_id", int64(postID)))
	defer func() { observability.EndSpan(span, err) }()

	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		return models.Envelope{}, err
	}
	res, err := s.postRepo.ToggleLike(ctx, userID, postID)
	if err != nil {
		return models.Envelope{}, err
	}

	msg := "unliked"
	if res.Liked {
		msg = "liked"
	}
	observability.LikeToggles.WithLabelValues(msg).Inc()
	return models.Succeeded(msg, res), nil
}

// Create stores a post with either images or one video.
func (s *PostService) Create(ctx context.Context, in CreatePostInput) (*models.PostView, error) {
	if len(in.Content) > maxContentLen {
		return nil, models.NewValidationError("Content too long (max 50000 characters)")
	}
	if len(in.Status) > maxStatusLen {
		return nil, models.NewValidationError("Status too long (max 100 characters)")
	}
	if len(in.Images) > 0 && in.Video != nil {
		return nil, models.NewDomainValidationError("A post can carry images or a video, not both", models.CodeOnlyImagesOrVideos)
	}
	if len(in.Images) > models.MaxPostImages {
		return nil, models.NewDomainValidationError("A post can carry at most 4 images", models.CodeMaxNumberImages)
	}
	if strings.TrimSpace(in.Content) == "" && len(in.Images) == 0 && in.Video == nil {
		return nil, models.NewValidationError("Content or media is required")
	}
	if err := checkMedia(storage.KindImage, in.Images...); err != nil {
		return nil, err
	}
	if err := checkMedia(storage.KindVideo, in.Video); err != nil {
		return nil, err
	}

	var medias []models.Media
	for _, url := range s.uploadAll(ctx, in.Images, models.PostImagePath) {
		if url != "" {
			medias = append(medias, models.Media{URL: url, Type: models.MediaTypeImage, Order: len(medias) + 1})
		}
	}
	if in.Video != nil {
		if url := s.upload(ctx, in.Video, models.PostVideoPath); url != "" {
			medias = append(medias, models.Media{URL: url, Type: models.MediaTypeVideo, Order: 1})
		}
	}

	post := &models.Post{
		AuthorID: in.AuthorID,
		Content:  in.Content,
		Status:   in.Status,
		Medias:   medias,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, in.AuthorID, post.ID)
}

// GetByID returns the post projection with viewer fields.
func (s *PostService) GetByID(ctx context.Context, viewerID, postID uint) (*models.PostView, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, post, viewerID)
}

// ListByAuthor pages through authorID's posts, newest first.
func (s *PostService) ListByAuthor(ctx context.Context, viewerID, authorID uint, limit, offset int) ([]*models.PostView, error) {
	if _, err := s.userRepo.GetByID(ctx, authorID); err != nil {
		return nil, err
	}
	posts, err := s.postRepo.ListByAuthor(ctx, authorID, limit, offset)
	if err != nil {
		return nil, err
	}
	views := make([]*models.PostView, 0, len(posts))
	for _, p := range posts {
		v, err := s.view(ctx, p, viewerID)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

// Delete removes the post after a DELETE permission check.
func (s *PostService) Delete(ctx context.Context, userID, postID uint) error {
	if _, err := s.CheckUserPermission(ctx, userID, postID, models.PermissionDelete); err != nil {
		return err
	}
	return s.postRepo.Delete(ctx, postID)
}

// upload stores one file. Failures are logged and yield "".
func (s *PostService) upload(ctx context.Context, file *multipart.FileHeader, prefix string) string {
	if s.store == nil || file == nil {
		return ""
	}
	url, err := s.store.UploadFile(ctx, file, prefix)
	if err != nil {
		observability.UploadFailures.WithLabelValues(prefix).Inc()
		observability.LogBestEffortFailure(ctx, "storage.upload", err,
			"prefix", prefix, "filename", file.Filename)
		return ""
	}
	return url
}

// uploadAll returns one URL per file, "" where the upload failed.
func (s *PostService) uploadAll(ctx context.Context, files []*multipart.FileHeader, prefix string) []string {
	urls := make([]string, len(files))
	for i, f := range files {
		urls[i] = s.upload(ctx, f, prefix)
	}
	return urls
}
