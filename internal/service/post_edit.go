package service

import (
	"context"
	"mime/multipart"
	"sort"

	"socialgraph/internal/models"
	"socialgraph/internal/observability"
	"socialgraph/internal/storage"

	"go.opentelemetry.io/otel/attribute"
)

// Edit kinds, also accepted as the `op` form value.
const (
	EditKindContent      = "content"
	EditKindStatus       = "status"
	EditKindDeleteMedia  = "delete_media"
	EditKindInsertImages = "insert_images"
	EditKindAttachVideo  = "attach_video"
)

// EditOperation is exactly one post mutation.
type EditOperation interface {
	Kind() string
}

// ReplaceContent sets the post text.
type ReplaceContent struct {
	Content string
}

// SetStatus sets the post status line.
type SetStatus struct {
	Status string
}

// DeleteMedia removes the listed media. When Files is non-empty it is aligned
// 1:1 with MediaIDs and each file takes the place of the media it replaces.
type DeleteMedia struct {
	MediaIDs []uint
	Files    []*multipart.FileHeader
}

// InsertImages inserts Files[i] at 1-based position Positions[i].
type InsertImages struct {
	Positions []int
	Files     []*multipart.FileHeader
}

// AttachVideo sets the post's single video, replacing any existing one.
type AttachVideo struct {
	File *multipart.FileHeader
}

func (ReplaceContent) Kind() string { return EditKindContent }
func (SetStatus) Kind() string      { return EditKindStatus }
func (DeleteMedia) Kind() string    { return EditKindDeleteMedia }
func (InsertImages) Kind() string   { return EditKindInsertImages }
func (AttachVideo) Kind() string    { return EditKindAttachVideo }

func errMixedMedia() error {
	return models.NewDomainValidationError("A post can carry images or a video, not both", models.CodeOnlyImagesOrVideos)
}

func errTooManyImages() error {
	return models.NewDomainValidationError("A post can carry at most 4 images", models.CodeMaxNumberImages)
}

// Edit applies op to the post after an EDIT permission check and returns the
// updated projection.
func (s *PostService) Edit(ctx context.Context, userID, postID uint, op EditOperation) (view *models.PostView, err error) {
	if op == nil {
		return nil, models.NewValidationError("Exactly one edit operation is required")
	}
	kind := op.Kind()
	ctx, span := observability.StartSpan(ctx, "post", "edit",
		attribute.Int64("user_id", int64(userID)), attribute.Int64("post_id", int64(postID)),
		attribute.String("kind", kind))
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "rejected"
			if models.StatusFor(err) >= 500 {
				outcome = "error"
			}
		}
		observability.PostEdits.WithLabelValues(kind, outcome).Inc()
		observability.EndSpan(span, err)
	}()

	post, err := s.CheckUserPermission(ctx, userID, postID, models.PermissionEdit)
	if err != nil {
		return nil, err
	}

	switch o := op.(type) {
	case ReplaceContent:
		err = s.replaceContent(ctx, post, o)
	case SetStatus:
		err = s.setStatus(ctx, post, o)
	case DeleteMedia:
		err = s.deleteMedia(ctx, post, o)
	case InsertImages:
		err = s.insertImages(ctx, post, o)
	case AttachVideo:
		err = s.attachVideo(ctx, post, o)
	default:
		err = models.NewValidationError("Unknown edit operation")
	}
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, userID, postID)
}

func (s *PostService) replaceContent(ctx context.Context, post *models.Post, o ReplaceContent) error {
	if len(o.Content) > maxContentLen {
		return models.NewValidationError("Content too long (max 50000 characters)")
	}
	return s.postRepo.UpdateFields(ctx, post.ID, map[string]any{"content": o.Content})
}

func (s *PostService) setStatus(ctx context.Context, post *models.Post, o SetStatus) error {
	if len(o.Status) > maxStatusLen {
		return models.NewValidationError("Status too long (max 100 characters)")
	}
	return s.postRepo.UpdateFields(ctx, post.ID, map[string]any{"status": o.Status})
}

func (s *PostService) deleteMedia(ctx context.Context, post *models.Post, o DeleteMedia) error {
	if len(o.MediaIDs) == 0 {
		return models.NewValidationError("No media selected for deletion")
	}
	if len(o.Files) > 0 && len(o.Files) != len(o.MediaIDs) {
		return models.NewValidationError("Replacement files must match the deleted media")
	}

	// index in MediaIDs for every media being removed
	slot := make(map[uint]int, len(o.MediaIDs))
	for i, id := range o.MediaIDs {
		if _, dup := slot[id]; dup {
			return models.NewValidationError("Duplicate media id")
		}
		slot[id] = i
	}
	for _, m := range post.Medias {
		delete(slot, m.ID)
	}
	if len(slot) > 0 {
		return models.NewValidationError("Media does not belong to this post")
	}
	for i, id := range o.MediaIDs {
		slot[id] = i
	}
	if len(o.Files) > 0 {
		for _, m := range post.Medias {
			i, removed := slot[m.ID]
			if !removed {
				continue
			}
			want := storage.KindImage
			if m.Type == models.MediaTypeVideo {
				want = storage.KindVideo
			}
			if err := checkMedia(want, o.Files[i]); err != nil {
				return err
			}
		}
	}

	next := make([]models.Media, 0, len(post.Medias))
	for _, m := range post.Medias {
		i, removed := slot[m.ID]
		if !removed {
			next = append(next, m)
			continue
		}
		if len(o.Files) == 0 {
			continue
		}
		prefix := models.PostImagePath
		if m.Type == models.MediaTypeVideo {
			prefix = models.PostVideoPath
		}
		if url := s.upload(ctx, o.Files[i], prefix); url != "" {
			next = append(next, models.Media{URL: url, Type: m.Type})
		}
	}
	return s.postRepo.ReplaceMedias(ctx, post.ID, next)
}

func (s *PostService) insertImages(ctx context.Context, post *models.Post, o InsertImages) error {
	if len(o.Files) == 0 {
		return models.NewValidationError("No images uploaded")
	}
	if len(o.Positions) != len(o.Files) {
		return models.NewValidationError("Image positions must match the uploaded files")
	}
	if post.CountMedia(models.MediaTypeVideo) > 0 {
		return errMixedMedia()
	}
	images := post.CountMedia(models.MediaTypeImage)
	if images+len(o.Files) > models.MaxPostImages {
		return errTooManyImages()
	}

	type insert struct {
		pos  int
		file *multipart.FileHeader
	}
	inserts := make([]insert, len(o.Files))
	for i := range o.Files {
		inserts[i] = insert{pos: o.Positions[i], file: o.Files[i]}
	}
	sort.SliceStable(inserts, func(i, j int) bool { return inserts[i].pos < inserts[j].pos })
	for i, in := range inserts {
		// positions refer to the list after earlier inserts were applied
		if in.pos < 1 || in.pos > images+i+1 {
			return models.NewValidationError("Image position out of range")
		}
	}
	if err := checkMedia(storage.KindImage, o.Files...); err != nil {
		return err
	}

	next := append([]models.Media(nil), post.Medias...)
	for _, in := range inserts {
		url := s.upload(ctx, in.file, models.PostImagePath)
		if url == "" {
			continue
		}
		at := in.pos - 1
		if at > len(next) {
			at = len(next)
		}
		next = append(next, models.Media{})
		copy(next[at+1:], next[at:])
		next[at] = models.Media{URL: url, Type: models.MediaTypeImage}
	}
	return s.postRepo.ReplaceMedias(ctx, post.ID, next)
}

func (s *PostService) attachVideo(ctx context.Context, post *models.Post, o AttachVideo) error {
	if o.File == nil {
		return models.NewValidationError("No video uploaded")
	}
	if post.CountMedia(models.MediaTypeImage) > 0 {
		return errMixedMedia()
	}
	if err := checkMedia(storage.KindVideo, o.File); err != nil {
		return err
	}
	url := s.upload(ctx, o.File, models.PostVideoPath)
	if url == "" {
		return nil
	}
	return s.postRepo.ReplaceMedias(ctx, post.ID, []models.Media{{URL: url, Type: models.MediaTypeVideo}})
}
