package service

import (
	"errors"
	"mime/multipart"

	"socialgraph/internal/models"
	"socialgraph/internal/storage"
)

// checkMedia rejects any file whose sniffed content is not of kind want.
// Nil entries are skipped.
func checkMedia(want storage.Kind, files ...*multipart.FileHeader) error {
	for _, f := range files {
		if f == nil {
			continue
		}
		info, err := storage.Inspect(f)
		switch {
		case errors.Is(err, storage.ErrImageTooLarge):
			return models.NewDomainValidationError("Images are limited to 4 MB", models.CodeFileTooBig)
		case errors.Is(err, storage.ErrEmptyFile):
			return models.NewDomainValidationError("Uploaded file is empty", models.CodeUploadFileFailed)
		case err != nil || info.Kind != want:
			return models.NewDomainValidationError(mediaKindMessage(want), models.CodeOnlyImagesOrVideos)
		}
	}
	return nil
}

func mediaKindMessage(want storage.Kind) string {
	if want == storage.KindVideo {
		return "Only MP4 or WebM videos are allowed here"
	}
	return "Only JPEG, PNG, GIF or WebP images are allowed here"
}
