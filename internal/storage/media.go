package storage

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	_ "golang.org/x/image/webp" // Register WebP decoder
)

// MaxImageSize caps a single image upload.
const MaxImageSize = 4 << 20

// Kind is the broad class of an uploaded media file.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

var (
	ErrUnsupportedMedia = errors.New("unsupported media type")
	ErrMediaMismatch    = errors.New("media content type mismatch")
	ErrImageTooLarge    = fmt.Errorf("image exceeds %d bytes", MaxImageSize)
)

// MediaInfo describes the detected content of an upload.
type MediaInfo struct {
	Kind Kind
	MIME string
	Ext  string
}

type allowedType struct {
	kind Kind
	ext  string
}

var allowedMedia = map[string]allowedType{
	"image/jpeg": {KindImage, ".jpg"},
	"image/png":  {KindImage, ".png"},
	"image/gif":  {KindImage, ".gif"},
	"image/webp": {KindImage, ".webp"},
	"video/mp4":  {KindVideo, ".mp4"},
	"video/webm": {KindVideo, ".webm"},
}

var decodedFormats = map[string]string{
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
}

// Inspect sniffs the content of file and reports what it is. Images must
// decode and stay within MaxImageSize. A declared image/* or video/* part
// type must agree with the sniffed kind.
func Inspect(file *multipart.FileHeader) (MediaInfo, error) {
	if file == nil || file.Size == 0 {
		return MediaInfo{}, ErrEmptyFile
	}
	src, err := file.Open()
	if err != nil {
		return MediaInfo{}, fmt.Errorf("open upload: %w", err)
	}
	defer func() { _ = src.Close() }()

	head := make([]byte, 512)
	n, err := io.ReadFull(src, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return MediaInfo{}, fmt.Errorf("read upload: %w", err)
	}
	detected := normalizeContentType(http.DetectContentType(head[:n]))
	allowed, ok := allowedMedia[detected]
	if !ok {
		return MediaInfo{}, fmt.Errorf("%w: %s", ErrUnsupportedMedia, detected)
	}
	info := MediaInfo{Kind: allowed.kind, MIME: detected, Ext: allowed.ext}

	if declared := normalizeContentType(file.Header.Get("Content-Type")); declared != "" {
		for _, k := range []Kind{KindImage, KindVideo} {
			if strings.HasPrefix(declared, string(k)+"/") && k != info.Kind {
				return MediaInfo{}, ErrMediaMismatch
			}
		}
	}

	if info.Kind == KindImage {
		if file.Size > MaxImageSize {
			return MediaInfo{}, ErrImageTooLarge
		}
		if _, err := src.Seek(0, io.SeekStart); err != nil {
			return MediaInfo{}, fmt.Errorf("rewind upload: %w", err)
		}
		_, format, err := image.DecodeConfig(src)
		if err != nil {
			return MediaInfo{}, fmt.Errorf("%w: %v", ErrUnsupportedMedia, err)
		}
		if decodedFormats[format] != info.MIME {
			return MediaInfo{}, ErrMediaMismatch
		}
	}
	return info, nil
}

func normalizeContentType(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(mediaType)
}
