// Package storage persists uploaded media and returns public URLs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrEmptyFile is returned for zero-byte uploads.
var ErrEmptyFile = errors.New("empty file")

// Storage uploads a file under prefix and returns its public URL.
type Storage interface {
	UploadFile(ctx context.Context, file *multipart.FileHeader, prefix string) (string, error)
}

// Local writes uploads to a directory on disk.
type Local struct {
	root    string
	baseURL string
	maxSize int64
}

// NewLocal returns a disk-backed Storage rooted at root. URLs are built as
// baseURL/prefix/name. maxSize <= 0 disables the size check.
func NewLocal(root, baseURL string, maxSize int64) *Local {
	return &Local{
		root:    root,
		baseURL: strings.TrimRight(baseURL, "/"),
		maxSize: maxSize,
	}
}

// UploadFile copies file to <root>/<prefix>/<uuid><ext>. The extension
// comes from the sniffed content, never from the client file name.
func (l *Local) UploadFile(ctx context.Context, file *multipart.FileHeader, prefix string) (string, error) {
	if file == nil || file.Size == 0 {
		return "", ErrEmptyFile
	}
	if l.maxSize > 0 && file.Size > l.maxSize {
		return "", fmt.Errorf("file %q exceeds %d bytes", file.Filename, l.maxSize)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	info, err := Inspect(file)
	if err != nil {
		return "", err
	}

	prefix = strings.Trim(path.Clean("/"+prefix), "/")
	name := uuid.NewString() + info.Ext
	dir := filepath.Join(l.root, filepath.FromSlash(prefix))
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer func() { _ = src.Close() }()

	dst, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o600)
	if err != nil {
		return "", fmt.Errorf("create object: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(dst.Name())
		return "", fmt.Errorf("write object: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("close object: %w", err)
	}

	return l.baseURL + "/" + prefix + "/" + name, nil
}
