package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

const MaxImageBytes = 5 << 20

var (
	ErrUnsupportedImage = errors.New("storage: unsupported image type")
	ErrImageTooLarge    = errors.New("storage: image exceeds 5 MiB")
)

var imageExts = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ImageStore persists listing photos and returns the URL they are served at.
type ImageStore interface {
	Save(ctx context.Context, contentType string, r io.Reader) (url string, err error)
}

// objectName returns a fresh object key for contentType.
func objectName(contentType string) (string, error) {
	ext, ok := imageExts[strings.ToLower(strings.TrimSpace(contentType))]
	if !ok {
		return "", ErrUnsupportedImage
	}
	return path.Join("listings", uuid.NewString()+ext), nil
}

// limited copies r into w, failing once more than MaxImageBytes were read.
func limited(w io.Writer, r io.Reader) error {
	n, err := io.Copy(w, io.LimitReader(r, MaxImageBytes+1))
	if err != nil {
		return err
	}
	if n > MaxImageBytes {
		return ErrImageTooLarge
	}
	return nil
}
