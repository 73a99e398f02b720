// Package media stores uploaded product and banner images.
package media

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/ronak-creation/storefront/internal/platform/httpx"
)

// Folders used for uploads.
const (
	FolderProducts = "products"
	FolderBanners  = "banners"
)

// DefaultMaxBytes bounds a single upload when no limit is configured.
const DefaultMaxBytes int64 = 5 << 20

// Asset is a stored image.
type Asset struct {
	URL      string
	PublicID string
}

// Store persists images and deletes them by public id.
type Store interface {
	Upload(ctx context.Context, r io.Reader, filename, folder string) (Asset, error)
	Delete(ctx context.Context, publicID string) error
}

// UploadError rejects a file before it reaches the store.
type UploadError struct {
	Message string
}

func (e *UploadError) Error() string {
	return "image: " + e.Message
}

// Unwrap lets handlers map the error to a 400.
func (e *UploadError) Unwrap() error {
	return httpx.ErrValidation
}

var allowedExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

var allowedTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// Validate checks size, extension and the sniffed content type of an upload
// and rewinds file so it can be read again.
func Validate(file multipart.File, header *multipart.FileHeader, maxBytes int64) error {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if header.Size > maxBytes {
		return &UploadError{Message: fmt.Sprintf("file too large (max %d MB)", maxBytes>>20)}
	}
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedExts[ext] {
		return &UploadError{Message: "only jpg, jpeg, png, gif and webp are allowed"}
	}
	mt, err := mimetype.DetectReader(file)
	if err != nil {
		return fmt.Errorf("sniff upload: %w", err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind upload: %w", err)
	}
	if !mimetype.EqualsAny(mt.String(), allowedTypes...) {
		return &UploadError{Message: "content is " + mt.String() + ", not an image"}
	}
	return nil
}

// baseName turns an uploaded file name into a safe public id fragment.
func baseName(filename string) string {
	name := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ' || r == '.':
			return '_'
		}
		return -1
	}, name)
	if name == "" {
		name = "image"
	}
	return name
}
