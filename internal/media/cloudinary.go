package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// CloudinaryStore uploads images to Cloudinary.
type CloudinaryStore struct {
	cld *cloudinary.Cloudinary
}

// NewCloudinaryStore configures a store from a cloudinary:// URL.
func NewCloudinaryStore(rawURL string) (*CloudinaryStore, error) {
	if rawURL == "" {
		return nil, errors.New("cloudinary url not configured")
	}
	cld, err := cloudinary.NewFromURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("init cloudinary: %w", err)
	}
	return &CloudinaryStore{cld: cld}, nil
}

// Upload implements Store.
func (s *CloudinaryStore) Upload(ctx context.Context, r io.Reader, filename, folder string) (Asset, error) {
	publicID := fmt.Sprintf("%d_%s", time.Now().UnixNano(), baseName(filename))
	res, err := s.cld.Upload.Upload(ctx, r, uploader.UploadParams{
		PublicID:       publicID,
		Folder:         folder,
		ResourceType:   "image",
		Transformation: "q_auto,f_auto",
	})
	if err != nil {
		return Asset{}, fmt.Errorf("upload to cloudinary: %w", err)
	}
	if res == nil {
		return Asset{}, errors.New("upload to cloudinary: empty response")
	}
	if res.Error.Message != "" {
		return Asset{}, fmt.Errorf("upload to cloudinary: %s", res.Error.Message)
	}
	url := res.SecureURL
	if url == "" {
		url = res.URL
	}
	return Asset{URL: url, PublicID: res.PublicID}, nil
}

// Delete implements Store. Missing assets are not an error.
func (s *CloudinaryStore) Delete(ctx context.Context, publicID string) error {
	if publicID == "" {
		return nil
	}
	res, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: "image",
	})
	if err != nil {
		return fmt.Errorf("delete from cloudinary: %w", err)
	}
	if res != nil && res.Result != "ok" && res.Result != "not found" {
		return fmt.Errorf("delete from cloudinary: %s", res.Result)
	}
	return nil
}
