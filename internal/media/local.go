package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// LocalPrefix marks public ids issued by LocalStore.
const LocalPrefix = "local:"

// LocalStore keeps images on disk and serves them below a URL prefix.
type LocalStore struct {
	dir     string
	baseURL string
}

// NewLocalStore returns a store writing under dir. baseURL is the path the
// directory is served from, e.g. "/uploads".
func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if dir == "" {
		return nil, errors.New("upload dir not configured")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// Dir returns the directory served for uploads.
func (s *LocalStore) Dir() string {
	return s.dir
}

// Upload implements Store.
func (s *LocalStore) Upload(ctx context.Context, r io.Reader, filename, folder string) (Asset, error) {
	if err := ctx.Err(); err != nil {
		return Asset{}, err
	}
	folder = baseName(folder)
	if err := os.MkdirAll(filepath.Join(s.dir, folder), 0o755); err != nil {
		return Asset{}, fmt.Errorf("create folder: %w", err)
	}
	name := fmt.Sprintf("%d_%s%s", time.Now().UnixNano(), baseName(filename), strings.ToLower(filepath.Ext(filename)))
	rel := path.Join(folder, name)

	f, err := os.OpenFile(filepath.Join(s.dir, filepath.FromSlash(rel)), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return Asset{}, fmt.Errorf("create file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return Asset{}, fmt.Errorf("write file: %w", err)
	}
	if err := f.Close(); err != nil {
		return Asset{}, fmt.Errorf("close file: %w", err)
	}
	return Asset{URL: s.baseURL + "/" + rel, PublicID: LocalPrefix + rel}, nil
}

// Delete implements Store. Unknown ids and missing files are ignored.
func (s *LocalStore) Delete(ctx context.Context, publicID string) error {
	rel, ok := strings.CutPrefix(publicID, LocalPrefix)
	if !ok || rel == "" {
		return nil
	}
	clean := path.Clean("/" + rel)[1:]
	if clean == "" || clean != rel {
		return fmt.Errorf("delete file: invalid id %q", publicID)
	}
	err := os.Remove(filepath.Join(s.dir, filepath.FromSlash(clean)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}
