package blob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DiskStore writes objects under a media directory served by the HTTP server
// at {baseURL}/media/{key}.
type DiskStore struct {
	dir     string
	baseURL string
}

// NewDiskStore creates the media directory if needed.
func NewDiskStore(dir, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("blob: creating media dir: %w", err)
	}
	return &DiskStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Put stores the object and returns its public URL. Keys are cleaned so a
// hostile key cannot escape the media directory.
func (d *DiskStore) Put(_ context.Context, key string, data []byte, _ string) (string, error) {
	clean := filepath.ToSlash(filepath.Clean("/" + key))[1:]
	path := filepath.Join(d.dir, filepath.FromSlash(clean))

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("blob: creating object dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("blob: writing object: %w", err)
	}

	return d.baseURL + "/media/" + clean, nil
}

// Dir exposes the root so the server can mount a file route over it.
func (d *DiskStore) Dir() string {
	return d.dir
}
