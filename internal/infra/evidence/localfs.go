package evidence

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore keeps evidence images on the local filesystem. The returned
// URL is the service's own evidence route, so the review and detail screens
// can load the image back through the API.
type LocalStore struct {
	basePath string
}

func NewLocalStore(basePath string) (*LocalStore, error) {
	if basePath == "" {
		basePath = "./data/evidence"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create evidence dir: %w", err)
	}
	return &LocalStore{basePath: basePath}, nil
}

func (s *LocalStore) Put(_ context.Context, key string, data []byte, _ string) (string, error) {
	key = filepath.Base(key)
	path := filepath.Join(s.basePath, key)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write evidence file: %w", err)
	}
	return "/v1/evidence/" + key, nil
}

func (s *LocalStore) Open(_ context.Context, key string) (io.ReadCloser, string, error) {
	key = filepath.Base(key)
	f, err := os.Open(filepath.Join(s.basePath, key))
	if err != nil {
		return nil, "", fmt.Errorf("open evidence file: %w", err)
	}
	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(key)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return f, contentType, nil
}
