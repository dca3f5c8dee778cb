// internal/storage/storage.go
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var ErrInvalidKey = errors.New("invalid storage key")

// Storage puts objects somewhere the processing pipeline can fetch them and
// returns their URL. main.go picks the implementation from STORAGE_TYPE.
type Storage interface {
	Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
}

// AssetKey names an uploaded file by a fresh UUID under prefix, keeping only the
// extension of the client's filename.
func AssetKey(prefix, filename string) (key, refID string) {
	refID = uuid.New().String()
	return path.Join(prefix, refID+strings.ToLower(filepath.Ext(filename))), refID
}

func cleanKey(key string) (string, error) {
	k := path.Clean("/" + key)[1:]
	if k == "" || k != key {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return k, nil
}

// LocalStorage writes objects under a directory served at BaseURL/uploads/.
type LocalStorage struct {
	UploadDir string
	BaseURL   string // e.g. "http://localhost:8083"
}

func NewLocalStorage(uploadDir, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStorage{UploadDir: uploadDir, BaseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *LocalStorage) Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	key, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	filePath := filepath.Join(s.UploadDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	dst, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := io.Copy(dst, body); err != nil {
		dst.Close()
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return fmt.Sprintf("%s/uploads/%s", s.BaseURL, key), nil
}
