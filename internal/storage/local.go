package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var _ Store = (*LocalStore)(nil)

// LocalStore writes objects under root/<bucket>/<key> and serves them from publicURL.
type LocalStore struct {
	root      string
	publicURL string
}

// NewLocalStore creates root if needed. publicURL is the prefix the files are served under.
func NewLocalStore(root, publicURL string) (*LocalStore, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("storage: root directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("storage: ensure root directory: %w", err)
	}
	if strings.TrimSpace(publicURL) == "" {
		publicURL = "/files"
	}
	return &LocalStore{root: root, publicURL: publicURL}, nil
}

// Root is the directory served under the public URL.
func (s *LocalStore) Root() string {
	return s.root
}

func (s *LocalStore) Put(ctx context.Context, obj Object) (string, error) {
	if err := validateKey(obj.Bucket, obj.Key); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	full := s.path(obj.Bucket, obj.Key)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("storage: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("storage: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, obj.Body); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("storage: write %s/%s: %w", obj.Bucket, obj.Key, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("storage: close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		return "", fmt.Errorf("storage: publish %s/%s: %w", obj.Bucket, obj.Key, err)
	}

	return joinURL(s.publicURL, obj.Bucket, obj.Key), nil
}

func (s *LocalStore) Delete(_ context.Context, bucket, key string) error {
	if err := validateKey(bucket, key); err != nil {
		return err
	}
	if err := os.Remove(s.path(bucket, key)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("storage: delete %s/%s: %w", bucket, key, err)
	}
	return nil
}

func (s *LocalStore) path(bucket, key string) string {
	return filepath.Join(s.root, bucket, filepath.FromSlash(key))
}
