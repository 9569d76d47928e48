package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	BucketAvatars      = "avatars"
	BucketPublications = "publications"
)

var (
	ErrInvalidKey = errors.New("storage: invalid object key")
	ErrNotFound   = errors.New("storage: object not found")
)

// Object describes an upload.
type Object struct {
	Bucket      string
	Key         string
	Body        io.Reader
	Size        int64
	ContentType string
}

// Store persists uploaded files and returns a public URL for them.
type Store interface {
	Put(ctx context.Context, obj Object) (string, error)
	Delete(ctx context.Context, bucket, key string) error
}

// ObjectKey builds "<owner>/<unixnano>-<uuid><ext>" for a new upload.
func ObjectKey(owner, filename string, now time.Time) string {
	ext := strings.ToLower(path.Ext(strings.TrimSpace(filename)))
	if len(ext) > 10 || strings.ContainsAny(ext, `/\`) {
		ext = ""
	}
	return fmt.Sprintf("%s/%d-%s%s", sanitizeSegment(owner), now.UnixNano(), uuid.NewString(), ext)
}

// validateKey rejects empty keys and any path traversal.
func validateKey(bucket, key string) error {
	if sanitizeSegment(bucket) != bucket || bucket == "" {
		return fmt.Errorf("%w: bucket %q", ErrInvalidKey, bucket)
	}
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	return nil
}

func sanitizeSegment(s string) string {
	s = strings.TrimSpace(s)
	out := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_':
			return r
		default:
			return '-'
		}
	}, s)
	return strings.Trim(out, "-")
}

func joinURL(base string, parts ...string) string {
	return strings.TrimRight(base, "/") + "/" + strings.Join(parts, "/")
}
