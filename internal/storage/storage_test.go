package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/require"
)

func TestObjectKeyShape(t *testing.T) {
	now := time.Unix(0, 1700000000000000000)
	key := ObjectKey("user-1", "Paper Final.PDF", now)

	require.True(t, strings.HasPrefix(key, "user-1/1700000000000000000-"), key)
	require.True(t, strings.HasSuffix(key, ".pdf"), key)
	require.NoError(t, validateKey(BucketPublications, key))

	require.False(t, strings.Contains(ObjectKey("../evil", "x", now), ".."))
}

func TestValidateKeyRejectsTraversal(t *testing.T) {
	for _, key := range []string{"", "/abs", "a/../b", "a//b", `a\b`} {
		require.ErrorIs(t, validateKey(BucketAvatars, key), ErrInvalidKey, key)
	}
	require.ErrorIs(t, validateKey("../x", "a"), ErrInvalidKey)
}

func TestLocalStorePutAndDelete(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalStore(root, "http://localhost:8000/files")
	require.NoError(t, err)
	ctx := context.Background()

	url, err := store.Put(ctx, Object{Bucket: BucketAvatars, Key: "u1/a.png", Body: strings.NewReader("png")})
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8000/files/avatars/u1/a.png", url)

	data, err := os.ReadFile(filepath.Join(root, "avatars", "u1", "a.png"))
	require.NoError(t, err)
	require.Equal(t, "png", string(data))

	require.NoError(t, store.Delete(ctx, BucketAvatars, "u1/a.png"))
	require.ErrorIs(t, store.Delete(ctx, BucketAvatars, "u1/a.png"), ErrNotFound)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("client went away") }

func TestLocalStoreLeavesNoPartialFile(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalStore(root, "")
	require.NoError(t, err)

	_, err = store.Put(context.Background(), Object{Bucket: BucketAvatars, Key: "u1/b.png", Body: failingReader{}})
	require.Error(t, err)

	entries, err := os.ReadDir(filepath.Join(root, "avatars", "u1"))
	require.NoError(t, err)
	require.Empty(t, entries)
}

type fakeS3 struct {
	puts    []*s3.PutObjectInput
	deletes []*s3.DeleteObjectInput
	err     error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.puts = append(f.puts, in)
	return &s3.PutObjectOutput{}, f.err
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deletes = append(f.deletes, in)
	return &s3.DeleteObjectOutput{}, f.err
}

func TestS3StorePrefixesLogicalBucket(t *testing.T) {
	client := &fakeS3{}
	store := newS3Store(client, S3Settings{Bucket: "codonyx-media"}, "eu-west-1")
	ctx := context.Background()

	url, err := store.Put(ctx, Object{Bucket: BucketPublications, Key: "u1/p.pdf", Body: strings.NewReader("x"), ContentType: "application/pdf", Size: 1})
	require.NoError(t, err)
	require.Equal(t, "https://codonyx-media.s3.eu-west-1.amazonaws.com/publications/u1/p.pdf", url)
	require.Len(t, client.puts, 1)
	require.Equal(t, "codonyx-media", aws.ToString(client.puts[0].Bucket))
	require.Equal(t, "publications/u1/p.pdf", aws.ToString(client.puts[0].Key))
	require.Equal(t, "application/pdf", aws.ToString(client.puts[0].ContentType))

	require.NoError(t, store.Delete(ctx, BucketPublications, "u1/p.pdf"))
	require.Equal(t, "publications/u1/p.pdf", aws.ToString(client.deletes[0].Key))

	client.err = errors.New("denied")
	_, err = store.Put(ctx, Object{Bucket: BucketAvatars, Key: "u1/a.png", Body: strings.NewReader("x")})
	require.ErrorContains(t, err, "denied")
}

func TestS3StoreUsesPublicURLOverride(t *testing.T) {
	store := newS3Store(&fakeS3{}, S3Settings{Bucket: "b", PublicURL: "https://cdn.example.com/"}, "")
	url, err := store.Put(context.Background(), Object{Bucket: BucketAvatars, Key: "u/a.png", Body: strings.NewReader("x")})
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example.com/avatars/u/a.png", url)
}
