package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/go-contacts-api/internal/config"
	"github.com/redmonkez12/go-contacts-api/internal/logging"
)

// fakeS3 accepts path-style PutObject, HeadBucket and CreateBucket calls.
type fakeS3 struct {
	mu      sync.Mutex
	buckets map[string]bool
	objects map[string][]byte
	types   map[string]string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{buckets: map[string]bool{}, objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/")
	bucket, key, _ := strings.Cut(path, "/")

	switch {
	case r.Method == http.MethodHead && key == "":
		if !f.buckets[bucket] {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodPut && key == "":
		f.buckets[bucket] = true
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.objects[path] = body
		f.types[path] = r.Header.Get("Content-Type")
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestUploader(t *testing.T, srv *httptest.Server, publicURL string) *S3Uploader {
	t.Helper()
	u, err := NewS3Uploader(context.Background(), config.StorageConfig{
		Endpoint:        srv.URL,
		Region:          "us-east-1",
		Bucket:          "avatars",
		AccessKeyID:     "minio",
		SecretAccessKey: "minio-secret",
		UsePathStyle:    true,
		PublicURL:       publicURL,
	}, logging.Discard())
	require.NoError(t, err)
	return u
}

func TestS3Uploader_Upload(t *testing.T) {
	fake := newFakeS3()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	u := newTestUploader(t, srv, "https://cdn.example.com/avatars/")

	url, err := u.Upload(context.Background(), strings.NewReader("png-bytes"), "avatars/123", "image/png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/avatars/avatars/123", url)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Equal(t, []byte("png-bytes"), fake.objects["avatars/avatars/123"])
	assert.Equal(t, "image/png", fake.types["avatars/avatars/123"])
}

func TestS3Uploader_DefaultPublicURL(t *testing.T) {
	srv := httptest.NewServer(newFakeS3())
	t.Cleanup(srv.Close)

	u := newTestUploader(t, srv, "")

	url, err := u.Upload(context.Background(), strings.NewReader("x"), "k", "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/avatars/k", url)
}

func TestS3Uploader_EnsureBucket(t *testing.T) {
	fake := newFakeS3()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	u := newTestUploader(t, srv, "")

	require.NoError(t, u.EnsureBucket(context.Background()))
	fake.mu.Lock()
	assert.True(t, fake.buckets["avatars"])
	fake.mu.Unlock()

	// second call finds the bucket
	require.NoError(t, u.EnsureBucket(context.Background()))
}

func TestNewS3Uploader_RequiresCredentials(t *testing.T) {
	_, err := NewS3Uploader(context.Background(), config.StorageConfig{Endpoint: "http://localhost:9000"}, logging.Discard())
	assert.Error(t, err)
}
