package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/halo-extras/backend/internal/infrastructure/config"
)

func TestNewS3ObjectStorage_Validation(t *testing.T) {
	t.Run("nil config returns error", func(t *testing.T) {
		_, err := NewS3ObjectStorage(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "configuration is required")
	})

	t.Run("missing bucket returns error", func(t *testing.T) {
		_, err := NewS3ObjectStorage(&config.StorageConfig{AccessKey: "k", SecretKey: "s"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket is required")
	})

	t.Run("missing access key returns error", func(t *testing.T) {
		_, err := NewS3ObjectStorage(&config.StorageConfig{Bucket: "b", SecretKey: "s"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "access key is required")
	})

	t.Run("missing secret key returns error", func(t *testing.T) {
		_, err := NewS3ObjectStorage(&config.StorageConfig{Bucket: "b", AccessKey: "k"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "secret key is required")
	})

	t.Run("valid config applies defaults", func(t *testing.T) {
		s, err := NewS3ObjectStorage(&config.StorageConfig{
			Bucket:    "footprints",
			AccessKey: "k",
			SecretKey: "s",
			Endpoint:  "minio:9000",
		})
		require.NoError(t, err)
		assert.Equal(t, "footprints", s.GetBucket())
		assert.Equal(t, "http://minio:9000", s.endpoint)
	})
}

func TestNormalizeEndpoint(t *testing.T) {
	assert.Equal(t, "http://localhost:9000", normalizeEndpoint("", false))
	assert.Equal(t, "https://s3.example.com", normalizeEndpoint("s3.example.com", true))
	assert.Equal(t, "http://s3.example.com", normalizeEndpoint("http://s3.example.com/", true))
}

func TestS3ObjectStorageOptions(t *testing.T) {
	logger := zaptest.NewLogger(t)
	s, err := NewS3ObjectStorage(&config.StorageConfig{Bucket: "b", AccessKey: "k", SecretKey: "s"},
		WithLogger(logger))
	require.NoError(t, err)
	assert.Same(t, logger, s.logger)
}

func TestS3ObjectStorage_ObjectURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.StorageConfig
		want string
	}{
		{
			name: "public url wins",
			cfg:  config.StorageConfig{PublicURL: "https://cdn.example.com/", UsePathStyle: true},
			want: "https://cdn.example.com/footprints/a.png",
		},
		{
			name: "path style",
			cfg:  config.StorageConfig{Endpoint: "http://localhost:9000", UsePathStyle: true},
			want: "http://localhost:9000/images/footprints/a.png",
		},
		{
			name: "virtual host style",
			cfg:  config.StorageConfig{Endpoint: "https://s3.amazonaws.com"},
			want: "https://images.s3.amazonaws.com/footprints/a.png",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			cfg.Bucket = "images"
			cfg.AccessKey = "k"
			cfg.SecretKey = "s"
			s, err := NewS3ObjectStorage(&cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.ObjectURL("footprints/a.png"))
		})
	}
}

func TestS3ObjectStorage_EmptyKey(t *testing.T) {
	s, err := NewS3ObjectStorage(&config.StorageConfig{Bucket: "b", AccessKey: "k", SecretKey: "s"})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = s.Upload(ctx, "", []byte("x"), "image/png")
	assert.ErrorIs(t, err, ErrStorageKeyRequired)
	assert.ErrorIs(t, s.Delete(ctx, ""), ErrStorageKeyRequired)
	_, err = s.ObjectExists(ctx, "")
	assert.ErrorIs(t, err, ErrStorageKeyRequired)
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound(&types.NotFound{}))
	assert.True(t, isNotFound(fmt.Errorf("wrapped: %w", &types.NoSuchKey{})))
	assert.True(t, isNotFound(errors.New("api error NotFound: Not Found")))
	assert.False(t, isNotFound(errors.New("connection refused")))
}

// fakeS3 answers the handful of object calls the storage issues.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string]string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch r.Method {
	case http.MethodPut:
		f.objects[r.URL.Path] = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	case http.MethodHead:
		if _, ok := f.objects[r.URL.Path]; !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	case http.MethodDelete:
		delete(f.objects, r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestS3ObjectStorage_RoundTrip(t *testing.T) {
	fake := &fakeS3{objects: make(map[string]string)}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	s, err := NewS3ObjectStorage(&config.StorageConfig{
		Bucket:       "images",
		AccessKey:    "k",
		SecretKey:    "s",
		Endpoint:     srv.URL,
		UsePathStyle: true,
		PublicURL:    "https://cdn.example.com",
	})
	require.NoError(t, err)
	ctx := context.Background()

	link, err := s.Upload(ctx, "footprints/1.png", []byte("png-bytes"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/footprints/1.png", link)
	assert.Equal(t, "image/png", fake.objects["/images/footprints/1.png"])

	exists, err := s.ObjectExists(ctx, "footprints/1.png")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, s.Delete(ctx, "footprints/1.png"))

	exists, err = s.ObjectExists(ctx, "footprints/1.png")
	require.NoError(t, err)
	assert.False(t, exists)
}
