package gcs

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"cloud.google.com/go/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	blobstorage "github.com/JakeFAU/supermovie/internal/storage"
)

// newTestStore creates a BlobStore pointed at a fake GCS endpoint.
func newTestStore(t *testing.T, handler http.Handler, prefix string) *BlobStore {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := storage.NewClient(
		context.Background(),
		option.WithEndpoint(server.URL),
		option.WithoutAuthentication(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	store, err := New(client, Config{Bucket: "test-bucket", Prefix: prefix})
	require.NoError(t, err)
	return store
}

func TestNewValidates(t *testing.T) {
	t.Parallel()

	_, err := New(nil, Config{Bucket: "b"})
	assert.Error(t, err)

	client, err := storage.NewClient(context.Background(), option.WithoutAuthentication())
	require.NoError(t, err)
	defer client.Close() //nolint:errcheck

	_, err = New(client, Config{})
	assert.Error(t, err)
}

func TestPutObjectUploadsUnderPrefix(t *testing.T) {
	payload := []byte(`{"nomadland":"https://www.imdb.com/title/tt9770150/"}`)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/upload/storage/v1/b/test-bucket/o")
		assert.Equal(t, "supermovie/movie_url.json", r.URL.Query().Get("name"))
		assert.Equal(t, "multipart", r.URL.Query().Get("uploadType"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), string(payload))

		fmt.Fprintln(w, `{ "name": "supermovie/movie_url.json", "bucket": "test-bucket" }`)
	})

	store := newTestStore(t, handler, "/supermovie/")
	uri, err := store.PutObject(context.Background(), "movie_url.json", "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	assert.Equal(t, "gs://test-bucket/supermovie/movie_url.json", uri)
}

func TestPutObjectServerError(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	store := newTestStore(t, handler, "")
	_, err := store.PutObject(context.Background(), "cast.json", "", bytes.NewReader([]byte("{}")))
	assert.Error(t, err)
}

func TestGetObjectMissingMapsToNotFound(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	store := newTestStore(t, handler, "")
	_, err := store.GetObject(context.Background(), "cast_movie.json")
	require.Error(t, err)
	assert.ErrorIs(t, err, blobstorage.ErrNotFound)
}

func TestObjectNameRejectsEmpty(t *testing.T) {
	t.Parallel()

	s := &BlobStore{bucket: "b"}
	_, err := s.objectName("/")
	assert.Error(t, err)

	name, err := s.objectName("movie.json")
	require.NoError(t, err)
	assert.Equal(t, "movie.json", name)
}
