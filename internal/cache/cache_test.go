package cache_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/supermovie/internal/cache"
	"github.com/JakeFAU/supermovie/internal/crawler"
	"github.com/JakeFAU/supermovie/internal/ordered"
	"github.com/JakeFAU/supermovie/internal/storage/local"
	"github.com/JakeFAU/supermovie/internal/storage/memory"
)

func strPtr(s string) *string { return &s }

func TestLoadMissingDocumentIsEmpty(t *testing.T) {
	t.Parallel()

	store, err := cache.NewStore(memory.NewBlobStore(), zap.NewNop())
	require.NoError(t, err)

	doc := cache.Load[string](context.Background(), store, cache.DocumentMovieIndex)
	require.NotNil(t, doc)
	assert.Equal(t, 0, doc.Len())
}

func TestLoadCorruptDocumentIsEmpty(t *testing.T) {
	t.Parallel()

	blobs := memory.NewBlobStore()
	_, err := blobs.PutObject(context.Background(), cache.DocumentMovies, "", bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	store, err := cache.NewStore(blobs, nil)
	require.NoError(t, err)

	doc := cache.Load[crawler.MovieRecord](context.Background(), store, cache.DocumentMovies)
	assert.Equal(t, 0, doc.Len())
}

func TestLoadUnreadableDocumentIsEmpty(t *testing.T) {
	t.Parallel()

	store, err := cache.NewStore(failingBlobs{}, nil)
	require.NoError(t, err)

	doc := cache.Load[crawler.ScoreRecord](context.Background(), store, cache.DocumentFilmScores)
	assert.Equal(t, 0, doc.Len())
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	t.Parallel()

	blobs, err := local.New(local.Config{BaseDir: t.TempDir()})
	require.NoError(t, err)
	store, err := cache.NewStore(blobs, zap.NewNop())
	require.NoError(t, err)
	ctx := context.Background()

	films := ordered.New[string]()
	films.Set("Nomadland", "https://www.imdb.com/title/tt9770150/")
	films.Set("The Rider", "https://www.imdb.com/title/tt6217608/")

	doc := ordered.New[crawler.CastRecord]()
	doc.Set("https://www.imdb.com/name/nm2125482/", crawler.CastRecord{
		Name:  strPtr("Chloé Zhao"),
		Bio:   nil,
		Films: films,
		Photo: strPtr("https://m.media-amazon.com/images/zhao.jpg"),
	})
	doc.Set("https://www.imdb.com/name/nm0000531/", crawler.CastRecord{Name: strPtr("Frances McDormand")})

	require.NoError(t, cache.Save(ctx, store, doc, cache.DocumentCasts))
	back := cache.Load[crawler.CastRecord](ctx, store, cache.DocumentCasts)

	assert.Equal(t, doc.Keys(), back.Keys())
	for _, entry := range doc.Entries() {
		got, ok := back.Get(entry.Key)
		require.True(t, ok)
		assert.Equal(t, entry.Value.Name, got.Name)
		assert.Equal(t, entry.Value.Bio, got.Bio)
		assert.Equal(t, entry.Value.Photo, got.Photo)
		assert.Equal(t, entry.Value.Films.Entries(), got.Films.Entries())
	}
}

func TestSaveOverwritesWholeDocument(t *testing.T) {
	t.Parallel()

	store, err := cache.NewStore(memory.NewBlobStore(), nil)
	require.NoError(t, err)
	ctx := context.Background()

	first := ordered.New[string]()
	first.Set("a", "1")
	first.Set("b", "2")
	require.NoError(t, cache.Save(ctx, store, first, cache.DocumentMovieIndex))

	second := ordered.New[string]()
	second.Set("c", "3")
	require.NoError(t, cache.Save(ctx, store, second, cache.DocumentMovieIndex))

	back := cache.Load[string](ctx, store, cache.DocumentMovieIndex)
	assert.Equal(t, []string{"c"}, back.Keys())
}

func TestSavePropagatesStorageFailure(t *testing.T) {
	t.Parallel()

	store, err := cache.NewStore(failingBlobs{}, nil)
	require.NoError(t, err)

	err = cache.Save(context.Background(), store, ordered.New[string](), cache.DocumentMovieIndex)
	assert.Error(t, err)
}

func TestNewStoreRequiresBlobs(t *testing.T) {
	t.Parallel()

	_, err := cache.NewStore(nil, nil)
	assert.Error(t, err)
}

type failingBlobs struct{}

func (failingBlobs) GetObject(context.Context, string) ([]byte, error) {
	return nil, errors.New("disk on fire")
}

func (failingBlobs) PutObject(context.Context, string, string, io.Reader) (string, error) {
	return "", errors.New("disk on fire")
}
