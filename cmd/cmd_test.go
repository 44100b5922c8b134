package cmd

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/marquee/config"
	"github.com/s0up4200/marquee/poster"
	"github.com/s0up4200/marquee/tmdb"
)

// fakeCatalog serves fixed pages
type fakeCatalog struct {
	page    *tmdb.ListingPage
	err     error
	queries []string
}

func (f *fakeCatalog) FetchPopular(ctx context.Context) (*tmdb.ListingPage, error) {
	return f.page, f.err
}

func (f *fakeCatalog) Search(ctx context.Context, query string) (*tmdb.ListingPage, error) {
	f.queries = append(f.queries, query)
	return f.page, f.err
}

func strPtr(s string) *string { return &s }

func testPage() *tmdb.ListingPage {
	return &tmdb.ListingPage{
		Page: 1,
		Results: []tmdb.ListingItem{
			{ID: 1, Title: "Heat", ReleaseDate: "1995-12-15", VoteAverage: 7.9, PosterPath: strPtr("/heat.jpg")},
			{ID: 2, Title: "Gigli", ReleaseDate: "2003-08-01", VoteAverage: 2.6},
			{ID: 3, Title: "Collateral", ReleaseDate: "2004-08-04", VoteAverage: 7.3, PosterPath: strPtr("/collateral.jpg")},
		},
		TotalPages:   1,
		TotalResults: 3,
	}
}

func resetFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		filterExpr = ""
		preset = ""
		showDetails = false
		cfg = nil
		catalog = nil
	})
	logger = zerolog.Nop()
}

func testCommand() (*cobra.Command, *bytes.Buffer) {
	var out bytes.Buffer
	c := &cobra.Command{}
	c.SetOut(&out)
	c.SetContext(context.Background())
	return c, &out
}

func TestGetFilterExpression(t *testing.T) {
	resetFlags(t)
	cfg = &config.Config{Filter: config.FilterConfig{"good": "VoteAverage >= 7"}}

	expr, err := getFilterExpression()
	require.NoError(t, err)
	assert.Empty(t, expr)

	preset = "good"
	expr, err = getFilterExpression()
	require.NoError(t, err)
	assert.Equal(t, "VoteAverage >= 7", expr)

	filterExpr = "Year > 2000"
	expr, err = getFilterExpression()
	require.NoError(t, err)
	assert.Equal(t, "Year > 2000", expr, "explicit filter wins over preset")

	filterExpr = ""
	preset = "missing"
	_, err = getFilterExpression()
	assert.ErrorContains(t, err, "preset 'missing' not found")
}

func TestRunPopular(t *testing.T) {
	resetFlags(t)
	catalog = &fakeCatalog{page: testPage()}

	c, out := testCommand()
	require.NoError(t, runPopular(c, nil))

	assert.Contains(t, out.String(), "Found 3 movies")
	assert.Contains(t, out.String(), "• Heat (1995)")
	assert.Contains(t, out.String(), "• Gigli (2003) [NO POSTER]")
}

func TestRunSearchWithFilter(t *testing.T) {
	resetFlags(t)
	fake := &fakeCatalog{page: testPage()}
	catalog = fake
	filterExpr = `VoteAverage > 7 and Year >= 2000`

	c, out := testCommand()
	require.NoError(t, runSearch(c, []string{"michael", "mann"}))

	assert.Equal(t, []string{"michael mann"}, fake.queries)
	assert.Contains(t, out.String(), "Found 1 movies")
	assert.Contains(t, out.String(), "Collateral (2004)")
	assert.NotContains(t, out.String(), "Heat")
}

func TestRunSearchError(t *testing.T) {
	resetFlags(t)
	catalog = &fakeCatalog{err: &tmdb.Error{Kind: tmdb.ErrEmptyQuery, Op: "search"}}

	c, _ := testCommand()
	err := runSearch(c, []string{""})
	require.Error(t, err)
	assert.ErrorIs(t, err, tmdb.ErrEmptyQuery)
}

func TestPrintListingNoMatches(t *testing.T) {
	resetFlags(t)
	filterExpr = `Adult`

	var out bytes.Buffer
	require.NoError(t, printListing(&out, testPage()))
	assert.Contains(t, out.String(), "No movies found")
}

func TestPrintListingInvalidFilter(t *testing.T) {
	resetFlags(t)
	filterExpr = `VoteAverage >`

	var out bytes.Buffer
	err := printListing(&out, testPage())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid filter expression")
}

func TestOpenPosterCache(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		cache, closer, err := openPosterCache(ctx, &config.Config{Cache: config.CacheConfig{Backend: config.CacheBackendMemory, Size: 4}})
		require.NoError(t, err)
		assert.Nil(t, closer)
		assert.IsType(t, &poster.MemoryCache{}, cache)
	})

	t.Run("none", func(t *testing.T) {
		cache, closer, err := openPosterCache(ctx, &config.Config{Cache: config.CacheConfig{Backend: config.CacheBackendNone}})
		require.NoError(t, err)
		assert.Nil(t, closer)
		assert.IsType(t, &poster.NullCache{}, cache)
	})

	t.Run("sqlite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "posters.db")
		cache, closer, err := openPosterCache(ctx, &config.Config{Cache: config.CacheConfig{Backend: config.CacheBackendSQLite, Path: path}})
		require.NoError(t, err)
		require.NotNil(t, closer)
		t.Cleanup(func() { _ = closer.Close() })
		assert.IsType(t, &poster.SQLiteCache{}, cache)
		assert.FileExists(t, path)
	})

	t.Run("redis unreachable", func(t *testing.T) {
		_, _, err := openPosterCache(ctx, &config.Config{
			Cache: config.CacheConfig{Backend: config.CacheBackendRedis},
			Redis: config.RedisConfig{Addr: "127.0.0.1:1"},
		})
		assert.ErrorContains(t, err, "redis ping")
	})

	t.Run("unknown", func(t *testing.T) {
		_, _, err := openPosterCache(ctx, &config.Config{Cache: config.CacheConfig{Backend: "disk"}})
		assert.Error(t, err)
	})
}

func TestSetupLogger(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	setupLogger(config.LoggingConfig{Level: "debug", Format: "json"})
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())

	setupLogger(config.LoggingConfig{Level: "trace", Format: "console"})
	assert.Equal(t, zerolog.TraceLevel, zerolog.GlobalLevel())

	setupLogger(config.LoggingConfig{Level: "unknown"})
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

func TestCurrentVersion(t *testing.T) {
	v, err := currentVersion("v1.2.3")
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", v.String())

	_, err = currentVersion("dev")
	assert.ErrorContains(t, err, "development build")
}

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: uint8(x), B: uint8(y), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func TestDownloadPosters(t *testing.T) {
	data := encodeJPEG(t, 40, 60)
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path == "/broken.jpg" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write(data)
	}))
	t.Cleanup(server.Close)

	loader, err := poster.NewLoader(server.URL, poster.NewMemoryCache(16), zerolog.Nop())
	require.NoError(t, err)

	items := append(testPage().Results, tmdb.ListingItem{ID: 4, Title: "Broken", PosterPath: strPtr("/broken.jpg")})
	dir := filepath.Join(t.TempDir(), "out")

	stats, err := downloadPosters(context.Background(), loader, items, posterOptions{OutputDir: dir, Width: 20, Concurrency: 2}, zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, int64(2), stats.Saved)
	assert.Equal(t, int64(1), stats.NoPoster)
	assert.Equal(t, int64(1), stats.Failed)
	assert.Equal(t, int32(3), calls.Load())

	f, err := os.Open(filepath.Join(dir, "1.jpg"))
	require.NoError(t, err)
	defer f.Close()
	cfgImg, err := jpeg.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 20, cfgImg.Width)
	assert.Equal(t, 30, cfgImg.Height)

	// second run is served from the cache
	_, err = downloadPosters(context.Background(), loader, items[:1], posterOptions{OutputDir: dir, Concurrency: 1}, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestDownloadPostersCancelled(t *testing.T) {
	loader, err := poster.NewLoader("http://127.0.0.1:1", nil, zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = downloadPosters(ctx, loader, testPage().Results, posterOptions{OutputDir: t.TempDir(), Concurrency: 1}, zerolog.Nop())
	assert.True(t, errors.Is(err, context.Canceled))
}

// stubLoader returns canned results per item ID without any network access
type stubLoader struct {
	images map[int64]image.Image
	errs   map[int64]error
	calls  atomic.Int32
}

func (s *stubLoader) LoadImage(ctx context.Context, item tmdb.ListingItem) (image.Image, error) {
	s.calls.Add(1)
	if err, ok := s.errs[item.ID]; ok {
		return nil, err
	}
	return s.images[item.ID], nil
}

func TestDownloadPostersWithStubLoader(t *testing.T) {
	loader := &stubLoader{
		images: map[int64]image.Image{
			1: image.NewRGBA(image.Rect(0, 0, 10, 15)),
		},
		errs: map[int64]error{
			3: &tmdb.Error{Kind: tmdb.ErrInvalidImageData, Op: "load image"},
		},
	}
	dir := t.TempDir()

	stats, err := downloadPosters(context.Background(), loader, testPage().Results, posterOptions{OutputDir: dir, Concurrency: 4}, zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, int32(3), loader.calls.Load())
	assert.Equal(t, posterStats{Saved: 1, NoPoster: 1, Failed: 1}, stats)
	assert.FileExists(t, filepath.Join(dir, "1.jpg"))
	assert.NoFileExists(t, filepath.Join(dir, "3.jpg"))
}
