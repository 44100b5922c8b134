package poster

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	_ "golang.org/x/image/webp"

	"github.com/s0up4200/marquee/tmdb"
)

const (
	// DefaultImageBaseURL serves 500px wide TMDB posters
	DefaultImageBaseURL = "https://image.tmdb.org/t/p/w500"

	// cachedMIMEType is recorded for every stored poster; the image host serves JPEG
	cachedMIMEType = "image/jpeg"

	defaultTimeout = 30 * time.Second
)

// Decoder turns raw response bytes into an image
type Decoder func(data []byte) (image.Image, error)

// DecodeImage decodes any format registered with package image
// (JPEG, PNG, GIF and WebP).
func DecodeImage(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	return img, err
}

// Loader fetches poster images through a read-through response cache
type Loader struct {
	imageBaseURL string
	cache        ResponseCache
	httpClient   *http.Client
	decode       Decoder
	logger       zerolog.Logger
}

// ImageLoader loads the poster image of a listing item
type ImageLoader interface {
	LoadImage(ctx context.Context, item tmdb.ListingItem) (image.Image, error)
}

var _ ImageLoader = (*Loader)(nil)

// Option configures a Loader.
type Option func(*loaderOptions)

// loaderOptions holds configuration options for the Loader.
type loaderOptions struct {
	httpClient *http.Client
	timeout    time.Duration
	timeoutSet bool
	decode     Decoder
}

// WithHTTPClient replaces the HTTP client used for image requests.
// The client is never modified; combined with WithTimeout a copy is used.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(o *loaderOptions) {
		if httpClient != nil {
			o.httpClient = httpClient
		}
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(o *loaderOptions) {
		o.timeout = timeout
		o.timeoutSet = true
	}
}

// WithDecoder replaces the image decoder.
func WithDecoder(decode Decoder) Option {
	return func(o *loaderOptions) {
		if decode != nil {
			o.decode = decode
		}
	}
}

// NewLoader creates a poster loader. A nil cache disables caching.
func NewLoader(imageBaseURL string, cache ResponseCache, logger zerolog.Logger, opts ...Option) (*Loader, error) {
	if imageBaseURL == "" {
		return nil, fmt.Errorf("%w: image base URL is required", tmdb.ErrInvalidConfig)
	}
	if cache == nil {
		cache = NewNullCache()
	}

	options := loaderOptions{
		timeout: defaultTimeout,
		decode:  DecodeImage,
	}
	for _, opt := range opts {
		opt(&options)
	}

	httpClient := options.httpClient
	switch {
	case httpClient == nil:
		httpClient = &http.Client{Timeout: options.timeout}
	case options.timeoutSet:
		hc := *httpClient
		hc.Timeout = options.timeout
		httpClient = &hc
	}

	return &Loader{
		imageBaseURL: imageBaseURL,
		cache:        cache,
		httpClient:   httpClient,
		decode:       options.decode,
		logger:       logger.With().Str("component", "poster").Logger(),
	}, nil
}

// URLFor returns the poster URL for item. ok is false when the item has no
// poster or the combined URL is malformed.
func (l *Loader) URLFor(item tmdb.ListingItem) (string, bool) {
	if item.PosterPath == nil {
		return "", false
	}
	u, err := tmdb.ParseAbsoluteURL(l.imageBaseURL + *item.PosterPath)
	if err != nil {
		return "", false
	}
	return u.String(), true
}

// LoadImage returns the poster for item, serving it from the cache when a
// decodable entry exists and otherwise fetching and caching it.
//
// Items without a poster, or whose poster URL is malformed, yield a nil image
// and a nil error.
func (l *Loader) LoadImage(ctx context.Context, item tmdb.ListingItem) (image.Image, error) {
	key, ok := l.URLFor(item)
	if !ok {
		return nil, nil
	}

	if img, ok := l.lookup(ctx, key); ok {
		return img, nil
	}

	data, err := l.fetch(ctx, key)
	if err != nil {
		return nil, err
	}

	img, err := l.decode(data)
	if err != nil {
		return nil, tmdb.NewError(tmdb.ErrInvalidImageData, "load image", key, err)
	}

	if err := l.cache.Put(ctx, key, CachedResponse{Data: data, MIMEType: cachedMIMEType}); err != nil {
		l.logger.Warn().Err(err).Str("key", key).Msg("Failed to store poster in cache")
	}

	return img, nil
}

// lookup decodes a cached entry. Unreadable or undecodable entries count as misses.
func (l *Loader) lookup(ctx context.Context, key string) (image.Image, bool) {
	cached, found, err := l.cache.Get(ctx, key)
	if err != nil {
		l.logger.Warn().Err(err).Str("key", key).Msg("Poster cache lookup failed, fetching instead")
		return nil, false
	}
	if !found || cached == nil {
		return nil, false
	}

	img, err := l.decode(cached.Data)
	if err != nil {
		l.logger.Debug().Err(err).Str("key", key).Msg("Cached poster is corrupt, fetching instead")
		return nil, false
	}

	l.logger.Trace().Str("key", key).Msg("Poster served from cache")
	return img, true
}

// fetch performs a single GET for the poster bytes
func (l *Loader) fetch(ctx context.Context, key string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, key, nil)
	if err != nil {
		return nil, tmdb.NewError(tmdb.ErrImageLoadingFailed, "load image", key, err)
	}

	l.logger.Debug().Str("url", key).Msg("Fetching poster")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, tmdb.NewError(tmdb.ErrImageLoadingFailed, "load image", key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		apiErr := &tmdb.APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		return nil, tmdb.NewError(tmdb.ErrImageLoadingFailed, "load image", key, apiErr)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, tmdb.NewError(tmdb.ErrImageLoadingFailed, "load image",
			key, fmt.Errorf("failed to read response body: %w", err))
	}

	return data, nil
}
