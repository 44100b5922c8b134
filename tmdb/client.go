package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultBaseURL is the TMDB v3 API root
	DefaultBaseURL = "https://api.themoviedb.org/3/"
	// DefaultPopularEndpoint lists popular movies; the API key is appended to it
	DefaultPopularEndpoint = "movie/popular?api_key="
	// DefaultSearchEndpoint searches movies; the API key is appended to it
	DefaultSearchEndpoint = "search/movie?api_key="

	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "marquee/dev"
)

// Client represents a TMDB catalog API client
type Client struct {
	baseURL         string
	apiKey          string
	popularEndpoint string
	searchEndpoint  string
	userAgent       string
	httpClient      *http.Client
	logger          zerolog.Logger
}

// NewClient creates a new catalog client
func NewClient(baseURL, apiKey string, logger zerolog.Logger, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("%w: base URL is required", ErrInvalidConfig)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: API key is required", ErrInvalidConfig)
	}

	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}

	return &Client{
		baseURL:         strings.TrimRight(baseURL, "/") + "/",
		apiKey:          apiKey,
		popularEndpoint: strings.TrimLeft(options.popularEndpoint, "/"),
		searchEndpoint:  strings.TrimLeft(options.searchEndpoint, "/"),
		userAgent:       options.userAgent,
		httpClient:      options.buildHTTPClient(),
		logger:          logger.With().Str("component", "tmdb").Logger(),
	}, nil
}

// FetchPopular retrieves the page of popular movies the server returns by default
func (c *Client) FetchPopular(ctx context.Context) (*ListingPage, error) {
	return c.getListing(ctx, "fetch popular", c.PopularURL())
}

// Search retrieves the first page of movies matching query.
// Only the empty string is rejected; whitespace is sent as-is.
func (c *Client) Search(ctx context.Context, query string) (*ListingPage, error) {
	if query == "" {
		return nil, &Error{Kind: ErrEmptyQuery, Op: "search"}
	}
	return c.getListing(ctx, "search", c.SearchURL(query))
}

// PopularURL returns the URL FetchPopular requests
func (c *Client) PopularURL() string {
	return c.baseURL + c.popularEndpoint + c.apiKey
}

// SearchURL returns the URL Search requests for query
func (c *Client) SearchURL(query string) string {
	return c.baseURL + c.searchEndpoint + c.apiKey + "&query=" + escapeQuery(query)
}

// getListing performs a single GET and decodes the body into a ListingPage
func (c *Client) getListing(ctx context.Context, op, rawURL string) (*ListingPage, error) {
	if _, err := ParseAbsoluteURL(rawURL); err != nil {
		return nil, c.newError(ErrInvalidURL, op, rawURL, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, c.newError(ErrInvalidURL, op, rawURL, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	c.logger.Debug().
		Str("op", op).
		Str("url", c.redact(rawURL)).
		Msg("Making TMDB API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.newError(ErrTransport, op, rawURL, c.scrub(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.newError(ErrTransport, op, rawURL, fmt.Errorf("failed to read response body: %w", err))
	}

	// The request itself succeeded; an error status body is not a listing page
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, c.newError(ErrDecoding, op, rawURL, newAPIError(resp.StatusCode, body))
	}

	var page ListingPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, c.newError(ErrDecoding, op, rawURL, err)
	}

	c.logger.Debug().
		Str("op", op).
		Int("page", page.Page).
		Int("count", len(page.Results)).
		Int("total_results", page.TotalResults).
		Msg("Retrieved listing page")

	return &page, nil
}

// newAPIError builds an APIError, using TMDB's status_message when present
func newAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode}

	var status statusBody
	if err := json.Unmarshal(body, &status); err == nil && status.StatusMessage != "" {
		apiErr.Message = status.StatusMessage
	} else {
		apiErr.Message = http.StatusText(statusCode)
	}
	return apiErr
}

func (c *Client) newError(kind error, op, rawURL string, cause error) *Error {
	return NewError(kind, op, c.redact(rawURL), cause)
}

// redact removes the credential from a URL. The key is only replaced where
// an endpoint template places it, so custom templates that do not use the
// api_key parameter name are covered without touching the rest of the URL.
func (c *Client) redact(rawURL string) string {
	for _, endpoint := range []string{c.popularEndpoint, c.searchEndpoint} {
		prefix := c.baseURL + endpoint
		if strings.HasPrefix(rawURL, prefix+c.apiKey) {
			rawURL = prefix + "REDACTED" + rawURL[len(prefix)+len(c.apiKey):]
			break
		}
	}
	return RedactURL(rawURL)
}

// scrub removes the credential from the URL net/http embeds in its errors
func (c *Client) scrub(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		urlErr.URL = c.redact(urlErr.URL)
	}
	return err
}
