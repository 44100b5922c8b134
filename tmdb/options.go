package tmdb

import (
	"net/http"
	"time"
)

// Option configures a Client.
type Option func(*clientOptions)

// clientOptions holds configuration options for the Client.
type clientOptions struct {
	httpClient      *http.Client
	timeout         time.Duration
	timeoutSet      bool
	userAgent       string
	popularEndpoint string
	searchEndpoint  string
}

func defaultOptions() clientOptions {
	return clientOptions{
		timeout:         defaultTimeout,
		userAgent:       defaultUserAgent,
		popularEndpoint: DefaultPopularEndpoint,
		searchEndpoint:  DefaultSearchEndpoint,
	}
}

// WithHTTPClient replaces the HTTP client used for requests.
// The client is never modified; combined with WithTimeout a copy is used.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(o *clientOptions) {
		if httpClient != nil {
			o.httpClient = httpClient
		}
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(o *clientOptions) {
		o.timeout = timeout
		o.timeoutSet = true
	}
}

// WithUserAgent sets a custom user agent string.
func WithUserAgent(userAgent string) Option {
	return func(o *clientOptions) {
		o.userAgent = userAgent
	}
}

// WithPopularEndpoint overrides the popular listing endpoint template.
// The template is appended to the base URL and must end where the API key starts.
func WithPopularEndpoint(template string) Option {
	return func(o *clientOptions) {
		if template != "" {
			o.popularEndpoint = template
		}
	}
}

// WithSearchEndpoint overrides the search endpoint template.
func WithSearchEndpoint(template string) Option {
	return func(o *clientOptions) {
		if template != "" {
			o.searchEndpoint = template
		}
	}
}

// buildHTTPClient returns the client to use. An injected client is shared
// as-is unless a timeout was requested, in which case it is copied first.
func (o clientOptions) buildHTTPClient() *http.Client {
	if o.httpClient == nil {
		return &http.Client{Timeout: o.timeout}
	}
	if !o.timeoutSet {
		return o.httpClient
	}
	hc := *o.httpClient
	hc.Timeout = o.timeout
	return &hc
}
