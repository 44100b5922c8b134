package tmdb

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds returned by the catalog client and the poster loader.
// Match them with errors.Is.
var (
	// ErrEmptyQuery indicates Search was called with an empty query
	ErrEmptyQuery = errors.New("empty search query")
	// ErrInvalidURL indicates the request URL could not be built
	ErrInvalidURL = errors.New("invalid request URL")
	// ErrTransport indicates the HTTP request failed
	ErrTransport = errors.New("transport error")
	// ErrDecoding indicates the response body did not match the expected shape
	ErrDecoding = errors.New("decoding error")
	// ErrInvalidImageData indicates fetched image bytes could not be decoded
	ErrInvalidImageData = errors.New("invalid image data")
	// ErrImageLoadingFailed indicates the image fetch itself failed
	ErrImageLoadingFailed = errors.New("image loading failed")
)

// ErrInvalidConfig is returned by constructors only.
var ErrInvalidConfig = errors.New("invalid tmdb configuration")

// Error carries the kind of failure together with its cause.
type Error struct {
	Kind error
	Op   string
	URL  string
	Err  error
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.URL != "" {
		msg += " (" + e.URL + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewError builds an *Error. rawURL is redacted before it is stored.
func NewError(kind error, op, rawURL string, cause error) *Error {
	return &Error{
		Kind: kind,
		Op:   op,
		URL:  RedactURL(rawURL),
		Err:  cause,
	}
}

// KindOf returns the kind of err, or nil if err did not come from this module.
func KindOf(err error) error {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return nil
}

// APIError represents a non-2xx response from the catalog or image host
type APIError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("tmdb API error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("tmdb API error: status %d: %s", e.StatusCode, e.Message)
}

// IsNotFound checks if the error indicates a not found response
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsUnauthorized checks if the error indicates an authentication failure
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}
