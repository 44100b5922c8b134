package tmdb

import (
	"context"
)

// API defines the catalog operations
type API interface {
	// FetchPopular retrieves the current page of popular movies
	FetchPopular(ctx context.Context) (*ListingPage, error)

	// Search retrieves the first page of movies matching query
	Search(ctx context.Context, query string) (*ListingPage, error)
}

// Ensure Client implements API at compile time.
var _ API = (*Client)(nil)
