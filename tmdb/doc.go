// Package tmdb provides a client for the TMDB movie catalog API.
//
// The package covers two listing operations, popular movies and movie search,
// and the typed records they decode into. Poster images referenced by listing
// items are fetched by package poster.
//
// # Usage
//
//	logger := zerolog.New(os.Stderr)
//	client, err := tmdb.NewClient(tmdb.DefaultBaseURL, apiKey, logger,
//		tmdb.WithTimeout(10*time.Second),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	page, err := client.Search(ctx, "batman")
//	if err != nil {
//		log.Fatal(err)
//	}
//	for _, movie := range page.Results {
//		fmt.Println(movie)
//	}
//
// Each call performs exactly one HTTP request. There are no retries and no
// caching of listing pages. A Client holds only its configuration and is safe
// for concurrent use.
//
// # Error Handling
//
// Failures are reported as *Error values whose kind is one of:
//
//   - ErrEmptyQuery: Search called with an empty string, no request made
//   - ErrInvalidURL: the request URL could not be built, no request made
//   - ErrTransport: the request failed or returned a non-2xx status
//   - ErrDecoding: the body did not decode into a ListingPage
//   - ErrInvalidImageData: poster bytes could not be decoded
//   - ErrImageLoadingFailed: the poster request failed
//
// The underlying cause stays reachable, so both checks work:
//
//	if errors.Is(err, tmdb.ErrTransport) {
//		var apiErr *tmdb.APIError
//		if errors.As(err, &apiErr) && apiErr.IsUnauthorized() {
//			// bad API key
//		}
//	}
package tmdb
