package tmdb

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ListingItem represents a single movie in a listing or search page
type ListingItem struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	OriginalTitle    string  `json:"original_title,omitempty"`
	OriginalLanguage string  `json:"original_language,omitempty"`
	Overview         string  `json:"overview,omitempty"`
	ReleaseDate      string  `json:"release_date,omitempty"`
	PosterPath       *string `json:"poster_path"`
	BackdropPath     *string `json:"backdrop_path,omitempty"`
	GenreIDs         []int   `json:"genre_ids,omitempty"`
	Popularity       float64 `json:"popularity,omitempty"`
	VoteAverage      float64 `json:"vote_average,omitempty"`
	VoteCount        int     `json:"vote_count,omitempty"`
	Adult            bool    `json:"adult"`
	Video            bool    `json:"video"`
}

// HasPoster reports whether the item references a poster image
func (li *ListingItem) HasPoster() bool {
	return li.PosterPath != nil
}

// ReleaseYear returns the year part of ReleaseDate, or 0 when unknown
func (li *ListingItem) ReleaseYear() int {
	if len(li.ReleaseDate) < 4 {
		return 0
	}
	year, err := strconv.Atoi(li.ReleaseDate[:4])
	if err != nil {
		return 0
	}
	return year
}

// String returns "Title (Year)" or just the title when the year is unknown
func (li ListingItem) String() string {
	if year := li.ReleaseYear(); year > 0 {
		return fmt.Sprintf("%s (%d)", li.Title, year)
	}
	return li.Title
}

// ListingPage represents one page of listing or search results
type ListingPage struct {
	Page         int           `json:"page"`
	Results      []ListingItem `json:"results"`
	TotalPages   int           `json:"total_pages"`
	TotalResults int           `json:"total_results"`
}

// UnmarshalJSON decodes a page and rejects bodies missing any of the
// pagination keys or the results array.
func (lp *ListingPage) UnmarshalJSON(data []byte) error {
	var raw struct {
		Page         *int           `json:"page"`
		Results      *[]ListingItem `json:"results"`
		TotalPages   *int           `json:"total_pages"`
		TotalResults *int           `json:"total_results"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var missing []string
	if raw.Page == nil {
		missing = append(missing, "page")
	}
	if raw.Results == nil {
		missing = append(missing, "results")
	}
	if raw.TotalPages == nil {
		missing = append(missing, "total_pages")
	}
	if raw.TotalResults == nil {
		missing = append(missing, "total_results")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required keys: %s", strings.Join(missing, ", "))
	}

	*lp = ListingPage{
		Page:         *raw.Page,
		Results:      *raw.Results,
		TotalPages:   *raw.TotalPages,
		TotalResults: *raw.TotalResults,
	}
	return nil
}

// HasMorePages checks if the server reports pages after this one
func (lp *ListingPage) HasMorePages() bool {
	return lp.Page < lp.TotalPages
}

// NextPage returns the next page number, or an error if there are no more pages
func (lp *ListingPage) NextPage() (int, error) {
	if !lp.HasMorePages() {
		return 0, fmt.Errorf("no more pages available")
	}
	return lp.Page + 1, nil
}

// statusBody is the error payload TMDB returns alongside non-2xx responses
type statusBody struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
	Success       *bool  `json:"success"`
}
