package filter

import (
	"strings"

	"github.com/s0up4200/marquee/tmdb"
)

// ParseAndCreateFilter parses a filter expression and returns a filter function
func ParseAndCreateFilter(expression string) (func(tmdb.ListingItem) bool, error) {
	if strings.TrimSpace(expression) == "" {
		// Empty filter matches everything
		return func(tmdb.ListingItem) bool { return true }, nil
	}

	return CreateExprFilter(expression)
}

// Apply returns the items matching fn, preserving order
func Apply(items []tmdb.ListingItem, fn func(tmdb.ListingItem) bool) []tmdb.ListingItem {
	matched := make([]tmdb.ListingItem, 0, len(items))
	for _, item := range items {
		if fn(item) {
			matched = append(matched, item)
		}
	}
	return matched
}
