package filter

import (
	"slices"
	"strings"
	"time"

	"github.com/s0up4200/marquee/tmdb"
)

// createHelperFunctions creates the static helper functions used during compilation
func createHelperFunctions() map[string]any {
	funcs := make(map[string]any, 24)
	addHelperFunctions(funcs)

	// Placeholders so the compiler knows the item fields and item helpers.
	// Real values are bound per item in createRuntimeEnvironment.
	addItemEnvironment(funcs, tmdb.ListingItem{})
	return funcs
}

// addHelperFunctions adds all item independent helper functions to env
func addHelperFunctions(env map[string]any) {
	// Date helpers
	env["daysSince"] = func(t time.Time) int {
		if t.IsZero() {
			return 0
		}
		return int(time.Since(t).Hours() / 24)
	}
	env["daysAgo"] = func(days int) time.Time {
		return time.Now().AddDate(0, 0, -days)
	}
	env["monthsAgo"] = func(months int) time.Time {
		return time.Now().AddDate(0, -months, 0)
	}
	env["yearsAgo"] = func(years int) time.Time {
		return time.Now().AddDate(-years, 0, 0)
	}
	env["parseDate"] = parseReleaseDate
	// String helpers
	env["contains"] = func(str, substr string) bool {
		return strings.Contains(strings.ToLower(str), strings.ToLower(substr))
	}
	env["startsWith"] = func(str, prefix string) bool {
		return strings.HasPrefix(strings.ToLower(str), strings.ToLower(prefix))
	}
	env["endsWith"] = func(str, suffix string) bool {
		return strings.HasSuffix(strings.ToLower(str), strings.ToLower(suffix))
	}
	env["lower"] = strings.ToLower
	env["upper"] = strings.ToUpper
	// Current time
	env["now"] = time.Now
}

// createRuntimeEnvironment creates the environment for evaluating one item
func createRuntimeEnvironment(item tmdb.ListingItem) map[string]any {
	env := make(map[string]any, 32)
	addHelperFunctions(env)
	addItemEnvironment(env, item)
	return env
}

// addItemEnvironment binds the item fields and item helpers
func addItemEnvironment(env map[string]any, item tmdb.ListingItem) {
	env["Item"] = item
	env["hasGenre"] = createHasGenreFunc(item.GenreIDs)

	env["ID"] = item.ID
	env["Title"] = item.Title
	env["OriginalTitle"] = item.OriginalTitle
	env["Overview"] = item.Overview
	env["Year"] = item.ReleaseYear()
	env["ReleaseDate"] = parseReleaseDate(item.ReleaseDate)
	env["Language"] = item.OriginalLanguage
	env["GenreIDs"] = item.GenreIDs
	env["Popularity"] = item.Popularity
	env["VoteAverage"] = item.VoteAverage
	env["VoteCount"] = item.VoteCount
	env["Adult"] = item.Adult
	env["Video"] = item.Video
	env["HasPoster"] = item.HasPoster()
}

func createHasGenreFunc(genreIDs []int) func(int) bool {
	return func(id int) bool {
		return slices.Contains(genreIDs, id)
	}
}

// parseReleaseDate parses TMDB's YYYY-MM-DD dates; unknown dates are the zero time
func parseReleaseDate(date string) time.Time {
	t, _ := time.Parse(time.DateOnly, date)
	return t
}
