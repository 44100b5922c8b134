package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/s0up4200/marquee/filter"
	"github.com/s0up4200/marquee/tmdb"
)

var showDetails bool

// popularCmd represents the popular command
var popularCmd = &cobra.Command{
	Use:   "popular",
	Short: "List popular movies",
	Long:  `List the first page of currently popular movies, optionally filtered by an expression.`,
	Args:  cobra.NoArgs,
	RunE:  runPopular,
}

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search movies by title",
	Long:  `Search the catalog by free text and list the first page of results.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

func init() {
	for _, c := range []*cobra.Command{popularCmd, searchCmd} {
		addFilterFlags(c)
		c.Flags().BoolVar(&showDetails, "details", false, "show overview and vote details")
	}
}

func runPopular(cmd *cobra.Command, args []string) error {
	page, err := catalog.FetchPopular(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to fetch popular movies: %w", err)
	}
	return printListing(cmd.OutOrStdout(), page)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	logger.Info().Str("query", query).Msg("Searching movies")

	page, err := catalog.Search(cmd.Context(), query)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	return printListing(cmd.OutOrStdout(), page)
}

// filterListing applies the selected filter to a page of results
func filterListing(page *tmdb.ListingPage) ([]tmdb.ListingItem, error) {
	expr, err := getFilterExpression()
	if err != nil {
		return nil, err
	}

	filterFunc, err := filter.ParseAndCreateFilter(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid filter expression: %w", err)
	}

	items := filter.Apply(page.Results, filterFunc)
	if expr != "" {
		logger.Debug().
			Str("filter", expr).
			Int("matched", len(items)).
			Int("total", len(page.Results)).
			Msg("Applied filter")
	}
	return items, nil
}

func printListing(w io.Writer, page *tmdb.ListingPage) error {
	items, err := filterListing(page)
	if err != nil {
		return err
	}

	if len(items) == 0 {
		fmt.Fprintln(w, "No movies found matching the filter criteria.")
		return nil
	}

	fmt.Fprintf(w, "\nFound %d movies (page %d of %d, %d results total):\n",
		len(items), page.Page, page.TotalPages, page.TotalResults)
	fmt.Fprintln(w, strings.Repeat("-", 80))

	for _, item := range items {
		fmt.Fprintf(w, "• %s", item.String())
		if !item.HasPoster() {
			fmt.Fprint(w, " [NO POSTER]")
		}
		fmt.Fprintln(w)
		if showDetails {
			fmt.Fprintf(w, "  Rating: %.1f (%d votes)  Popularity: %.1f\n", item.VoteAverage, item.VoteCount, item.Popularity)
			if item.Overview != "" {
				fmt.Fprintf(w, "  %s\n", item.Overview)
			}
		}
	}

	return nil
}
