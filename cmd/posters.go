package cmd

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/s0up4200/marquee/poster"
	"github.com/s0up4200/marquee/tmdb"
)

var (
	posterQuery  string
	posterOutDir string
	posterWidth  int
)

// postersCmd represents the posters command
var postersCmd = &cobra.Command{
	Use:   "posters",
	Short: "Download posters for popular movies or search results",
	Long: `Download the poster of every listed movie into a directory. Posters are
served from the configured cache when available and resized when a width is set.`,
	Args: cobra.NoArgs,
	RunE: runPosters,
}

func init() {
	addFilterFlags(postersCmd)
	postersCmd.Flags().StringVarP(&posterQuery, "query", "q", "", "download posters for search results instead of popular movies")
	postersCmd.Flags().StringVarP(&posterOutDir, "output", "o", "", "output directory (default from config)")
	postersCmd.Flags().IntVarP(&posterWidth, "width", "w", -1, "resize posters to this width, 0 keeps the original size")
}

// posterOptions controls downloadPosters
type posterOptions struct {
	OutputDir   string
	Width       int
	Concurrency int
}

// posterStats counts download outcomes
type posterStats struct {
	Saved    int64
	NoPoster int64
	Failed   int64
}

func runPosters(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	var (
		page *tmdb.ListingPage
		err  error
	)
	if posterQuery != "" {
		page, err = catalog.Search(ctx, posterQuery)
	} else {
		page, err = catalog.FetchPopular(ctx)
	}
	if err != nil {
		return fmt.Errorf("failed to fetch listing: %w", err)
	}

	items, err := filterListing(page)
	if err != nil {
		return err
	}

	opts := posterOptions{
		OutputDir:   cfg.Posters.OutputDir,
		Width:       cfg.Posters.Width,
		Concurrency: cfg.Posters.Concurrency,
	}
	if posterOutDir != "" {
		opts.OutputDir = posterOutDir
	}
	if posterWidth >= 0 {
		opts.Width = posterWidth
	}

	stats, err := downloadPosters(ctx, posterLoader, items, opts, logger)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\n✓ Saved %d posters to %s", stats.Saved, opts.OutputDir)
	if stats.NoPoster > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), " (%d without poster)", stats.NoPoster)
	}
	fmt.Fprintln(cmd.OutOrStdout())

	if stats.Failed > 0 {
		return fmt.Errorf("%d posters failed to download", stats.Failed)
	}
	return nil
}

// downloadPosters loads and saves the poster of every item with bounded concurrency.
// Individual failures are logged and counted; only setup errors are returned.
func downloadPosters(ctx context.Context, loader poster.ImageLoader, items []tmdb.ListingItem, opts posterOptions, log zerolog.Logger) (posterStats, error) {
	var stats posterStats

	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return stats, fmt.Errorf("create output directory: %w", err)
	}

	limit := opts.Concurrency
	if limit < 1 {
		limit = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	var saved, noPoster, failed atomic.Int64

	for _, item := range items {
		g.Go(func() error {
			img, err := loader.LoadImage(gctx, item)
			if err != nil {
				log.Warn().
					Err(err).
					Int64("id", item.ID).
					Str("movie", item.Title).
					Msg("Failed to load poster")
				failed.Add(1)
				return nil
			}
			if img == nil {
				noPoster.Add(1)
				return nil
			}

			path := filepath.Join(opts.OutputDir, fmt.Sprintf("%d.jpg", item.ID))
			if err := savePoster(img, path, opts.Width); err != nil {
				log.Error().
					Err(err).
					Str("path", path).
					Str("movie", item.Title).
					Msg("Failed to save poster")
				failed.Add(1)
				return nil
			}

			log.Debug().Str("movie", item.Title).Str("path", path).Msg("Saved poster")
			saved.Add(1)
			return nil
		})
	}

	// Workers never return errors
	_ = g.Wait()

	stats.Saved = saved.Load()
	stats.NoPoster = noPoster.Load()
	stats.Failed = failed.Load()

	if err := ctx.Err(); err != nil {
		return stats, err
	}
	return stats, nil
}

// savePoster writes img as JPEG, scaled to width while keeping the aspect ratio
func savePoster(img image.Image, path string, width int) error {
	if width > 0 && img.Bounds().Dx() != width {
		img = imaging.Resize(img, width, 0, imaging.Lanczos)
	}
	return imaging.Save(img, path, imaging.JPEGQuality(90))
}
