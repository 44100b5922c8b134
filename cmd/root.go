package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/s0up4200/marquee/config"
	"github.com/s0up4200/marquee/poster"
	"github.com/s0up4200/marquee/tmdb"
)

var (
	cfgFile      string
	cfg          *config.Config
	logger       zerolog.Logger
	catalog      tmdb.API
	posterLoader poster.ImageLoader
	cacheCloser  io.Closer

	// Command flags
	filterExpr string
	preset     string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "marquee",
	Short: "Browse the TMDB movie catalog from the command line",
	Long: `marquee lists popular movies and search results from The Movie Database,
filters them with expressions and downloads their posters through a
read-through cache.`,
	PersistentPreRunE:  initializeApp,
	PersistentPostRunE: closeApp,
	SilenceUsage:       true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")

	// Add subcommands
	rootCmd.AddCommand(popularCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(postersCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(versionCmd)
}

// initializeApp initializes the configuration and clients
func initializeApp(cmd *cobra.Command, args []string) error {
	// Load configuration
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Setup logger
	logger = setupLogger(cfg.Logging)

	// Create TMDB client
	client, err := tmdb.NewClient(cfg.TMDB.BaseURL, cfg.TMDB.APIKey, logger,
		tmdb.WithTimeout(cfg.TMDB.Timeout),
		tmdb.WithUserAgent("marquee/"+version),
		tmdb.WithPopularEndpoint(cfg.TMDB.PopularEndpoint),
		tmdb.WithSearchEndpoint(cfg.TMDB.SearchEndpoint),
	)
	if err != nil {
		return fmt.Errorf("failed to create TMDB client: %w", err)
	}
	catalog = client

	// Open the poster cache
	cache, closer, err := openPosterCache(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("failed to open poster cache: %w", err)
	}
	cacheCloser = closer

	loader, err := poster.NewLoader(cfg.TMDB.ImageBaseURL, cache, logger,
		poster.WithTimeout(cfg.TMDB.Timeout),
	)
	if err != nil {
		return fmt.Errorf("failed to create poster loader: %w", err)
	}
	posterLoader = loader

	logger.Debug().
		Str("cache", cfg.Cache.Backend).
		Str("base_url", cfg.TMDB.BaseURL).
		Msg("Initialized")

	return nil
}

// closeApp releases the poster cache
func closeApp(cmd *cobra.Command, args []string) error {
	if cacheCloser == nil {
		return nil
	}
	err := cacheCloser.Close()
	cacheCloser = nil
	return err
}

// openPosterCache builds the cache backend selected in the configuration.
// The returned closer is nil when the backend holds no resources.
func openPosterCache(ctx context.Context, cfg *config.Config) (poster.ResponseCache, io.Closer, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	switch cfg.Cache.Backend {
	case config.CacheBackendNone:
		return poster.NewNullCache(), nil, nil

	case config.CacheBackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("redis ping %s: %w", cfg.Redis.Addr, err)
		}
		return poster.NewRedisCache(client, cfg.Redis.Prefix, cfg.Cache.TTL), client, nil

	case config.CacheBackendSQLite:
		cache, err := poster.OpenSQLiteCache(ctx, cfg.Cache.Path)
		if err != nil {
			return nil, nil, err
		}
		return cache, cache, nil

	case config.CacheBackendMemory, "":
		return poster.NewMemoryCache(cfg.Cache.Size), nil, nil

	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}

// setupLogger configures the zerolog logger
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	// Set log level
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "trace":
		level = zerolog.TraceLevel
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	// Configure output format
	if cfg.Format == "json" {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	// Console format; no colour when stderr is redirected
	fd := os.Stderr.Fd()
	tty := isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !cfg.Color || !tty,
	}

	return zerolog.New(output).With().Timestamp().Logger()
}

// getFilterExpression determines the filter expression to use.
// An empty result matches every item.
func getFilterExpression() (string, error) {
	// Priority: command line filter > preset
	if filterExpr != "" {
		return filterExpr, nil
	}

	if preset != "" {
		if cfg != nil {
			if expr, ok := cfg.Filter[preset]; ok {
				return expr, nil
			}
		}
		return "", fmt.Errorf("preset '%s' not found in config", preset)
	}

	return "", nil
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&filterExpr, "filter", "f", "", "filter expression")
	cmd.Flags().StringVarP(&preset, "preset", "p", "", "use a named filter from config")
}
