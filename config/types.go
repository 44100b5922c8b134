package config

import "time"

// Config represents the complete configuration structure
type Config struct {
	TMDB    TMDBConfig    `mapstructure:"tmdb"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Posters PostersConfig `mapstructure:"posters"`
	Filter  FilterConfig  `mapstructure:"filter"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// TMDBConfig holds the catalog API connection details
type TMDBConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	APIKey          string        `mapstructure:"api_key"`
	ImageBaseURL    string        `mapstructure:"image_base_url"`
	PopularEndpoint string        `mapstructure:"popular_endpoint"`
	SearchEndpoint  string        `mapstructure:"search_endpoint"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

// Cache backends
const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
	CacheBackendSQLite = "sqlite"
	CacheBackendNone   = "none"
)

// CacheConfig selects and sizes the poster cache
type CacheConfig struct {
	Backend string        `mapstructure:"backend"`
	Size    int           `mapstructure:"size"`
	Path    string        `mapstructure:"path"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// RedisConfig holds connection details for the redis cache backend
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// PostersConfig controls the posters command
type PostersConfig struct {
	Concurrency int    `mapstructure:"concurrency"`
	Width       int    `mapstructure:"width"`
	OutputDir   string `mapstructure:"output_dir"`
}

// FilterConfig contains named filter expressions
type FilterConfig map[string]string

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}
