package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Backend names the content store the server reads from.
type Backend string

const (
	BackendSQLite Backend = "sqlite"
	BackendSanity Backend = "sanity"
	BackendMemory Backend = "memory"
)

// Config holds runtime configuration values for the guideco server.
type Config struct {
	DBPath        string
	ServerPort    int
	LogLevel      string
	SentryDSN     string
	Environment   string
	ShutdownGrace time.Duration

	Backend      Backend
	FixturesPath string
	SiteURL      string

	PostsPerPage       int
	PageNumber         int
	PostsRevalidate    time.Duration
	TagsRevalidate     time.Duration
	QueryTimeout       time.Duration
	ExcludeDrafts      bool
	NeighborCacheSize  int
	NeighborCacheTTL   time.Duration
	RateLimitBurst     int
	RateLimitPerSecond float64
	RateLimitClientTTL time.Duration

	Sanity SanityConfig
}

// SanityConfig locates the Sanity dataset used by the sanity backend.
type SanityConfig struct {
	ProjectID  string
	Dataset    string
	APIVersion string
	Token      string
	UseCDN     bool
}

const (
	defaultDBPath             = "./data/guideco.db"
	defaultServerPort         = 8080
	defaultLogLevel           = "info"
	defaultEnvironment        = "development"
	defaultShutdownGrace      = 10 * time.Second
	defaultBackend            = BackendSQLite
	defaultPostsPerPage       = 5
	defaultPageNumber         = 1
	defaultRevalidateSeconds  = 3600
	defaultQueryTimeout       = 10 * time.Second
	defaultNeighborCacheTTL   = time.Minute
	defaultRateLimitBurst     = 20
	defaultRateLimitPerSecond = 10
	defaultRateLimitClientTTL = 5 * time.Minute
	defaultSanityDataset      = "production"
	defaultSanityAPIVersion   = "2024-01-01"
)

// Load reads configuration values from environment variables, applying defaults where necessary.
func Load() (*Config, error) {
	cfg := &Config{
		DBPath:        getEnv("DB_PATH", defaultDBPath),
		LogLevel:      getEnv("LOG_LEVEL", defaultLogLevel),
		SentryDSN:     os.Getenv("SENTRY_DSN"),
		Environment:   getEnv("ENV", defaultEnvironment),
		ShutdownGrace: defaultShutdownGrace,
		FixturesPath:  os.Getenv("FIXTURES_PATH"),
		SiteURL:       strings.TrimRight(os.Getenv("SITE_URL"), "/"),
		Sanity: SanityConfig{
			ProjectID:  os.Getenv("SANITY_PROJECT_ID"),
			Dataset:    getEnv("SANITY_DATASET", defaultSanityDataset),
			APIVersion: getEnv("SANITY_API_VERSION", defaultSanityAPIVersion),
			Token:      os.Getenv("SANITY_TOKEN"),
		},
	}

	backend := Backend(strings.ToLower(getEnv("CONTENT_BACKEND", string(defaultBackend))))
	switch backend {
	case BackendSQLite, BackendSanity, BackendMemory:
		cfg.Backend = backend
	default:
		return nil, eris.Errorf("invalid CONTENT_BACKEND value: %s", backend)
	}

	var err error
	if cfg.ServerPort, err = getInt("SERVER_PORT", defaultServerPort); err != nil {
		return nil, err
	}
	if cfg.PostsPerPage, err = getPositiveInt("POSTS_PER_PAGE", defaultPostsPerPage); err != nil {
		return nil, err
	}
	if cfg.PageNumber, err = getPositiveInt("PAGE_NUMBER", defaultPageNumber); err != nil {
		return nil, err
	}
	if cfg.PostsRevalidate, err = getSeconds("POSTS_REVALIDATION_TIME", defaultRevalidateSeconds); err != nil {
		return nil, err
	}
	if cfg.TagsRevalidate, err = getSeconds("TAGS_REVALIDATION_TIME", defaultRevalidateSeconds); err != nil {
		return nil, err
	}
	if cfg.QueryTimeout, err = getDuration("QUERY_TIMEOUT", defaultQueryTimeout); err != nil {
		return nil, err
	}
	if cfg.ExcludeDrafts, err = getBool("EXCLUDE_DRAFTS", false); err != nil {
		return nil, err
	}
	if cfg.NeighborCacheSize, err = getInt("NEIGHBOR_CACHE_SIZE", 0); err != nil {
		return nil, err
	}
	if cfg.NeighborCacheTTL, err = getDuration("NEIGHBOR_CACHE_TTL", defaultNeighborCacheTTL); err != nil {
		return nil, err
	}
	if cfg.RateLimitBurst, err = getInt("RATE_LIMIT_BURST", defaultRateLimitBurst); err != nil {
		return nil, err
	}
	if cfg.RateLimitPerSecond, err = getFloat("RATE_LIMIT_RPS", defaultRateLimitPerSecond); err != nil {
		return nil, err
	}
	if cfg.RateLimitClientTTL, err = getDuration("RATE_LIMIT_CLIENT_TTL", defaultRateLimitClientTTL); err != nil {
		return nil, err
	}
	if cfg.Sanity.UseCDN, err = getBool("SANITY_USE_CDN", true); err != nil {
		return nil, err
	}

	if cfg.Backend == BackendSanity && cfg.Sanity.ProjectID == "" {
		return nil, eris.New("SANITY_PROJECT_ID is required for the sanity backend")
	}
	if cfg.Backend == BackendMemory && cfg.FixturesPath == "" {
		return nil, eris.New("FIXTURES_PATH is required for the memory backend")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	value := getEnv(key, strconv.Itoa(fallback))
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, eris.Wrapf(err, "invalid %s value: %s", key, value)
	}
	return parsed, nil
}

func getPositiveInt(key string, fallback int) (int, error) {
	parsed, err := getInt(key, fallback)
	if err != nil {
		return 0, err
	}
	if parsed < 1 {
		return 0, eris.Errorf("%s must be at least 1, got %d", key, parsed)
	}
	return parsed, nil
}

// getSeconds reads a whole number of seconds, the unit the revalidation settings are given in.
func getSeconds(key string, fallback int) (time.Duration, error) {
	seconds, err := getInt(key, fallback)
	if err != nil {
		return 0, err
	}
	if seconds < 0 {
		return 0, eris.Errorf("%s must not be negative, got %d", key, seconds)
	}
	return time.Duration(seconds) * time.Second, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, eris.Wrapf(err, "invalid %s value: %s", key, value)
	}
	return parsed, nil
}

func getBool(key string, fallback bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, eris.Wrapf(err, "invalid %s value: %s", key, value)
	}
	return parsed, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, eris.Wrapf(err, "invalid %s value: %s", key, value)
	}
	if parsed < 0 {
		return 0, eris.Errorf("%s must not be negative, got %s", key, parsed)
	}
	return parsed, nil
}
