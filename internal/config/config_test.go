package config

import (
	"strings"
	"testing"
	"time"
)

var envKeys = []string{
	"DB_PATH", "SERVER_PORT", "LOG_LEVEL", "SENTRY_DSN", "ENV", "CONTENT_BACKEND",
	"FIXTURES_PATH", "SITE_URL", "POSTS_PER_PAGE", "PAGE_NUMBER", "POSTS_REVALIDATION_TIME",
	"TAGS_REVALIDATION_TIME", "QUERY_TIMEOUT", "EXCLUDE_DRAFTS", "NEIGHBOR_CACHE_SIZE",
	"NEIGHBOR_CACHE_TTL", "RATE_LIMIT_BURST", "RATE_LIMIT_RPS", "RATE_LIMIT_CLIENT_TTL",
	"SANITY_PROJECT_ID", "SANITY_DATASET", "SANITY_API_VERSION", "SANITY_TOKEN", "SANITY_USE_CDN",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.DBPath != defaultDBPath {
		t.Errorf("expected default DB path %q, got %q", defaultDBPath, cfg.DBPath)
	}

	if cfg.ServerPort != defaultServerPort {
		t.Errorf("expected default server port %d, got %d", defaultServerPort, cfg.ServerPort)
	}

	if cfg.LogLevel != defaultLogLevel {
		t.Errorf("expected default log level %q, got %q", defaultLogLevel, cfg.LogLevel)
	}

	if cfg.Environment != defaultEnvironment {
		t.Errorf("expected default environment %q, got %q", defaultEnvironment, cfg.Environment)
	}

	if cfg.ShutdownGrace != defaultShutdownGrace {
		t.Errorf("expected shutdown grace %s, got %s", defaultShutdownGrace, cfg.ShutdownGrace)
	}

	if cfg.Backend != BackendSQLite {
		t.Errorf("expected sqlite backend, got %q", cfg.Backend)
	}

	if cfg.PostsPerPage != 5 || cfg.PageNumber != 1 {
		t.Errorf("expected 5 posts per page starting at page 1, got %d and %d", cfg.PostsPerPage, cfg.PageNumber)
	}

	if cfg.PostsRevalidate != time.Hour || cfg.TagsRevalidate != time.Hour {
		t.Errorf("expected hourly revalidation, got %s and %s", cfg.PostsRevalidate, cfg.TagsRevalidate)
	}

	if cfg.QueryTimeout != defaultQueryTimeout {
		t.Errorf("expected query timeout %s, got %s", defaultQueryTimeout, cfg.QueryTimeout)
	}

	if cfg.ExcludeDrafts {
		t.Errorf("expected drafts to be included by default")
	}

	if cfg.NeighborCacheSize != 0 {
		t.Errorf("expected neighbor cache to be disabled, got size %d", cfg.NeighborCacheSize)
	}

	if cfg.RateLimitBurst != defaultRateLimitBurst || cfg.RateLimitPerSecond != defaultRateLimitPerSecond {
		t.Errorf("unexpected rate limit defaults: burst %d, rps %v", cfg.RateLimitBurst, cfg.RateLimitPerSecond)
	}

	if cfg.Sanity.Dataset != defaultSanityDataset || !cfg.Sanity.UseCDN {
		t.Errorf("unexpected sanity defaults %#v", cfg.Sanity)
	}

	if cfg.SentryDSN != "" {
		t.Errorf("expected empty Sentry DSN, got %q", cfg.SentryDSN)
	}
}

func TestLoadWithExplicitValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_PATH", "/tmp/guideco.db")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SENTRY_DSN", "dsn")
	t.Setenv("ENV", "production")
	t.Setenv("CONTENT_BACKEND", "Sanity")
	t.Setenv("SITE_URL", "https://guide.example/")
	t.Setenv("POSTS_PER_PAGE", "10")
	t.Setenv("POSTS_REVALIDATION_TIME", "60")
	t.Setenv("QUERY_TIMEOUT", "2s")
	t.Setenv("EXCLUDE_DRAFTS", "true")
	t.Setenv("NEIGHBOR_CACHE_SIZE", "128")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("SANITY_PROJECT_ID", "abc123")
	t.Setenv("SANITY_USE_CDN", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.DBPath != "/tmp/guideco.db" {
		t.Errorf("expected DB path %q, got %q", "/tmp/guideco.db", cfg.DBPath)
	}

	if cfg.ServerPort != 9090 {
		t.Errorf("expected server port 9090, got %d", cfg.ServerPort)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("expected log level debug, got %q", cfg.LogLevel)
	}

	if cfg.Environment != "production" {
		t.Errorf("expected environment production, got %q", cfg.Environment)
	}

	if cfg.Backend != BackendSanity {
		t.Errorf("expected sanity backend, got %q", cfg.Backend)
	}

	if cfg.SiteURL != "https://guide.example" {
		t.Errorf("expected trailing slash to be trimmed, got %q", cfg.SiteURL)
	}

	if cfg.PostsPerPage != 10 {
		t.Errorf("expected 10 posts per page, got %d", cfg.PostsPerPage)
	}

	if cfg.PostsRevalidate != time.Minute {
		t.Errorf("expected posts revalidation of one minute, got %s", cfg.PostsRevalidate)
	}

	if cfg.QueryTimeout != 2*time.Second {
		t.Errorf("expected query timeout 2s, got %s", cfg.QueryTimeout)
	}

	if !cfg.ExcludeDrafts {
		t.Errorf("expected drafts to be excluded")
	}

	if cfg.NeighborCacheSize != 128 {
		t.Errorf("expected neighbor cache size 128, got %d", cfg.NeighborCacheSize)
	}

	if cfg.RateLimitPerSecond != 2.5 {
		t.Errorf("expected 2.5 requests per second, got %v", cfg.RateLimitPerSecond)
	}

	if cfg.Sanity.ProjectID != "abc123" || cfg.Sanity.UseCDN {
		t.Errorf("unexpected sanity settings %#v", cfg.Sanity)
	}
}

func TestLoadInvalidValues(t *testing.T) {
	cases := map[string]struct {
		key, value, message string
	}{
		"port":         {"SERVER_PORT", "invalid", "invalid SERVER_PORT value"},
		"page size":    {"POSTS_PER_PAGE", "0", "POSTS_PER_PAGE must be at least 1"},
		"revalidation": {"TAGS_REVALIDATION_TIME", "-5", "TAGS_REVALIDATION_TIME must not be negative"},
		"timeout":      {"QUERY_TIMEOUT", "soon", "invalid QUERY_TIMEOUT value"},
		"drafts":       {"EXCLUDE_DRAFTS", "maybe", "invalid EXCLUDE_DRAFTS value"},
		"backend":      {"CONTENT_BACKEND", "postgres", "invalid CONTENT_BACKEND value"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tc.key, tc.value)

			_, err := Load()
			if err == nil {
				t.Fatalf("expected error for %s=%s, got nil", tc.key, tc.value)
			}

			if !strings.Contains(err.Error(), tc.message) {
				t.Fatalf("expected error to mention %q, got %v", tc.message, err)
			}
		})
	}
}

func TestLoadRequiresBackendSettings(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONTENT_BACKEND", "sanity")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "SANITY_PROJECT_ID") {
		t.Fatalf("expected missing project ID error, got %v", err)
	}

	t.Setenv("CONTENT_BACKEND", "memory")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "FIXTURES_PATH") {
		t.Fatalf("expected missing fixtures path error, got %v", err)
	}
}
