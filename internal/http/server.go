package http

import (
	"context"
	stdhttp "net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"guideco/app/internal/content"
	"guideco/app/internal/http/templates"
)

const (
	defaultSiteURL      = "http://localhost:8080"
	defaultPostsPerPage = 5
	defaultRevalidate   = time.Hour
	maxPageSize         = 100
)

// Options configures the HTTP server wiring.
type Options struct {
	Content content.Reader
	// Health reports whether the content backend is reachable; nil means always healthy.
	Health      func(context.Context) error
	Metrics     stdhttp.Handler
	Logger      *logrus.Logger
	SentryHub   *sentry.Hub
	RateLimiter RateLimiterSettings
	Site        SiteSettings
}

// RateLimiterSettings configures the HTTP rate limiter behaviour.
type RateLimiterSettings struct {
	RequestsPerSecond float64
	Burst             int
	ClientTTL         time.Duration
}

// SiteSettings controls page sizes, absolute URLs and cache lifetimes.
type SiteSettings struct {
	Title           string
	URL             string
	PostsPerPage    int
	HomePage        int
	PostsRevalidate time.Duration
	TagsRevalidate  time.Duration
}

// Server wires the HTTP transport layer via Huma and templ components.
type Server struct {
	api         huma.API
	mux         *stdhttp.ServeMux
	content     content.Reader
	health      func(context.Context) error
	logger      *logrus.Logger
	sentry      *sentry.Hub
	rateLimiter *RateLimiter
	site        SiteSettings
}

// NewServer constructs the HTTP server.
func NewServer(opts Options) (*Server, error) {
	if opts.Content == nil {
		return nil, eris.New("content reader is required")
	}

	site, err := normalizeSite(opts.Site)
	if err != nil {
		return nil, err
	}

	mux := stdhttp.NewServeMux()
	config := huma.DefaultConfig(site.Title, "1.0.0")

	api := humago.New(mux, config)

	srv := &Server{
		api:     api,
		mux:     mux,
		content: opts.Content,
		health:  opts.Health,
		logger:  opts.Logger,
		sentry:  opts.SentryHub,
		site:    site,
	}

	settings := opts.RateLimiter
	if settings.Burst <= 0 {
		return nil, eris.New("rate limiter burst must be greater than zero")
	}
	if settings.RequestsPerSecond <= 0 {
		return nil, eris.New("rate limiter requests per second must be greater than zero")
	}
	if settings.ClientTTL <= 0 {
		return nil, eris.New("rate limiter client TTL must be greater than zero")
	}

	srv.rateLimiter = NewRateLimiter(settings.Burst, settings.RequestsPerSecond, settings.ClientTTL)

	srv.registerMiddlewares()
	srv.registerRoutes(opts.Metrics)

	return srv, nil
}

func normalizeSite(site SiteSettings) (SiteSettings, error) {
	if site.Title == "" {
		site.Title = templates.DefaultSiteTitle
	}
	site.URL = strings.TrimRight(strings.TrimSpace(site.URL), "/")
	if site.URL == "" {
		site.URL = defaultSiteURL
	}
	if site.PostsPerPage == 0 {
		site.PostsPerPage = defaultPostsPerPage
	}
	if site.PostsPerPage < 0 || site.PostsPerPage > maxPageSize {
		return SiteSettings{}, eris.Errorf("posts per page must be between 1 and %d, got %d", maxPageSize, site.PostsPerPage)
	}
	if site.HomePage == 0 {
		site.HomePage = 1
	}
	if site.PostsRevalidate == 0 {
		site.PostsRevalidate = defaultRevalidate
	}
	if site.TagsRevalidate == 0 {
		site.TagsRevalidate = defaultRevalidate
	}
	return site, nil
}

// Handler exposes the HTTP handler for wiring into the application.
func (s *Server) Handler() stdhttp.Handler {
	return s
}

// API exposes the underlying Huma API instance.
func (s *Server) API() huma.API {
	return s.api
}

func (s *Server) registerMiddlewares() {
	s.api.UseMiddleware(
		s.sentryMiddleware(),
		s.recoveryMiddleware(),
		s.requestIDMiddleware(),
		s.loggingMiddleware(),
		s.rateLimitMiddleware(),
	)
}

func (s *Server) registerRoutes(metricsHandler stdhttp.Handler) {
	s.mux.HandleFunc("GET /favicon.ico", faviconHandler)
	s.mux.HandleFunc("GET /favicon.svg", faviconHandler)
	if metricsHandler != nil {
		s.mux.Handle("GET /metrics", metricsHandler)
	}

	s.registerPageRoutes()
	s.registerAPIRoutes()
	s.registerSitemapRoute()
	s.registerHealthRoute()
}

// ServeHTTP routes the request. The home page is registered on "/", which the mux also uses
// as the fallback for every unmatched GET; those requests get the not-found page instead.
func (s *Server) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	if _, pattern := s.mux.Handler(r); isRootPattern(pattern) && r.URL.Path != "/" {
		s.serveNotFound(w, r)
		return
	}
	s.mux.ServeHTTP(w, r)
}

func isRootPattern(pattern string) bool {
	return pattern == "/" || strings.HasSuffix(pattern, " /")
}

func (s *Server) serveNotFound(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	resp := s.renderErrorResponse(r.Context(), stdhttp.StatusNotFound, notFoundMessage)
	w.Header().Set("Content-Type", resp.ContentType)
	w.Header().Set("Cache-Control", resp.CacheControl)
	w.WriteHeader(resp.Status)
	if r.Method != stdhttp.MethodHead {
		_, _ = w.Write(resp.Body)
	}
}
