package main

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"guideco/app/internal/config"
	"guideco/app/internal/content"
	appdb "guideco/app/internal/db"
	"guideco/app/internal/fixture"
	"guideco/app/internal/gormstore"
	apphttp "guideco/app/internal/http"
	applog "guideco/app/internal/log"
	"guideco/app/internal/memstore"
	"guideco/app/internal/metrics"
	"guideco/app/internal/sanity"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// backend is the content store selected by configuration.
type backend struct {
	executor content.Executor
	health   func(context.Context) error
	close    func()
}

func run(ctx context.Context) error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return eris.Wrap(err, "failure loading configuration")
	}

	logger, err := applog.NewLogger(cfg.LogLevel, os.Stdout)
	if err != nil {
		return eris.Wrap(err, "failure initialising logger")
	}

	sentryHub, flush, err := applog.InitSentry(logger, applog.SentrySettings{
		DSN:         cfg.SentryDSN,
		Environment: cfg.Environment,
		Backend:     string(cfg.Backend),
	})
	if err != nil {
		return eris.Wrap(err, "failure initialising sentry")
	}
	defer flush()

	store, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return eris.Wrapf(err, "opening %s content backend", cfg.Backend)
	}
	defer store.close()

	var neighborCache content.NeighborCache
	if cfg.NeighborCacheSize > 0 {
		neighborCache = content.NewNeighborCache(cfg.NeighborCacheSize, cfg.NeighborCacheTTL)
	}

	repository, err := content.NewRepository(content.Options{
		Executor:      metrics.Instrument(store.executor, string(cfg.Backend)),
		Logger:        logger,
		SentryHub:     sentryHub,
		QueryTimeout:  cfg.QueryTimeout,
		NeighborCache: neighborCache,
		ExcludeDrafts: cfg.ExcludeDrafts,
	})
	if err != nil {
		return eris.Wrap(err, "building content repository")
	}

	transport, err := apphttp.NewServer(apphttp.Options{
		Content:   repository,
		Health:    store.health,
		Metrics:   promhttp.Handler(),
		Logger:    logger,
		SentryHub: sentryHub,
		RateLimiter: apphttp.RateLimiterSettings{
			RequestsPerSecond: cfg.RateLimitPerSecond,
			Burst:             cfg.RateLimitBurst,
			ClientTTL:         cfg.RateLimitClientTTL,
		},
		Site: apphttp.SiteSettings{
			URL:             cfg.SiteURL,
			PostsPerPage:    cfg.PostsPerPage,
			HomePage:        cfg.PageNumber,
			PostsRevalidate: cfg.PostsRevalidate,
			TagsRevalidate:  cfg.TagsRevalidate,
		},
	})
	if err != nil {
		return eris.Wrap(err, "initialising http transport")
	}

	httpServer := &stdhttp.Server{
		Addr:    fmt.Sprintf("0.0.0.0:%d", cfg.ServerPort),
		Handler: transport.Handler(),
	}

	logger.WithFields(logrus.Fields{
		"addr":    httpServer.Addr,
		"backend": cfg.Backend,
	}).Info("starting http server")

	serverErrCh := make(chan error, 1)
	go func() {
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serverErrCh <- err
		} else {
			serverErrCh <- nil
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErrCh:
		if err != nil {
			return eris.Wrap(err, "http server error")
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return eris.Wrap(err, "shutting down http server")
	}

	logger.Info("http server shut down cleanly")
	return nil
}

func openBackend(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*backend, error) {
	switch cfg.Backend {
	case config.BackendSanity:
		client, err := sanity.NewClient(sanity.Options{
			ProjectID:  cfg.Sanity.ProjectID,
			Dataset:    cfg.Sanity.Dataset,
			APIVersion: cfg.Sanity.APIVersion,
			Token:      cfg.Sanity.Token,
			UseCDN:     cfg.Sanity.UseCDN,
			Logger:     logger,
		})
		if err != nil {
			return nil, err
		}
		executor, err := sanity.NewExecutor(client)
		if err != nil {
			return nil, err
		}
		return &backend{executor: executor, close: func() {}}, nil

	case config.BackendMemory:
		f, err := fixture.LoadFile(cfg.FixturesPath)
		if err != nil {
			return nil, err
		}
		logger.WithField("articles", len(f.Articles)).Info("serving content from fixture")

		store := memstore.New(f)
		hangup := make(chan os.Signal, 1)
		signal.Notify(hangup, syscall.SIGHUP)
		go store.ReloadOn(ctx, hangup, cfg.FixturesPath, logger)

		return &backend{executor: store, close: func() { signal.Stop(hangup) }}, nil

	default:
		dbConn, err := appdb.Open(appdb.Options{Path: cfg.DBPath, Logger: logger})
		if err != nil {
			return nil, eris.Wrap(err, "opening database")
		}
		closeDB := func() {
			if closeErr := appdb.Close(dbConn); closeErr != nil {
				logger.WithError(closeErr).Error("closing database")
			}
		}

		if err := gormstore.Migrate(ctx, dbConn, logger); err != nil {
			closeDB()
			return nil, eris.Wrap(err, "running migrations")
		}

		executor, err := gormstore.NewExecutor(dbConn, logger)
		if err != nil {
			closeDB()
			return nil, err
		}

		return &backend{
			executor: executor,
			health: func(ctx context.Context) error {
				return appdb.Ping(ctx, dbConn)
			},
			close: closeDB,
		}, nil
	}
}
