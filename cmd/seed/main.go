package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"guideco/app/internal/config"
	appdb "guideco/app/internal/db"
	"guideco/app/internal/fixture"
	"guideco/app/internal/gormstore"
	applog "guideco/app/internal/log"
)

var (
	dbPath string
	dryRun bool
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "seed <fixture.json>",
	Short: "Load a content fixture into the SQLite store",
	Long: `Load a content fixture into the SQLite store.

The schema is migrated first. Tags are matched by slug and articles by document ID, so
running the seed twice fails on the unique constraints instead of duplicating content.

Examples:
  # Check that a fixture decodes and every tag reference resolves
  seed --dry-run fixtures/blog.json

  # Seed the database named by DB_PATH
  seed fixtures/blog.json`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runSeed,
}

func init() {
	rootCmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (defaults to DB_PATH)")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate the fixture without writing")
}

func runSeed(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return eris.Wrap(err, "failure loading configuration")
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}

	logger, err := applog.NewLogger(cfg.LogLevel, os.Stderr)
	if err != nil {
		return eris.Wrap(err, "failure initialising logger")
	}

	f, err := fixture.LoadFile(args[0])
	if err != nil {
		return err
	}

	fields := logrus.Fields{
		"fixture":  args[0],
		"articles": len(f.Articles),
		"tags":     len(f.Tags),
	}
	if dryRun {
		logger.WithFields(fields).Info("fixture is valid")
		return nil
	}

	ctx := cmd.Context()

	dbConn, err := appdb.Open(appdb.Options{Path: cfg.DBPath, Logger: logger})
	if err != nil {
		return eris.Wrap(err, "opening database")
	}
	defer func() {
		if closeErr := appdb.Close(dbConn); closeErr != nil {
			logger.WithError(closeErr).Error("closing database")
		}
	}()

	if err := gormstore.Migrate(ctx, dbConn, logger); err != nil {
		return eris.Wrap(err, "running migrations")
	}

	if err := gormstore.Seed(ctx, dbConn, f); err != nil {
		return eris.Wrap(err, "seeding database")
	}

	logger.WithFields(fields).WithField("db_path", cfg.DBPath).Info("fixture seeded")
	return nil
}
