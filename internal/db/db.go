// Package db opens the SQLite content database.
package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	defaultBusyTimeout   = 5 * time.Second
	defaultSlowThreshold = 200 * time.Millisecond
)

// Options controls how the SQLite database connection is initialised.
type Options struct {
	Path          string
	Logger        *logrus.Logger
	SlowThreshold time.Duration
	BusyTimeout   time.Duration
	MaxOpenConns  int
	MaxIdleConns  int
	ConnMaxIdle   time.Duration
	ConnMaxLife   time.Duration
}

// Open establishes a SQLite connection using Gorm. Gorm's own log output is routed through
// the given logrus logger at warn level so slow queries surface next to request logs.
func Open(opts Options) (*gorm.DB, error) {
	if strings.TrimSpace(opts.Path) == "" {
		return nil, eris.New("database path is required")
	}

	if opts.BusyTimeout <= 0 {
		opts.BusyTimeout = defaultBusyTimeout
	}
	if opts.SlowThreshold <= 0 {
		opts.SlowThreshold = defaultSlowThreshold
	}

	db, err := gorm.Open(sqlite.Open(dsn(opts.Path, opts.BusyTimeout)), &gorm.Config{Logger: gormLogger(opts)})
	if err != nil {
		return nil, eris.Wrapf(err, "opening sqlite database %s", opts.Path)
	}

	if err := applyConnectionSettings(db, opts); err != nil {
		return nil, err
	}

	if err := enforcePragmas(db, opts.BusyTimeout); err != nil {
		return nil, err
	}

	return db, nil
}

func dsn(path string, busyTimeout time.Duration) string {
	millis := busyTimeout / time.Millisecond
	if path == ":memory:" {
		// Every pooled connection to a plain :memory: DSN gets its own empty database.
		return fmt.Sprintf("file::memory:?cache=shared&_busy_timeout=%d&_foreign_keys=1", millis)
	}
	return fmt.Sprintf("file:%s?_busy_timeout=%d&_foreign_keys=1&_journal_mode=WAL", path, millis)
}

func gormLogger(opts Options) logger.Interface {
	if opts.Logger == nil {
		return logger.Default.LogMode(logger.Warn)
	}

	return logger.New(
		opts.Logger.WithField("component", "gorm"),
		logger.Config{
			SlowThreshold:             opts.SlowThreshold,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)
}

func applyConnectionSettings(db *gorm.DB, opts Options) error {
	sqlDB, err := db.DB()
	if err != nil {
		return eris.Wrap(err, "retrieving sql.DB from gorm")
	}

	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}

	if opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}

	if opts.ConnMaxIdle > 0 {
		sqlDB.SetConnMaxIdleTime(opts.ConnMaxIdle)
	}

	if opts.ConnMaxLife > 0 {
		sqlDB.SetConnMaxLifetime(opts.ConnMaxLife)
	}

	return nil
}

func enforcePragmas(db *gorm.DB, busyTimeout time.Duration) error {
	if err := db.Exec("PRAGMA foreign_keys = ON;").Error; err != nil {
		return eris.Wrap(err, "enabling foreign keys pragma")
	}

	if err := db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d;", int(busyTimeout/time.Millisecond))).Error; err != nil {
		return eris.Wrap(err, "configuring busy timeout pragma")
	}

	return nil
}

// Ping checks that the database still answers. The health endpoint uses it.
func Ping(ctx context.Context, db *gorm.DB) error {
	if db == nil {
		return eris.New("gorm DB is nil")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return eris.Wrap(err, "retrieving sql.DB for ping")
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return eris.Wrap(err, "pinging database")
	}

	return nil
}

// Close releases the underlying database resources.
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return eris.Wrap(err, "retrieving sql.DB for close")
	}

	if err := sqlDB.Close(); err != nil {
		return eris.Wrap(err, "closing database connection")
	}

	return nil
}
