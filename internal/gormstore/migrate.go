package gormstore

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// schema lists the content tables in dependency order.
var schema = []any{&AuthorRecord{}, &TagRecord{}, &ArticleRecord{}}

const articleTagsTable = "article_tags"

// Migrate creates or updates the content tables. The article_tags join table is
// created implicitly by the many2many association and verified afterwards.
func Migrate(ctx context.Context, db *gorm.DB, logger *logrus.Logger) error {
	if db == nil {
		return eris.New("gorm DB is required")
	}

	entry := migrationLog(logger)
	entry.WithField("tables", len(schema)).Info("migrating content schema")

	tx := db.WithContext(ctx)
	for _, record := range schema {
		if err := tx.AutoMigrate(record); err != nil {
			entry.WithError(err).Errorf("migrating %T failed", record)
			return eris.Wrapf(err, "auto migrating %T", record)
		}
	}

	if !tx.Migrator().HasTable(articleTagsTable) {
		return eris.Errorf("content schema is missing the %s join table", articleTagsTable)
	}

	entry.Debug("content schema ready")
	return nil
}

func migrationLog(logger *logrus.Logger) *logrus.Entry {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return logger.WithField("component", "gormstore.migrate")
}
