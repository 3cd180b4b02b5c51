package gormstore

import (
	"context"
	"path/filepath"
	"testing"

	"guideco/app/internal/db"
)

func TestMigrateCreatesContentTables(t *testing.T) {
	t.Parallel()

	if err := Migrate(context.Background(), nil, silentLogger()); err == nil {
		t.Fatalf("expected error when database is nil")
	}

	database, err := db.Open(db.Options{Path: filepath.Join(t.TempDir(), "schema.db"), Logger: silentLogger()})
	if err != nil {
		t.Fatalf("db.Open returned error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close(database) })

	// Running twice must leave the schema unchanged.
	for range 2 {
		if err := Migrate(context.Background(), database, silentLogger()); err != nil {
			t.Fatalf("Migrate returned error: %v", err)
		}
	}

	for _, table := range []string{"articles", "tags", "authors", articleTagsTable} {
		if !database.Migrator().HasTable(table) {
			t.Errorf("expected table %s to exist", table)
		}
	}
	if !database.Migrator().HasIndex(&ArticleRecord{}, "idx_articles_published_at") {
		t.Errorf("expected the published_at index to exist")
	}
}
