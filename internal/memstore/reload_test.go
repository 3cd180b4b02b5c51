package memstore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"guideco/app/internal/content"
)

func TestReloadOnSwapsFixtureFromDisk(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "fixture.json")
	writeFixture(t, path, `{"articles":[{"slug":"a","title":"A","publishedAt":"2024-01-01T00:00:00Z"}]}`)

	store := New(sample())
	trigger := make(chan os.Signal)
	done := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		store.ReloadOn(ctx, trigger, path, silentLogger())
		close(done)
	}()

	trigger <- syscall.SIGHUP
	waitForCount(t, store, 1)

	// A broken file leaves the last good snapshot in place. The second send only completes
	// once the first reload attempt has finished.
	writeFixture(t, path, `{"articles": [`)
	trigger <- syscall.SIGHUP
	trigger <- syscall.SIGHUP
	waitForCount(t, store, 1)

	writeFixture(t, path, `{"articles":[
		{"slug":"a","title":"A","publishedAt":"2024-01-01T00:00:00Z"},
		{"slug":"b","title":"B","publishedAt":"2024-01-02T00:00:00Z"}]}`)
	trigger <- syscall.SIGHUP
	waitForCount(t, store, 2)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("expected ReloadOn to return after cancellation")
	}
}

func writeFixture(t *testing.T, path, body string) {
	t.Helper()

	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
}

func waitForCount(t *testing.T, store *Store, want int) {
	t.Helper()

	q, err := content.Articles().Build()
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		count, err := store.CountArticles(context.Background(), q)
		if err != nil {
			t.Fatalf("CountArticles returned error: %v", err)
		}
		if count == want {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected %d articles after reload, still have %d", want, count)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func silentLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
