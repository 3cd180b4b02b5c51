package memstore

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"

	"guideco/app/internal/fixture"
)

// ReloadOn re-reads the fixture at path every time trigger fires and swaps it in. A fixture
// that fails to load is logged and the current snapshot keeps serving. It returns when ctx
// is done or trigger is closed.
func (s *Store) ReloadOn(ctx context.Context, trigger <-chan os.Signal, path string, logger *logrus.Logger) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	entry := logger.WithFields(logrus.Fields{"component": "memstore", "fixture": path})

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-trigger:
			if !ok {
				return
			}
		}

		f, err := fixture.LoadFile(path)
		if err != nil {
			entry.WithError(err).Error("fixture reload failed; keeping the current snapshot")
			continue
		}
		s.Replace(f)
		entry.WithField("articles", len(f.Articles)).Info("fixture reloaded")
	}
}
