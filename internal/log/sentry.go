package log

import (
	"time"

	"github.com/getsentry/sentry-go"
	sentrylogrus "github.com/getsentry/sentry-go/logrus"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
)

const defaultFlushTimeout = 2 * time.Second

// reportedLevels are forwarded to Sentry by the logrus hook.
var reportedLevels = []logrus.Level{logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel}

// Clients hanging up mid-request cancel the content query; that is not worth an event.
var ignoredErrors = []string{"context canceled"}

// SentrySettings configures error reporting.
type SentrySettings struct {
	DSN         string
	Environment string
	Release     string
	// Backend tags every event with the content store in use.
	Backend string
	// FlushTimeout bounds how long the returned flush func waits; zero means two seconds.
	FlushTimeout time.Duration
}

// InitSentry creates a hub for settings and forwards error-level log entries of logger to it.
// Without a DSN it returns a nil hub and a no-op flush; a nil hub disables reporting.
func InitSentry(logger *logrus.Logger, settings SentrySettings) (*sentry.Hub, func(), error) {
	if settings.DSN == "" {
		return nil, func() {}, nil
	}
	if logger == nil {
		return nil, nil, eris.New("logger is required")
	}

	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:              settings.DSN,
		Environment:      settings.Environment,
		Release:          settings.Release,
		AttachStacktrace: true,
		IgnoreErrors:     ignoredErrors,
	})
	if err != nil {
		return nil, nil, eris.Wrap(err, "error initializing sentry client")
	}

	scope := sentry.NewScope()
	if settings.Backend != "" {
		scope.SetTag("content.backend", settings.Backend)
	}
	hub := sentry.NewHub(client, scope)

	logger.AddHook(sentrylogrus.NewLogHookFromClient(reportedLevels, client))

	timeout := settings.FlushTimeout
	if timeout <= 0 {
		timeout = defaultFlushTimeout
	}
	return hub, func() { hub.Flush(timeout) }, nil
}
