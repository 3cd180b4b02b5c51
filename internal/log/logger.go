// Package log builds the process logger and connects it to Sentry.
package log

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
)

// NewLogger returns a JSON logger writing to out, or stdout when out is nil. An empty level
// selects info.
func NewLogger(level string, out io.Writer) (*logrus.Logger, error) {
	parsed := logrus.InfoLevel
	if name := strings.ToLower(strings.TrimSpace(level)); name != "" {
		var err error
		if parsed, err = logrus.ParseLevel(name); err != nil {
			return nil, eris.Wrapf(err, "invalid log level: %s", level)
		}
	}

	if out == nil {
		out = os.Stdout
	}

	return &logrus.Logger{
		Out: out,
		Formatter: &logrus.JSONFormatter{
			TimestampFormat:   time.RFC3339Nano,
			DisableHTMLEscape: true,
			FieldMap:          logrus.FieldMap{logrus.FieldKeyMsg: "message"},
		},
		Hooks:    make(logrus.LevelHooks),
		Level:    parsed,
		ExitFunc: os.Exit,
	}, nil
}
