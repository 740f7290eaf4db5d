// Package logging builds the logrus logger shared by the binaries.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New returns a logger at the given level. Lambda functions log JSON so that
// CloudWatch can index fields; the dev server and CLI log text.
func New(level string, json bool) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	if json {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		l.WithField("level", level).Warn("unknown log level, using info")
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)
	return l
}
